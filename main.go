package main

import "github.com/theirongolddev/smartsaver/cmd"

func main() {
	cmd.Execute()
}
