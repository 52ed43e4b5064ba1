package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/smartsaver/internal/cli"
	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/daemon"
	"github.com/theirongolddev/smartsaver/internal/store"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve the wallet read-only over local HTTP and report benefit changes",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon and per-card remaining credit",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", config.PIDPath(), "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", filepath.Join(config.DataDir(), "daemon.log"), "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	if flagDaemonDetach {
		return startDaemonDetached()
	}
	return runDaemonForeground()
}

func pidFile() daemon.PIDFile { return daemon.PIDFile(flagDaemonPIDFile) }

// startDaemonDetached re-executes the current binary with --child and its
// output sent to the log file.
func startDaemonDetached() error {
	if err := pidFile().CheckFree(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := append(filterDetachArg(os.Args[1:]), "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d) for %s\n", child.Process.Pid, dbPath())
	fmt.Printf("  API: http://%s/v1/cards\n", daemonAddr())
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return appCfg.Daemon.Addr
}

func daemonInterval() time.Duration {
	if flagDaemonInterval > 0 {
		return flagDaemonInterval
	}
	return time.Duration(appCfg.Daemon.IntervalSec) * time.Second
}

// storeLoader reads the wallet through a fresh store handle on every poll.
func storeLoader() daemon.LoadFunc {
	return daemon.StoreLoader(func() (wallet.Repository, io.Closer, error) {
		s, repo, err := openStore()
		if err != nil {
			return nil, nil, err
		}
		return repo, s, nil
	})
}

func storageKey() string {
	return store.NewCardRepository(nil, appCfg.General.StorageKey).Key()
}

func runDaemonForeground() error {
	state := daemon.RuntimeState{
		PID:        os.Getpid(),
		Addr:       daemonAddr(),
		StartedAt:  time.Now(),
		DBPath:     dbPath(),
		StorageKey: storageKey(),
		Catalog:    catalogSource().Describe(),
	}
	if err := pidFile().Claim(state); err != nil {
		return err
	}
	defer pidFile().Release()

	svc := daemon.New(daemon.Config{
		Load:         storeLoader(),
		DBPath:       state.DBPath,
		StorageKey:   state.StorageKey,
		Catalog:      state.Catalog,
		Interval:     daemonInterval(),
		Addr:         state.Addr,
		EventsBuffer: flagDaemonEventsBuffer,
	})

	fmt.Printf("  smartsaver daemon listening on http://%s\n", state.Addr)
	fmt.Printf("  Watching %s (key %s) every %s\n", state.DBPath, state.StorageKey, daemonInterval())
	fmt.Printf("  Stop with: smartsaver daemon stop --pid-file %s\n", flagDaemonPIDFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	pid, err := pidFile().ReadPID()
	if err != nil {
		fmt.Println("  Daemon: not running (pid file not found)")
		return nil
	}
	if !daemon.ProcessAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := daemonAddr()
	state, err := pidFile().ReadState()
	if err == nil && state.Addr != "" {
		addr = state.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address:    http://%s\n", addr)
	if err == nil {
		fmt.Printf("  Started:    %s\n", state.StartedAt.Local().Format(time.RFC3339))
		fmt.Printf("  Database:   %s (key %s)\n", state.DBPath, state.StorageKey)
		fmt.Printf("  Catalog:    %s\n", state.Catalog)
	}

	client := daemon.NewClient(addr)
	st, err := client.Status(cmd.Context())
	if err != nil {
		fmt.Printf("  API: unreachable (%v)\n", err)
		return nil
	}
	printDaemonStatus(st)

	rows, err := client.Cards(cmd.Context())
	if err != nil {
		fmt.Printf("  Cards: %v\n", err)
		return nil
	}
	printDaemonCards(rows)
	return nil
}

func printDaemonStatus(st daemon.Status) {
	if st.LastPollAt.IsZero() {
		fmt.Println("  Last poll:  pending")
	} else {
		fmt.Printf("  Last poll:  %s (%d polls)\n", st.LastPollAt.Local().Format(time.RFC3339), st.PollCount)
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	fmt.Printf("  Remaining:  $%s of $%s across %d benefits\n",
		cli.FormatAmount(st.Summary.RemainingUSD), cli.FormatAmount(st.Summary.LimitUSD), st.Summary.Benefits)
	fmt.Println()
}

func printDaemonCards(rows []daemon.CardSummary) {
	if len(rows) == 0 {
		fmt.Println("  No cards in the wallet.")
		return
	}
	table := cli.Table{
		Title:    "Remaining by card",
		Headers:  []string{"Card", "Bank", "Benefits", "Remaining", "Limit"},
		LeftCols: 2,
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, []string{
			r.Name,
			r.Bank,
			strconv.Itoa(r.Benefits),
			"$" + cli.FormatAmount(r.RemainingUSD),
			"$" + cli.FormatAmount(r.LimitUSD),
		})
	}
	fmt.Print(cli.RenderTable(table))
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pid, err := pidFile().ReadPID()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !daemon.ProcessAlive(pid) {
			pidFile().Release()
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}
