package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning is returned when the pid file names a live process.
var ErrAlreadyRunning = errors.New("daemon already running")

// RuntimeState is written beside the pid file while the daemon runs, so
// `daemon status` can find the API and say which wallet it serves.
type RuntimeState struct {
	PID        int       `json:"pid"`
	Addr       string    `json:"addr"`
	StartedAt  time.Time `json:"started_at"`
	DBPath     string    `json:"db_path"`
	StorageKey string    `json:"storage_key"`
	Catalog    string    `json:"catalog"`
}

// PIDFile is the path of the daemon pid file. The state file lives at the
// same path plus ".json".
type PIDFile string

// StatePath returns the runtime state file path.
func (p PIDFile) StatePath() string { return string(p) + ".json" }

// CheckFree returns ErrAlreadyRunning if a live daemon owns the pid file.
// A stale pid file is removed.
func (p PIDFile) CheckFree() error {
	pid, err := p.ReadPID()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if ProcessAlive(pid) {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	p.Release()
	return nil
}

// Claim records st as the running daemon. It fails if another live daemon
// holds the pid file.
func (p PIDFile) Claim(st RuntimeState) error {
	if err := p.CheckFree(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.StatePath(), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Release removes the pid and state files.
func (p PIDFile) Release() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.StatePath())
}

// ReadPID returns the pid recorded in the file.
func (p PIDFile) ReadPID() (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p)
	}
	return pid, nil
}

// ReadState returns the recorded runtime state.
func (p PIDFile) ReadState() (RuntimeState, error) {
	var st RuntimeState
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(p.StatePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// ProcessAlive reports whether pid names a live process.
func ProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
