package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestPIDFileClaimAndRelease(t *testing.T) {
	p := PIDFile(filepath.Join(t.TempDir(), "run", "daemon.pid"))
	st := RuntimeState{
		PID:        os.Getpid(),
		Addr:       "127.0.0.1:9999",
		StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		DBPath:     "/tmp/wallet.db",
		StorageKey: "smartsaver_cards",
		Catalog:    "embedded",
	}

	if err := p.Claim(st); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	pid, err := p.ReadPID()
	if err != nil || pid != os.Getpid() {
		t.Fatalf("ReadPID = %d, %v", pid, err)
	}
	got, err := p.ReadState()
	if err != nil {
		t.Fatalf("ReadState: %v", err)
	}
	if got.StorageKey != st.StorageKey || got.Catalog != st.Catalog || !got.StartedAt.Equal(st.StartedAt) {
		t.Fatalf("state = %+v", got)
	}

	// This test process is alive, so a second claim must fail
	if err := p.Claim(st); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Claim err = %v, want ErrAlreadyRunning", err)
	}

	p.Release()
	if _, err := os.Stat(string(p)); !os.IsNotExist(err) {
		t.Fatal("pid file left behind")
	}
	if _, err := os.Stat(p.StatePath()); !os.IsNotExist(err) {
		t.Fatal("state file left behind")
	}
}

func TestPIDFileStaleIsCleared(t *testing.T) {
	p := PIDFile(filepath.Join(t.TempDir(), "daemon.pid"))
	if err := p.CheckFree(); err != nil {
		t.Fatalf("missing pid file: %v", err)
	}

	// pid max on Linux is well below this
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(1<<30)+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := p.CheckFree(); err != nil {
		t.Fatalf("stale pid: %v", err)
	}
	if _, err := os.Stat(string(p)); !os.IsNotExist(err) {
		t.Fatal("stale pid file not removed")
	}
}

func TestPIDFileInvalid(t *testing.T) {
	p := PIDFile(filepath.Join(t.TempDir(), "daemon.pid"))
	if err := os.WriteFile(string(p), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ReadPID(); err == nil {
		t.Fatal("garbage pid should not parse")
	}
	if err := p.CheckFree(); err == nil {
		t.Fatal("CheckFree should report an unreadable pid file")
	}
}
