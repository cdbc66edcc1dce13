package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestAcquirePIDLockWritesPID(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "pushbridge.db.lock")
	l, err := AcquirePIDLock(lockPath)
	if err != nil {
		t.Fatalf("AcquirePIDLock: %v", err)
	}
	t.Cleanup(func() { _ = l.Release() })

	b, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.TrimSpace(string(b)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("lock file = %q, want pid %d", b, os.Getpid())
	}
}

func TestAcquirePIDLockTwiceFails(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "pushbridge.db.lock")
	l, err := AcquirePIDLock(lockPath)
	if err != nil {
		t.Fatalf("AcquirePIDLock: %v", err)
	}
	t.Cleanup(func() { _ = l.Release() })

	// flock locks belong to the open file description, so a second open conflicts.
	if _, err := AcquirePIDLock(lockPath); !errors.Is(err, ErrLocked) {
		t.Fatalf("second AcquirePIDLock err = %v, want ErrLocked", err)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "pushbridge.db.lock")

	pid, held, err := Status(lockPath)
	if err != nil || held || pid != 0 {
		t.Fatalf("Status(missing) = %d, %v, %v", pid, held, err)
	}

	l, err := AcquirePIDLock(lockPath)
	if err != nil {
		t.Fatalf("AcquirePIDLock: %v", err)
	}

	pid, held, err = Status(lockPath)
	if err != nil || !held || pid != os.Getpid() {
		t.Fatalf("Status(held) = %d, %v, %v", pid, held, err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	pid, held, err = Status(lockPath)
	if err != nil || held || pid != os.Getpid() {
		t.Fatalf("Status(released) = %d, %v, %v", pid, held, err)
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor("/var/lib/pushbridge.db"); got != "/var/lib/pushbridge.db.lock" {
		t.Fatalf("PathFor = %q", got)
	}
}
