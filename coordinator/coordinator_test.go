package coordinator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ruichu233/tpcgo/coordinator"
	"github.com/ruichu233/tpcgo/txnstore"
)

type fakeConn struct {
	host, port, db string
	failExec       bool
}

func (c *fakeConn) Exec(_ context.Context, query string) error {
	if c.failExec {
		return errors.New("remote rejected: " + query)
	}
	return nil
}
func (c *fakeConn) Host() string                  { return c.host }
func (c *fakeConn) Port() string                  { return c.port }
func (c *fakeConn) Database() string              { return c.db }
func (c *fakeConn) Broken() bool                  { return false }
func (c *fakeConn) Reset(_ context.Context) error { return nil }
func (c *fakeConn) Close() error                  { return nil }

type fakeLauncher struct {
	mu       sync.Mutex
	launched []string
}

func (l *fakeLauncher) Launch(logPath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launched = append(l.launched, logPath)
	return nil
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

func TestHappyCommitTwoMembers(t *testing.T) {
	store := txnstore.New(t.TempDir())
	launcher := &fakeLauncher{}
	c := coordinator.New(store, launcher)
	ctx := context.Background()

	a := &fakeConn{host: "remote-a", port: "5432", db: "db1"}
	b := &fakeConn{host: "remote-b", port: "5432", db: "db2"}

	if err := c.Register(ctx, a); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if err := c.Register(ctx, b); err != nil {
		t.Fatalf("Register b: %v", err)
	}
	if !c.HasActiveSet() {
		t.Fatal("expected an active set after registration")
	}

	if err := c.DriveToCommit(ctx); err != nil {
		t.Fatalf("DriveToCommit: %v", err)
	}

	if launcher.count() != 0 {
		t.Fatalf("expected no recovery launch on a clean commit, got %d", launcher.count())
	}
	paths, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected log file removed on COMPLETE, found %v", paths)
	}
}

func TestAbortMidRegistrationDrivesRollback(t *testing.T) {
	store := txnstore.New(t.TempDir())
	launcher := &fakeLauncher{}
	c := coordinator.New(store, launcher)
	ctx := context.Background()

	a := &fakeConn{host: "remote-a", port: "5432", db: "db1"}
	b := &fakeConn{host: "remote-b", port: "5432", db: "db2"}
	failing := &fakeConn{host: "remote-c", port: "5432", db: "db3", failExec: true}

	if err := c.Register(ctx, a); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if err := c.Register(ctx, b); err != nil {
		t.Fatalf("Register b: %v", err)
	}
	if err := c.Register(ctx, failing); err == nil {
		t.Fatal("expected Register to fail for a member whose PREPARE is rejected")
	}

	if err := c.DriveToRollback(ctx); err != nil {
		t.Fatalf("DriveToRollback: %v", err)
	}
	if launcher.count() != 0 {
		t.Fatalf("expected no recovery launch on a clean rollback, got %d", launcher.count())
	}
}

func TestDriveToCommitWithFailedMemberLaunchesRecovery(t *testing.T) {
	store := txnstore.New(t.TempDir())
	launcher := &fakeLauncher{}
	c := coordinator.New(store, launcher)
	ctx := context.Background()

	a := &fakeConn{host: "remote-a", port: "5432", db: "db1"}
	if err := c.Register(ctx, a); err != nil {
		t.Fatalf("Register: %v", err)
	}

	a.failExec = true
	if err := c.DriveToCommit(ctx); err != nil {
		t.Fatalf("DriveToCommit: %v", err)
	}

	if launcher.count() != 1 {
		t.Fatalf("expected recovery launch after a member failed COMMIT PREPARED, got %d", launcher.count())
	}
	paths, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected the INCOMPLETE set file to remain on disk, found %v", paths)
	}
	if !strings.Contains(launcher.launched[0], paths[0]) {
		t.Fatalf("launcher path %q does not match remaining file %q", launcher.launched[0], paths[0])
	}
}

func TestDriveToCommitWithoutActiveSetFails(t *testing.T) {
	store := txnstore.New(t.TempDir())
	c := coordinator.New(store, &fakeLauncher{})
	if err := c.DriveToCommit(context.Background()); err == nil {
		t.Fatal("expected error driving to commit with no active set")
	}
}
