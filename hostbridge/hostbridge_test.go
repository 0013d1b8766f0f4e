package hostbridge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ruichu233/tpcgo/component"
	"github.com/ruichu233/tpcgo/coordinator"
	"github.com/ruichu233/tpcgo/hostbridge"
	"github.com/ruichu233/tpcgo/internal/txnerrors"
	"github.com/ruichu233/tpcgo/txnstore"
)

type fakeConn struct{ host, port, db string }

func (c *fakeConn) Exec(_ context.Context, _ string) error { return nil }
func (c *fakeConn) Host() string                           { return c.host }
func (c *fakeConn) Port() string                           { return c.port }
func (c *fakeConn) Database() string                       { return c.db }
func (c *fakeConn) Broken() bool                           { return false }
func (c *fakeConn) Reset(_ context.Context) error          { return nil }
func (c *fakeConn) Close() error                           { return nil }

var _ component.RemoteConn = (*fakeConn)(nil)

type noopLauncher struct{}

func (noopLauncher) Launch(string) error { return nil }

func TestPreCommitDrivesAndCleansUp(t *testing.T) {
	store := txnstore.New(t.TempDir())
	c := coordinator.New(store, noopLauncher{})
	b := hostbridge.New(c)
	ctx := context.Background()

	if err := c.Register(ctx, &fakeConn{host: "remote-a", port: "5432", db: "db1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := b.Handle(ctx, hostbridge.PreCommit); err != nil {
		t.Fatalf("Handle(PreCommit): %v", err)
	}
	if c.HasActiveSet() {
		t.Fatal("expected Cleanup to clear the active set")
	}
}

func TestAbortDrivesRollback(t *testing.T) {
	store := txnstore.New(t.TempDir())
	c := coordinator.New(store, noopLauncher{})
	b := hostbridge.New(c)
	ctx := context.Background()

	if err := c.Register(ctx, &fakeConn{host: "remote-a", port: "5432", db: "db1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := b.Handle(ctx, hostbridge.Abort); err != nil {
		t.Fatalf("Handle(Abort): %v", err)
	}
	if c.HasActiveSet() {
		t.Fatal("expected Cleanup to clear the active set")
	}
}

func TestPrepareEventRejected(t *testing.T) {
	store := txnstore.New(t.TempDir())
	c := coordinator.New(store, noopLauncher{})
	b := hostbridge.New(c)

	err := b.Handle(context.Background(), hostbridge.Prepare)
	if !errors.Is(err, txnerrors.NotSupported("")) {
		t.Fatalf("expected FeatureNotSupported, got %v", err)
	}
}

func TestOtherEventIgnored(t *testing.T) {
	store := txnstore.New(t.TempDir())
	c := coordinator.New(store, noopLauncher{})
	b := hostbridge.New(c)
	if err := b.Handle(context.Background(), hostbridge.Other); err != nil {
		t.Fatalf("Handle(Other): %v", err)
	}
}

func TestHandleWithNoActiveSetIsNoop(t *testing.T) {
	store := txnstore.New(t.TempDir())
	c := coordinator.New(store, noopLauncher{})
	b := hostbridge.New(c)
	if err := b.Handle(context.Background(), hostbridge.PreCommit); err != nil {
		t.Fatalf("Handle(PreCommit) with no active set: %v", err)
	}
}
