// Package component defines the contract a remote database client must
// satisfy to participate in a transaction set. It names the collaborator
// described in spec.md §1 ("Remote database client") without depending on
// any particular driver — pqclient implements it against lib/pq, and tests
// implement it against an in-memory fake.
package component

import "context"

// RemoteConn is one remote session's connection handle: it can execute a
// SQL string, report its own identity and health, and be reset after a
// broken connection is detected.
type RemoteConn interface {
	// Exec runs query against the remote session and reports whether the
	// remote accepted it.
	Exec(ctx context.Context, query string) error
	// Host, Port, and Database identify the remote endpoint; together
	// they form the postgresql://host:port/database URL recorded in the
	// log.
	Host() string
	Port() string
	Database() string
	// Broken reports whether the connection is known to be unusable
	// (the PQstatus(...) == CONNECTION_BAD check in the original).
	Broken() bool
	// Reset reopens the connection in place after Broken reports true.
	Reset(ctx context.Context) error
	// Close releases the connection. The coordinator's live phases never
	// call this — connections are owned by the caller until cleanup; the
	// recovery worker calls it once a member resolves.
	Close() error
}

// URL renders the postgresql://host:port/database form recorded in action
// lines (§3, §4.2).
func URL(c RemoteConn) string {
	return "postgresql://" + c.Host() + ":" + c.Port() + "/" + c.Database()
}
