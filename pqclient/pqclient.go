// Package pqclient implements the "Remote database client" collaborator
// named in spec.md §1 against github.com/lib/pq: it opens connections,
// executes a SQL string, and exposes the host/port/database identity and
// status the coordinator's log format requires.
package pqclient

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ruichu233/tpcgo/component"
	"github.com/ruichu233/tpcgo/internal/txnerrors"
)

// CredentialFunc supplies the connection parameters (user, password,
// sslmode, and so on) for a host/port/database triple. The coordinator's
// log never stores credentials — only postgresql://host:port/db — so
// reopening a connection during recovery needs a side-channel back to
// whatever secret store or config the deployment uses.
type CredentialFunc func(host, port, database string) (dsnExtra string, err error)

// Options configures a Dialer.
type Options struct {
	Credentials    CredentialFunc
	ConnectTimeout time.Duration
}

// Option mutates Options, matching the functional-option style used
// throughout this module (see coordinator.Option).
type Option func(*Options)

// WithCredentials sets how the Dialer resolves connection parameters.
func WithCredentials(f CredentialFunc) Option {
	return func(o *Options) { o.Credentials = f }
}

// WithConnectTimeout bounds how long Broken waits for its ping.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}

func repair(o *Options) {
	if o.Credentials == nil {
		o.Credentials = func(string, string, string) (string, error) { return "sslmode=disable", nil }
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
}

// Dialer reopens component.RemoteConn handles from a postgresql:// URL.
// Its Dial method has the shape txnset.Dialer expects.
type Dialer struct {
	opts *Options
}

// NewDialer builds a Dialer from the given options.
func NewDialer(opts ...Option) *Dialer {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	repair(o)
	return &Dialer{opts: o}
}

// Dial opens a connection to the postgresql://host:port/db URL. Following
// lib/pq and database/sql convention, sql.Open never actually dials the
// network — it is lazy, mirroring the original's PQconnectdb semantics —
// so failures here are limited to URL parsing, credential resolution, and
// malformed DSNs.
func (d *Dialer) Dial(url string) (component.RemoteConn, error) {
	host, port, db, err := parseURL(url)
	if err != nil {
		return nil, err
	}
	return d.dialParsed(host, port, db)
}

func (d *Dialer) dialParsed(host, port, db string) (component.RemoteConn, error) {
	extra, err := d.opts.Credentials(host, port, db)
	if err != nil {
		return nil, txnerrors.Internalf("could not resolve credentials for "+host+":"+port+"/"+db, err)
	}
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s %s", host, port, db, extra)
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, txnerrors.Internalf("could not open connection to "+host+":"+port+"/"+db, err)
	}
	return &Conn{db: sqldb, host: host, port: port, database: db, dsn: dsn, timeout: d.opts.ConnectTimeout}, nil
}

// Conn is a pqclient connection handle: component.RemoteConn backed by a
// *sql.DB against github.com/lib/pq.
type Conn struct {
	db       *sql.DB
	host     string
	port     string
	database string
	dsn      string
	timeout  time.Duration
}

// Exec runs query against the remote session.
func (c *Conn) Exec(ctx context.Context, query string) error {
	_, err := c.db.ExecContext(ctx, query)
	return err
}

// Host returns the remote host.
func (c *Conn) Host() string { return c.host }

// Port returns the remote port.
func (c *Conn) Port() string { return c.port }

// Database returns the remote database name.
func (c *Conn) Database() string { return c.database }

// Broken reports whether the connection currently fails a ping — the
// equivalent of the original's "PQstatus(cnx) == CONNECTION_BAD" check.
func (c *Conn) Broken() bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.db.PingContext(ctx) != nil
}

// Reset closes and reopens the underlying *sql.DB in place.
func (c *Conn) Reset(ctx context.Context) error {
	_ = c.db.Close()
	sqldb, err := sql.Open("postgres", c.dsn)
	if err != nil {
		return txnerrors.Internalf("could not reset connection to "+c.host+":"+c.port+"/"+c.database, err)
	}
	c.db = sqldb
	return nil
}

// Close releases the connection.
func (c *Conn) Close() error { return c.db.Close() }

// Query runs query and returns its rows. component.RemoteConn does not
// require this method, and it is not part of the Prober interface below:
// recovery probes pg_prepared_xacts through HasRows instead.
func (c *Conn) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query)
}

// Prober is implemented by connections that can run a probe query and
// report whether it returned any rows, without the caller needing a
// *sql.Rows of its own to manage. recovery uses this to decide whether a
// prepared transaction is still outstanding on the remote.
type Prober interface {
	HasRows(ctx context.Context, query string) (bool, error)
}

// HasRows runs query and reports whether it returned at least one row.
func (c *Conn) HasRows(ctx context.Context, query string) (bool, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

var _ component.RemoteConn = (*Conn)(nil)
var _ Prober = (*Conn)(nil)

func parseURL(url string) (host, port, db string, err error) {
	const prefix = "postgresql://"
	if !strings.HasPrefix(url, prefix) {
		return "", "", "", txnerrors.Invalid("not a postgresql:// connection string: " + url)
	}
	rest := strings.TrimPrefix(url, prefix)
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return "", "", "", txnerrors.Invalid("connection string missing database: " + url)
	}
	hostport := rest[:slash]
	db = rest[slash+1:]
	colon := strings.LastIndexByte(hostport, ':')
	if colon < 0 {
		return "", "", "", txnerrors.Invalid("connection string missing port: " + url)
	}
	host = hostport[:colon]
	port = hostport[colon+1:]
	if _, err := strconv.Atoi(port); err != nil {
		return "", "", "", txnerrors.Invalid("connection string has a non-numeric port: " + url)
	}
	if host == "" || db == "" {
		return "", "", "", txnerrors.Invalid("connection string missing host or database: " + url)
	}
	return host, port, db, nil
}
