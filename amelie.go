// Package amelie is a client for SQL servers that take one literal statement
// per HTTP request and answer with rows as JSON. Statements are built from a
// template and native Go values, sent in a single round trip, and their
// results are buffered on a Cursor for FetchOne, FetchMany and FetchAll.
//
// The package also registers a database/sql driver named "amelie", and
// provides Service, which serves the same protocol from any database/sql
// database. `cmd/sqlite3server` exposes SQLite3 this way.
package amelie

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultHost = "http://localhost:3485"

type Config struct {
	// Host is the server URL. Defaults to DefaultHost.
	Host string
	// Timeout bounds each round trip when HTTPClient isn't given. Zero means
	// no timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	// Transport replaces the HTTP transport entirely.
	Transport Transport
	// Logger receives debug events. Statement text is never logged, since it
	// carries the inlined parameter values.
	Logger *slog.Logger
}

// Conn holds the endpoint and closed state shared by its cursors.
type Conn struct {
	mu        sync.Mutex
	host      string
	closed    atomic.Bool
	transport Transport
	logger    *slog.Logger
}

func Connect(host string) (*Conn, error) {
	return Open(Config{Host: host})
}

func Open(cfg Config) (ret *Conn, err error) {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	transport := cfg.Transport
	if transport == nil {
		client := cfg.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: cfg.Timeout}
		}
		transport = &HTTPTransport{Client: client, Logger: logger}
	}
	ret = &Conn{
		host:      host,
		transport: transport,
		logger:    logger,
	}
	return
}

// Host returns the endpoint the next statement will be sent to.
func (me *Conn) Host() string {
	me.mu.Lock()
	defer me.mu.Unlock()
	return me.host
}

// SetHost changes the endpoint. It applies from the next execute on any
// cursor, without reconnecting.
func (me *Conn) SetHost(host string) {
	me.mu.Lock()
	defer me.mu.Unlock()
	me.host = host
}

func (me *Conn) Closed() bool {
	return me.closed.Load()
}

// Close marks the connection closed. Cursors keep their buffered rows, but
// can't execute anything further. Closing again does nothing.
func (me *Conn) Close() error {
	if me.closed.CompareAndSwap(false, true) {
		me.logger.Debug("connection closed", "host", me.Host())
	}
	return nil
}

func (me *Conn) Cursor() *Cursor {
	return &Cursor{
		conn:      me,
		ArraySize: 1,
	}
}

// WithCursor runs f with a new cursor, closing it afterwards however f
// returns.
func (me *Conn) WithCursor(f func(*Cursor) error) error {
	cur := me.Cursor()
	defer cur.Close()
	return f(cur)
}

func (me *Conn) send(ctx context.Context, sql string) (ret []byte, err error) {
	ret, err = me.transport.Send(ctx, me.Host(), sql)
	if err != nil {
		err = asError(err, ErrorTypeOperational, "sending statement")
	}
	return
}
