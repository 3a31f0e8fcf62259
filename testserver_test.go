package amelie

import (
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

var serverCount atomic.Int64

type testServer struct {
	*Service
	*httptest.Server
}

func (me testServer) Close() {
	me.Server.Close()
	me.DB.Close()
}

func (me testServer) Connect(t testing.TB) *Conn {
	conn, err := Connect(me.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// startServer serves a fresh in-memory SQLite3 database with a test_table
// already created.
func startServer(t testing.TB) testServer {
	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", serverCount.Add(1))
	db, err := sqlx.Open("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec("create table test_table (id int primary key, val text)")
	require.NoError(t, err)
	s := testServer{&Service{DB: db}, nil}
	s.Server = httptest.NewServer(s.Service)
	t.Cleanup(s.Close)
	return s
}
