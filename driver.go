package amelie

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"

	"github.com/bradfitz/iter"
	"github.com/pkg/errors"
	"gopkg.in/inf.v0"
)

func init() {
	sql.Register("amelie", &ameliedriver{})
}

type ameliedriver struct{}

type conn struct {
	c *Conn
}

// Open takes the server URL as the data source name.
func (me ameliedriver) Open(name string) (ret driver.Conn, err error) {
	c, err := Connect(name)
	if err != nil {
		return
	}
	ret = &conn{c}
	return
}

func (me *conn) Begin() (driver.Tx, error) {
	return nil, ErrTransactionsUnsupported
}

func (me *conn) Close() error {
	return me.c.Close()
}

func (me *conn) Prepare(query string) (driver.Stmt, error) {
	if me.c.Closed() {
		return nil, driver.ErrBadConn
	}
	return &stmt{me, query}, nil
}

type stmt struct {
	conn  *conn
	query string
}

func (me *stmt) Close() error {
	return nil
}

func (me *stmt) NumInput() int {
	return -1
}

func (me *stmt) run(args []driver.Value) (ret []Row, err error) {
	cur := me.conn.c.Cursor()
	defer cur.Close()
	err = cur.ExecuteContext(context.Background(), me.query, func() (ret []interface{}) {
		for _, v := range args {
			ret = append(ret, v)
		}
		return
	}()...)
	if err != nil {
		return
	}
	return cur.FetchAll()
}

func (me *stmt) Exec(args []driver.Value) (ret driver.Result, err error) {
	_, err = me.run(args)
	if err != nil {
		return
	}
	ret = result{}
	return
}

func (me *stmt) Query(args []driver.Value) (ret driver.Rows, err error) {
	rs, err := me.run(args)
	if err != nil {
		return
	}
	ret = &rows{rows: rs}
	return
}

var errResultUnsupported = errors.New("the server doesn't report affected rows or insert IDs")

// result is returned for every Exec, as the protocol carries no counts.
type result struct{}

func (result) LastInsertId() (int64, error) {
	return 0, errResultUnsupported
}

func (result) RowsAffected() (int64, error) {
	return 0, errResultUnsupported
}

type rows struct {
	rows  []Row
	index int
}

// Columns are named column1 onwards, as there's no metadata to name them.
func (me *rows) Columns() (ret []string) {
	if len(me.rows) == 0 {
		return []string{}
	}
	for i := range iter.N(me.rows[0].Len()) {
		ret = append(ret, fmt.Sprintf("column%d", i+1))
	}
	return
}

func (me *rows) Close() error {
	me.rows = nil
	return nil
}

func (me *rows) Next(dest []driver.Value) error {
	if me.index >= len(me.rows) {
		return io.EOF
	}
	for i, v := range me.rows[me.index].Values() {
		if d, ok := v.(*inf.Dec); ok {
			v = d.String()
		}
		dest[i] = v
	}
	me.index++
	return nil
}
