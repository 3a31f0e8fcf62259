package amelie

import (
	"context"
)

// Cursor executes statements on its Conn and buffers the complete result of
// the last one. A Cursor isn't safe for concurrent use, but cursors of the
// same Conn are independent of each other.
type Cursor struct {
	conn *Conn
	// ArraySize is the FetchMany batch size used when none is given.
	ArraySize int

	results  []Row
	executed bool
	rowIndex int
	closed   bool
}

// ColumnDescription is the shape of column metadata. Cursor.Description never
// returns any, as the server doesn't report it.
type ColumnDescription struct {
	Name         string
	TypeCode     string
	DisplaySize  int
	InternalSize int
	Precision    int
	Scale        int
	NullOK       bool
}

func (me *Cursor) Conn() *Conn {
	return me.conn
}

// Execute runs query with positional %s arguments. Any rows not yet fetched
// from a previous execute are discarded.
func (me *Cursor) Execute(query string, args ...interface{}) error {
	return me.ExecuteContext(context.Background(), query, args...)
}

func (me *Cursor) ExecuteContext(ctx context.Context, query string, args ...interface{}) error {
	var params interface{}
	if len(args) != 0 {
		params = args
	}
	return me.execute(ctx, query, params)
}

// ExecuteNamed runs query with %(name)s placeholders taken from params.
func (me *Cursor) ExecuteNamed(query string, params map[string]interface{}) error {
	var p interface{}
	if params != nil {
		p = params
	}
	return me.execute(context.Background(), query, p)
}

func (me *Cursor) execute(ctx context.Context, query string, params interface{}) (err error) {
	// The connection can be closed between two calls, so check every time.
	if me.closed || me.conn.Closed() {
		return ErrClosed
	}
	sql, err := FormatQuery(query, params)
	if err != nil {
		return asError(err, ErrorTypeProgramming, "formatting query")
	}
	raw, err := me.conn.send(ctx, sql)
	if err != nil {
		return
	}
	rows, err := DecodeResponse(raw)
	if err != nil {
		return NewOperationalError("decoding response", err)
	}
	me.results = rows
	me.executed = true
	me.rowIndex = 0
	return nil
}

// FetchOne returns the next row, or nil when there are none left.
func (me *Cursor) FetchOne() (Row, error) {
	if me.closed {
		return nil, ErrClosed
	}
	if me.rowIndex >= len(me.results) {
		return nil, nil
	}
	row := me.results[me.rowIndex]
	me.rowIndex++
	return row, nil
}

// FetchMany returns up to size rows. A size of zero or less uses ArraySize,
// and if that is also zero or less no rows are returned.
func (me *Cursor) FetchMany(size int) ([]Row, error) {
	if me.closed {
		return nil, ErrClosed
	}
	if size <= 0 {
		size = me.ArraySize
	}
	if size <= 0 {
		return []Row{}, nil
	}
	end := len(me.results)
	if size < end-me.rowIndex {
		end = me.rowIndex + size
	}
	return me.take(end), nil
}

// FetchAll returns every remaining row.
func (me *Cursor) FetchAll() ([]Row, error) {
	if me.closed {
		return nil, ErrClosed
	}
	return me.take(len(me.results)), nil
}

func (me *Cursor) take(end int) (ret []Row) {
	if me.rowIndex >= end {
		return []Row{}
	}
	// Cap the slice so appends by the caller can't overwrite buffered rows.
	ret = me.results[me.rowIndex:end:end]
	me.rowIndex = end
	return
}

// RowCount is the number of rows the last execute produced, or -1 before the
// first. Statements without result rows count 0, whatever they changed.
func (me *Cursor) RowCount() int {
	if !me.executed {
		return -1
	}
	return len(me.results)
}

// Description always returns nil: column metadata isn't available.
func (me *Cursor) Description() []ColumnDescription {
	return nil
}

// Close is idempotent. Fetching from a closed cursor fails.
func (me *Cursor) Close() error {
	me.closed = true
	return nil
}

func (me *Cursor) Closed() bool {
	return me.closed
}

// CallProc does nothing.
func (me *Cursor) CallProc(name string, params ...interface{}) error {
	return nil
}

// SetInputSizes does nothing.
func (me *Cursor) SetInputSizes(sizes ...int) {}

// SetOutputSize does nothing.
func (me *Cursor) SetOutputSize(size int, column ...int) {}
