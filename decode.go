package amelie

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/inf.v0"
)

// Row is one decoded result row. Results with a single column yield Scalar
// rows, results with more yield Tuple rows.
type Row interface {
	// Values returns the column values in order, whatever the row's shape.
	Values() []interface{}
	Len() int
	row()
}

// Scalar is the row of a single-column result.
type Scalar struct {
	Value interface{}
}

func (me Scalar) Values() []interface{} { return []interface{}{me.Value} }
func (me Scalar) Len() int              { return 1 }
func (Scalar) row()                     {}

// Tuple is the row of a multi-column result.
type Tuple []interface{}

func (me Tuple) Values() []interface{} { return []interface{}(me) }
func (me Tuple) Len() int              { return len(me) }
func (Tuple) row()                     {}

// DecodeResponse turns a raw response into rows. The payload is a JSON array
// with one element per row: a bare value for single-column results, an array
// for wider ones. An empty payload or null is an acknowledgement and decodes
// to no rows.
//
// Values decode to nil, bool, string, int64, float64, or *inf.Dec for
// integers that overflow int64.
func DecodeResponse(raw []byte) (ret []Row, err error) {
	raw = bytes.TrimSpace(raw)
	ret = []Row{}
	if len(raw) == 0 {
		return
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var elems []interface{}
	if err = dec.Decode(&elems); err != nil {
		err = errors.Wrap(err, "parsing response")
		return
	}
	if _, tokErr := dec.Token(); tokErr != io.EOF {
		err = errors.New("trailing data after response")
		return
	}
	width := 0
	array := false
	for i, elem := range elems {
		_, isArray := elem.([]interface{})
		var row Row
		row, err = decodeRow(elem)
		if err != nil {
			err = errors.Wrapf(err, "row %d", i)
			return
		}
		if i == 0 {
			width = row.Len()
			array = isArray
		} else if isArray != array {
			err = errors.Errorf("row %d mixes array and scalar rows", i)
			return
		} else if row.Len() != width {
			err = errors.Errorf("row %d has %d columns, expected %d", i, row.Len(), width)
			return
		}
		ret = append(ret, row)
	}
	return
}

func decodeRow(elem interface{}) (Row, error) {
	cols, ok := elem.([]interface{})
	if !ok {
		v, err := decodeValue(elem)
		if err != nil {
			return nil, err
		}
		return Scalar{v}, nil
	}
	if len(cols) == 0 {
		return nil, errors.New("row has no columns")
	}
	tuple := make(Tuple, len(cols))
	for i, col := range cols {
		v, err := decodeValue(col)
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i)
		}
		tuple[i] = v
	}
	if len(tuple) == 1 {
		return Scalar{tuple[0]}, nil
	}
	return tuple, nil
}

func decodeValue(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil, bool, string:
		return v, nil
	case json.Number:
		return decodeNumber(v)
	default:
		return nil, errors.Errorf("unsupported value type %T", v)
	}
}

func decodeNumber(n json.Number) (interface{}, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		d, ok := new(inf.Dec).SetString(s)
		if !ok {
			return nil, errors.Errorf("could not parse %q as integer", s)
		}
		return d, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %q as float", s)
	}
	return f, nil
}
