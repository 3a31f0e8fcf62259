package amelie

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bradfitz/iter"
	"github.com/jmoiron/sqlx"
)

// Service serves the statement protocol from any database/sql database: each
// POST body is one statement, and the reply is its rows as JSON, 204 if it
// has no result columns, or 400 with {"msg": ...} if it failed.
type Service struct {
	DB     *sqlx.DB
	Logger *slog.Logger
}

func (me *Service) logger() *slog.Logger {
	if me.Logger == nil {
		return slog.Default()
	}
	return me.Logger
}

func (me *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "statements must be POSTed")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, cols, err := me.Query(string(body))
	if err != nil {
		me.logger().Debug("statement failed", "sql", string(body), "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cols == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		me.logger().Error("writing rows", "err", err)
	}
}

// Query runs a statement, returning its rows in wire shape and the number of
// result columns.
func (me *Service) Query(query string) (ret []interface{}, cols int, err error) {
	rows, err := me.DB.Queryx(query)
	if err != nil {
		return
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return
	}
	cols = len(columns)
	ret = []interface{}{}
	// Statements without results still run when stepped.
	for rows.Next() {
		var values []interface{}
		values, err = rows.SliceScan()
		if err != nil {
			return
		}
		for i := range iter.N(len(values)) {
			values[i] = wireValue(values[i])
		}
		if cols == 1 {
			ret = append(ret, values[0])
		} else {
			ret = append(ret, values)
		}
	}
	err = rows.Err()
	return
}

func wireValue(v interface{}) interface{} {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		// Keep a fraction or exponent so clients don't read it as an integer.
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return json.Number(s)
	default:
		return v
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorReply{Msg: msg})
}
