package amelie

import (
	"database/sql/driver"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gopkg.in/inf.v0"
)

// FormatQuery substitutes params into query, producing a statement with no
// placeholders left. params is nil, a []interface{} for %s placeholders, or a
// map[string]interface{} for %(name)s placeholders. %% yields a literal
// percent sign. With nil params the query is returned untouched.
//
// Every failure is a programming error.
func FormatQuery(query string, params interface{}) (string, error) {
	if params == nil {
		return query, nil
	}
	var (
		positional []interface{}
		named      map[string]interface{}
	)
	switch p := params.(type) {
	case []interface{}:
		positional = p
	case map[string]interface{}:
		named = p
	default:
		return "", NewProgrammingError("formatting query", errors.Errorf("unsupported parameter collection %T", params))
	}
	s, err := formatQuery(query, positional, named)
	if err != nil {
		return "", NewProgrammingError("formatting query", err)
	}
	return s, nil
}

func formatQuery(query string, positional []interface{}, named map[string]interface{}) (string, error) {
	var b strings.Builder
	b.Grow(len(query))
	used := 0
	for {
		i := strings.IndexByte(query, '%')
		if i < 0 {
			b.WriteString(query)
			break
		}
		b.WriteString(query[:i])
		query = query[i:]
		if len(query) < 2 {
			return "", errors.New("incomplete placeholder at end of query")
		}
		var value interface{}
		switch query[1] {
		case '%':
			b.WriteByte('%')
			query = query[2:]
			continue
		case 's':
			if named != nil {
				return "", errors.New("positional placeholder with named parameters")
			}
			if used >= len(positional) {
				return "", errors.Errorf("not enough parameters: %d supplied", len(positional))
			}
			value = positional[used]
			used++
			query = query[2:]
		case '(':
			end := strings.Index(query, ")s")
			if end < 0 {
				return "", errors.Errorf("unterminated named placeholder %q", query)
			}
			if positional != nil {
				return "", errors.New("named placeholder with positional parameters")
			}
			name := query[2:end]
			var ok bool
			value, ok = named[name]
			if !ok {
				return "", errors.Errorf("missing parameter %q", name)
			}
			query = query[end+2:]
		default:
			return "", errors.Errorf("unsupported placeholder %q", query[:2])
		}
		lit, err := QuoteValue(value)
		if err != nil {
			return "", err
		}
		b.WriteString(lit)
	}
	if used < len(positional) {
		return "", errors.Errorf("too many parameters: %d supplied, %d placeholders", len(positional), used)
	}
	return b.String(), nil
}

// maxNesting bounds how deeply sequences and pointers may nest in a parameter.
const maxNesting = 32

// QuoteValue renders v as a SQL literal.
func QuoteValue(v interface{}) (string, error) {
	return quoteValue(v, true, 0)
}

func quoteValue(v interface{}, resolveValuer bool, depth int) (string, error) {
	if depth > maxNesting {
		return "", errors.Errorf("parameter nested more than %d levels deep", maxNesting)
	}
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() == reflect.Ptr && rv.IsNil()) {
		return "NULL", nil
	}
	switch v := v.(type) {
	case time.Time:
		return quoteString(string(pq.FormatTimestamp(v)))
	case uuid.UUID:
		return quoteString(v.String())
	case *inf.Dec:
		return signed(v.String()), nil
	case []byte:
		return "", errors.New("unsupported parameter type []byte")
	case driver.Valuer:
		if !resolveValuer {
			return "", errors.Errorf("%T.Value returned another driver.Valuer", v)
		}
		dv, err := v.Value()
		if err != nil {
			return "", errors.Wrapf(err, "getting value of %T", v)
		}
		return quoteValue(dv, false, depth)
	}
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return "TRUE", nil
		}
		return "FALSE", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signed(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	case reflect.String:
		return quoteString(rv.String())
	case reflect.Ptr:
		return quoteValue(rv.Elem().Interface(), resolveValuer, depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return "", errors.Errorf("unsupported parameter type %T", v)
		}
		return quoteSequence(rv, depth+1)
	}
	return "", errors.Errorf("unsupported parameter type %T", v)
}

// quoteSequence renders a parenthesized list, suitable for IN.
func quoteSequence(rv reflect.Value, depth int) (string, error) {
	if rv.Len() == 0 {
		return "", errors.New("empty sequence parameter")
	}
	parts := make([]string, rv.Len())
	for i := range parts {
		lit, err := quoteValue(rv.Index(i).Interface(), true, depth)
		if err != nil {
			return "", errors.Wrapf(err, "sequence element %d", i)
		}
		parts[i] = lit
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

func quoteString(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", errors.New("string parameter is not valid UTF-8")
	}
	if strings.IndexByte(s, 0) >= 0 {
		return "", errors.New("string parameter contains NUL")
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
}

func formatFloat(f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.Errorf("float parameter %v has no literal form", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	// Keep floats distinguishable from integers on the server.
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return signed(s), nil
}

// signed prefixes negative numbers with a space so that a preceding minus in
// the template can't combine with the sign into a "--" comment.
func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return " " + s
	}
	return s
}
