package amelie

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url, body string) (int, string) {
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, strings.TrimSpace(string(b))
}

func TestServiceWireFormat(t *testing.T) {
	s := startServer(t)
	code, body := post(t, s.URL, "insert into test_table values (1, 'a'), (2, null)")
	assert.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, body)

	code, body = post(t, s.URL, "select val from test_table order by id")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["a", null]`, body)

	code, body = post(t, s.URL, "select id, val from test_table order by id")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[[1, "a"], [2, null]]`, body)

	code, body = post(t, s.URL, "select 2.0, 0.5, 1e300")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `[[2.0,0.5,1e+300]]`, body)

	code, body = post(t, s.URL, "select id from test_table where id < 0")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, body)
}

func TestServiceErrors(t *testing.T) {
	s := startServer(t)
	code, body := post(t, s.URL, "selec 1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, `"msg"`)

	resp, err := http.Get(s.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServiceQuery(t *testing.T) {
	s := startServer(t)
	rows, cols, err := s.Query("select 1, 'x' union all select 2, 'y'")
	require.NoError(t, err)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []interface{}{
		[]interface{}{int64(1), "x"},
		[]interface{}{int64(2), "y"},
	}, rows)
}
