package amelie

import (
	"database/sql"
	"testing"

	_ "github.com/anacrolix/envpprof"
	"github.com/bradfitz/iter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (me testServer) NewClient(t testing.TB) *sql.DB {
	db, err := sql.Open("amelie", me.URL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPing(t *testing.T) {
	db := startServer(t).NewClient(t)
	require.NoError(t, db.Ping())
}

func TestSimple(t *testing.T) {
	db := startServer(t).NewClient(t)
	_, err := db.Exec("create table test(universe)")
	require.NoError(t, err)
	res, err := db.Exec("insert into test values(%s)", 42)
	require.NoError(t, err)
	_, err = res.RowsAffected()
	assert.Error(t, err)
	_, err = res.LastInsertId()
	assert.Error(t, err)
	var answer int
	err = db.QueryRow("select * from test").Scan(&answer)
	require.NoError(t, err)
	assert.EqualValues(t, 42, answer)
}

func TestQueryColumns(t *testing.T) {
	db := startServer(t).NewClient(t)
	for i := range iter.N(3) {
		_, err := db.Exec("insert into test_table values(%s, %s)", i, string(rune('a'+i)))
		require.NoError(t, err)
	}
	rows, err := db.Query("select id, val from test_table where id > %s order by id", 0)
	require.NoError(t, err)
	defer rows.Close()
	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.EqualValues(t, []string{"column1", "column2"}, cols)
	var (
		id  int
		val string
	)
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&id, &val))
	assert.EqualValues(t, 1, id)
	assert.EqualValues(t, "b", val)
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&id, &val))
	assert.EqualValues(t, 2, id)
	assert.EqualValues(t, "c", val)
	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

func TestQueryNoRows(t *testing.T) {
	db := startServer(t).NewClient(t)
	var val string
	err := db.QueryRow("select val from test_table where id = %s", -1).Scan(&val)
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestDriverError(t *testing.T) {
	db := startServer(t).NewClient(t)
	_, err := db.Exec("select * from nowhere")
	assert.True(t, IsProgrammingError(err), "%v", err)
}

func TestTransactionsUnsupported(t *testing.T) {
	db := startServer(t).NewClient(t)
	_, err := db.Begin()
	assert.ErrorIs(t, err, ErrTransactionsUnsupported)
}

func Benchmark(b *testing.B) {
	db := startServer(b).NewClient(b)
	for range iter.N(b.N) {
		for i := range iter.N(10) {
			db.Exec("insert into test_table values (%s, 'x')", i)
		}
		rows, _ := db.Query("select id from test_table where id < %s", 3)
		var count int
		for rows.Next() {
			var id int
			rows.Scan(&id)
			if id < 3 {
				count++
			}
		}
		assert.Nil(b, rows.Err())
		assert.EqualValues(b, 3, count)
		rows.Close()
		db.Exec("delete from test_table")
	}
}
