// It is the intention of the command to emulate the sqlite3 command-line
// utility where reasonable.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/anacrolix/envpprof"
	"github.com/docopt/docopt-go"

	"github.com/anacrolix/amelie"
)

const doc = "" +
	"Usage: amelie-cli [--host=<host>] [--timeout=<duration>] <query>...\n" +
	"Options:\n" +
	"  --host=<host>           server URL  [default: " + amelie.DefaultHost + "]\n" +
	"  --timeout=<duration>    round trip timeout, 0 for none  [default: 0]"

func main() {
	log.SetFlags(log.Flags() | log.Lshortfile)
	opts, err := docopt.ParseArgs(doc, nil, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing options: %s", err)
		os.Exit(2)
	}
	var args struct {
		Host    string   `docopt:"--host"`
		Timeout string   `docopt:"--timeout"`
		Query   []string `docopt:"<query>"`
	}
	if err := opts.Bind(&args); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing options: %s\n", err)
		os.Exit(2)
	}
	timeout, err := time.ParseDuration(args.Timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing timeout: %s\n", err)
		os.Exit(2)
	}
	conn, err := amelie.Open(amelie.Config{Host: args.Host, Timeout: timeout})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening connection: %s\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	err = conn.WithCursor(func(cur *amelie.Cursor) error {
		for _, q := range args.Query {
			if err := cur.Execute(q); err != nil {
				return err
			}
			rows, err := cur.FetchAll()
			if err != nil {
				return err
			}
			for _, row := range rows {
				fmt.Println(formatRow(row))
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error executing sql: %s\n", err)
		os.Exit(1)
	}
}

func formatRow(row amelie.Row) string {
	var b strings.Builder
	for i, v := range row.Values() {
		if i != 0 {
			b.WriteByte('|')
		}
		if v != nil {
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}
