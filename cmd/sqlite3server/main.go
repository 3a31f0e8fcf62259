package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	_ "github.com/anacrolix/envpprof"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/anacrolix/amelie"
)

func main() {
	log.SetFlags(log.Flags() | log.Llongfile)
	dsn := flag.String("dsn", "", "sqlite3 dsn")
	addr := flag.String("addr", ":3485", "listen")
	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "unexpected positional arguments\n")
		os.Exit(2)
	}
	db, err := sqlx.Open("sqlite3", *dsn)
	if err != nil {
		log.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	http.Handle("/", &amelie.Service{DB: db})
	log.Printf("serving %q on %s", *dsn, *addr)
	log.Print(http.ListenAndServe(*addr, nil))
}
