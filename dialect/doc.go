// Package dialect defines the storage runtime boundary used by chrono
// repositories and sequence stores.
//
// A Driver executes statements and opens transactions; nothing above this
// package knows which database it talks to beyond the dialect name, which
// selects placeholder and quoting rules:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite3"
//
// The dialect/sql sub-package implements Driver on top of database/sql and
// holds the Registry of named connection managers.
package dialect
