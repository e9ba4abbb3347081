// Package sql implements the dialect.Driver boundary on top of
// database/sql for PostgreSQL (lib/pq), MySQL (go-sql-driver/mysql) and
// SQLite (modernc.org/sqlite).
//
// Connections are managed by a Registry that maps connection-manager
// names to drivers:
//
//	reg := sql.NewRegistry(sql.WithRegistryLogger(logger))
//	defer reg.Close()
//	drv, err := reg.Open(sql.ConnectionConfig{
//	    Name:    "trades",
//	    Dialect: dialect.Postgres,
//	    DSN:     "postgres://localhost/trades?sslmode=disable",
//	})
//
// Units of work run through InTx, which commits on success and rolls back
// on error:
//
//	err := sql.InTx(ctx, drv, 2*time.Minute, func(ctx context.Context, tx dialect.Tx) error {
//	    return tx.Exec(ctx, "UPDATE ...", []any{...}, nil)
//	})
//
// # Constraint errors
//
// IsUniqueConstraintError and its siblings classify driver errors by
// their typed codes (*pq.Error, *mysql.MySQLError, *sqlite.Error) and fall
// back to message matching for wrapped or proxied drivers.
//
// # Session variables
//
// WithVar and WithTimeZone attach session settings to a context; they are
// applied before every statement executed with that context.
package sql
