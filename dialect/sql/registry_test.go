package sql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/chrono/dialect"
)

func mockOpener(t *testing.T) (func(string, string) (*Driver, error), *[]sqlmock.Sqlmock) {
	t.Helper()
	var mocks []sqlmock.Sqlmock
	return func(name, _ string) (*Driver, error) {
		db, mock, err := sqlmock.New()
		if err != nil {
			return nil, err
		}
		mocks = append(mocks, mock)
		return OpenDB(name, db), nil
	}, &mocks
}

func TestRegistry(t *testing.T) {
	open, mocks := mockOpener(t)
	r := NewRegistry(WithOpener(open))

	drv, err := r.Open(ConnectionConfig{Name: "trades", Dialect: dialect.Postgres, DSN: "ignored", MaxOpenConns: 4})
	require.NoError(t, err)
	assert.IsType(t, &StatsDriver{}, drv)
	assert.Equal(t, dialect.Postgres, drv.Dialect())

	_, err = r.Open(ConnectionConfig{Name: "trades", Dialect: dialect.MySQL})
	require.Error(t, err, "names are unique")
	assert.Contains(t, err.Error(), "already registered")

	got, err := r.Get("trades")
	require.NoError(t, err)
	assert.Same(t, drv, got)
	_, err = r.Get("missing")
	require.Error(t, err)

	stats, ok := r.Stats("trades")
	require.True(t, ok)
	assert.Zero(t, stats.TotalQueries)

	db, auditMock, err := sqlmock.New()
	require.NoError(t, err)
	require.NoError(t, r.Register("audit", OpenDB(dialect.SQLite, db)))
	require.Error(t, r.Register("", OpenDB(dialect.SQLite, db)))
	assert.Equal(t, []string{"audit", "trades"}, r.Names())

	auditMock.ExpectClose()
	for _, m := range *mocks {
		m.ExpectClose()
	}
	require.NoError(t, r.Close())
	assert.Empty(t, r.Names())
}

func TestRegistry_Debug(t *testing.T) {
	open, _ := mockOpener(t)
	r := NewRegistry(WithOpener(open), WithDebug(true))
	drv, err := r.Open(ConnectionConfig{Name: "main", Dialect: dialect.SQLite})
	require.NoError(t, err)
	assert.IsType(t, &DebugDriver{}, drv)
	_, ok := r.Stats("main")
	assert.False(t, ok)
}

func TestRegistry_OpenError(t *testing.T) {
	r := NewRegistry(WithOpener(func(string, string) (*Driver, error) {
		return nil, errors.New("unreachable")
	}))
	_, err := r.Open(ConnectionConfig{Name: "main", Dialect: dialect.Postgres})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"main"`)
	assert.Empty(t, r.Names())
}

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name                   string
		err                    error
		unique, foreign, check bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom")},
		{name: "pq unique", err: &pq.Error{Code: "23505"}, unique: true},
		{name: "pq foreign", err: &pq.Error{Code: "23503"}, foreign: true},
		{name: "pq check", err: &pq.Error{Code: "23514"}, check: true},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, unique: true},
		{name: "mysql parent", err: &mysql.MySQLError{Number: 1451}, foreign: true},
		{name: "mysql check", err: &mysql.MySQLError{Number: 3819}, check: true},
		{name: "wrapped", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), unique: true},
		{name: "sqlite text", err: errors.New("constraint failed: UNIQUE constraint failed: T.ID (2067)"), unique: true},
		{name: "sqlite foreign text", err: errors.New("FOREIGN KEY constraint failed"), foreign: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.foreign, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.foreign || tt.check, IsConstraintError(tt.err))
		})
	}
}

func TestRetryableErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom")},
		{name: "pq serialization", err: &pq.Error{Code: "40001"}, want: true},
		{name: "pq deadlock", err: &pq.Error{Code: "40P01"}, want: true},
		{name: "pq lock", err: &pq.Error{Code: "55P03"}, want: true},
		{name: "pq unique", err: &pq.Error{Code: "23505"}},
		{name: "mysql deadlock", err: &mysql.MySQLError{Number: 1213}, want: true},
		{name: "mysql lock wait", err: &mysql.MySQLError{Number: 1205}, want: true},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062}},
		{name: "sqlite busy text", err: errors.New("dialect/sql: query: database is locked (5) (SQLITE_BUSY)"), want: true},
		{name: "wrapped", err: fmt.Errorf("commit: %w", &pq.Error{Code: "40001"}), want: true},
		{name: "canceled", err: fmt.Errorf("database is locked: %w", context.Canceled)},
		{name: "deadline", err: context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}
