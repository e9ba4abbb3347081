package sequence_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/chrono"
	"github.com/syssam/chrono/dialect"
	"github.com/syssam/chrono/dialect/sql"
	"github.com/syssam/chrono/sequence"
)

const (
	selectSQL = `SELECT "NEXT_VALUE" FROM "CHRONO_SEQUENCE" WHERE "SEQUENCE_NAME" = ?`
	insertSQL = `INSERT INTO "CHRONO_SEQUENCE" ("SEQUENCE_NAME", "NEXT_VALUE") VALUES (?, ?)`
	updateSQL = `UPDATE "CHRONO_SEQUENCE" SET "NEXT_VALUE" = ? WHERE "SEQUENCE_NAME" = ? AND "NEXT_VALUE" = ?`
)

func newMock(t *testing.T) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect.SQLite, db), mock
}

func TestStore_Mock(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesMissingSequence", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}))
		mock.ExpectExec(insertSQL).WithArgs("order", int64(1001)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		id, err := sequence.NewStore(drv).NextID(ctx, "order")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("RetriesLostRace", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}).AddRow(int64(1000)))
		mock.ExpectExec(updateSQL).WithArgs(int64(1005), "order", int64(1000)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}).AddRow(int64(1003)))
		mock.ExpectExec(updateSQL).WithArgs(int64(1008), "order", int64(1003)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		ids, err := sequence.NewStore(drv).NextIDs(ctx, "order", 5)
		require.NoError(t, err)
		assert.Equal(t, []int64{1003, 1004, 1005, 1006, 1007}, ids)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("RetriesDuplicateInsert", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}))
		mock.ExpectExec(insertSQL).WithArgs("order", int64(1001)).
			WillReturnError(errors.New("UNIQUE constraint failed: CHRONO_SEQUENCE.SEQUENCE_NAME"))
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}).AddRow(int64(1001)))
		mock.ExpectExec(updateSQL).WithArgs(int64(1002), "order", int64(1001)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		id, err := sequence.NewStore(drv).NextID(ctx, "order")
		require.NoError(t, err)
		assert.Equal(t, int64(1001), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("GivesUp", func(t *testing.T) {
		drv, mock := newMock(t)
		for range 2 {
			mock.ExpectBegin()
			mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}).AddRow(int64(1000)))
			mock.ExpectExec(updateSQL).WithArgs(int64(1001), "order", int64(1000)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectRollback()
		}
		_, err := sequence.NewStore(drv, sequence.WithRetries(1)).NextID(ctx, "order")
		require.Error(t, err)
		assert.True(t, chrono.IsOptimisticLock(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("RetriesBusyDatabase", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}).AddRow(int64(1000)))
		mock.ExpectExec(updateSQL).WithArgs(int64(1001), "order", int64(1000)).
			WillReturnError(errors.New("database is locked (5) (SQLITE_BUSY)"))
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}).AddRow(int64(1000)))
		mock.ExpectExec(updateSQL).WithArgs(int64(1001), "order", int64(1000)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		id, err := sequence.NewStore(drv).NextID(ctx, "order")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("RetriesFailedCommit", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}).AddRow(int64(1000)))
		mock.ExpectExec(updateSQL).WithArgs(int64(1001), "order", int64(1000)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnRows(sqlmock.NewRows([]string{"NEXT_VALUE"}).AddRow(int64(1001)))
		mock.ExpectExec(updateSQL).WithArgs(int64(1002), "order", int64(1001)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		id, err := sequence.NewStore(drv).NextID(ctx, "order")
		require.NoError(t, err)
		assert.Equal(t, int64(1001), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("GivesUpOnDeadlock", func(t *testing.T) {
		drv, mock := newMock(t)
		for range 2 {
			mock.ExpectBegin()
			mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnError(&pq.Error{Code: "40P01", Message: "deadlock detected"})
			mock.ExpectRollback()
		}
		_, err := sequence.NewStore(drv, sequence.WithRetries(1)).NextID(ctx, "order")
		require.Error(t, err)
		assert.True(t, chrono.IsOptimisticLock(err))
		var pqErr *pq.Error
		require.ErrorAs(t, err, &pqErr)
		assert.Equal(t, "40P01", string(pqErr.Code))
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("QueryError", func(t *testing.T) {
		drv, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(selectSQL).WithArgs("order").WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()
		_, err := sequence.NewStore(drv).NextID(ctx, "order")
		require.Error(t, err)
		assert.False(t, chrono.IsOptimisticLock(err))
		assert.Contains(t, err.Error(), "connection reset")
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("InvalidCount", func(t *testing.T) {
		drv, mock := newMock(t)
		_, err := sequence.NewStore(drv).NextIDs(ctx, "order", 0)
		assert.True(t, chrono.IsInvalidArgument(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_SQLite(t *testing.T) {
	ctx := context.Background()
	drv, err := sql.Open(dialect.SQLite, filepath.Join(t.TempDir(), "seq.db"))
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })

	store := sequence.NewStore(drv, sequence.WithTable("SEQ"))
	require.NoError(t, store.CreateTable(ctx))

	id, err := store.NextID(ctx, "order")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), id)

	require.NoError(t, store.Reset(ctx, "order", 5000))
	require.NoError(t, store.Reset(ctx, "order", 5000))
	ids, err := store.NextIDs(ctx, "order", 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5000, 5001, 5002}, ids)

	t.Run("Concurrent", func(t *testing.T) {
		const (
			callers = 16
			k       = 5
		)
		blocks := make([][]int64, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ids, err := store.NextIDs(ctx, "invoice", k)
				if err != nil {
					t.Error(err)
					return
				}
				blocks[i] = ids
			}()
		}
		wg.Wait()
		assertContiguous(t, blocks, sequence.DefaultStart, callers*k)
	})
}
