package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// testDB opens a temporary database with all embedded migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	sqlDB, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	err = ApplyAllMigrations(sqlDB, slog.Default())
	require.NoError(t, err)

	return sqlDB
}

func insertReview(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO reviews (
			id, file_name, language, size, mode, state,
			created_at, updated_at
		) VALUES (?, 'a.py', 'python', 10, 'quick', 'received', 1, 1)`,
		id,
	)
	return err
}

func TestApplyAllMigrations(t *testing.T) {
	t.Parallel()

	sqlDB := testDB(t)

	// The reviews table exists after migration.
	var count int
	err := sqlDB.QueryRow(`SELECT COUNT(*) FROM reviews`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	// Applying again is a no-op rather than an error.
	require.NoError(t, ApplyAllMigrations(sqlDB, slog.Default()))
}

func TestMigrationDowngradeProtection(t *testing.T) {
	t.Parallel()

	sqlDB := testDB(t)

	// Pretending the binary only knows version 0 must refuse to run
	// against a version 1 database.
	err := ApplyAllMigrations(sqlDB, slog.Default(), WithLatestVersion(0))
	require.ErrorIs(t, err, ErrMigrationDowngrade)
}

func TestExecTxCommit(t *testing.T) {
	t.Parallel()

	sqlDB := testDB(t)
	ctx := context.Background()

	err := ExecTx(ctx, sqlDB, slog.Default(), func(tx *sql.Tx) error {
		return insertReview(ctx, tx, "review-1")
	})
	require.NoError(t, err)

	var state string
	err = sqlDB.QueryRow(
		`SELECT state FROM reviews WHERE id = ?`, "review-1",
	).Scan(&state)
	require.NoError(t, err)
	require.Equal(t, "received", state)
}

func TestExecTxRollback(t *testing.T) {
	t.Parallel()

	sqlDB := testDB(t)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := ExecTx(ctx, sqlDB, slog.Default(), func(tx *sql.Tx) error {
		if err := insertReview(ctx, tx, "review-2"); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	var count int
	err = sqlDB.QueryRow(
		`SELECT COUNT(*) FROM reviews WHERE id = ?`, "review-2",
	).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestExecTxDuplicateKey(t *testing.T) {
	t.Parallel()

	sqlDB := testDB(t)
	ctx := context.Background()

	err := ExecTx(ctx, sqlDB, slog.Default(), func(tx *sql.Tx) error {
		return insertReview(ctx, tx, "review-3")
	})
	require.NoError(t, err)

	// A second insert with the same ID surfaces as a duplicate key error,
	// not a retry loop.
	err = ExecTx(ctx, sqlDB, slog.Default(), func(tx *sql.Tx) error {
		return insertReview(ctx, tx, "review-3")
	})
	require.Error(t, err)
	require.True(t, IsDuplicateKeyError(err))
}

func TestMapSQLError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        error
		retryable bool
		duplicate bool
	}{
		{
			name: "busy is retryable",
			in: sqlite3.Error{
				Code: sqlite3.ErrBusy,
			},
			retryable: true,
		},
		{
			name: "locked is retryable",
			in: sqlite3.Error{
				Code: sqlite3.ErrLocked,
			},
			retryable: true,
		},
		{
			name: "unique constraint is duplicate key",
			in: sqlite3.Error{
				Code:         sqlite3.ErrConstraint,
				ExtendedCode: sqlite3.ErrConstraintUnique,
			},
			duplicate: true,
		},
		{
			name: "primary key constraint is duplicate key",
			in: sqlite3.Error{
				Code:         sqlite3.ErrConstraint,
				ExtendedCode: sqlite3.ErrConstraintPrimaryKey,
			},
			duplicate: true,
		},
		{
			name: "non sqlite errors pass through",
			in:   errors.New("plain"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mapped := MapSQLError(tc.in)
			require.Equal(t, tc.retryable,
				IsSerializationOrDeadlockError(mapped))
			require.Equal(t, tc.duplicate,
				IsDuplicateKeyError(mapped))
			if !tc.retryable && !tc.duplicate {
				require.ErrorIs(t, mapped, tc.in)
			}
		})
	}
}
