package database

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions("localhost:5432", "user", "", "notes")
	require.NoError(t, opts.Validate())

	opts = NewOptions("localhost", "user", "", "notes")
	assert.Error(t, opts.Validate())

	opts = NewOptions("localhost:5432", "", "", "notes", WithMaxConns(100))
	assert.Error(t, opts.Validate())
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	// Temp tables live on one connection.
	cfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewDatabase(pool)
}

func TestRunInTx_NestedRollbackKeepsOuter(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `CREATE TEMP TABLE tx_probe (v int)`)
	require.NoError(t, err)

	errInner := errors.New("inner failed")

	err = db.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := db.Exec(ctx, `INSERT INTO tx_probe VALUES (1)`); err != nil {
			return err
		}

		err := db.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := db.Exec(ctx, `INSERT INTO tx_probe VALUES (2)`); err != nil {
				return err
			}
			return errInner
		})
		require.ErrorIs(t, err, errInner)

		return nil
	})
	require.NoError(t, err)

	var values []int
	rows, err := db.Query(ctx, `SELECT v FROM tx_probe ORDER BY v`)
	require.NoError(t, err)
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		values = append(values, v)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []int{1}, values)
}

func TestRunInTx_OuterRollback(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `CREATE TEMP TABLE tx_probe_outer (v int)`)
	require.NoError(t, err)

	errOuter := errors.New("outer failed")
	err = db.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := db.Exec(ctx, `INSERT INTO tx_probe_outer VALUES (1)`); err != nil {
			return err
		}
		return errOuter
	})
	require.ErrorIs(t, err, errOuter)

	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT count(*) FROM tx_probe_outer`).Scan(&n))
	assert.Zero(t, n)
}
