package composables_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/serrors"
)

type stubTx struct{}

func (stubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func txCtx() context.Context {
	return composables.WithTx(context.Background(), stubTx{})
}

func TestInTx_ReusesTransactionFromContext(t *testing.T) {
	outer := txCtx()

	var seen any
	err := composables.InTx(outer, func(ctx context.Context) error {
		tx, err := composables.UseTx(ctx)
		seen = tx
		return err
	})
	require.NoError(t, err)
	require.Equal(t, stubTx{}, seen)
}

func TestInTx_NoPoolNoTx(t *testing.T) {
	err := composables.InTx(context.Background(), func(ctx context.Context) error {
		t.Fatal("fn must not run without a pool or transaction")
		return nil
	})
	require.ErrorIs(t, err, composables.ErrNoPool)
}

func TestInTxRetry_RetriesConcurrencyThenSurfaces(t *testing.T) {
	lockTimeout := serrors.Concurrency("LOCK_TIMEOUT", "timed out waiting for a row lock")

	calls := 0
	err := composables.InTxRetry(txCtx(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return lockTimeout
	})

	require.Error(t, err)
	require.Equal(t, 4, calls, "one initial attempt plus three retries")
	require.True(t, serrors.HasCode(err, "LOCK_TIMEOUT"))
	require.Equal(t, serrors.KindConcurrency, serrors.KindOf(err))
}

func TestInTxRetry_ConflictSurfacesImmediately(t *testing.T) {
	decided := serrors.Conflict("ALREADY_DECIDED", "application has already been decided")

	calls := 0
	err := composables.InTxRetry(txCtx(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		return decided
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.True(t, serrors.HasCode(err, "ALREADY_DECIDED"))
}

func TestInTxRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	err := composables.InTxRetry(txCtx(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return serrors.Concurrency("SERIALIZATION_FAILURE", "concurrent update detected")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}
