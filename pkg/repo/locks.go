package repo

import (
	"context"
	"fmt"
	"time"
)

// SetLocalLockTimeout bounds row-lock waits for the current transaction.
// Postgres rejects bind parameters in SET, so the duration is formatted in.
func SetLocalLockTimeout(ctx context.Context, tx Tx, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.Milliseconds()))
	return err
}
