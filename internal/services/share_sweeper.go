package services

import (
	"context"
	"database/sql"
	"log"
	"time"
)

// StartShareSweeper starts a background goroutine that removes expired
// share tokens and clears the is_public flag on their entries. Redemption
// is correct without it (expired tokens read as nonexistent); this just
// keeps the table from accumulating dead rows.
func StartShareSweeper(db *sql.DB, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		_ = SweepExpiredShares(db)
		for range ticker.C {
			if err := SweepExpiredShares(db); err != nil {
				log.Printf("share sweep failed: %v", err)
			}
		}
	}()
}

// SweepExpiredShares deletes expired share rows and flips is_public in one
// transaction so the invariant holds for concurrent readers.
func SweepExpiredShares(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE journal_entries e SET is_public = FALSE
		FROM shared_access sa
		WHERE sa.entry_id = e.id
		  AND sa.expires_at IS NOT NULL AND sa.expires_at <= NOW()
	`)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM shared_access
		WHERE expires_at IS NOT NULL AND expires_at <= NOW()
	`)
	if err != nil {
		return err
	}
	return tx.Commit()
}
