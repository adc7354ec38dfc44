package db

import (
	"context"
	"time"
)

// DuplicateCheck reports whether hash is already marked for accountID and
// has not yet expired — backing ScriptEnv.duplicate_check (the :duplicate
// test, RFC 7352).
func (db *Database) DuplicateCheck(ctx context.Context, accountID int64, hash string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM duplicate_marks
			WHERE account_id = $1 AND hash = $2 AND expires_at > now()
		)
	`, accountID, hash).Scan(&exists)
	return exists, err
}

// DuplicateMark records hash as seen until expireAt — backing
// ScriptEnv.duplicate_mark. Callers must only invoke this from the result
// engine's commit-on-success Finish phase, never during interpretation,
// so an aborted run leaves no mark behind.
func (db *Database) DuplicateMark(ctx context.Context, accountID int64, hash string, expireAt time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO duplicate_marks (account_id, hash, marked_at, expires_at)
		VALUES ($1, $2, now(), $3)
		ON CONFLICT (account_id, hash) DO UPDATE SET marked_at = now(), expires_at = EXCLUDED.expires_at
	`, accountID, hash, expireAt)
	return err
}
