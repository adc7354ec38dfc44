package db

import (
	"context"
	"time"
)

// VacationResponse records that a vacation auto-response was sent to a
// sender for a particular :handle, backing the vacation extension's
// per-(handle, sender) throttling (RFC 5230 section 4.3).
type VacationResponse struct {
	AccountID     int64
	Handle        string
	SenderAddress string
	ResponseDate  time.Time
}

// RecordVacationResponse records that a vacation response was sent.
func (db *Database) RecordVacationResponse(ctx context.Context, accountID int64, handle, senderAddress string) error {
	now := time.Now()
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO vacation_responses (account_id, handle, sender_address, response_date, created_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (account_id, handle, sender_address) DO UPDATE SET response_date = EXCLUDED.response_date
	`, accountID, handle, senderAddress, now)
	return err
}

// HasRecentVacationResponse reports whether a vacation response was already
// sent to this sender, for this handle, within duration.
func (db *Database) HasRecentVacationResponse(ctx context.Context, accountID int64, handle, senderAddress string, duration time.Duration) (bool, error) {
	cutoff := time.Now().Add(-duration)

	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM vacation_responses
			WHERE account_id = $1 AND handle = $2 AND sender_address = $3 AND response_date > $4
		)
	`, accountID, handle, senderAddress, cutoff).Scan(&exists)

	return exists, err
}

// CleanupOldVacationResponses removes vacation response records older than olderThan.
func (db *Database) CleanupOldVacationResponses(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := db.Pool.Exec(ctx, `DELETE FROM vacation_responses WHERE response_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
