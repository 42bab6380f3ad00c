package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inbox2notion/pkg/models"
)

// MarkProcessed records the outcome for a message identifier. The identifier
// is the primary key: marking one that already has a row returns
// ErrAlreadyExists and leaves the existing status untouched.
func (db *DB) MarkProcessed(ctx context.Context, emailID, subject string, status models.ProcessStatus) error {
	query := `
		INSERT OR IGNORE INTO processed_emails (email_id, subject, processed_at, status)
		VALUES (?, ?, ?, ?)
	`
	result, err := db.ExecContext(ctx, query, emailID, subject, time.Now().UTC(), status)
	if err != nil {
		return fmt.Errorf("failed to mark processed: %w", err)
	}

	// Check if row was actually inserted (not ignored due to duplicate)
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAlreadyExists
	}

	return nil
}

// HasProcessed reports whether a message identifier was already recorded
func (db *DB) HasProcessed(ctx context.Context, emailID string) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM processed_emails WHERE email_id = ?`
	if err := db.GetContext(ctx, &count, query, emailID); err != nil {
		return false, fmt.Errorf("failed to check processed: %w", err)
	}
	return count > 0, nil
}

// GetProcessed returns the ledger row for a message identifier
func (db *DB) GetProcessed(ctx context.Context, emailID string) (*models.ProcessedEmail, error) {
	var rec models.ProcessedEmail
	query := `SELECT * FROM processed_emails WHERE email_id = ?`
	err := db.GetContext(ctx, &rec, query, emailID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processed record: %w", err)
	}
	return &rec, nil
}

// CountByStatus returns how many ledger rows carry the given status
func (db *DB) CountByStatus(ctx context.Context, status models.ProcessStatus) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM processed_emails WHERE status = ?`
	if err := db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("failed to count by status: %w", err)
	}
	return count, nil
}
