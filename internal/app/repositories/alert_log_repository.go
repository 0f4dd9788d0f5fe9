package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orbisedu/backoffice/internal/app/models"
)

// AlertLogRepository handles database operations for the alert dedup ledger.
// The table is append-only: rows are inserted after confirmed delivery and
// never updated or deleted.
type AlertLogRepository struct {
	db *pgxpool.Pool
}

// NewAlertLogRepository creates a new alert log repository
func NewAlertLogRepository(db *pgxpool.Pool) *AlertLogRepository {
	return &AlertLogRepository{
		db: db,
	}
}

// Exists checks the ledger for a row matching the dedup key
// (student, kind, docType, sentOn). docTypeID is nil for visa and missing
// alert kinds.
func (r *AlertLogRepository) Exists(ctx context.Context, studentID int64, kind models.AlertKind, docTypeID *int64, sentOn time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM alert_log
			WHERE student_id = $1
			  AND alert_kind = $2
			  AND COALESCE(doc_type_id, 0) = COALESCE($3::bigint, 0)
			  AND sent_on = $4
		)`,
		studentID, kind, docTypeID, sentOn).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking alert ledger: %w", err)
	}
	return exists, nil
}

// Record appends a ledger row after a notification was delivered. A
// concurrent sweep may have written the same key already; ON CONFLICT DO
// NOTHING makes the write idempotent (one extra email in that window is the
// accepted race, the ledger itself stays consistent).
func (r *AlertLogRepository) Record(ctx context.Context, entry *models.AlertLogEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO alert_log (student_id, alert_kind, doc_type_id, sent_on, days_before)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, alert_kind, (COALESCE(doc_type_id, 0)), sent_on) DO NOTHING`,
		entry.StudentID, entry.AlertKind, entry.DocTypeID, entry.SentOn, entry.DaysBefore)
	if err != nil {
		return fmt.Errorf("error recording alert ledger entry: %w", err)
	}
	return nil
}
