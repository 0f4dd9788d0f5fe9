package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orbisedu/backoffice/internal/app/auth"
	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
)

// ComplianceRepository handles database operations for compliance records
type ComplianceRepository struct {
	db *pgxpool.Pool
}

// NewComplianceRepository creates a new compliance record repository
func NewComplianceRepository(db *pgxpool.Pool) *ComplianceRepository {
	return &ComplianceRepository{
		db: db,
	}
}

// InsertIfAbsent provisions a record for (student, docType) in pending
// status. Concurrent checklist loads race here; the unique index on
// (student_id, doc_type_id) plus ON CONFLICT DO NOTHING makes the insert
// idempotent. Returns true when this call created the row.
func (r *ComplianceRepository) InsertIfAbsent(ctx context.Context, studentID, docTypeID int64) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `
		INSERT INTO compliance_records (student_id, doc_type_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, doc_type_id) DO NOTHING`,
		studentID, docTypeID, models.DocStatusPending)
	if err != nil {
		return false, fmt.Errorf("error provisioning compliance record: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// GetByID retrieves a compliance record by ID with its document type joined
func (r *ComplianceRepository) GetByID(ctx context.Context, id int64) (*models.ComplianceRecord, error) {
	query := `
		SELECT r.id, r.student_id, r.doc_type_id, r.status, r.self_checked,
		       r.submitted_at, r.reviewed_at, r.reviewer_id, r.reject_reason,
		       r.expiry_date, r.file_ref, r.created_at, r.updated_at,
		       t.id, t.name, t.category, t.is_required, t.has_expiry,
		       t.applicable_visa_categories, t.sort_order, t.is_active, t.created_at
		FROM compliance_records r
		JOIN document_types t ON t.id = r.doc_type_id
		WHERE r.id = $1
	`

	rec, err := scanRecordWithType(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("error retrieving compliance record: %w", err)
	}
	return rec, nil
}

// ListByStudent retrieves all compliance records of a student with their
// document types joined, in checklist display order.
func (r *ComplianceRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.ComplianceRecord, error) {
	query := `
		SELECT r.id, r.student_id, r.doc_type_id, r.status, r.self_checked,
		       r.submitted_at, r.reviewed_at, r.reviewer_id, r.reject_reason,
		       r.expiry_date, r.file_ref, r.created_at, r.updated_at,
		       t.id, t.name, t.category, t.is_required, t.has_expiry,
		       t.applicable_visa_categories, t.sort_order, t.is_active, t.created_at
		FROM compliance_records r
		JOIN document_types t ON t.id = r.doc_type_id
		WHERE r.student_id = $1
		ORDER BY t.sort_order, t.id
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ComplianceRecord
	for rows.Next() {
		rec, err := scanRecordWithType(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ApplyPatch applies an authorized patch as a single atomic UPDATE. Reviewer
// stamping (reviewer_id, reviewed_at) and the subject's submission timestamp
// travel in the same statement, so a concurrent reviewer race resolves as
// last write wins without partial states.
func (r *ComplianceRepository) ApplyPatch(ctx context.Context, id int64, patch auth.RecordPatch, reviewerID *int64, reviewedAt, submittedAt *time.Time) (*models.ComplianceRecord, error) {
	query := `
		UPDATE compliance_records
		SET status        = COALESCE($1::varchar, status),
		    self_checked  = COALESCE($2::boolean, self_checked),
		    expiry_date   = COALESCE($3::date, expiry_date),
		    file_ref      = COALESCE($4::varchar, file_ref),
		    reject_reason = COALESCE($5::text, reject_reason),
		    reviewer_id   = COALESCE($6::bigint, reviewer_id),
		    reviewed_at   = COALESCE($7::timestamptz, reviewed_at),
		    submitted_at  = COALESCE($8::timestamptz, submitted_at),
		    updated_at    = NOW()
		WHERE id = $9
		RETURNING id
	`

	var updatedID int64
	err := r.db.QueryRow(ctx, query,
		patch.Status, patch.SelfChecked, patch.ExpiryDate, patch.FileRef,
		patch.RejectReason, reviewerID, reviewedAt, submittedAt, id,
	).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRecordNotFound
		}
		return nil, fmt.Errorf("error updating compliance record: %w", err)
	}

	return r.GetByID(ctx, updatedID)
}

// ListExpiringWithin retrieves records of approved students whose own
// document expiry date falls on or before the given date, joined with
// student and document type for the renewal sweep.
func (r *ComplianceRepository) ListExpiringWithin(ctx context.Context, until time.Time) ([]*models.ExpiringDocument, error) {
	query := `
		SELECT r.id, r.student_id, r.doc_type_id, r.status, r.self_checked,
		       r.submitted_at, r.reviewed_at, r.reviewer_id, r.reject_reason,
		       r.expiry_date, r.file_ref, r.created_at, r.updated_at,
		       t.id, t.name, t.category, t.is_required, t.has_expiry,
		       t.applicable_visa_categories, t.sort_order, t.is_active, t.created_at,
		       s.id, s.first_name, s.last_name, s.email, s.nationality, s.visa_category,
		       s.visa_expiry, s.is_approved, s.agency_id, s.assigned_code, s.created_at
		FROM compliance_records r
		JOIN document_types t ON t.id = r.doc_type_id
		JOIN students s ON s.id = r.student_id
		WHERE s.is_approved = TRUE
		  AND t.has_expiry = TRUE
		  AND r.expiry_date IS NOT NULL
		  AND r.expiry_date <= $1
		ORDER BY r.expiry_date
	`

	rows, err := r.db.Query(ctx, query, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.ExpiringDocument
	for rows.Next() {
		var rec models.ComplianceRecord
		var docType models.DocumentType
		var student models.Student
		if err := rows.Scan(
			&rec.ID, &rec.StudentID, &rec.DocTypeID, &rec.Status, &rec.SelfChecked,
			&rec.SubmittedAt, &rec.ReviewedAt, &rec.ReviewerID, &rec.RejectReason,
			&rec.ExpiryDate, &rec.FileRef, &rec.CreatedAt, &rec.UpdatedAt,
			&docType.ID, &docType.Name, &docType.Category, &docType.IsRequired, &docType.HasExpiry,
			&docType.ApplicableVisaCategories, &docType.SortOrder, &docType.IsActive, &docType.CreatedAt,
			&student.ID, &student.FirstName, &student.LastName, &student.Email, &student.Nationality,
			&student.VisaCategory, &student.VisaExpiry, &student.IsApproved, &student.AgencyID,
			&student.AssignedCode, &student.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.DocumentType = &docType
		docs = append(docs, &models.ExpiringDocument{
			Record:  &rec,
			Student: &student,
			DocType: &docType,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// scanRecordWithType scans one record row with the joined document type.
func scanRecordWithType(row pgx.Row) (*models.ComplianceRecord, error) {
	var rec models.ComplianceRecord
	var docType models.DocumentType
	err := row.Scan(
		&rec.ID,
		&rec.StudentID,
		&rec.DocTypeID,
		&rec.Status,
		&rec.SelfChecked,
		&rec.SubmittedAt,
		&rec.ReviewedAt,
		&rec.ReviewerID,
		&rec.RejectReason,
		&rec.ExpiryDate,
		&rec.FileRef,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&docType.ID,
		&docType.Name,
		&docType.Category,
		&docType.IsRequired,
		&docType.HasExpiry,
		&docType.ApplicableVisaCategories,
		&docType.SortOrder,
		&docType.IsActive,
		&docType.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.DocumentType = &docType
	return &rec, nil
}
