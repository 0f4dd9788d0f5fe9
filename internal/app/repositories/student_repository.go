package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
)

// StudentRepository handles database operations for students
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
	}
}

// Create inserts a new student record (unapproved, no code yet)
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (first_name, last_name, email, nationality, visa_category, visa_expiry, is_approved, agency_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		student.FirstName, student.LastName, student.Email, student.Nationality,
		student.VisaCategory, student.VisaExpiry, student.IsApproved, student.AgencyID,
	).Scan(&student.ID, &student.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating student: %w", err)
	}

	return nil
}

// GetByID retrieves a student by ID with its agency joined
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	query := `
		SELECT s.id, s.first_name, s.last_name, s.email, s.nationality, s.visa_category,
		       s.visa_expiry, s.is_approved, s.agency_id, s.assigned_code, s.created_at,
		       a.id, a.name, a.code, a.sequence_number, a.is_active, a.created_at
		FROM students s
		LEFT JOIN agencies a ON a.id = s.agency_id
		WHERE s.id = $1
	`

	var student models.Student
	var agencyID *int64
	var agencyName, agencyCode *string
	var agencySeq *int
	var agencyActive *bool
	var agencyCreated *time.Time

	err := r.db.QueryRow(ctx, query, id).Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Nationality,
		&student.VisaCategory,
		&student.VisaExpiry,
		&student.IsApproved,
		&student.AgencyID,
		&student.AssignedCode,
		&student.CreatedAt,
		&agencyID,
		&agencyName,
		&agencyCode,
		&agencySeq,
		&agencyActive,
		&agencyCreated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}

	if agencyID != nil {
		student.Agency = &models.Agency{
			ID:             *agencyID,
			Name:           *agencyName,
			Code:           *agencyCode,
			SequenceNumber: *agencySeq,
			IsActive:       *agencyActive,
			CreatedAt:      *agencyCreated,
		}
	}

	return &student, nil
}

// List retrieves students, optionally filtered to one agency
func (r *StudentRepository) List(ctx context.Context, agencyID *int64) ([]*models.Student, error) {
	query := `
		SELECT id, first_name, last_name, email, nationality, visa_category,
		       visa_expiry, is_approved, agency_id, assigned_code, created_at
		FROM students
		WHERE ($1::bigint IS NULL OR agency_id = $1)
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, agencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStudents(rows)
}

// SetApproved marks a student as approved
func (r *StudentRepository) SetApproved(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE students SET is_approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error approving student: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// CountCodesWithPrefix counts already-allocated codes starting with the given
// agency/year prefix. The result is only a starting point for a candidate
// code; reservation races are settled by the unique index.
func (r *StudentRepository) CountCodesWithPrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM students WHERE assigned_code LIKE $1 || '%'`,
		prefix).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting allocated codes: %w", err)
	}
	return count, nil
}

// ReserveCode attempts to claim a candidate code for a student that has none
// yet. The unique index on assigned_code rejects a code another student
// already holds; that error is the allocator's retry signal, not a failure.
func (r *StudentRepository) ReserveCode(ctx context.Context, studentID int64, code string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE students SET assigned_code = $1 WHERE id = $2 AND assigned_code IS NULL`,
		code, studentID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		// Either the student does not exist or a code is already set.
		student, getErr := r.GetByID(ctx, studentID)
		if getErr != nil {
			return getErr
		}
		if student.AssignedCode != nil {
			return apperrors.ErrCodeAlreadySet
		}
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// ListApprovedWithVisaExpiryWithin retrieves approved students whose visa
// expires on or before the given date. Used by the alert sweeps.
func (r *StudentRepository) ListApprovedWithVisaExpiryWithin(ctx context.Context, until time.Time) ([]*models.Student, error) {
	query := `
		SELECT id, first_name, last_name, email, nationality, visa_category,
		       visa_expiry, is_approved, agency_id, assigned_code, created_at
		FROM students
		WHERE is_approved = TRUE
		  AND visa_expiry IS NOT NULL
		  AND visa_expiry <= $1
		ORDER BY visa_expiry
	`

	rows, err := r.db.Query(ctx, query, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStudents(rows)
}

func scanStudents(rows pgx.Rows) ([]*models.Student, error) {
	var students []*models.Student
	for rows.Next() {
		var student models.Student
		if err := rows.Scan(
			&student.ID,
			&student.FirstName,
			&student.LastName,
			&student.Email,
			&student.Nationality,
			&student.VisaCategory,
			&student.VisaExpiry,
			&student.IsApproved,
			&student.AgencyID,
			&student.AssignedCode,
			&student.CreatedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, &student)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}
