package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/db"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
	"github.com/orbisedu/backoffice/internal/pkg/dberrors"
)

// AgencyRepository handles database operations for agencies
type AgencyRepository struct {
	db *pgxpool.Pool
}

// NewAgencyRepository creates a new agency repository
func NewAgencyRepository(db *pgxpool.Pool) *AgencyRepository {
	return &AgencyRepository{
		db: db,
	}
}

// Create inserts a new agency, deriving its sequence number inside the same
// transaction as the insert. Two creations can still race between the read
// and the write; the unique index on sequence_number settles that, and the
// caller retries on a unique violation. A violation on the code is a genuine
// conflict and is mapped here.
func (r *AgencyRepository) Create(ctx context.Context, agency *models.Agency) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM agencies`,
		).Scan(&agency.SequenceNumber)
		if err != nil {
			return fmt.Errorf("error deriving next agency sequence number: %w", err)
		}

		query := `
			INSERT INTO agencies (name, code, sequence_number, is_active)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`
		err = tx.QueryRow(ctx, query,
			agency.Name, agency.Code, agency.SequenceNumber, agency.IsActive,
		).Scan(&agency.ID, &agency.CreatedAt)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "agencies_code_key") {
				return apperrors.ErrAgencyAlreadyExists
			}
			return err
		}
		return nil
	})
}

// GetByID retrieves an agency by ID
func (r *AgencyRepository) GetByID(ctx context.Context, id int64) (*models.Agency, error) {
	query := `
		SELECT id, name, code, sequence_number, is_active, created_at
		FROM agencies
		WHERE id = $1
	`

	var agency models.Agency
	err := r.db.QueryRow(ctx, query, id).Scan(
		&agency.ID,
		&agency.Name,
		&agency.Code,
		&agency.SequenceNumber,
		&agency.IsActive,
		&agency.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAgencyNotFound
		}
		return nil, fmt.Errorf("error retrieving agency: %w", err)
	}

	return &agency, nil
}

// GetAll retrieves all agencies ordered by sequence number
func (r *AgencyRepository) GetAll(ctx context.Context) ([]*models.Agency, error) {
	query := `
		SELECT id, name, code, sequence_number, is_active, created_at
		FROM agencies
		ORDER BY sequence_number
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agencies []*models.Agency
	for rows.Next() {
		var agency models.Agency
		if err := rows.Scan(
			&agency.ID,
			&agency.Name,
			&agency.Code,
			&agency.SequenceNumber,
			&agency.IsActive,
			&agency.CreatedAt,
		); err != nil {
			return nil, err
		}
		agencies = append(agencies, &agency)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return agencies, nil
}
