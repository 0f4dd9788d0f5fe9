package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
)

// DocumentTypeRepository handles database operations for document type definitions
type DocumentTypeRepository struct {
	db *pgxpool.Pool
}

// NewDocumentTypeRepository creates a new document type repository
func NewDocumentTypeRepository(db *pgxpool.Pool) *DocumentTypeRepository {
	return &DocumentTypeRepository{
		db: db,
	}
}

// Create inserts a new document type definition
func (r *DocumentTypeRepository) Create(ctx context.Context, docType *models.DocumentType) error {
	query := `
		INSERT INTO document_types (name, category, is_required, has_expiry, applicable_visa_categories, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		docType.Name, docType.Category, docType.IsRequired, docType.HasExpiry,
		docType.ApplicableVisaCategories, docType.SortOrder, docType.IsActive,
	).Scan(&docType.ID, &docType.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating document type: %w", err)
	}

	return nil
}

// GetByID retrieves a document type by ID
func (r *DocumentTypeRepository) GetByID(ctx context.Context, id int64) (*models.DocumentType, error) {
	query := `
		SELECT id, name, category, is_required, has_expiry, applicable_visa_categories, sort_order, is_active, created_at
		FROM document_types
		WHERE id = $1
	`

	var docType models.DocumentType
	err := r.db.QueryRow(ctx, query, id).Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDocumentTypeNotFound
		}
		return nil, fmt.Errorf("error retrieving document type: %w", err)
	}

	return &docType, nil
}

// ListActive retrieves all active document types ordered for display. Read on
// every checklist access; no caching beyond the store's own consistency.
func (r *DocumentTypeRepository) ListActive(ctx context.Context) ([]*models.DocumentType, error) {
	return r.list(ctx, true)
}

// ListAll retrieves every document type, active or not
func (r *DocumentTypeRepository) ListAll(ctx context.Context) ([]*models.DocumentType, error) {
	return r.list(ctx, false)
}

func (r *DocumentTypeRepository) list(ctx context.Context, activeOnly bool) ([]*models.DocumentType, error) {
	query := `
		SELECT id, name, category, is_required, has_expiry, applicable_visa_categories, sort_order, is_active, created_at
		FROM document_types
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY sort_order, id
	`

	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docTypes []*models.DocumentType
	for rows.Next() {
		var docType models.DocumentType
		if err := rows.Scan(
			&docType.ID,
			&docType.Name,
			&docType.Category,
			&docType.IsRequired,
			&docType.HasExpiry,
			&docType.ApplicableVisaCategories,
			&docType.SortOrder,
			&docType.IsActive,
			&docType.CreatedAt,
		); err != nil {
			return nil, err
		}
		docTypes = append(docTypes, &docType)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docTypes, nil
}

// Update rewrites a document type definition
func (r *DocumentTypeRepository) Update(ctx context.Context, docType *models.DocumentType) error {
	query := `
		UPDATE document_types
		SET name = $1, category = $2, is_required = $3, has_expiry = $4,
		    applicable_visa_categories = $5, sort_order = $6, is_active = $7
		WHERE id = $8
	`

	cmdTag, err := r.db.Exec(ctx, query,
		docType.Name, docType.Category, docType.IsRequired, docType.HasExpiry,
		docType.ApplicableVisaCategories, docType.SortOrder, docType.IsActive,
		docType.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating document type: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrDocumentTypeNotFound
	}

	return nil
}

// Deactivate soft-deletes a document type. Definitions are never removed once
// compliance records reference them.
func (r *DocumentTypeRepository) Deactivate(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE document_types SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deactivating document type: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrDocumentTypeNotFound
	}
	return nil
}

// ExistsByName checks if an active document type with the given name exists
func (r *DocumentTypeRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM document_types WHERE name = $1 AND is_active = TRUE)`,
		name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking document type existence: %w", err)
	}

	return exists, nil
}
