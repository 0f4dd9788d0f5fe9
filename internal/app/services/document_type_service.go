package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/app/repositories"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
)

// DocumentTypeService handles administration of document type definitions.
// Only administrators mutate them; the resolver reads them on every
// checklist access.
type DocumentTypeService struct {
	docTypeRepo *repositories.DocumentTypeRepository
	logger      zerolog.Logger
}

// NewDocumentTypeService creates a new document type service
func NewDocumentTypeService(docTypeRepo *repositories.DocumentTypeRepository, logger zerolog.Logger) *DocumentTypeService {
	return &DocumentTypeService{
		docTypeRepo: docTypeRepo,
		logger:      logger,
	}
}

func (s *DocumentTypeService) validate(docType *models.DocumentType) error {
	if strings.TrimSpace(docType.Name) == "" {
		return apperrors.NewValidationError("document type name cannot be empty")
	}
	if !docType.Category.IsValid() {
		return apperrors.NewValidationError("unknown document category")
	}
	for _, cat := range docType.ApplicableVisaCategories {
		if strings.TrimSpace(cat) == "" {
			return apperrors.NewValidationError("visa category entries cannot be empty")
		}
	}
	return nil
}

// CreateDocumentType creates a new definition
func (s *DocumentTypeService) CreateDocumentType(ctx context.Context, caller models.Caller, docType *models.DocumentType) error {
	if caller.Role != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}
	if err := s.validate(docType); err != nil {
		return err
	}

	exists, err := s.docTypeRepo.ExistsByName(ctx, docType.Name)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewConflictError("an active document type with this name already exists")
	}

	docType.IsActive = true
	return s.docTypeRepo.Create(ctx, docType)
}

// UpdateDocumentType rewrites a definition. Applicability changes are never
// applied retroactively to provisioned records; the resolver only adds.
func (s *DocumentTypeService) UpdateDocumentType(ctx context.Context, caller models.Caller, docType *models.DocumentType) error {
	if caller.Role != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}
	if docType.ID <= 0 {
		return apperrors.NewValidationError("document type ID must be positive")
	}
	if err := s.validate(docType); err != nil {
		return err
	}
	return s.docTypeRepo.Update(ctx, docType)
}

// DeactivateDocumentType soft-deletes a definition
func (s *DocumentTypeService) DeactivateDocumentType(ctx context.Context, caller models.Caller, id int64) error {
	if caller.Role != models.RoleAdmin {
		return apperrors.ErrPermissionDenied
	}
	if id <= 0 {
		return apperrors.NewValidationError("document type ID must be positive")
	}
	return s.docTypeRepo.Deactivate(ctx, id)
}

// GetDocumentTypeByID retrieves a definition by ID
func (s *DocumentTypeService) GetDocumentTypeByID(ctx context.Context, id int64) (*models.DocumentType, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("document type ID must be positive")
	}
	return s.docTypeRepo.GetByID(ctx, id)
}

// ListDocumentTypes lists definitions; admins optionally include inactive ones
func (s *DocumentTypeService) ListDocumentTypes(ctx context.Context, caller models.Caller, includeInactive bool) ([]*models.DocumentType, error) {
	if includeInactive && caller.Role == models.RoleAdmin {
		return s.docTypeRepo.ListAll(ctx)
	}
	return s.docTypeRepo.ListActive(ctx)
}
