package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/app/repositories"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
	"github.com/orbisedu/backoffice/internal/pkg/dberrors"
	"github.com/orbisedu/backoffice/internal/pkg/validation"
)

// Sequence-number creation races are rare (agencies are created by hand), so
// a small budget is plenty.
const maxSequenceAttempts = 5

// AgencyService handles agency administration
type AgencyService struct {
	agencyRepo *repositories.AgencyRepository
	logger     zerolog.Logger
}

// NewAgencyService creates a new agency service
func NewAgencyService(agencyRepo *repositories.AgencyRepository, logger zerolog.Logger) *AgencyService {
	return &AgencyService{
		agencyRepo: agencyRepo,
		logger:     logger,
	}
}

// CreateAgency creates an agency with a freshly assigned sequence number.
// The repository derives the number transactionally and reserves it through
// the unique index; losing that race re-derives and retries. Once assigned
// it is never changed or reused.
func (s *AgencyService) CreateAgency(ctx context.Context, name, code string) (*models.Agency, error) {
	name = strings.TrimSpace(name)
	code = strings.ToUpper(strings.TrimSpace(code))

	if name == "" {
		return nil, apperrors.NewValidationError("agency name cannot be empty")
	}
	if !validation.IsValidAgencyCode(code) {
		return nil, apperrors.NewValidationError("agency code must be 2-16 uppercase letters or digits")
	}

	for attempt := 0; attempt < maxSequenceAttempts; attempt++ {
		agency := &models.Agency{
			Name:     name,
			Code:     code,
			IsActive: true,
		}

		err := s.agencyRepo.Create(ctx, agency)
		if err == nil {
			s.logger.Info().
				Str("code", code).
				Int("sequenceNumber", agency.SequenceNumber).
				Msg("Agency created")
			return agency, nil
		}
		if errors.Is(err, apperrors.ErrAgencyAlreadyExists) {
			return nil, err
		}
		if dberrors.IsUniqueViolation(err) {
			// Concurrent creation took the same sequence number.
			continue
		}
		return nil, fmt.Errorf("error creating agency: %w", err)
	}

	return nil, apperrors.NewConflictError("could not assign an agency sequence number, please retry")
}

// GetAgencyByID retrieves an agency by ID
func (s *AgencyService) GetAgencyByID(ctx context.Context, id int64) (*models.Agency, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("agency ID must be positive")
	}
	return s.agencyRepo.GetByID(ctx, id)
}

// GetAllAgencies retrieves all agencies
func (s *AgencyService) GetAllAgencies(ctx context.Context) ([]*models.Agency, error) {
	return s.agencyRepo.GetAll(ctx)
}
