package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
	"github.com/orbisedu/backoffice/internal/pkg/dberrors"
)

// maxAllocateAttempts bounds the reservation retry loop. Exhausting it means
// something is badly wrong (or absurdly contended); the caller gets a
// resource-exhausted error instead of an infinite loop.
const maxAllocateAttempts = 20

// CodeStore is the persistence surface the allocator needs. The unique index
// behind ReserveCode is the actual uniqueness guarantee.
type CodeStore interface {
	CountCodesWithPrefix(ctx context.Context, prefix string) (int, error)
	ReserveCode(ctx context.Context, studentID int64, code string) error
}

// AgencyReader resolves agencies for code construction.
type AgencyReader interface {
	GetByID(ctx context.Context, id int64) (*models.Agency, error)
}

// AllocatorService assigns unique, human-readable student codes of the form
// YY + agency number (3 digits) + per-agency-year sequence (4+ digits).
type AllocatorService struct {
	codes    CodeStore
	agencies AgencyReader
	logger   zerolog.Logger

	// Per-(agency, year) serialization of in-process batch allocations. This
	// is a fast path that avoids burning retry attempts inside one batch;
	// across instances the unique index settles every race.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAllocatorService creates a new allocator service
func NewAllocatorService(codes CodeStore, agencies AgencyReader, logger zerolog.Logger) *AllocatorService {
	return &AllocatorService{
		codes:    codes,
		agencies: agencies,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Allocate reserves a code for the student under (agency, year). The
// candidate sequence is derived from the count of already-allocated codes;
// losing the reservation race bumps the candidate and retries until the
// attempt budget runs out.
func (s *AllocatorService) Allocate(ctx context.Context, studentID, agencyID int64, year int) (string, error) {
	agency, err := s.agencies.GetByID(ctx, agencyID)
	if err != nil {
		return "", err
	}

	prefix := fmt.Sprintf("%02d%03d", year%100, agency.SequenceNumber)

	lock := s.lockFor(prefix)
	lock.Lock()
	defer lock.Unlock()

	allocated, err := s.codes.CountCodesWithPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("error counting codes for prefix %s: %w", prefix, err)
	}

	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%04d", prefix, allocated+1+attempt)

		err := s.codes.ReserveCode(ctx, studentID, candidate)
		if err == nil {
			s.logger.Info().
				Int64("studentId", studentID).
				Str("code", candidate).
				Int("attempt", attempt+1).
				Msg("Student code allocated")
			return candidate, nil
		}
		if dberrors.IsUniqueViolation(err) {
			// A concurrent allocation won this candidate; try the next one.
			continue
		}
		return "", err
	}

	s.logger.Error().
		Int64("studentId", studentID).
		Str("prefix", prefix).
		Int("attempts", maxAllocateAttempts).
		Msg("Code allocation retry budget exhausted")
	return "", apperrors.ErrAllocatorExhausted
}

func (s *AllocatorService) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
