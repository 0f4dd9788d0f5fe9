package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
	"github.com/orbisedu/backoffice/internal/pkg/validation"
)

// StudentStore is the persistence surface for student management.
type StudentStore interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	List(ctx context.Context, agencyID *int64) ([]*models.Student, error)
	SetApproved(ctx context.Context, id int64) error
}

// StudentService handles student registration, listing and approval.
type StudentService struct {
	studentRepo StudentStore
	agencyRepo  AgencyReader
	allocator   *AllocatorService
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentService creates a new student service
func NewStudentService(studentRepo StudentStore, agencyRepo AgencyReader, allocator *AllocatorService, logger zerolog.Logger) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		agencyRepo:  agencyRepo,
		allocator:   allocator,
		logger:      logger,
		now:         time.Now,
	}
}

// RegisterStudent creates an unapproved student. The code stays unassigned
// until approval.
func (s *StudentService) RegisterStudent(ctx context.Context, caller models.Caller, student *models.Student) error {
	if !caller.IsReviewer() {
		return apperrors.ErrPermissionDenied
	}

	if strings.TrimSpace(student.FirstName) == "" || strings.TrimSpace(student.LastName) == "" {
		return apperrors.NewValidationError("student name cannot be empty")
	}
	if !validation.IsValidEmail(student.Email) {
		return apperrors.NewValidationError("student email is invalid")
	}
	if !validation.IsValidVisaCategory(student.VisaCategory) {
		return apperrors.NewValidationError("visa category is invalid")
	}

	// Agency staff register into their own agency only.
	if caller.Role == models.RoleAgencyStaff {
		student.AgencyID = caller.AgencyID
	}
	if student.AgencyID != nil {
		if _, err := s.agencyRepo.GetByID(ctx, *student.AgencyID); err != nil {
			return err
		}
	}

	student.IsApproved = false
	student.AssignedCode = nil

	return s.studentRepo.Create(ctx, student)
}

// GetStudent retrieves a student within the caller's scope.
func (s *StudentService) GetStudent(ctx context.Context, caller models.Caller, id int64) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReadScope(caller, student); err != nil {
		return nil, err
	}
	return student, nil
}

// ListStudents lists students; agency staff see only their own agency.
func (s *StudentService) ListStudents(ctx context.Context, caller models.Caller) ([]*models.Student, error) {
	switch caller.Role {
	case models.RoleAdmin:
		return s.studentRepo.List(ctx, nil)
	case models.RoleAgencyStaff:
		if caller.AgencyID == nil {
			return nil, apperrors.ErrPermissionDenied
		}
		return s.studentRepo.List(ctx, caller.AgencyID)
	default:
		return nil, apperrors.ErrPermissionDenied
	}
}

// ApprovalOutcome reports the result for one student of a batch approval.
type ApprovalOutcome struct {
	StudentID int64  `json:"studentId"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ApproveStudents approves the given students and allocates their codes.
// Allocation runs sequentially: the allocator is not safely parallelizable
// for one agency/year, and a batch usually belongs to a single agency.
// Individual failures (notably an exhausted retry budget) are reported
// per student and do not abort the rest of the batch.
func (s *StudentService) ApproveStudents(ctx context.Context, caller models.Caller, studentIDs []int64) ([]ApprovalOutcome, error) {
	if !caller.IsReviewer() {
		return nil, apperrors.ErrPermissionDenied
	}
	if len(studentIDs) == 0 {
		return nil, apperrors.NewValidationError("no students to approve")
	}

	outcomes := make([]ApprovalOutcome, 0, len(studentIDs))
	for _, id := range studentIDs {
		outcome := ApprovalOutcome{StudentID: id}

		code, err := s.approveOne(ctx, caller, id)
		if err != nil {
			outcome.Error = err.Error()
			s.logger.Error().Err(err).Int64("studentId", id).Msg("Student approval failed")
		} else {
			outcome.Code = code
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *StudentService) approveOne(ctx context.Context, caller models.Caller, id int64) (string, error) {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !caller.CanReviewStudent(student) {
		return "", apperrors.ErrPermissionDenied
	}
	if student.AgencyID == nil {
		return "", apperrors.NewValidationError("student has no agency, cannot allocate a code")
	}

	// Re-approving is a no-op; the code was set exactly once.
	if student.AssignedCode != nil {
		return *student.AssignedCode, nil
	}

	if !student.IsApproved {
		if err := s.studentRepo.SetApproved(ctx, id); err != nil {
			return "", err
		}
	}

	code, err := s.allocator.Allocate(ctx, id, *student.AgencyID, s.now().Year())
	if err != nil {
		if errors.Is(err, apperrors.ErrCodeAlreadySet) {
			// A concurrent approval beat us to the allocation.
			current, getErr := s.studentRepo.GetByID(ctx, id)
			if getErr == nil && current.AssignedCode != nil {
				return *current.AssignedCode, nil
			}
		}
		return "", err
	}
	return code, nil
}

func (s *StudentService) checkReadScope(caller models.Caller, student *models.Student) error {
	switch caller.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleAgencyStaff:
		if caller.CanReviewStudent(student) {
			return nil
		}
	case models.RoleStudent:
		if caller.StudentID != nil && *caller.StudentID == student.ID {
			return nil
		}
	}
	return apperrors.ErrPermissionDenied
}
