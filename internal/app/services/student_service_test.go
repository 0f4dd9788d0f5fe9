package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
)

func newTestStudentService(students *fakeStudents, agencies *fakeAgencies, codes *fakeCodeStore) *StudentService {
	allocator := NewAllocatorService(codes, agencies, zerolog.Nop())
	svc := NewStudentService(students, agencies, allocator, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestRegisterStudentValidation(t *testing.T) {
	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}

	tests := []struct {
		name    string
		student models.Student
		wantErr error
	}{
		{
			name:    "blank name",
			student: models.Student{FirstName: "  ", LastName: "Nguyen", Email: "minh@example.com", VisaCategory: "D-2"},
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "bad email",
			student: models.Student{FirstName: "Minh", LastName: "Nguyen", Email: "not-an-email", VisaCategory: "D-2"},
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "bad visa category",
			student: models.Student{FirstName: "Minh", LastName: "Nguyen", Email: "minh@example.com", VisaCategory: "tourist"},
			wantErr: apperrors.ErrValidationFailed,
		},
		{
			name:    "valid",
			student: models.Student{FirstName: "Minh", LastName: "Nguyen", Email: "minh@example.com", VisaCategory: "D-4-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestStudentService(newFakeStudents(), newFakeAgencies(), newFakeCodeStore())
			err := svc.RegisterStudent(context.Background(), admin, &tt.student)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, tt.student.IsApproved, "registration never approves")
			assert.Nil(t, tt.student.AssignedCode, "the code is allocated at approval, not registration")
		})
	}
}

func TestRegisterStudentStaffPinnedToOwnAgency(t *testing.T) {
	agencies := newFakeAgencies(
		&models.Agency{ID: 10, Name: "Hanoi Study Link", SequenceNumber: 1},
		&models.Agency{ID: 11, Name: "Saigon Pathways", SequenceNumber: 2},
	)
	svc := newTestStudentService(newFakeStudents(), agencies, newFakeCodeStore())

	staff := models.Caller{UserID: 7, Role: models.RoleAgencyStaff, AgencyID: int64Ptr(10)}
	student := models.Student{FirstName: "Minh", LastName: "Nguyen", Email: "minh@example.com", VisaCategory: "D-2", AgencyID: int64Ptr(11)}
	require.NoError(t, svc.RegisterStudent(context.Background(), staff, &student))

	require.NotNil(t, student.AgencyID)
	assert.Equal(t, int64(10), *student.AgencyID, "staff registrations land in their own agency")
}

func TestRegisterStudentRejectsStudentCaller(t *testing.T) {
	svc := newTestStudentService(newFakeStudents(), newFakeAgencies(), newFakeCodeStore())
	subject := models.Caller{UserID: 40, Role: models.RoleStudent, StudentID: int64Ptr(1)}
	err := svc.RegisterStudent(context.Background(), subject, &models.Student{
		FirstName: "Minh", LastName: "Nguyen", Email: "minh@example.com", VisaCategory: "D-2",
	})
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestApproveStudentsAssignsSequentialCodes(t *testing.T) {
	agencies := newFakeAgencies(&models.Agency{ID: 10, Name: "Hanoi Study Link", SequenceNumber: 1})
	students := newFakeStudents(
		&models.Student{ID: 1, FirstName: "Minh", LastName: "Nguyen", Email: "minh@example.com", VisaCategory: "D-2", AgencyID: int64Ptr(10)},
		&models.Student{ID: 2, FirstName: "Linh", LastName: "Tran", Email: "linh@example.com", VisaCategory: "D-2", AgencyID: int64Ptr(10)},
	)
	svc := newTestStudentService(students, agencies, newFakeCodeStore())

	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}
	outcomes, err := svc.ApproveStudents(context.Background(), admin, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, "260010001", outcomes[0].Code)
	assert.Equal(t, "260010002", outcomes[1].Code)
	for _, o := range outcomes {
		assert.Empty(t, o.Error)
	}

	for _, id := range []int64{1, 2} {
		s, err := students.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, s.IsApproved)
	}
}

func TestApproveStudentsReapprovalIsNoOp(t *testing.T) {
	agencies := newFakeAgencies(&models.Agency{ID: 10, SequenceNumber: 1})
	students := newFakeStudents(&models.Student{
		ID: 1, Email: "minh@example.com", VisaCategory: "D-2",
		AgencyID: int64Ptr(10), IsApproved: true, AssignedCode: strPtr("260010005"),
	})
	codes := newFakeCodeStore()
	svc := newTestStudentService(students, agencies, codes)

	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}
	outcomes, err := svc.ApproveStudents(context.Background(), admin, []int64{1})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	assert.Equal(t, "260010005", outcomes[0].Code, "the existing code is returned unchanged")
	assert.Empty(t, codes.byCode, "no new reservation is attempted")
}

func TestApproveStudentsIsolatesPerStudentFailures(t *testing.T) {
	agencies := newFakeAgencies(&models.Agency{ID: 10, SequenceNumber: 1})
	students := newFakeStudents(
		&models.Student{ID: 1, Email: "minh@example.com", VisaCategory: "D-2", AgencyID: int64Ptr(10)},
		&models.Student{ID: 3, Email: "linh@example.com", VisaCategory: "D-2"}, // no agency
	)
	svc := newTestStudentService(students, agencies, newFakeCodeStore())

	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}
	outcomes, err := svc.ApproveStudents(context.Background(), admin, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, "260010001", outcomes[0].Code)
	assert.Empty(t, outcomes[0].Error)

	assert.Empty(t, outcomes[1].Code, "unknown student")
	assert.NotEmpty(t, outcomes[1].Error)

	assert.Empty(t, outcomes[2].Code, "student without an agency cannot get a code")
	assert.NotEmpty(t, outcomes[2].Error)
}

func TestApproveStudentsReportsExhaustionPerStudent(t *testing.T) {
	agencies := newFakeAgencies(&models.Agency{ID: 10, SequenceNumber: 1})
	students := newFakeStudents(&models.Student{ID: 1, Email: "minh@example.com", VisaCategory: "D-2", AgencyID: int64Ptr(10)})
	codes := newFakeCodeStore()
	codes.reserveErr = uniqueViolation("students_assigned_code_key")
	svc := newTestStudentService(students, agencies, codes)

	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}
	outcomes, err := svc.ApproveStudents(context.Background(), admin, []int64{1})
	require.NoError(t, err, "exhaustion is a per-student outcome, not a batch error")
	require.Len(t, outcomes, 1)
	assert.Empty(t, outcomes[0].Code)
	assert.Equal(t, apperrors.ErrAllocatorExhausted.Error(), outcomes[0].Error)
}

func TestApproveStudentsScopeAndRole(t *testing.T) {
	agencies := newFakeAgencies(&models.Agency{ID: 10, SequenceNumber: 1})
	students := newFakeStudents(&models.Student{ID: 1, Email: "minh@example.com", VisaCategory: "D-2", AgencyID: int64Ptr(10)})
	svc := newTestStudentService(students, agencies, newFakeCodeStore())

	subject := models.Caller{UserID: 40, Role: models.RoleStudent, StudentID: int64Ptr(1)}
	_, err := svc.ApproveStudents(context.Background(), subject, []int64{1})
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// Staff of another agency get a per-student denial, not a batch error.
	otherStaff := models.Caller{UserID: 8, Role: models.RoleAgencyStaff, AgencyID: int64Ptr(11)}
	outcomes, err := svc.ApproveStudents(context.Background(), otherStaff, []int64{1})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, apperrors.ErrPermissionDenied.Error(), outcomes[0].Error)
}
