package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbisedu/backoffice/internal/app/auth"
	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
)

var checklistNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestChecklist(students *fakeStudents, docTypes *fakeDocTypes, store *fakeComplianceStore, notifier *fakeNotifier) *ChecklistService {
	svc := NewChecklistService(students, docTypes, store, notifier, zerolog.Nop())
	svc.now = func() time.Time { return checklistNow }
	return svc
}

func statusPtr(s models.DocumentStatus) *models.DocumentStatus { return &s }
func boolPtr(b bool) *bool                                     { return &b }
func strPtr(s string) *string                                  { return &s }
func int64Ptr(i int64) *int64                                  { return &i }

func languageDocTypes() *fakeDocTypes {
	return &fakeDocTypes{docTypes: []*models.DocumentType{
		{ID: 1, Name: "Passport", IsRequired: true, IsActive: true},
		{ID: 2, Name: "Financial Statement", IsRequired: true, IsActive: true, ApplicableVisaCategories: []string{"D-2", "D-4-1"}},
		{ID: 3, Name: "Tuberculosis Test Result", IsRequired: true, IsActive: true, ApplicableVisaCategories: []string{"D-4-1"}},
		{ID: 4, Name: "Old Form", IsActive: false},
	}}
}

func TestResolveProvisionsApplicableTypes(t *testing.T) {
	tests := []struct {
		name         string
		visaCategory string
		wantDocTypes []int64
	}{
		{name: "language student gets all three", visaCategory: "D-4-1", wantDocTypes: []int64{1, 2, 3}},
		{name: "degree student skips TB test", visaCategory: "D-2", wantDocTypes: []int64{1, 2}},
		{name: "unlisted category gets universal types only", visaCategory: "D-10", wantDocTypes: []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students := newFakeStudents(&models.Student{ID: 1, VisaCategory: tt.visaCategory})
			store := newFakeComplianceStore()
			svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

			records, err := svc.Resolve(context.Background(), 1)
			require.NoError(t, err)

			got := make(map[int64]models.DocumentStatus, len(records))
			for _, rec := range records {
				got[rec.DocTypeID] = rec.Status
			}
			require.Len(t, got, len(tt.wantDocTypes))
			for _, id := range tt.wantDocTypes {
				assert.Equal(t, models.DocStatusPending, got[id], "doc type %d", id)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-4-1"})
	store := newFakeComplianceStore()
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	first, err := svc.Resolve(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}

func TestResolveConcurrentAccessCreatesNoDuplicates(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-4-1"})
	store := newFakeComplianceStore()
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Resolve(context.Background(), 1)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
	}
	records, err := store.ListByStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestResolveNeverRevokesRecords(t *testing.T) {
	// The student already has a record for a type that no longer applies to
	// their visa category. Resolution must keep it.
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2"})
	store := newFakeComplianceStore()
	store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 3, Status: models.DocStatusSubmitted})
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	records, err := svc.Resolve(context.Background(), 1)
	require.NoError(t, err)

	byType := make(map[int64]models.DocumentStatus)
	for _, rec := range records {
		byType[rec.DocTypeID] = rec.Status
	}
	assert.Equal(t, models.DocStatusSubmitted, byType[3], "stale record must survive")
	assert.Contains(t, byType, int64(1))
	assert.Contains(t, byType, int64(2))
}

func TestUpdateRecordSubjectSubmits(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2", AgencyID: int64Ptr(10)})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1, Status: models.DocStatusPending})
	notifier := &fakeNotifier{}
	svc := newTestChecklist(students, languageDocTypes(), store, notifier)

	subject := models.Caller{UserID: 50, Role: models.RoleStudent, StudentID: int64Ptr(1)}
	updated, err := svc.UpdateRecord(context.Background(), subject, rec.ID, auth.RecordPatch{
		Status:  statusPtr(models.DocStatusSubmitted),
		FileRef: strPtr("s3://docs/passport.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.DocStatusSubmitted, updated.Status)
	require.NotNil(t, updated.SubmittedAt)
	assert.True(t, updated.SubmittedAt.Equal(checklistNow))
	assert.Nil(t, updated.ReviewerID, "subject transitions carry no reviewer stamp")
	assert.Nil(t, updated.ReviewedAt)
	assert.Empty(t, notifier.notices)
}

func TestUpdateRecordSubjectCannotApprove(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2"})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1, Status: models.DocStatusSubmitted})
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	subject := models.Caller{UserID: 50, Role: models.RoleStudent, StudentID: int64Ptr(1)}

	// Approval attempt is dropped; with nothing else in the patch the update
	// is empty and errors.
	_, err := svc.UpdateRecord(context.Background(), subject, rec.ID, auth.RecordPatch{
		Status: statusPtr(models.DocStatusApproved),
	})
	require.ErrorIs(t, err, apperrors.ErrNoValidFields)

	// Smuggled next to a legal field it is still dropped.
	updated, err := svc.UpdateRecord(context.Background(), subject, rec.ID, auth.RecordPatch{
		Status:      statusPtr(models.DocStatusApproved),
		SelfChecked: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusSubmitted, updated.Status)
	assert.True(t, updated.SelfChecked)
}

func TestUpdateRecordSubjectMustOwnRecord(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2"})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1, Status: models.DocStatusPending})
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	stranger := models.Caller{UserID: 51, Role: models.RoleStudent, StudentID: int64Ptr(2)}
	_, err := svc.UpdateRecord(context.Background(), stranger, rec.ID, auth.RecordPatch{
		SelfChecked: boolPtr(true),
	})
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestUpdateRecordReviewerApproves(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, Email: "minh@example.com", VisaCategory: "D-2", AgencyID: int64Ptr(10)})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1, Status: models.DocStatusReviewing})
	notifier := &fakeNotifier{}
	svc := newTestChecklist(students, languageDocTypes(), store, notifier)

	staff := models.Caller{UserID: 7, Role: models.RoleAgencyStaff, AgencyID: int64Ptr(10)}
	updated, err := svc.UpdateRecord(context.Background(), staff, rec.ID, auth.RecordPatch{
		Status: statusPtr(models.DocStatusApproved),
	})
	require.NoError(t, err)

	assert.Equal(t, models.DocStatusApproved, updated.Status)
	require.NotNil(t, updated.ReviewerID)
	assert.Equal(t, int64(7), *updated.ReviewerID)
	require.NotNil(t, updated.ReviewedAt)
	assert.True(t, updated.ReviewedAt.Equal(checklistNow))

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, models.DocStatusApproved, notifier.notices[0].Status)
}

func TestUpdateRecordRejectRequiresReason(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2", AgencyID: int64Ptr(10)})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1, Status: models.DocStatusReviewing})
	notifier := &fakeNotifier{}
	svc := newTestChecklist(students, languageDocTypes(), store, notifier)

	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}

	tests := []struct {
		name   string
		reason *string
	}{
		{name: "missing reason", reason: nil},
		{name: "blank reason", reason: strPtr("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateRecord(context.Background(), admin, rec.ID, auth.RecordPatch{
				Status:       statusPtr(models.DocStatusRejected),
				RejectReason: tt.reason,
			})
			require.ErrorIs(t, err, apperrors.ErrRejectReasonRequired)
		})
	}

	// Nothing was mutated or notified by the failed attempts.
	current, err := store.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusReviewing, current.Status)
	assert.Empty(t, notifier.notices)

	updated, err := svc.UpdateRecord(context.Background(), admin, rec.ID, auth.RecordPatch{
		Status:       statusPtr(models.DocStatusRejected),
		RejectReason: strPtr("document is illegible"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusRejected, updated.Status)
	require.NotNil(t, updated.RejectReason)
	assert.Equal(t, "document is illegible", *updated.RejectReason)

	require.Len(t, notifier.notices, 1)
	assert.Equal(t, "document is illegible", notifier.notices[0].RejectReason)
}

func TestUpdateRecordReviewerInvalidStatus(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2"})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1})
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}
	_, err := svc.UpdateRecord(context.Background(), admin, rec.ID, auth.RecordPatch{
		Status: statusPtr(models.DocumentStatus("SHREDDED")),
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestUpdateRecordStaffScopedToOwnAgency(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2", AgencyID: int64Ptr(10)})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1})
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	otherStaff := models.Caller{UserID: 7, Role: models.RoleAgencyStaff, AgencyID: int64Ptr(11)}
	_, err := svc.UpdateRecord(context.Background(), otherStaff, rec.ID, auth.RecordPatch{
		Status: statusPtr(models.DocStatusReviewing),
	})
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestUpdateRecordReviewerSelfCheckDropped(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2", AgencyID: int64Ptr(10)})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1})
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}
	_, err := svc.UpdateRecord(context.Background(), admin, rec.ID, auth.RecordPatch{
		SelfChecked: boolPtr(true),
	})
	require.ErrorIs(t, err, apperrors.ErrNoValidFields)
}

func TestUpdateRecordEmptyPatch(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2"})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1})
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	admin := models.Caller{UserID: 2, Role: models.RoleAdmin}
	_, err := svc.UpdateRecord(context.Background(), admin, rec.ID, auth.RecordPatch{})
	require.ErrorIs(t, err, apperrors.ErrNoValidFields)
}

func TestUpdateRecordRejectedCanBeResubmittedByReviewer(t *testing.T) {
	students := newFakeStudents(&models.Student{ID: 1, VisaCategory: "D-2", AgencyID: int64Ptr(10)})
	store := newFakeComplianceStore()
	rec := store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1, Status: models.DocStatusRejected})
	svc := newTestChecklist(students, languageDocTypes(), store, &fakeNotifier{})

	staff := models.Caller{UserID: 7, Role: models.RoleAgencyStaff, AgencyID: int64Ptr(10)}
	updated, err := svc.UpdateRecord(context.Background(), staff, rec.ID, auth.RecordPatch{
		Status: statusPtr(models.DocStatusReviewing),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusReviewing, updated.Status)
}
