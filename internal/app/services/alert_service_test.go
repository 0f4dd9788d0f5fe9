package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbisedu/backoffice/internal/app/models"
)

// sweepDay is the fixed "today" every sweep test runs on.
var sweepDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func newTestAlertService(students *fakeStudents, docTypes *fakeDocTypes, store *fakeComplianceStore, ledger *fakeLedger, mailer *fakeMailer) *AlertService {
	svc := NewAlertService(students, docTypes, store, ledger, mailer, zerolog.Nop())
	svc.now = func() time.Time { return sweepDay.Add(9 * time.Hour) }
	return svc
}

func daysFromSweepDay(days int) *time.Time {
	d := sweepDay.AddDate(0, 0, days)
	return &d
}

func approvedStudent(id int64, daysToVisaExpiry int) *models.Student {
	return &models.Student{
		ID:           id,
		FirstName:    "Student",
		LastName:     fmt.Sprintf("%d", id),
		Email:        fmt.Sprintf("student%d@example.com", id),
		VisaCategory: "D-2",
		VisaExpiry:   daysFromSweepDay(daysToVisaExpiry),
		IsApproved:   true,
	}
}

func TestSweepVisaAlertFiresOnExactThresholdsOnly(t *testing.T) {
	tests := []struct {
		daysLeft int
		want     int
	}{
		{daysLeft: 6, want: 0},
		{daysLeft: 7, want: 1},
		{daysLeft: 8, want: 0},
		{daysLeft: 29, want: 0},
		{daysLeft: 30, want: 1},
		{daysLeft: 31, want: 0},
		{daysLeft: 89, want: 0},
		{daysLeft: 90, want: 1},
		{daysLeft: 91, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d days left", tt.daysLeft), func(t *testing.T) {
			mailer := newFakeMailer()
			ledger := newFakeLedger()
			svc := newTestAlertService(
				newFakeStudents(approvedStudent(1, tt.daysLeft)),
				&fakeDocTypes{},
				newFakeComplianceStore(),
				ledger,
				mailer,
			)

			result, err := svc.RunDailySweep(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.want, result.VisaAlerts)
			assert.Len(t, mailer.sent, tt.want)
			assert.Equal(t, tt.want, ledger.size())
			assert.Zero(t, result.Failures)
		})
	}
}

func TestSweepSecondRunSameDayIsDeduplicated(t *testing.T) {
	mailer := newFakeMailer()
	ledger := newFakeLedger()
	svc := newTestAlertService(
		newFakeStudents(approvedStudent(1, 30)),
		&fakeDocTypes{},
		newFakeComplianceStore(),
		ledger,
		mailer,
	)

	first, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.VisaAlerts)
	assert.Zero(t, first.Skipped)

	second, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.VisaAlerts)
	assert.Equal(t, 1, second.Skipped)

	assert.Len(t, mailer.sent, 1, "one delivery across both runs")
	assert.Equal(t, 1, ledger.size())
}

func TestSweepMissingDocumentsSendsOneCombinedAlert(t *testing.T) {
	docTypes := &fakeDocTypes{docTypes: []*models.DocumentType{
		{ID: 1, Name: "Passport", IsRequired: true, IsActive: true},
		{ID: 2, Name: "Financial Statement", IsRequired: true, IsActive: true, ApplicableVisaCategories: []string{"D-2"}},
		{ID: 3, Name: "Tuberculosis Test Result", IsRequired: true, IsActive: true, ApplicableVisaCategories: []string{"D-4-1"}},
		{ID: 4, Name: "Photo", IsRequired: false, IsActive: true},
	}}

	// No record for the passport, a rejected financial statement. Both are
	// outstanding; the TB test does not apply to a D-2 student.
	store := newFakeComplianceStore()
	store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 2, Status: models.DocStatusRejected})

	mailer := newFakeMailer()
	svc := newTestAlertService(newFakeStudents(approvedStudent(1, 30)), docTypes, store, newFakeLedger(), mailer)

	result, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.MissingDocAlerts)

	sent := mailer.sentTo("student1@example.com")
	require.Len(t, sent, 2, "visa reminder plus one combined missing-docs alert")
	body := sent[1].body
	assert.Contains(t, body, "Passport")
	assert.Contains(t, body, "Financial Statement")
	assert.NotContains(t, body, "Tuberculosis")
	assert.NotContains(t, body, "Photo")
}

func TestSweepMissingDocumentsSkipsCompliantStudent(t *testing.T) {
	docTypes := &fakeDocTypes{docTypes: []*models.DocumentType{
		{ID: 1, Name: "Passport", IsRequired: true, IsActive: true},
		{ID: 2, Name: "Financial Statement", IsRequired: true, IsActive: true},
	}}

	// Submitted and approved records are in flight or done, not outstanding.
	store := newFakeComplianceStore()
	store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 1, Status: models.DocStatusApproved})
	store.add(&models.ComplianceRecord{StudentID: 1, DocTypeID: 2, Status: models.DocStatusSubmitted})

	mailer := newFakeMailer()
	svc := newTestAlertService(newFakeStudents(approvedStudent(1, 30)), docTypes, store, newFakeLedger(), mailer)

	result, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.MissingDocAlerts)
	assert.Len(t, mailer.sentTo("student1@example.com"), 1, "only the visa reminder")
}

func TestSweepDeliveryFailureIsIsolatedAndRetriedNextRun(t *testing.T) {
	mailer := newFakeMailer()
	mailer.failFor["student1@example.com"] = true
	ledger := newFakeLedger()
	svc := newTestAlertService(
		newFakeStudents(approvedStudent(1, 30), approvedStudent(2, 30)),
		&fakeDocTypes{},
		newFakeComplianceStore(),
		ledger,
		mailer,
	)

	first, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.VisaAlerts, "the healthy candidate is still processed")
	assert.Equal(t, 1, first.Failures)
	assert.Len(t, mailer.sentTo("student2@example.com"), 1)
	assert.Equal(t, 1, ledger.size(), "no ledger row for the failed delivery")

	// The failed candidate retries on the next run of the same day; the
	// delivered one is deduplicated.
	mailer.failFor["student1@example.com"] = false
	second, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.VisaAlerts)
	assert.Equal(t, 1, second.Skipped)
	assert.Zero(t, second.Failures)
	assert.Len(t, mailer.sentTo("student1@example.com"), 1)
	assert.Equal(t, 2, ledger.size())
}

func TestSweepExpiringDocumentsDedupPerDocument(t *testing.T) {
	student := approvedStudent(1, 200)
	passport := &models.DocumentType{ID: 1, Name: "Passport", IsActive: true}
	insurance := &models.DocumentType{ID: 2, Name: "Health Insurance Certificate", IsActive: true}
	transcript := &models.DocumentType{ID: 3, Name: "Academic Transcript", IsActive: true}

	store := newFakeComplianceStore()
	store.expiring = []*models.ExpiringDocument{
		{Student: student, DocType: passport, Record: &models.ComplianceRecord{StudentID: 1, DocTypeID: 1, ExpiryDate: daysFromSweepDay(7)}},
		{Student: student, DocType: insurance, Record: &models.ComplianceRecord{StudentID: 1, DocTypeID: 2, ExpiryDate: daysFromSweepDay(30)}},
		{Student: student, DocType: transcript, Record: &models.ComplianceRecord{StudentID: 1, DocTypeID: 3, ExpiryDate: daysFromSweepDay(15)}},
	}

	mailer := newFakeMailer()
	ledger := newFakeLedger()
	svc := newTestAlertService(newFakeStudents(), &fakeDocTypes{}, store, ledger, mailer)

	first, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.ExpiryWarnings, "15 days out is not a threshold")
	assert.Equal(t, 2, ledger.size())

	subjects := make([]string, 0, 2)
	for _, m := range mailer.sent {
		subjects = append(subjects, m.subject)
	}
	assert.Contains(t, subjects, "Document renewal needed: Passport")
	assert.Contains(t, subjects, "Document renewal needed: Health Insurance Certificate")

	second, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.ExpiryWarnings)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, mailer.sent, 2)
}

func TestSweepLedgerWriteFailureDoesNotVoidDelivery(t *testing.T) {
	mailer := newFakeMailer()
	ledger := newFakeLedger()
	ledger.recordErr = errors.New("ledger insert failed")
	svc := newTestAlertService(
		newFakeStudents(approvedStudent(1, 7)),
		&fakeDocTypes{},
		newFakeComplianceStore(),
		ledger,
		mailer,
	)

	result, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.VisaAlerts, "the alert was delivered; a lost ledger row is logged, not failed")
	assert.Zero(t, result.Failures)
	assert.Len(t, mailer.sent, 1)
	assert.Zero(t, ledger.size())
}

func TestSweepLedgerCheckFailureCountsAsFailure(t *testing.T) {
	mailer := newFakeMailer()
	ledger := newFakeLedger()
	ledger.existsErr = errors.New("ledger unavailable")
	svc := newTestAlertService(
		newFakeStudents(approvedStudent(1, 7)),
		&fakeDocTypes{},
		newFakeComplianceStore(),
		ledger,
		mailer,
	)

	result, err := svc.RunDailySweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.VisaAlerts)
	assert.Equal(t, 1, result.Failures)
	assert.Empty(t, mailer.sent, "nothing is sent when dedup cannot be checked")
}
