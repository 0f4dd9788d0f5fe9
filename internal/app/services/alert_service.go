package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/email"
	"github.com/orbisedu/backoffice/internal/pkg/helpers"
)

// Visa reminders fire only on these exact day counts. A student at 91 or 29
// days produces nothing today; they hit 90 or 7 on a later run.
var visaThresholds = []int{7, 30, 90}

// Document renewal reminders fire at these exact day counts.
var docExpiryThresholds = []int{7, 30}

// visaLookahead bounds the candidate query for both visa and missing-doc
// sweeps.
const visaLookahead = 90 * 24 * time.Hour

// AlertStudentSource lists sweep candidates.
type AlertStudentSource interface {
	ListApprovedWithVisaExpiryWithin(ctx context.Context, until time.Time) ([]*models.Student, error)
}

// AlertComplianceSource supplies checklist state for the missing-document and
// renewal sweeps.
type AlertComplianceSource interface {
	ListByStudent(ctx context.Context, studentID int64) ([]*models.ComplianceRecord, error)
	ListExpiringWithin(ctx context.Context, until time.Time) ([]*models.ExpiringDocument, error)
}

// AlertLedger is the append-only dedup log. Row existence is the sole dedup
// signal; rows are written only after confirmed delivery.
type AlertLedger interface {
	Exists(ctx context.Context, studentID int64, kind models.AlertKind, docTypeID *int64, sentOn time.Time) (bool, error)
	Record(ctx context.Context, entry *models.AlertLogEntry) error
}

// SweepResult reports per-kind counts of one sweep run for observability.
type SweepResult struct {
	VisaAlerts       int `json:"visaAlerts"`
	MissingDocAlerts int `json:"missingDocAlerts"`
	ExpiryWarnings   int `json:"expiryWarnings"`
	Skipped          int `json:"skipped"`
	Failures         int `json:"failures"`
}

// AlertService runs the daily alert sweeps. Every alert is deduplicated
// through the ledger, so re-running a sweep on the same day (or two instances
// overlapping) never double-sends. There is no catch-up: a threshold day
// missed entirely stays missed.
type AlertService struct {
	students   AlertStudentSource
	docTypes   DocumentTypeReader
	compliance AlertComplianceSource
	ledger     AlertLedger
	mailer     email.Mailer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAlertService creates a new alert service
func NewAlertService(students AlertStudentSource, docTypes DocumentTypeReader, compliance AlertComplianceSource, ledger AlertLedger, mailer email.Mailer, logger zerolog.Logger) *AlertService {
	return &AlertService{
		students:   students,
		docTypes:   docTypes,
		compliance: compliance,
		ledger:     ledger,
		mailer:     mailer,
		logger:     logger,
		now:        time.Now,
	}
}

// RunDailySweep executes the visa, missing-document and document-renewal
// sweeps once. Candidates are attempted independently: one failed delivery is
// logged and skipped, never aborting the rest. The ledger row for a candidate
// is written only after its notification was delivered, so an interrupted or
// partially failed run retries exactly the unsent remainder next time.
func (s *AlertService) RunDailySweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	today := helpers.DateOnly(s.now())

	candidates, err := s.students.ListApprovedWithVisaExpiryWithin(ctx, today.Add(visaLookahead))
	if err != nil {
		return result, fmt.Errorf("error listing sweep candidates: %w", err)
	}

	docTypes, err := s.docTypes.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("error listing document types: %w", err)
	}

	for _, student := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.sweepVisaExpiry(ctx, student, today, &result)
		s.sweepMissingDocuments(ctx, student, docTypes, today, &result)
	}

	s.sweepExpiringDocuments(ctx, today, &result)

	s.logger.Info().
		Int("visaAlerts", result.VisaAlerts).
		Int("missingDocAlerts", result.MissingDocAlerts).
		Int("expiryWarnings", result.ExpiryWarnings).
		Int("skipped", result.Skipped).
		Int("failures", result.Failures).
		Msg("Daily alert sweep finished")
	return result, nil
}

// sweepVisaExpiry sends the visa reminder when the student sits exactly on a
// threshold today and no ledger row exists for (student, visa, today).
func (s *AlertService) sweepVisaExpiry(ctx context.Context, student *models.Student, today time.Time, result *SweepResult) {
	daysLeft := helpers.DaysUntil(today, *student.VisaExpiry)
	if !isThreshold(daysLeft, visaThresholds) {
		return
	}

	sent, err := s.ledger.Exists(ctx, student.ID, models.AlertKindVisa, nil, today)
	if err != nil {
		s.fail(result, err, student.ID, models.AlertKindVisa, "ledger check failed")
		return
	}
	if sent {
		result.Skipped++
		return
	}

	subject := fmt.Sprintf("Visa expiry reminder: %d days left", daysLeft)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour visa expires on %s, which is %d days from today.\nPlease make sure your extension or departure plans are in order.\n\nOrbisEdu Back Office",
		student.FullName(), student.VisaExpiry.Format("2006-01-02"), daysLeft)

	if err := s.mailer.Send(student.Email, subject, body); err != nil {
		s.fail(result, err, student.ID, models.AlertKindVisa, "delivery failed")
		return
	}

	if err := s.ledger.Record(ctx, &models.AlertLogEntry{
		StudentID:  student.ID,
		AlertKind:  models.AlertKindVisa,
		SentOn:     today,
		DaysBefore: daysLeft,
	}); err != nil {
		// Delivered but not logged; the worst case is one duplicate if the
		// sweep re-runs today. Surfacing this as a failure would be wrong.
		s.logger.Error().Err(err).Int64("studentId", student.ID).Msg("Failed to record visa alert ledger row")
	}
	result.VisaAlerts++
}

// sweepMissingDocuments sends one combined alert listing every required,
// applicable document still outstanding, deduplicated per day regardless of
// threshold (the underlying condition persists across days).
func (s *AlertService) sweepMissingDocuments(ctx context.Context, student *models.Student, docTypes []*models.DocumentType, today time.Time, result *SweepResult) {
	daysLeft := helpers.DaysUntil(today, *student.VisaExpiry)
	if !isThreshold(daysLeft, visaThresholds) {
		return
	}

	records, err := s.compliance.ListByStudent(ctx, student.ID)
	if err != nil {
		s.fail(result, err, student.ID, models.AlertKindMissing, "listing records failed")
		return
	}

	outstanding := outstandingRequiredDocs(student, docTypes, records)
	if len(outstanding) == 0 {
		return
	}

	sent, err := s.ledger.Exists(ctx, student.ID, models.AlertKindMissing, nil, today)
	if err != nil {
		s.fail(result, err, student.ID, models.AlertKindMissing, "ledger check failed")
		return
	}
	if sent {
		result.Skipped++
		return
	}

	names := make([]string, 0, len(outstanding))
	for _, docType := range outstanding {
		names = append(names, "- "+docType.Name)
	}
	subject := fmt.Sprintf("Missing documents: %d required before your visa expires", len(outstanding))
	body := fmt.Sprintf(
		"Hello %s,\n\nYour visa expires in %d days and the following required documents are still missing or rejected:\n\n%s\n\nPlease submit them as soon as possible.\n\nOrbisEdu Back Office",
		student.FullName(), daysLeft, strings.Join(names, "\n"))

	if err := s.mailer.Send(student.Email, subject, body); err != nil {
		s.fail(result, err, student.ID, models.AlertKindMissing, "delivery failed")
		return
	}

	if err := s.ledger.Record(ctx, &models.AlertLogEntry{
		StudentID:  student.ID,
		AlertKind:  models.AlertKindMissing,
		SentOn:     today,
		DaysBefore: daysLeft,
	}); err != nil {
		s.logger.Error().Err(err).Int64("studentId", student.ID).Msg("Failed to record missing-docs alert ledger row")
	}
	result.MissingDocAlerts++
}

// sweepExpiringDocuments sends a per-document renewal reminder when the
// document's own expiry date sits exactly 7 or 30 days out, deduplicated on
// (student, expiry_warning, docType, today).
func (s *AlertService) sweepExpiringDocuments(ctx context.Context, today time.Time, result *SweepResult) {
	docs, err := s.compliance.ListExpiringWithin(ctx, today.Add(30*24*time.Hour))
	if err != nil {
		s.logger.Error().Err(err).Msg("Error listing expiring documents")
		result.Failures++
		return
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return
		}

		daysLeft := helpers.DaysUntil(today, *doc.Record.ExpiryDate)
		if !isThreshold(daysLeft, docExpiryThresholds) {
			continue
		}

		docTypeID := doc.DocType.ID
		sent, err := s.ledger.Exists(ctx, doc.Student.ID, models.AlertKindExpiryWarning, &docTypeID, today)
		if err != nil {
			s.fail(result, err, doc.Student.ID, models.AlertKindExpiryWarning, "ledger check failed")
			continue
		}
		if sent {
			result.Skipped++
			continue
		}

		subject := fmt.Sprintf("Document renewal needed: %s", doc.DocType.Name)
		body := fmt.Sprintf(
			"Hello %s,\n\nYour document %q expires on %s (%d days from today).\nPlease renew it and upload the new version.\n\nOrbisEdu Back Office",
			doc.Student.FullName(), doc.DocType.Name, doc.Record.ExpiryDate.Format("2006-01-02"), daysLeft)

		if err := s.mailer.Send(doc.Student.Email, subject, body); err != nil {
			s.fail(result, err, doc.Student.ID, models.AlertKindExpiryWarning, "delivery failed")
			continue
		}

		if err := s.ledger.Record(ctx, &models.AlertLogEntry{
			StudentID:  doc.Student.ID,
			AlertKind:  models.AlertKindExpiryWarning,
			DocTypeID:  &docTypeID,
			SentOn:     today,
			DaysBefore: daysLeft,
		}); err != nil {
			s.logger.Error().Err(err).Int64("studentId", doc.Student.ID).Msg("Failed to record renewal alert ledger row")
		}
		result.ExpiryWarnings++
	}
}

func (s *AlertService) fail(result *SweepResult, err error, studentID int64, kind models.AlertKind, msg string) {
	result.Failures++
	s.logger.Error().Err(err).
		Int64("studentId", studentID).
		Str("alertKind", string(kind)).
		Msg("Sweep candidate skipped: " + msg)
}

func isThreshold(days int, thresholds []int) bool {
	for _, t := range thresholds {
		if days == t {
			return true
		}
	}
	return false
}
