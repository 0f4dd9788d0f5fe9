package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orbisedu/backoffice/internal/app/auth"
	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
)

// In-memory fakes standing in for the pgx repositories. The code store and
// compliance store enforce the same unique constraints the real schema does,
// returning pgconn errors with code 23505 so the retry paths see exactly what
// Postgres would give them.

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

type fakeAgencies struct {
	mu       sync.Mutex
	agencies map[int64]*models.Agency
}

func newFakeAgencies(agencies ...*models.Agency) *fakeAgencies {
	f := &fakeAgencies{agencies: make(map[int64]*models.Agency)}
	for _, a := range agencies {
		f.agencies[a.ID] = a
	}
	return f
}

func (f *fakeAgencies) GetByID(_ context.Context, id int64) (*models.Agency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agency, ok := f.agencies[id]
	if !ok {
		return nil, apperrors.ErrAgencyNotFound
	}
	return agency, nil
}

type fakeCodeStore struct {
	mu        sync.Mutex
	byCode    map[string]int64
	byStudent map[int64]string

	// reserveErr, when set, is returned by every ReserveCode call.
	reserveErr error
	// collideTimes makes the next N ReserveCode calls lose the race.
	collideTimes int
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{
		byCode:    make(map[string]int64),
		byStudent: make(map[int64]string),
	}
}

func (f *fakeCodeStore) CountCodesWithPrefix(_ context.Context, prefix string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for code := range f.byCode {
		if strings.HasPrefix(code, prefix) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCodeStore) ReserveCode(_ context.Context, studentID int64, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return f.reserveErr
	}
	if f.collideTimes > 0 {
		f.collideTimes--
		return uniqueViolation("students_assigned_code_key")
	}
	if _, exists := f.byStudent[studentID]; exists {
		return apperrors.ErrCodeAlreadySet
	}
	if _, taken := f.byCode[code]; taken {
		return uniqueViolation("students_assigned_code_key")
	}
	f.byCode[code] = studentID
	f.byStudent[studentID] = code
	return nil
}

type fakeStudents struct {
	mu       sync.Mutex
	nextID   int64
	students map[int64]*models.Student
}

func newFakeStudents(students ...*models.Student) *fakeStudents {
	f := &fakeStudents{students: make(map[int64]*models.Student)}
	for _, s := range students {
		f.students[s.ID] = s
		if s.ID > f.nextID {
			f.nextID = s.ID
		}
	}
	return f
}

func (f *fakeStudents) Create(_ context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	student.ID = f.nextID
	f.students[student.ID] = student
	return nil
}

func (f *fakeStudents) List(_ context.Context, agencyID *int64) ([]*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Student
	for _, s := range f.students {
		if agencyID == nil || (s.AgencyID != nil && *s.AgencyID == *agencyID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudents) SetApproved(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	student, ok := f.students[id]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	student.IsApproved = true
	return nil
}

func (f *fakeStudents) GetByID(_ context.Context, id int64) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	student, ok := f.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return student, nil
}

func (f *fakeStudents) ListApprovedWithVisaExpiryWithin(_ context.Context, until time.Time) ([]*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Student
	for _, s := range f.students {
		if s.IsApproved && s.VisaExpiry != nil && !s.VisaExpiry.After(until) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeDocTypes struct {
	docTypes []*models.DocumentType
}

func (f *fakeDocTypes) ListActive(_ context.Context) ([]*models.DocumentType, error) {
	var out []*models.DocumentType
	for _, d := range f.docTypes {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeComplianceStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*models.ComplianceRecord

	// expiring backs ListExpiringWithin for the alert sweep tests.
	expiring []*models.ExpiringDocument
}

func newFakeComplianceStore() *fakeComplianceStore {
	return &fakeComplianceStore{records: make(map[int64]*models.ComplianceRecord)}
}

func (f *fakeComplianceStore) add(rec *models.ComplianceRecord) *models.ComplianceRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec.ID = f.nextID
	if rec.Status == "" {
		rec.Status = models.DocStatusPending
	}
	f.records[rec.ID] = rec
	return rec
}

func (f *fakeComplianceStore) InsertIfAbsent(_ context.Context, studentID, docTypeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.StudentID == studentID && rec.DocTypeID == docTypeID {
			return false, nil
		}
	}
	f.nextID++
	f.records[f.nextID] = &models.ComplianceRecord{
		ID:        f.nextID,
		StudentID: studentID,
		DocTypeID: docTypeID,
		Status:    models.DocStatusPending,
	}
	return true, nil
}

func (f *fakeComplianceStore) GetByID(_ context.Context, id int64) (*models.ComplianceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, apperrors.ErrRecordNotFound
	}
	clone := *rec
	return &clone, nil
}

func (f *fakeComplianceStore) ListByStudent(_ context.Context, studentID int64) ([]*models.ComplianceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ComplianceRecord
	for _, rec := range f.records {
		if rec.StudentID == studentID {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

// ApplyPatch mirrors the real repository's COALESCE update: nil patch fields
// leave the column untouched.
func (f *fakeComplianceStore) ApplyPatch(_ context.Context, id int64, patch auth.RecordPatch, reviewerID *int64, reviewedAt, submittedAt *time.Time) (*models.ComplianceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, apperrors.ErrRecordNotFound
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.SelfChecked != nil {
		rec.SelfChecked = *patch.SelfChecked
	}
	if patch.ExpiryDate != nil {
		rec.ExpiryDate = patch.ExpiryDate
	}
	if patch.FileRef != nil {
		rec.FileRef = patch.FileRef
	}
	if patch.RejectReason != nil {
		rec.RejectReason = patch.RejectReason
	}
	if reviewerID != nil {
		rec.ReviewerID = reviewerID
	}
	if reviewedAt != nil {
		rec.ReviewedAt = reviewedAt
	}
	if submittedAt != nil {
		rec.SubmittedAt = submittedAt
	}
	rec.UpdatedAt = time.Now()
	clone := *rec
	return &clone, nil
}

func (f *fakeComplianceStore) ListExpiringWithin(_ context.Context, until time.Time) ([]*models.ExpiringDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ExpiringDocument
	for _, doc := range f.expiring {
		if doc.Record.ExpiryDate != nil && !doc.Record.ExpiryDate.After(until) {
			out = append(out, doc)
		}
	}
	return out, nil
}

type ledgerKey struct {
	studentID int64
	kind      models.AlertKind
	docTypeID int64
	sentOn    string
}

type fakeLedger struct {
	mu      sync.Mutex
	entries map[ledgerKey]*models.AlertLogEntry

	existsErr error
	recordErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[ledgerKey]*models.AlertLogEntry)}
}

func (f *fakeLedger) key(studentID int64, kind models.AlertKind, docTypeID *int64, sentOn time.Time) ledgerKey {
	var dt int64
	if docTypeID != nil {
		dt = *docTypeID
	}
	return ledgerKey{studentID: studentID, kind: kind, docTypeID: dt, sentOn: sentOn.Format("2006-01-02")}
}

func (f *fakeLedger) Exists(_ context.Context, studentID int64, kind models.AlertKind, docTypeID *int64, sentOn time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.entries[f.key(studentID, kind, docTypeID, sentOn)]
	return ok, nil
}

func (f *fakeLedger) Record(_ context.Context, entry *models.AlertLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.entries[f.key(entry.StudentID, entry.AlertKind, entry.DocTypeID, entry.SentOn)] = entry
	return nil
}

func (f *fakeLedger) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: make(map[string]bool)}
}

func (f *fakeMailer) Send(toEmail, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[toEmail] {
		return fmt.Errorf("smtp: delivery to %s failed", toEmail)
	}
	f.sent = append(f.sent, sentMail{to: toEmail, subject: subject, body: body})
	return nil
}

func (f *fakeMailer) sentTo(email string) []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMail
	for _, m := range f.sent {
		if m.to == email {
			out = append(out, m)
		}
	}
	return out
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []DecisionNotice
}

func (f *fakeNotifier) NotifyDecision(notice DecisionNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice)
}
