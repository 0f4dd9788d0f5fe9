package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/app/auth"
	"github.com/orbisedu/backoffice/internal/app/models"
)

// StudentReader resolves students for checklist operations.
type StudentReader interface {
	GetByID(ctx context.Context, id int64) (*models.Student, error)
}

// DocumentTypeReader lists the active document type definitions. Read on
// every checklist access so admin edits take effect on the next load.
type DocumentTypeReader interface {
	ListActive(ctx context.Context) ([]*models.DocumentType, error)
}

// ComplianceStore is the persistence surface for compliance records.
type ComplianceStore interface {
	InsertIfAbsent(ctx context.Context, studentID, docTypeID int64) (bool, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.ComplianceRecord, error)
	GetByID(ctx context.Context, id int64) (*models.ComplianceRecord, error)
	ApplyPatch(ctx context.Context, id int64, patch auth.RecordPatch, reviewerID *int64, reviewedAt, submittedAt *time.Time) (*models.ComplianceRecord, error)
}

// ChecklistService resolves which documents apply to a student and drives the
// per-record state machine.
type ChecklistService struct {
	students   StudentReader
	docTypes   DocumentTypeReader
	compliance ComplianceStore
	notifier   DecisionNotifier
	logger     zerolog.Logger
	now        func() time.Time
}

// NewChecklistService creates a new checklist service
func NewChecklistService(students StudentReader, docTypes DocumentTypeReader, compliance ComplianceStore, notifier DecisionNotifier, logger zerolog.Logger) *ChecklistService {
	return &ChecklistService{
		students:   students,
		docTypes:   docTypes,
		compliance: compliance,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Resolve returns the student's checklist, lazily provisioning a pending
// record for every applicable document type that has none yet. Concurrent
// resolves for the same student are safe: provisioning inserts are idempotent
// against the (student, docType) unique constraint, and a lost insert race is
// treated as already provisioned. Records are only ever added here, never
// revoked, even if a definition's applicability later changes.
func (s *ChecklistService) Resolve(ctx context.Context, studentID int64) ([]*models.ComplianceRecord, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	docTypes, err := s.docTypes.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing document types: %w", err)
	}

	existing, err := s.compliance.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error listing compliance records: %w", err)
	}

	provisioned := make(map[int64]bool, len(existing))
	for _, rec := range existing {
		provisioned[rec.DocTypeID] = true
	}

	created := 0
	for _, docType := range docTypes {
		if !docType.AppliesTo(student.VisaCategory) || provisioned[docType.ID] {
			continue
		}
		inserted, err := s.compliance.InsertIfAbsent(ctx, studentID, docType.ID)
		if err != nil {
			return nil, err
		}
		if inserted {
			created++
		}
	}

	if created > 0 {
		s.logger.Debug().
			Int64("studentId", studentID).
			Int("created", created).
			Msg("Provisioned compliance records")
		return s.compliance.ListByStudent(ctx, studentID)
	}
	return existing, nil
}

// UpdateRecord applies a patch to a compliance record under the central
// transition authority. The review-side mutation (status, reviewer, and
// timestamp) lands as one atomic update; two racing reviewers resolve as last
// write wins. A transition into approved or rejected queues a notification
// after the update committed; delivery failures never surface here.
func (s *ChecklistService) UpdateRecord(ctx context.Context, caller models.Caller, recordID int64, req auth.RecordPatch) (*models.ComplianceRecord, error) {
	rec, err := s.compliance.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetByID(ctx, rec.StudentID)
	if err != nil {
		return nil, err
	}

	decision, err := auth.AuthorizeRecordPatch(caller, student, rec, req)
	if err != nil {
		return nil, err
	}
	if len(decision.Dropped) > 0 {
		s.logger.Debug().
			Int64("recordId", recordID).
			Strs("fields", decision.Dropped).
			Msg("Dropped forbidden fields from record patch")
	}

	var reviewerID *int64
	var reviewedAt, submittedAt *time.Time
	statusChanged := decision.Patch.Status != nil && *decision.Patch.Status != rec.Status

	if statusChanged {
		now := s.now()
		if caller.IsReviewer() {
			reviewerID = &caller.UserID
			reviewedAt = &now
		}
		if *decision.Patch.Status == models.DocStatusSubmitted {
			submittedAt = &now
		}
	}

	updated, err := s.compliance.ApplyPatch(ctx, recordID, decision.Patch, reviewerID, reviewedAt, submittedAt)
	if err != nil {
		return nil, err
	}

	if statusChanged && caller.IsReviewer() {
		switch updated.Status {
		case models.DocStatusApproved, models.DocStatusRejected:
			notice := DecisionNotice{
				Student:      student,
				DocumentName: documentName(updated),
				Status:       updated.Status,
			}
			if updated.RejectReason != nil {
				notice.RejectReason = *updated.RejectReason
			}
			s.notifier.NotifyDecision(notice)
		}
	}

	return updated, nil
}

func documentName(rec *models.ComplianceRecord) string {
	if rec.DocumentType != nil {
		return rec.DocumentType.Name
	}
	return fmt.Sprintf("document #%d", rec.DocTypeID)
}

// outstandingRequiredDocs reports which required, applicable document types are
// still outstanding (no record yet, or a record in pending/rejected). Shared
// with the alert sweep.
func outstandingRequiredDocs(student *models.Student, docTypes []*models.DocumentType, records []*models.ComplianceRecord) []*models.DocumentType {
	byType := make(map[int64]*models.ComplianceRecord, len(records))
	for _, rec := range records {
		byType[rec.DocTypeID] = rec
	}

	var outstanding []*models.DocumentType
	for _, docType := range docTypes {
		if !docType.IsRequired || !docType.AppliesTo(student.VisaCategory) {
			continue
		}
		rec, ok := byType[docType.ID]
		if !ok || rec.IsOutstanding() {
			outstanding = append(outstanding, docType)
		}
	}
	return outstanding
}
