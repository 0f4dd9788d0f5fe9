package auth

import (
	"strings"
	"time"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
)

// RecordPatch is a requested mutation of a compliance record. Nil fields were
// not supplied by the caller.
type RecordPatch struct {
	Status       *models.DocumentStatus
	SelfChecked  *bool
	ExpiryDate   *time.Time
	FileRef      *string
	RejectReason *string
}

// IsEmpty reports whether the patch carries no fields at all.
func (p RecordPatch) IsEmpty() bool {
	return p.Status == nil && p.SelfChecked == nil && p.ExpiryDate == nil &&
		p.FileRef == nil && p.RejectReason == nil
}

// Decision is the outcome of authorizing a patch: the fields that survived
// filtering and the names of the ones that were silently dropped.
type Decision struct {
	Patch   RecordPatch
	Dropped []string
}

// AuthorizeRecordPatch applies the transition authority rules centrally.
// Forbidden fields in a request are dropped rather than rejected, but a patch
// with no surviving fields is an error. Preconditions (valid status value,
// reject reason on rejection) are enforced here, before anything is written.
func AuthorizeRecordPatch(caller models.Caller, student *models.Student, rec *models.ComplianceRecord, req RecordPatch) (Decision, error) {
	switch caller.Role {
	case models.RoleStudent:
		return authorizeSubjectPatch(caller, rec, req)
	case models.RoleAgencyStaff, models.RoleAdmin:
		return authorizeReviewerPatch(caller, student, req)
	default:
		return Decision{}, apperrors.ErrPermissionDenied
	}
}

// authorizeSubjectPatch filters a patch issued by the record's owner. The
// subject may self-check, move pending to submitted, and attach a file or
// expiry date while the record is pending or rejected. Everything else is
// dropped.
func authorizeSubjectPatch(caller models.Caller, rec *models.ComplianceRecord, req RecordPatch) (Decision, error) {
	if caller.StudentID == nil || *caller.StudentID != rec.StudentID {
		return Decision{}, apperrors.NewForbiddenError("caller does not own this compliance record")
	}

	var d Decision

	if req.SelfChecked != nil {
		// Subjects may only tick the box, and not on approved records.
		if *req.SelfChecked && rec.Status != models.DocStatusApproved {
			d.Patch.SelfChecked = req.SelfChecked
		} else {
			d.Dropped = append(d.Dropped, "selfChecked")
		}
	}

	if req.Status != nil {
		if *req.Status == models.DocStatusSubmitted && rec.Status == models.DocStatusPending {
			d.Patch.Status = req.Status
		} else {
			d.Dropped = append(d.Dropped, "status")
		}
	}

	attachable := rec.Status == models.DocStatusPending || rec.Status == models.DocStatusRejected
	if req.FileRef != nil {
		if attachable {
			d.Patch.FileRef = req.FileRef
		} else {
			d.Dropped = append(d.Dropped, "fileRef")
		}
	}
	if req.ExpiryDate != nil {
		if attachable {
			d.Patch.ExpiryDate = req.ExpiryDate
		} else {
			d.Dropped = append(d.Dropped, "expiryDate")
		}
	}

	if req.RejectReason != nil {
		d.Dropped = append(d.Dropped, "rejectReason")
	}

	if d.Patch.IsEmpty() {
		return Decision{}, apperrors.ErrNoValidFields
	}
	return d, nil
}

// authorizeReviewerPatch filters a patch issued by agency staff or an admin.
// Reviewers may set any status; moving into rejected requires a non-empty
// reason. File reference and expiry date stay editable even on approved
// records.
func authorizeReviewerPatch(caller models.Caller, student *models.Student, req RecordPatch) (Decision, error) {
	if !caller.CanReviewStudent(student) {
		return Decision{}, apperrors.NewForbiddenError("student is outside the caller's agency scope")
	}

	var d Decision

	if req.Status != nil {
		if !req.Status.IsValid() {
			return Decision{}, apperrors.ErrInvalidStatus
		}
		if *req.Status == models.DocStatusRejected {
			if req.RejectReason == nil || strings.TrimSpace(*req.RejectReason) == "" {
				return Decision{}, apperrors.ErrRejectReasonRequired
			}
			d.Patch.RejectReason = req.RejectReason
		}
		d.Patch.Status = req.Status
	} else if req.RejectReason != nil {
		// A reason only travels with a rejection.
		d.Dropped = append(d.Dropped, "rejectReason")
	}

	if req.ExpiryDate != nil {
		d.Patch.ExpiryDate = req.ExpiryDate
	}
	if req.FileRef != nil {
		d.Patch.FileRef = req.FileRef
	}
	if req.SelfChecked != nil {
		// The checkbox belongs to the student.
		d.Dropped = append(d.Dropped, "selfChecked")
	}

	if d.Patch.IsEmpty() {
		return Decision{}, apperrors.ErrNoValidFields
	}
	return d, nil
}
