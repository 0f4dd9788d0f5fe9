package models

import "time"

// ComplianceRecord defines one (student, document type) compliance entry based
// on the 'compliance_records' table. At most one record exists per pair; the
// unique index on (student_id, doc_type_id) enforces this, not application
// code, because lazy provisioning may race. Records are never hard-deleted.
type ComplianceRecord struct {
	ID           int64          `json:"id" db:"id" example:"1"`
	StudentID    int64          `json:"studentId" db:"student_id" example:"1"`
	DocTypeID    int64          `json:"docTypeId" db:"doc_type_id" example:"3"`
	Status       DocumentStatus `json:"status" db:"status" example:"PENDING"`
	SelfChecked  bool           `json:"selfChecked" db:"self_checked"`
	SubmittedAt  *time.Time     `json:"submittedAt,omitempty" db:"submitted_at"`
	ReviewedAt   *time.Time     `json:"reviewedAt,omitempty" db:"reviewed_at"`
	ReviewerID   *int64         `json:"reviewerId,omitempty" db:"reviewer_id"`
	RejectReason *string        `json:"rejectReason,omitempty" db:"reject_reason"`
	ExpiryDate   *time.Time     `json:"expiryDate,omitempty" db:"expiry_date"`
	FileRef      *string        `json:"fileRef,omitempty" db:"file_ref"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	DocumentType *DocumentType `json:"documentType,omitempty"`
}

// IsOutstanding reports whether the record still blocks compliance.
func (r *ComplianceRecord) IsOutstanding() bool {
	return r.Status == DocStatusPending || r.Status == DocStatusRejected
}

// ExpiringDocument is a read model joining a compliance record with its
// student and document type, used by the renewal-reminder sweep.
type ExpiringDocument struct {
	Record  *ComplianceRecord
	Student *Student
	DocType *DocumentType
}
