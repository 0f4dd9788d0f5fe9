package dto

import "time"

// UpdateComplianceRecordRequest represents a partial update to a compliance
// record. All fields are optional; which ones take effect depends on the
// caller's role.
type UpdateComplianceRecordRequest struct {
	Status       *string `json:"status,omitempty" example:"SUBMITTED"`
	SelfChecked  *bool   `json:"selfChecked,omitempty"`
	ExpiryDate   *string `json:"expiryDate,omitempty" example:"2027-03-01"`
	FileRef      *string `json:"fileRef,omitempty"`
	RejectReason *string `json:"rejectReason,omitempty"`
}

// ComplianceRecordResponse represents one checklist entry
type ComplianceRecordResponse struct {
	ID           int64      `json:"id"`
	StudentID    int64      `json:"studentId"`
	DocTypeID    int64      `json:"docTypeId"`
	DocumentName string     `json:"documentName"`
	Category     string     `json:"category"`
	IsRequired   bool       `json:"isRequired"`
	Status       string     `json:"status" example:"PENDING"`
	SelfChecked  bool       `json:"selfChecked"`
	SubmittedAt  *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
	ReviewerID   *int64     `json:"reviewerId,omitempty"`
	RejectReason *string    `json:"rejectReason,omitempty"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	FileRef      *string    `json:"fileRef,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ComplianceChecklistResponse represents a student's full checklist
type ComplianceChecklistResponse struct {
	StudentID int64                      `json:"studentId"`
	Records   []ComplianceRecordResponse `json:"records"`
}
