package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent     RoleType = "STUDENT"      // the subject who owns compliance records
	RoleAgencyStaff RoleType = "AGENCY_STAFF" // reviewer scoped to their own agency's students
	RoleAdmin       RoleType = "ADMIN"        // reviewer with global scope
)

// DocumentStatus defines the lifecycle state of a compliance record
type DocumentStatus string

const (
	DocStatusPending   DocumentStatus = "PENDING"
	DocStatusSubmitted DocumentStatus = "SUBMITTED"
	DocStatusReviewing DocumentStatus = "REVIEWING"
	DocStatusApproved  DocumentStatus = "APPROVED"
	DocStatusRejected  DocumentStatus = "REJECTED"
)

// IsValid reports whether s is one of the five known statuses.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocStatusPending, DocStatusSubmitted, DocStatusReviewing, DocStatusApproved, DocStatusRejected:
		return true
	}
	return false
}

// DocumentCategory groups document types for display
type DocumentCategory string

const (
	CategoryIdentity  DocumentCategory = "IDENTITY"
	CategorySchool    DocumentCategory = "SCHOOL"
	CategoryFinancial DocumentCategory = "FINANCIAL"
	CategoryHealth    DocumentCategory = "HEALTH"
)

// IsValid reports whether c is a known document category.
func (c DocumentCategory) IsValid() bool {
	switch c {
	case CategoryIdentity, CategorySchool, CategoryFinancial, CategoryHealth:
		return true
	}
	return false
}

// AlertKind identifies the dedup family of an outbound alert
type AlertKind string

const (
	AlertKindVisa          AlertKind = "visa"           // visa expiry threshold reminder
	AlertKindMissing       AlertKind = "missing"        // combined missing-required-documents alert
	AlertKindExpiryWarning AlertKind = "expiry_warning" // per-document renewal reminder
)
