package models

import "time"

// User defines a back-office account based on the 'users' table
type User struct {
	ID           int64     `json:"id" db:"id" example:"1"`
	Email        string    `json:"email" db:"email" example:"staff@orbisedu.com"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"firstName" db:"first_name" example:"Jane"`
	LastName     string    `json:"lastName" db:"last_name" example:"Doe"`
	RoleType     RoleType  `json:"roleType" db:"role_type" example:"AGENCY_STAFF"`
	AgencyID     *int64    `json:"agencyId,omitempty" db:"agency_id"` // set for agency staff, nil for admins
	StudentID    *int64    `json:"studentId,omitempty" db:"student_id"` // set for student accounts
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Caller is the authenticated identity a mutating call runs under.
// It is extracted from the JWT claims and trusted as-is.
type Caller struct {
	UserID    int64
	Role      RoleType
	AgencyID  *int64
	StudentID *int64
}

// IsReviewer reports whether the caller may act as a reviewer.
func (c Caller) IsReviewer() bool {
	return c.Role == RoleAgencyStaff || c.Role == RoleAdmin
}

// CanReviewStudent reports whether the caller's reviewer scope covers the
// given student. Admins are global; agency staff only reach their own agency.
func (c Caller) CanReviewStudent(s *Student) bool {
	if c.Role == RoleAdmin {
		return true
	}
	if c.Role != RoleAgencyStaff || c.AgencyID == nil {
		return false
	}
	return s.AgencyID != nil && *s.AgencyID == *c.AgencyID
}
