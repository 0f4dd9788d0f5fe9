package models

import "time"

// Student defines a foreign student tracked by the back office, based on the
// 'students' table. AssignedCode stays nil until the student is approved; it
// is then set exactly once by the identifier allocator and never changes.
type Student struct {
	ID           int64      `json:"id" db:"id" example:"1"`
	FirstName    string     `json:"firstName" db:"first_name" example:"Minh"`
	LastName     string     `json:"lastName" db:"last_name" example:"Nguyen"`
	Email        string     `json:"email" db:"email" example:"minh.nguyen@example.com"`
	Nationality  string     `json:"nationality" db:"nationality" example:"VN"`
	VisaCategory string     `json:"visaCategory" db:"visa_category" example:"D-2"`
	VisaExpiry   *time.Time `json:"visaExpiry,omitempty" db:"visa_expiry"`
	IsApproved   bool       `json:"isApproved" db:"is_approved"`
	AgencyID     *int64     `json:"agencyId,omitempty" db:"agency_id"`
	AssignedCode *string    `json:"assignedCode,omitempty" db:"assigned_code" example:"260010001"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Agency *Agency `json:"agency,omitempty"`
}

// FullName returns the student's display name.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
