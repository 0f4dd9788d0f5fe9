package dto

import "time"

// RegisterStudentRequest represents a new student registration by staff
type RegisterStudentRequest struct {
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Nationality  string `json:"nationality" binding:"required"`
	VisaCategory string `json:"visaCategory" binding:"required"`
	VisaExpiry   string `json:"visaExpiry,omitempty" example:"2027-03-01"`
	AgencyID     *int64 `json:"agencyId,omitempty"`
}

// StudentResponse represents student information
type StudentResponse struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Nationality  string     `json:"nationality"`
	VisaCategory string     `json:"visaCategory"`
	VisaExpiry   *time.Time `json:"visaExpiry,omitempty"`
	IsApproved   bool       `json:"isApproved"`
	AgencyID     *int64     `json:"agencyId,omitempty"`
	AgencyName   string     `json:"agencyName,omitempty"`
	AssignedCode *string    `json:"assignedCode,omitempty" example:"260010001"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// StudentListResponse represents a list of students
type StudentListResponse struct {
	Students []StudentResponse `json:"students"`
}

// ApproveStudentsRequest represents a batch approval request
type ApproveStudentsRequest struct {
	StudentIDs []int64 `json:"studentIds" binding:"required,min=1"`
}

// ApprovalOutcomeResponse represents the result of one approval in a batch
type ApprovalOutcomeResponse struct {
	StudentID int64  `json:"studentId"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ApproveStudentsResponse represents the results of a batch approval
type ApproveStudentsResponse struct {
	Outcomes []ApprovalOutcomeResponse `json:"outcomes"`
}
