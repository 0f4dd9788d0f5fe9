package models

import "time"

// Agency defines a partner agency based on the 'agencies' table.
// SequenceNumber is assigned once at creation and never reused; it becomes
// the middle segment of every student code the agency's students receive.
type Agency struct {
	ID             int64     `json:"id" db:"id" example:"1"`
	Name           string    `json:"name" db:"name" example:"Hanoi Study Abroad Center"`
	Code           string    `json:"code" db:"code" example:"HANOI"`
	SequenceNumber int       `json:"sequenceNumber" db:"sequence_number" example:"1"`
	IsActive       bool      `json:"isActive" db:"is_active"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
