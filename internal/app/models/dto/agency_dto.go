package dto

import "time"

// CreateAgencyRequest represents a new partner agency registration
type CreateAgencyRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
}

// AgencyResponse represents agency information
type AgencyResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	SequenceNumber int       `json:"sequenceNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AgencyListResponse represents a list of agencies
type AgencyListResponse struct {
	Agencies []AgencyResponse `json:"agencies"`
}
