package dto

import "time"

// CreateDocumentTypeRequest represents a new document type definition
type CreateDocumentTypeRequest struct {
	Name                     string   `json:"name" binding:"required"`
	Category                 string   `json:"category" binding:"required" example:"VISA"`
	ApplicableVisaCategories []string `json:"applicableVisaCategories"`
	HasExpiry                bool     `json:"hasExpiry"`
	IsRequired               bool     `json:"isRequired"`
	SortOrder                int      `json:"sortOrder"`
}

// UpdateDocumentTypeRequest represents an update to a definition
type UpdateDocumentTypeRequest struct {
	Name                     string   `json:"name" binding:"required"`
	Category                 string   `json:"category" binding:"required"`
	ApplicableVisaCategories []string `json:"applicableVisaCategories"`
	HasExpiry                bool     `json:"hasExpiry"`
	IsRequired               bool     `json:"isRequired"`
	SortOrder                int      `json:"sortOrder"`
}

// DocumentTypeResponse represents document type information
type DocumentTypeResponse struct {
	ID                       int64     `json:"id"`
	Name                     string    `json:"name"`
	Category                 string    `json:"category"`
	ApplicableVisaCategories []string  `json:"applicableVisaCategories"`
	HasExpiry                bool      `json:"hasExpiry"`
	IsRequired               bool      `json:"isRequired"`
	SortOrder                int       `json:"sortOrder"`
	IsActive                 bool      `json:"isActive"`
	CreatedAt                time.Time `json:"createdAt"`
}

// DocumentTypeListResponse represents a list of document types
type DocumentTypeListResponse struct {
	DocumentTypes []DocumentTypeResponse `json:"documentTypes"`
}
