package models

import "time"

// DocumentType defines a compliance document definition based on the
// 'document_types' table. An empty ApplicableVisaCategories set means the
// document applies to every visa category.
type DocumentType struct {
	ID                       int64            `json:"id" db:"id" example:"1"`
	Name                     string           `json:"name" db:"name" example:"Financial Statement"`
	Category                 DocumentCategory `json:"category" db:"category" example:"FINANCIAL"`
	IsRequired               bool             `json:"isRequired" db:"is_required"`
	HasExpiry                bool             `json:"hasExpiry" db:"has_expiry"`
	ApplicableVisaCategories []string         `json:"applicableVisaCategories" db:"applicable_visa_categories"`
	SortOrder                int              `json:"sortOrder" db:"sort_order"`
	IsActive                 bool             `json:"isActive" db:"is_active"`
	CreatedAt                time.Time        `json:"createdAt" db:"created_at"`
}

// AppliesTo reports whether the document type applies to the given visa
// category. An empty category set applies to all.
func (d *DocumentType) AppliesTo(visaCategory string) bool {
	if len(d.ApplicableVisaCategories) == 0 {
		return true
	}
	for _, c := range d.ApplicableVisaCategories {
		if c == visaCategory {
			return true
		}
	}
	return false
}
