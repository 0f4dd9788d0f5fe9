package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	AgencyRepository       *AgencyRepository
	StudentRepository      *StudentRepository
	DocumentTypeRepository *DocumentTypeRepository
	ComplianceRepository   *ComplianceRepository
	AlertLogRepository     *AlertLogRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		AgencyRepository:       NewAgencyRepository(db),
		StudentRepository:      NewStudentRepository(db),
		DocumentTypeRepository: NewDocumentTypeRepository(db),
		ComplianceRepository:   NewComplianceRepository(db),
		AlertLogRepository:     NewAlertLogRepository(db),
	}
}
