package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/orbisedu/backoffice/internal/app/models"
	appRepos "github.com/orbisedu/backoffice/internal/app/repositories"
	"github.com/orbisedu/backoffice/internal/config"
	"github.com/orbisedu/backoffice/internal/pkg/auth"
)

// defaultDocumentTypes is the baseline checklist configuration. An empty visa
// category list means the type applies to every student.
var defaultDocumentTypes = []appModels.DocumentType{
	{Name: "Passport", Category: appModels.CategoryIdentity, IsRequired: true, HasExpiry: true, SortOrder: 10},
	{Name: "Alien Registration Card", Category: appModels.CategoryIdentity, IsRequired: true, HasExpiry: true, SortOrder: 20},
	{Name: "Certificate of Enrollment", Category: appModels.CategorySchool, IsRequired: true, HasExpiry: false, SortOrder: 30},
	{Name: "Academic Transcript", Category: appModels.CategorySchool, IsRequired: false, HasExpiry: false, SortOrder: 40},
	{Name: "Financial Statement", Category: appModels.CategoryFinancial, IsRequired: true, HasExpiry: false, SortOrder: 50, ApplicableVisaCategories: []string{"D-2", "D-4-1"}},
	{Name: "Health Insurance Certificate", Category: appModels.CategoryHealth, IsRequired: true, HasExpiry: true, SortOrder: 60},
	{Name: "Tuberculosis Test Result", Category: appModels.CategoryHealth, IsRequired: true, HasExpiry: false, SortOrder: 70, ApplicableVisaCategories: []string{"D-4-1", "D-4-7"}},
}

// CreateDefaultData creates the default admin account and baseline document
// types if they don't exist. Safe to run on every startup.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)
	docTypeRepo := appRepos.NewDocumentTypeRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data...")
	var finalErr error

	// --- Default admin user --- //
	adminEmail := config.GetEnv("ADMIN_EMAIL", "admin@orbisedu.com")
	adminExists, err := userRepo.ExistsByEmail(ctx, adminEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking for admin user")
		finalErr = errors.Join(finalErr, err)
	} else if !adminExists {
		password := config.GetEnv("ADMIN_PASSWORD", "ChangeMe123!")
		hashed, err := auth.HashPassword(password)
		if err != nil {
			lgr.Error().Err(err).Msg("Error hashing admin password")
			finalErr = errors.Join(finalErr, err)
		} else {
			admin := &appModels.User{
				Email:        adminEmail,
				PasswordHash: hashed,
				FirstName:    "System",
				LastName:     "Administrator",
				RoleType:     appModels.RoleAdmin,
				IsActive:     true,
			}
			if err := userRepo.Create(ctx, admin); err != nil {
				lgr.Error().Err(err).Msg("Error creating admin user")
				finalErr = errors.Join(finalErr, err)
			} else {
				lgr.Info().Int64("adminID", admin.ID).Msg("Default admin user created successfully")
			}
		}
	} else {
		lgr.Info().Msg("Admin user already exists, skipping creation")
	}

	// --- Baseline document types --- //
	for i := range defaultDocumentTypes {
		docType := defaultDocumentTypes[i]

		exists, err := docTypeRepo.ExistsByName(ctx, docType.Name)
		if err != nil {
			lgr.Error().Err(err).Str("name", docType.Name).Msg("Error checking for document type")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if exists {
			continue
		}

		docType.IsActive = true
		if err := docTypeRepo.Create(ctx, &docType); err != nil {
			lgr.Error().Err(err).Str("name", docType.Name).Msg("Error creating document type")
			finalErr = errors.Join(finalErr, err)
		} else {
			lgr.Info().Str("name", docType.Name).Msg("Default document type created")
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
