package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orbisedu/backoffice/internal/app/controllers"
	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	agencyController *controllers.AgencyController,
	studentController *controllers.StudentController,
	documentTypeController *controllers.DocumentTypeController,
	complianceController *controllers.ComplianceController,
	alertController *controllers.AlertController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Agency routes - admin administers, staff can read
		agencies := authenticated.Group("/agencies")
		{
			agencies.GET("", agencyController.GetAllAgencies)
			agencies.GET("/:id", agencyController.GetAgencyByID)

			agenciesAdminProtected := agencies.Group("")
			agenciesAdminProtected.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				agenciesAdminProtected.POST("", agencyController.CreateAgency)
			}
		}

		// Student routes - registration and approval are reviewer work;
		// students reach their own profile through the same read endpoint
		students := authenticated.Group("/students")
		{
			students.GET("", studentController.ListStudents)
			students.GET("/:id", studentController.GetStudentByID)
			students.GET("/:id/compliance", complianceController.GetStudentChecklist)

			studentsStaffProtected := students.Group("")
			studentsStaffProtected.Use(authMiddleware.RoleRequired(models.RoleAdmin, models.RoleAgencyStaff))
			{
				studentsStaffProtected.POST("", studentController.RegisterStudent)
				studentsStaffProtected.POST("/approve", studentController.ApproveStudents)
			}
		}

		// Document type routes - reads for everyone, mutations admin-only
		documentTypes := authenticated.Group("/document-types")
		{
			documentTypes.GET("", documentTypeController.ListDocumentTypes)

			documentTypesAdminProtected := documentTypes.Group("")
			documentTypesAdminProtected.Use(authMiddleware.RoleRequired(models.RoleAdmin))
			{
				documentTypesAdminProtected.POST("", documentTypeController.CreateDocumentType)
				documentTypesAdminProtected.PUT("/:id", documentTypeController.UpdateDocumentType)
				documentTypesAdminProtected.DELETE("/:id", documentTypeController.DeactivateDocumentType)
			}
		}

		// Compliance record updates - the service decides per-field what the
		// caller's role permits, so no role middleware here
		compliance := authenticated.Group("/compliance")
		{
			compliance.PATCH("/:recordId", complianceController.UpdateComplianceRecord)
		}

		// Alert routes - manual sweep trigger for admins
		alerts := authenticated.Group("/alerts")
		alerts.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			alerts.POST("/sweep", alertController.RunSweep)
		}
	}
}
