package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/orbisedu/backoffice/internal/app/controllers"
	appMigrations "github.com/orbisedu/backoffice/internal/app/migrations"
	appRepos "github.com/orbisedu/backoffice/internal/app/repositories"
	appRoutes "github.com/orbisedu/backoffice/internal/app/routes"
	appServices "github.com/orbisedu/backoffice/internal/app/services"
	"github.com/orbisedu/backoffice/internal/config"
	"github.com/orbisedu/backoffice/internal/db"
	appMiddleware "github.com/orbisedu/backoffice/internal/middleware"
	pkgAuth "github.com/orbisedu/backoffice/internal/pkg/auth"
	"github.com/orbisedu/backoffice/internal/pkg/email"
	"github.com/orbisedu/backoffice/internal/pkg/helpers"
	"github.com/orbisedu/backoffice/internal/pkg/logger"
	"github.com/orbisedu/backoffice/internal/seed"
)

// Deps holds all the application dependencies
type Deps struct {
	Repos       *appRepos.Repositories
	JWTService  *pkgAuth.JWTService
	Mailer      email.Mailer
	Notifier    *appServices.OutboxNotifier
	SweepRunner *appServices.SweepRunner

	AuthService         *appServices.AuthService
	AgencyService       *appServices.AgencyService
	StudentService      *appServices.StudentService
	AllocatorService    *appServices.AllocatorService
	DocumentTypeService *appServices.DocumentTypeService
	ChecklistService    *appServices.ChecklistService
	AlertService        *appServices.AlertService

	AuthController         *appControllers.AuthController
	AgencyController       *appControllers.AgencyController
	StudentController      *appControllers.StudentController
	DocumentTypeController *appControllers.DocumentTypeController
	ComplianceController   *appControllers.ComplianceController
	AlertController        *appControllers.AlertController

	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger // Get the configured global logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	// Run migrations
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	// Create Default Data (after migrations)
	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Log the error but don't necessarily fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Deps, error) {
	deps := &Deps{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	smtpPort, err := strconv.Atoi(cfg.SMTP.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP port %q: %w", cfg.SMTP.Port, err)
	}
	deps.Mailer = email.NewSMTPMailer(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      smtpPort,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromAddress,
	}, lgr)

	deps.Notifier = appServices.NewOutboxNotifier(deps.Mailer, logger.Component("notifier"))

	// Initialize services
	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService, logger.Component("auth"))
	deps.AgencyService = appServices.NewAgencyService(deps.Repos.AgencyRepository, logger.Component("agency"))
	deps.AllocatorService = appServices.NewAllocatorService(
		deps.Repos.StudentRepository,
		deps.Repos.AgencyRepository,
		logger.Component("allocator"),
	)
	deps.StudentService = appServices.NewStudentService(
		deps.Repos.StudentRepository,
		deps.Repos.AgencyRepository,
		deps.AllocatorService,
		logger.Component("student"),
	)
	deps.DocumentTypeService = appServices.NewDocumentTypeService(deps.Repos.DocumentTypeRepository, logger.Component("doctype"))
	deps.ChecklistService = appServices.NewChecklistService(
		deps.Repos.StudentRepository,
		deps.Repos.DocumentTypeRepository,
		deps.Repos.ComplianceRepository,
		deps.Notifier,
		logger.Component("checklist"),
	)
	deps.AlertService = appServices.NewAlertService(
		deps.Repos.StudentRepository,
		deps.Repos.DocumentTypeRepository,
		deps.Repos.ComplianceRepository,
		deps.Repos.AlertLogRepository,
		deps.Mailer,
		logger.Component("alerts"),
	)
	deps.SweepRunner = appServices.NewSweepRunner(deps.AlertService, cfg.Scheduler.SweepHour, logger.Component("sweep"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	// Initialize controllers
	deps.AuthController = appControllers.NewAuthController(deps.AuthService)
	deps.AgencyController = appControllers.NewAgencyController(deps.AgencyService)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService)
	deps.DocumentTypeController = appControllers.NewDocumentTypeController(deps.DocumentTypeService)
	deps.ComplianceController = appControllers.NewComplianceController(deps.ChecklistService, deps.StudentService)
	deps.AlertController = appControllers.NewAlertController(deps.AlertService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Deps, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	// Setup Swagger
	appRoutes.SetupSwagger(router)

	// Setup API routes using the dependencies
	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.AgencyController,
		deps.StudentController,
		deps.DocumentTypeController,
		deps.ComplianceController,
		deps.AlertController,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
