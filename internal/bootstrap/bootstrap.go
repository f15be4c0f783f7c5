package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/courseatlas/internal/app/controllers"
	appMigrations "github.com/yigit/courseatlas/internal/app/migrations"
	appRepos "github.com/yigit/courseatlas/internal/app/repositories"
	appRoutes "github.com/yigit/courseatlas/internal/app/routes"
	appServices "github.com/yigit/courseatlas/internal/app/services"
	"github.com/yigit/courseatlas/internal/config"
	"github.com/yigit/courseatlas/internal/db"
	appMiddleware "github.com/yigit/courseatlas/internal/middleware"
	"github.com/yigit/courseatlas/internal/pkg/logger"
	"github.com/yigit/courseatlas/internal/pkg/validation"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos                *appRepos.Repositories
	CatalogService       appServices.CatalogService    // Interface type
	InstructorService    appServices.InstructorService // Interface type
	AnalyticsService     appServices.AnalyticsService  // Interface type
	HealthController     *appControllers.HealthController
	CatalogController    *appControllers.CatalogController
	InstructorController *appControllers.InstructorController
	AnalyticsController  *appControllers.AnalyticsController
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: cfg.PrettyLogs(),
	})

	lgr := logger.Logger()
	lgr.Debug().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and, when migrate is set,
// applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger, migrate bool) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if !migrate {
		return database, nil
	}

	if _, err := RunMigrations(ctx, database, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// RunMigrations applies every pending embedded migration
func RunMigrations(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) (int, error) {
	lgr.Info().Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(database.Pool).Migrate(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return applied, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(database *db.PostgresDB, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)

	deps.CatalogService = appServices.NewCatalogService(deps.Repos.TermRepository, deps.Repos.SectionRepository)
	deps.InstructorService = appServices.NewInstructorService(deps.Repos.InstructorRepository)
	deps.AnalyticsService = appServices.NewAnalyticsService(deps.Repos.AnalyticsRepository)

	deps.HealthController = appControllers.NewHealthController(database.Pool)
	deps.CatalogController = appControllers.NewCatalogController(deps.CatalogService)
	deps.InstructorController = appControllers.NewInstructorController(deps.InstructorService)
	deps.AnalyticsController = appControllers.NewAnalyticsController(deps.AnalyticsService)

	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.RegisterWithGin(); err != nil {
		lgr.Warn().Err(err).Msg("Catalog validation tags not registered")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())

	appRoutes.SetupRouter(router,
		deps.HealthController,
		deps.CatalogController,
		deps.InstructorController,
		deps.AnalyticsController,
	)

	return router
}
