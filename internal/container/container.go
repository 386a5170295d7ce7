package container

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/carelinnk/carelinnk-api/app/db"
	"github.com/carelinnk/carelinnk-api/app/mail"
	"github.com/carelinnk/carelinnk-api/config"
	"github.com/carelinnk/carelinnk-api/internal/api/auth"
	"github.com/carelinnk/carelinnk-api/internal/api/category"
	"github.com/carelinnk/carelinnk-api/internal/api/course"
	"github.com/carelinnk/carelinnk-api/internal/api/job"
	"github.com/carelinnk/carelinnk-api/internal/api/listing"
)

// Container holds all application dependencies. The listing and
// category handlers are generic; the router instantiates one per
// family from the shared services held here.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool

	AuthHandler     *auth.Handler
	CategoryService category.Service
	ListingService  listing.Service
	JobHandler      *job.Handler
	CourseHandler   *course.Handler
}

// NewContainer initializes and returns a new dependency container.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	mailer := mail.NewSMTPSender(cfg.SMTP, logger)

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, mailer, cfg, logger)
	authHandler := auth.NewHandler(authService, logger)

	categoryRepo := category.NewPostgresCategoryRepo(pool, logger)
	categoryService := category.NewService(categoryRepo, logger)

	listingRepo := listing.NewPostgresListingRepo(pool, logger)
	listingService := listing.NewService(listingRepo, categoryRepo, logger)

	jobRepo := job.NewPostgresJobRepo(pool, logger)
	jobService := job.NewService(jobRepo, categoryRepo, logger)
	jobHandler := job.NewHandler(jobService, logger)

	courseRepo := course.NewPostgresCourseRepo(pool, logger)
	courseService := course.NewService(courseRepo, categoryRepo, logger)
	courseHandler := course.NewHandler(courseService, logger)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Pool:            pool,
		AuthHandler:     authHandler,
		CategoryService: categoryService,
		ListingService:  listingService,
		JobHandler:      jobHandler,
		CourseHandler:   courseHandler,
	}, nil
}

// Close releases held resources.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
