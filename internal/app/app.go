// Package app assembles the catalog service from its configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"katalog/internal/config"
	"katalog/internal/database"
	"katalog/internal/events"
	"katalog/internal/handlers"
	"katalog/internal/metrics"
	"katalog/internal/middleware"
	"katalog/internal/repositories"
	"katalog/internal/services"
	"katalog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// Dependencies are the collaborators NewRouter wires into the HTTP API.
type Dependencies struct {
	DB        *gorm.DB
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	JWTSecret string
	JWTTTL    time.Duration
	Logger    *slog.Logger
}

// NewRouter builds the Fiber app with every route registered.
func NewRouter(deps Dependencies) *fiber.App {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	productRepo := repositories.NewGORMProductRepository(deps.DB)
	userRepo := repositories.NewGORMUserRepository(deps.DB)

	productService := services.NewProductService(productRepo, deps.Publisher, deps.Metrics, deps.Logger)
	authService := services.NewAuthService(userRepo, deps.JWTSecret, deps.JWTTTL, deps.Logger)

	productHandler := handlers.NewProductHandler(productService, deps.Logger)
	authHandler := handlers.NewAuthHandler(authService, deps.Logger)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(logger.New())
	app.Use(deps.Metrics.Middleware())

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1, middleware.AuthRequired(authService))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", deps.Metrics.Handler())

	return app
}

// App is a running catalog service and the resources it owns.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
	mq     *rabbitmq.Client
	fiber  *fiber.App
}

// New opens the database and, when configured, the RabbitMQ connection, and
// builds the HTTP API on top of them.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, db: db}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.mq = mq
		publisher = mq
	} else {
		logger.Warn("RABBITMQ_URL is empty, product events are not published")
	}

	a.fiber = NewRouter(Dependencies{
		DB:        db,
		Publisher: publisher,
		Metrics:   metrics.New(),
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		Logger:    logger,
	})
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.mq != nil {
		a.startConsumer(a.mq)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "addr", a.cfg.AppPort)
		errCh <- a.fiber.Listen(a.cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		a.close()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.fiber.ShutdownWithContext(shutdownCtx)
	a.close()
	if err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	a.logger.Info("Server gracefully stopped")
	return nil
}

type productEventConsumer interface {
	ConsumeProductEvents(handler func(events.ProductEvent) error) error
}

// startConsumer logs every event on the catalog queue when RABBITMQ_CONSUME
// is set.
func (a *App) startConsumer(c productEventConsumer) {
	if !a.cfg.ConsumeEvents {
		return
	}
	err := c.ConsumeProductEvents(func(e events.ProductEvent) error {
		a.logger.Info("Catalog event received",
			"event", e.Type, "product_id", e.ProductID, "quantity", e.Quantity)
		return nil
	})
	if err != nil {
		a.logger.Error("Failed to start RabbitMQ consumer", "error", err)
	}
}

func (a *App) close() {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ client", "error", err)
		}
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Error("Error closing database", "error", err)
	}
}
