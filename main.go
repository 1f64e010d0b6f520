package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tokoadmin/internal/config"
	"tokoadmin/internal/handlers"
	"tokoadmin/internal/images"
	"tokoadmin/internal/middleware"
	"tokoadmin/internal/models"
	"tokoadmin/internal/repositories"
	"tokoadmin/internal/services"
	"tokoadmin/pkg/httpclient"
	"tokoadmin/pkg/logger"
	"tokoadmin/pkg/rabbitmq"
)

const serviceName = "tokoadmin"

// App is the wired admin service.
type App struct {
	Fiber    *fiber.App
	Config   *config.Config
	Logger   *slog.Logger
	DB       *gorm.DB
	Auth     *services.AuthService
	Catalog  *services.CatalogService
	Drafts   *services.DraftService
	Activity *services.ActivityService
	MQ       *rabbitmq.Client
}

func main() {
	app, err := NewApp(config.New())
	if err != nil {
		slog.Error("failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		app.Logger.Info("starting server", slog.String("addr", app.Config.AppPort))
		if err := app.Fiber.Listen(app.Config.AppPort); err != nil {
			app.Logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-quit
	app.Logger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		app.Logger.Error("error during shutdown", slog.String("error", err.Error()))
	}
	app.Logger.Info("server gracefully stopped")
}

// NewApp builds the service from the configuration held by v.
func NewApp(v *viper.Viper) (*App, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(serviceName, cfg.LogLevel)

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.Operator{}, &models.ActivityEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	productRepo := newProductRepository(cfg, log)
	operatorRepo := repositories.NewGORMOperatorRepository(db)
	activityRepo := repositories.NewGORMActivityRepository(db)

	codec, err := newImageCodec(cfg)
	if err != nil {
		return nil, err
	}

	// The activity service takes an interface: leave it nil rather than a nil *Client.
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, product events disabled", slog.String("error", err.Error()))
		} else {
			publisher = mqClient
		}
	}

	authService := services.NewAuthService(operatorRepo, cfg.JWTSecret, log)
	if err := authService.SeedOperator(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, err
	}
	activityService := services.NewActivityService(activityRepo, publisher, log)
	catalogService := services.NewCatalogService(productRepo, activityService)
	draftService := services.NewDraftService(productRepo, codec, activityService, services.DraftConfig{
		PriceCeiling:  cfg.PriceCeiling,
		ImageMaxBytes: cfg.ImageMaxBytes,
		LoadTimeout:   cfg.BackendTimeout,
		TTL:           cfg.DraftTTL,
	}, log)

	if mqClient != nil && cfg.RabbitMQConsume {
		err := mqClient.ConsumeProductEvents(func(msg amqp.Delivery) error {
			return activityService.HandleEvent(msg.Body)
		})
		if err != nil {
			log.Warn("failed to start product event consumer", slog.String("error", err.Error()))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      serviceName,
		BodyLimit:    int(cfg.ImageMaxBytes) + 1<<20,
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		mqStatus := "disabled"
		if mqClient != nil {
			mqStatus = "connected"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"backend":  cfg.BackendMode,
			"rabbitmq": mqStatus,
			"drafts":   draftService.Len(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService, log).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService, log))
	handlers.NewProductHandler(catalogService, log).RegisterRoutes(protected)
	handlers.NewDraftHandler(draftService, log).RegisterRoutes(protected)
	handlers.NewActivityHandler(activityService, log).RegisterRoutes(protected)

	return &App{
		Fiber:    app,
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Auth:     authService,
		Catalog:  catalogService,
		Drafts:   draftService,
		Activity: activityService,
		MQ:       mqClient,
	}, nil
}

// Shutdown stops the HTTP server and releases every resource.
func (a *App) Shutdown() error {
	var errs []error
	if err := a.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
	}
	a.Drafts.Close()
	if a.MQ != nil {
		if err := a.MQ.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func newProductRepository(cfg *config.Config, log *slog.Logger) repositories.ProductRepository {
	if cfg.BackendMode == config.BackendMemory {
		repo := repositories.NewMockProductRepository()
		seedProducts(repo, log)
		return repo
	}

	const backendName = "inventory-backend"
	client := httpclient.New(backendName, httpclient.Config{
		Timeout:         cfg.BackendTimeout,
		MaxConnsPerHost: httpclient.DefaultConfig().MaxConnsPerHost,
	}, log)
	breaker := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig(backendName), log)
	return repositories.NewHTTPProductRepository(cfg.BackendURL, breaker)
}

func newImageCodec(cfg *config.Config) (images.Codec, error) {
	if cfg.ImageStore == config.ImageStoreS3 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		codec, err := images.NewBucketCodec(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to set up image bucket: %w", err)
		}
		return codec, nil
	}
	return images.DataURLCodec{MaxBytes: cfg.ImageMaxBytes}, nil
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", slog.String("path", c.Path()), slog.String("error", err.Error()))
		}
		return c.Status(code).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
}

// seedProducts fills the in-memory backend used by BACKEND_MODE=memory.
func seedProducts(repo *repositories.MockProductRepository, log *slog.Logger) {
	products := []models.Product{
		{ID: "prod-1", Name: "Laptop", Description: "High performance laptop", Price: 4200, Colors: []string{"silver", "space gray"}},
		{ID: "prod-2", Name: "Keyboard", Description: "Mechanical keyboard", Price: 1500, Colors: []string{"black"}},
		{ID: "prod-3", Name: "Mouse", Description: "Ergonomic wireless mouse", Price: 590},
	}
	for _, p := range products {
		seeded := repo.Seed(p)
		log.Debug("seeded product", slog.String("name", seeded.Name), slog.String("id", seeded.ID))
	}
}
