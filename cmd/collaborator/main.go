package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-projects/internal/config"
	"github.com/noah-isme/gema-projects/internal/database"
	"github.com/noah-isme/gema-projects/internal/dto"
	"github.com/noah-isme/gema-projects/internal/handler"
	"github.com/noah-isme/gema-projects/internal/middleware"
	"github.com/noah-isme/gema-projects/internal/repository"
	"github.com/noah-isme/gema-projects/internal/router"
	"github.com/noah-isme/gema-projects/internal/service"
	cloud "github.com/noah-isme/gema-projects/pkg/cloudinary"
)

const localUploadPrefix = "/uploads"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	collab := cfg.Collaborator
	if err := collab.Validate(); err != nil {
		log.Fatalf("invalid collaborator configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("app", cfg.AppName).Logger()

	db, err := database.Open(collab.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), collab.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher service.EvaluationPublisher
	if collab.NATSURL != "" {
		conn, err := nats.Connect(collab.NATSURL, nats.Name(cfg.AppName+" collaborator"))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer conn.Drain()
		publisher = service.NewNATSPublisher(conn, collab.NATSSubject, logger)
	}

	uploader, err := newUploader(collab, logger)
	if err != nil {
		log.Fatalf("failed to configure uploads: %v", err)
	}

	validate := dto.NewValidator()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	if collab.SeedDemoData {
		if err := service.NewSeedService(userRepo, courseRepo, logger).Seed(context.Background()); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
	}

	authService := service.NewAuthService(userRepo, validate, collab.JWTSecret, collab.TokenTTL, logger)
	courseService := service.NewCourseService(courseRepo, logger)
	projectService := service.NewProjectService(projectRepo, courseRepo, validate, service.ProjectServiceConfig{
		Uploader:    uploader,
		Cache:       redisClient,
		CacheTTL:    collab.DashboardCacheTTL,
		Publisher:   publisher,
		MaxUploadMB: collab.MaxUploadMB,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (collab.MaxUploadMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: collab.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:    handler.NewAuthHandler(authService, logger),
		CourseHandler:  handler.NewCourseHandler(courseService, logger),
		ProjectHandler: handler.NewProjectHandler(projectService, logger),
		JWTMiddleware:  middleware.JWTProtected(collab.JWTSecret),
		AuthLimiter:    middleware.RateLimit("auth", 10, time.Minute),
		UploadDir:      localUploadDir(uploader),
		HealthProbes:   healthProbes(db, redisClient),
	})

	go func() {
		logger.Info().Str("addr", collab.HTTPAddress()).Msg("collaborator listening")
		if err := app.Listen(collab.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func newUploader(collab config.CollaboratorConfig, logger zerolog.Logger) (service.FileUploader, error) {
	cloudCfg := cloud.Config{
		CloudName: collab.CloudinaryCloudName,
		APIKey:    collab.CloudinaryAPIKey,
		APISecret: collab.CloudinaryAPISecret,
		Folder:    collab.CloudinaryUploadFolder,
	}
	if cloudCfg.Enabled() {
		return cloud.New(cloudCfg, logger)
	}
	return service.NewLocalUploader(collab.UploadDir, localUploadPrefix, logger)
}

func localUploadDir(uploader service.FileUploader) string {
	if local, ok := uploader.(*service.LocalUploader); ok {
		return local.Dir()
	}
	return ""
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
