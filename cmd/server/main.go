package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/halalverify/halal-backend/config"
	"github.com/halalverify/halal-backend/internal/app/controller"
	"github.com/halalverify/halal-backend/internal/app/repository"
	"github.com/halalverify/halal-backend/internal/app/service"
	"github.com/halalverify/halal-backend/internal/artifact"
	"github.com/halalverify/halal-backend/internal/db"
	"github.com/halalverify/halal-backend/internal/middleware"
	"github.com/halalverify/halal-backend/internal/queue"
	"github.com/halalverify/halal-backend/internal/router"
	"github.com/halalverify/halal-backend/internal/scheduler"
	"github.com/halalverify/halal-backend/internal/storage"
	"github.com/halalverify/halal-backend/pkg/logger"
	"github.com/halalverify/halal-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	logger.Info("Starting halal certificate server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
		"prefix":      cfg.Certificate.Prefix,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	certificateOpts := []service.CertificateServiceOption{}
	var verifyLimiter gin.HandlerFunc

	// Redis backs issuance locks and rate limiting across instances
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		certificateOpts = append(certificateOpts,
			service.WithSubjectLocker(service.NewRedisLocker(redis.GetClient(), cfg.Redis.LockTTL)))
		verifyLimiter = middleware.RateLimit(cfg.RateLimit, redis.GetClient())
	} else {
		logger.Warn("Redis disabled, issuance locks are process-local and rate limiting is off", nil)
	}

	if cfg.S3.Bucket != "" {
		certificateOpts = append(certificateOpts, service.WithDocumentStorage(storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)))
	}

	// Initialize repositories
	certRepo := repository.NewCertificateRepository(db.GetDB())

	// Initialize services
	certificateService := service.NewCertificateService(
		db.GetDB(),
		certRepo,
		cfg.Certificate,
		artifact.NewQREncoder(cfg.Certificate.QRSize),
		artifact.NewDocumentRenderer(),
		certificateOpts...,
	)
	revocationService := service.NewRevocationService(certRepo)
	verificationService := service.NewVerificationService(certRepo, cfg.Certificate.APIBaseURL)

	// Initialize controllers
	certificateController := controller.NewCertificateController(certificateService, revocationService)
	verificationController := controller.NewVerificationController(verificationService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Expiry notices
	var expiryScheduler *scheduler.ExpiryNoticeScheduler
	if cfg.ExpiryJob.Enabled {
		notices := service.NewExpiryNoticeService(
			certRepo,
			queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue),
			cfg.ExpiryJob.Days,
		)
		expiryScheduler = scheduler.NewExpiryNoticeScheduler(cfg.ExpiryJob.Cron, notices)
		if err := expiryScheduler.Start(); err != nil {
			logger.Fatal("Failed to start expiry notice scheduler", err)
		}
	}

	// Setup router
	r := router.NewRouter(
		certificateController,
		verificationController,
		authMiddleware,
		verifyLimiter,
		cfg,
	)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	if expiryScheduler != nil {
		expiryScheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
