package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/audit"
	"github.com/cropdesk/review-engine/pkg/auth"
	"github.com/cropdesk/review-engine/pkg/config"
	"github.com/cropdesk/review-engine/pkg/database"
	"github.com/cropdesk/review-engine/pkg/handlers"
	"github.com/cropdesk/review-engine/pkg/logging"
	"github.com/cropdesk/review-engine/pkg/middleware"
	"github.com/cropdesk/review-engine/pkg/repositories"
	"github.com/cropdesk/review-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("bind_addr", cfg.BindAddr),
		zap.String("port", cfg.Port),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	ctx := context.Background()

	// Migrations run over database/sql; the pool below is pgx-native.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	auditor := audit.NewAuditor(logger)
	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, auditor, logger)

	questionRepo := repositories.NewQuestionRepository(db)
	submissionRepo := repositories.NewSubmissionRepository(db)
	rerouteRepo := repositories.NewRerouteRepository(db)

	reviewService := services.NewReviewService(&services.ReviewServiceDeps{
		QuestionRepo:   questionRepo,
		SubmissionRepo: submissionRepo,
		RerouteRepo:    rerouteRepo,
		DB:             db,
		DelayedAfter:   cfg.Review.DelayedAfter,
		Auditor:        auditor,
		Logger:         logger.Named("review"),
	})
	rerouteService := services.NewRerouteService(&services.RerouteServiceDeps{
		QuestionRepo:   questionRepo,
		SubmissionRepo: submissionRepo,
		RerouteRepo:    rerouteRepo,
		DB:             db,
		Auditor:        auditor,
		Logger:         logger.Named("reroute"),
	})
	allocationService := services.NewAllocationService(questionRepo, cfg.Review.PageSize, logger.Named("allocation"))

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	questionHandler := handlers.NewQuestionHandler(allocationService, reviewService, logger.Named("questions"))
	questionHandler.RegisterRoutes(mux, authMiddleware)

	reviewHandler := handlers.NewReviewHandler(reviewService, rerouteService, logger.Named("reviews"))
	reviewHandler.RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger.Named("http"))(mux)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting review-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown did not complete cleanly", zap.Error(err))
	}
}
