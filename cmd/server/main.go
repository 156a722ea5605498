// Package main is the entry point for the Outbreak Atlas API server.
// It serves self-reported illness reports with their aggregates next to
// the CDC FluView influenza-like-illness feed and COVID case rates.
//
// Architecture:
//   - Reports and accounts are stored in PostgreSQL
//   - Aggregates and weekly buckets are computed per request
//   - FluView data is fetched from Delphi Epidata and cached in Redis
//   - COVIDcast daily case rates are fetched from Delphi on request
//   - Report changes are published to Kafka when brokers are configured
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/outbreak-atlas/atlas-server/internal/auth"
	"github.com/outbreak-atlas/atlas-server/internal/config"
	"github.com/outbreak-atlas/atlas-server/internal/covidcast"
	"github.com/outbreak-atlas/atlas-server/internal/database"
	"github.com/outbreak-atlas/atlas-server/internal/events"
	"github.com/outbreak-atlas/atlas-server/internal/fluview"
	"github.com/outbreak-atlas/atlas-server/internal/handlers"
	"github.com/outbreak-atlas/atlas-server/internal/middleware"
	"github.com/outbreak-atlas/atlas-server/internal/services"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting Outbreak Atlas server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"timezone", cfg.Location.String(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	db, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			sugar.Fatalf("Failed to apply schema: %v", err)
		}
		sugar.Info("Database schema applied")
	}

	// FluView cache is optional
	var (
		fluCache    services.FluCache
		cachePinger handlers.Pinger
	)
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisCache(ctx, cfg.RedisURL, cfg.FluCacheTTL)
		if err != nil {
			sugar.Warnw("Redis unavailable, FluView cache disabled", "error", err)
		} else {
			defer redisCache.Close()
			fluCache, cachePinger = redisCache, redisCache
		}
	}

	// Report events are optional
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, sugar)
		sugar.Infow("Publishing report events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer publisher.Close()

	// Initialize services
	reportSvc := services.NewReportService(db, cfg.Location, sugar)
	userSvc := services.NewUserService(db, auth.NewHasher(cfg.BcryptCost), sugar)
	fluSvc := services.NewFluService(
		fluview.NewClient(cfg.DelphiBaseURL, cfg.DelphiAPIKey, cfg.DelphiTimeout),
		fluCache,
		sugar,
	)
	covidSvc := services.NewCovidService(
		covidcast.NewClient(cfg.CovidBaseURL, cfg.DelphiAPIKey, cfg.DelphiTimeout),
		cfg.Location,
		sugar,
	)
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// Start background FluView warmer (keeps the national series cached)
	if fluCache != nil && cfg.FluWarmInterval > 0 {
		warmer := services.NewFluWarmer(fluSvc, []string{fluview.National}, sugar)
		go warmer.Start(ctx, cfg.FluWarmInterval)
	}

	// Initialize handlers
	api := &handlers.API{
		Auth:    handlers.NewAuthHandler(userSvc, tokens, sugar),
		Users:   handlers.NewUserHandler(userSvc, sugar),
		Reports: handlers.NewReportHandler(reportSvc, publisher, sugar),
		Flu:     handlers.NewFluHandler(fluSvc, sugar),
		Covid:   handlers.NewCovidHandler(covidSvc, sugar),
		Health:  handlers.NewHealthHandler(db, cachePinger, sugar),
		Tokens:  tokens,
	}

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	api.Routes(r)
	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
