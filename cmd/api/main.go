package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricewatch/tracker-api/internal/config"
	"github.com/pricewatch/tracker-api/internal/email"
	"github.com/pricewatch/tracker-api/internal/fetcher"
	"github.com/pricewatch/tracker-api/internal/handler"
	authHandler "github.com/pricewatch/tracker-api/internal/handler/auth"
	trackingHandler "github.com/pricewatch/tracker-api/internal/handler/tracking"
	"github.com/pricewatch/tracker-api/internal/middleware"
	"github.com/pricewatch/tracker-api/internal/monitor"
	"github.com/pricewatch/tracker-api/internal/repository/postgres"
	"github.com/pricewatch/tracker-api/internal/router"
	authService "github.com/pricewatch/tracker-api/internal/service/auth"
	"github.com/pricewatch/tracker-api/internal/service/checker"
	trackingService "github.com/pricewatch/tracker-api/internal/service/tracking"
	pkgauth "github.com/pricewatch/tracker-api/pkg/auth"
	"github.com/pricewatch/tracker-api/pkg/logger"
	"github.com/pricewatch/tracker-api/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics(cfg.Monitoring.Namespace)

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories
	alertRepo := postgres.NewAlertRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Initialize services
	jwtSvc := pkgauth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	emailSvc := email.NewSMTPService(cfg.SMTP, appLogger)
	pageFetcher := fetcher.NewHTTPFetcher(fetcher.Options{
		Timeout:  cfg.Monitor.FetchTimeout,
		Attempts: cfg.Monitor.FetchAttempts,
		Backoff:  cfg.Monitor.FetchBackoff,
		RPS:      cfg.Monitor.OutboundRPS,
		Burst:    cfg.Monitor.OutboundBurst,
	}, appLogger)

	notifier := checker.NewEmailNotifier(emailSvc)
	engine := checker.NewEngine(alertRepo, pageFetcher, notifier, appLogger, appMetrics, cfg.Monitor.MaxFailures)

	trackingSvc := trackingService.NewService(alertRepo, engine, notifier, appLogger)
	authSvc := authService.NewService(userRepo, jwtSvc, appLogger, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	// Initialize middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	trackingH := trackingHandler.NewHandler(trackingSvc)

	// Setup router
	r := router.NewRouter(authMiddleware, authH, trackingH, h, router.Config{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimitRPS:     cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:   cfg.RateLimit.Burst,
		MetricsPrefix:    cfg.Monitoring.Namespace,
	})
	r.Setup()

	// Start the price monitor alongside the API
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mon := monitor.New(alertRepo, engine, appLogger, appMetrics,
		cfg.Monitor.SweepInterval, cfg.Monitor.ScrapeDelay)
	go mon.Start(ctx)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("server started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
