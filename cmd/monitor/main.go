package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/pricewatch/tracker-api/internal/config"
	"github.com/pricewatch/tracker-api/internal/email"
	"github.com/pricewatch/tracker-api/internal/fetcher"
	"github.com/pricewatch/tracker-api/internal/monitor"
	"github.com/pricewatch/tracker-api/internal/repository/postgres"
	"github.com/pricewatch/tracker-api/internal/service/checker"
	"github.com/pricewatch/tracker-api/pkg/logger"
	"github.com/pricewatch/tracker-api/pkg/metrics"
)

// Standalone sweep worker for deployments that run the monitor separately
// from the API.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics(cfg.Monitoring.Namespace + "_monitor")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	alertRepo := postgres.NewAlertRepository(db)
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

	setupHealthCheck(appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down monitor")
		cancel()
	}()

	mon := monitor.New(alertRepo, engine, appLogger, appMetrics,
		cfg.Monitor.SweepInterval, cfg.Monitor.ScrapeDelay)
	mon.Start(ctx)
}

func setupHealthCheck(log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			log.Fatal(err, "health check server failed")
		}
	}()
}
