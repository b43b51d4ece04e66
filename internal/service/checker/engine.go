// Package checker implements the per-alert check cycle: failure gating,
// fetch and extraction, target evaluation with state-based notification
// dedup, and failure accumulation up to auto-deactivation.
package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/pricewatch/tracker-api/internal/extractor"
	"github.com/pricewatch/tracker-api/internal/fetcher"
	"github.com/pricewatch/tracker-api/internal/model"
	"github.com/pricewatch/tracker-api/internal/repository"
	"github.com/pricewatch/tracker-api/pkg/logger"
	"github.com/pricewatch/tracker-api/pkg/metrics"
)

// Engine runs one check cycle for one alert. Scheduled sweeps and manual
// checks both go through Check so behavior never diverges.
type Engine struct {
	repo        repository.AlertRepository
	fetcher     fetcher.Fetcher
	notifier    Notifier
	logger      *logger.Logger
	metrics     *metrics.Metrics
	maxFailures int
}

func NewEngine(repo repository.AlertRepository, f fetcher.Fetcher, n Notifier,
	log *logger.Logger, m *metrics.Metrics, maxFailures int) *Engine {
	if maxFailures <= 0 {
		maxFailures = MaxFailures
	}
	return &Engine{
		repo:        repo,
		fetcher:     f,
		notifier:    n,
		logger:      log,
		metrics:     m,
		maxFailures: maxFailures,
	}
}

// Check runs one full cycle for the alert and persists the resulting state.
// It returns the post-check record and whether a notification was delivered.
func (e *Engine) Check(ctx context.Context, alert *model.Alert) (*model.Alert, bool, error) {
	start := time.Now()
	defer func() {
		e.metrics.CheckDuration.Observe(time.Since(start).Seconds())
	}()

	gated, gate := Gate(*alert, e.maxFailures, time.Now())
	if gate.Skip {
		if gate.Deactivated {
			e.metrics.AlertsDeactivated.Inc()
			e.metrics.ChecksTotal.WithLabelValues("deactivated").Inc()
			e.logger.Warn("alert auto-deactivated",
				"alert_id", gated.ID.String(), "failures", gated.FailureCount)
			if err := e.repo.Update(ctx, &gated); err != nil {
				return nil, false, fmt.Errorf("failed to persist deactivation: %w", err)
			}
		} else {
			e.metrics.ChecksTotal.WithLabelValues("skipped").Inc()
			e.logger.Debug("skipping alert, too many failures",
				"alert_id", gated.ID.String(), "failures", gated.FailureCount)
		}
		return &gated, false, nil
	}

	result := e.fetchAndExtract(ctx, alert)

	updated, shouldNotify := Apply(gated, result, time.Now())
	if err := e.repo.Update(ctx, &updated); err != nil {
		return nil, false, fmt.Errorf("failed to persist check result: %w", err)
	}

	if result.Err != nil || !result.Found {
		e.metrics.ChecksTotal.WithLabelValues("failed").Inc()
		e.logger.Warn("check failed",
			"alert_id", updated.ID.String(),
			"failures", updated.FailureCount,
			"error", failureMessage(result))
		return &updated, false, nil
	}

	e.metrics.ChecksTotal.WithLabelValues("ok").Inc()

	if !shouldNotify {
		return &updated, false, nil
	}

	if err := e.notifier.Notify(ctx, &updated, result.Price); err != nil {
		// Delivery failed: leave notification state untouched so the next
		// cycle retries.
		e.metrics.NotificationsFailed.Inc()
		e.logger.Error(err, "notification delivery failed",
			"alert_id", updated.ID.String(), "price", result.Price)
		return &updated, false, nil
	}

	notified := MarkNotified(updated, result.Price, time.Now())
	if err := e.repo.Update(ctx, &notified); err != nil {
		return nil, false, fmt.Errorf("failed to persist notification state: %w", err)
	}

	e.metrics.NotificationsSent.Inc()
	e.logger.Info("notification sent",
		"alert_id", notified.ID.String(),
		"user", notified.UserEmail,
		"price", result.Price,
		"target", notified.TargetPrice)
	return &notified, true, nil
}

func (e *Engine) fetchAndExtract(ctx context.Context, alert *model.Alert) FetchResult {
	body, err := e.fetcher.Fetch(ctx, alert.URL)
	if err != nil {
		e.metrics.ExtractionsTotal.WithLabelValues("fetch_error").Inc()
		return FetchResult{Err: err}
	}

	price, found := extractor.Extract(body, alert.Platform)
	if !found {
		e.metrics.ExtractionsTotal.WithLabelValues("not_found").Inc()
		return FetchResult{Found: false}
	}

	e.metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
	return FetchResult{Price: price, Found: true}
}
