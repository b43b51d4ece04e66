// Package monitor runs the periodic sweep over all active alerts.
package monitor

import (
	"context"
	"time"

	"github.com/pricewatch/tracker-api/internal/model"
	"github.com/pricewatch/tracker-api/internal/repository"
	"github.com/pricewatch/tracker-api/pkg/logger"
	"github.com/pricewatch/tracker-api/pkg/metrics"
)

// Checker runs one check cycle for an alert. Satisfied by *checker.Engine.
type Checker interface {
	Check(ctx context.Context, alert *model.Alert) (*model.Alert, bool, error)
}

// Monitor sweeps the active alerts sequentially on a fixed interval,
// pausing between items so outbound traffic stays polite.
type Monitor struct {
	repo     repository.AlertRepository
	checker  Checker
	logger   *logger.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	delay    time.Duration
}

func New(repo repository.AlertRepository, c Checker, log *logger.Logger,
	m *metrics.Metrics, interval, delay time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Monitor{
		repo:     repo,
		checker:  c,
		logger:   log,
		metrics:  m,
		interval: interval,
		delay:    delay,
	}
}

// Start runs sweeps until the context is canceled. The first sweep starts
// immediately rather than one interval in.
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("price monitor started", "interval", m.interval.String())

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("price monitor stopped")
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep checks every active alert once. A failing item never stops the
// sweep; only a failed load of the alert list aborts the cycle.
func (m *Monitor) Sweep(ctx context.Context) {
	start := time.Now()
	m.metrics.SweepsTotal.Inc()
	defer func() {
		m.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	alerts, err := m.repo.ListActive(ctx)
	if err != nil {
		m.metrics.SweepErrors.Inc()
		m.logger.Error(err, "failed to load active alerts, aborting sweep")
		return
	}
	if len(alerts) == 0 {
		return
	}

	m.logger.Info("sweep started", "alerts", len(alerts))

	checked, failed := 0, 0
	for i, alert := range alerts {
		if ctx.Err() != nil {
			m.logger.Info("sweep interrupted", "checked", checked)
			return
		}
		if i > 0 && !m.pause(ctx) {
			m.logger.Info("sweep interrupted", "checked", checked)
			return
		}

		if _, _, err := m.checker.Check(ctx, alert); err != nil {
			failed++
			m.logger.Error(err, "check failed during sweep",
				"alert_id", alert.ID.String(), "url", alert.URL)
		}
		checked++
	}

	m.logger.Info("sweep finished",
		"checked", checked,
		"failed", failed,
		"duration", time.Since(start).String())
}

func (m *Monitor) pause(ctx context.Context) bool {
	if m.delay <= 0 {
		return true
	}
	t := time.NewTimer(m.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
