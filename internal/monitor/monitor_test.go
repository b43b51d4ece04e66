package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pricewatch/tracker-api/internal/model"
	"github.com/pricewatch/tracker-api/pkg/logger"
	"github.com/pricewatch/tracker-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("monitor_test")

type fakeLister struct {
	alerts  []*model.Alert
	listErr error
}

func (r *fakeLister) Upsert(context.Context, *model.Alert) error { return nil }
func (r *fakeLister) Get(context.Context, uuid.UUID) (*model.Alert, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeLister) GetByUserAndURL(context.Context, string, string) (*model.Alert, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeLister) Update(context.Context, *model.Alert) error              { return nil }
func (r *fakeLister) DeleteByUserAndURL(context.Context, string, string) error { return nil }
func (r *fakeLister) ListActive(context.Context) ([]*model.Alert, error) {
	return r.alerts, r.listErr
}
func (r *fakeLister) ListActiveByUser(context.Context, string) ([]*model.Alert, error) {
	return r.alerts, r.listErr
}

type fakeChecker struct {
	checked []uuid.UUID
	errOn   map[uuid.UUID]error
}

func (c *fakeChecker) Check(_ context.Context, a *model.Alert) (*model.Alert, bool, error) {
	c.checked = append(c.checked, a.ID)
	if err := c.errOn[a.ID]; err != nil {
		return nil, false, err
	}
	return a, false, nil
}

func makeAlerts(n int) []*model.Alert {
	out := make([]*model.Alert, n)
	for i := range out {
		a := &model.Alert{IsActive: true}
		a.ID = uuid.New()
		out[i] = a
	}
	return out
}

func TestSweepChecksAllAlerts(t *testing.T) {
	alerts := makeAlerts(3)
	repo := &fakeLister{alerts: alerts}
	c := &fakeChecker{}
	m := New(repo, c, logger.NewLogger(nil), testMetrics, time.Minute, 0)

	m.Sweep(context.Background())

	assert.Len(t, c.checked, 3)
	for i, a := range alerts {
		assert.Equal(t, a.ID, c.checked[i])
	}
}

func TestSweepIsolatesItemErrors(t *testing.T) {
	alerts := makeAlerts(3)
	repo := &fakeLister{alerts: alerts}
	c := &fakeChecker{errOn: map[uuid.UUID]error{
		alerts[1].ID: errors.New("update failed"),
	}}
	m := New(repo, c, logger.NewLogger(nil), testMetrics, time.Minute, 0)

	m.Sweep(context.Background())

	// The failing middle item does not stop the remaining checks.
	assert.Len(t, c.checked, 3)
}

func TestSweepAbortsOnListError(t *testing.T) {
	repo := &fakeLister{listErr: errors.New("connection refused")}
	c := &fakeChecker{}
	m := New(repo, c, logger.NewLogger(nil), testMetrics, time.Minute, 0)

	m.Sweep(context.Background())

	assert.Empty(t, c.checked)
}

func TestSweepPausesBetweenItems(t *testing.T) {
	alerts := makeAlerts(3)
	repo := &fakeLister{alerts: alerts}
	c := &fakeChecker{}
	delay := 30 * time.Millisecond
	m := New(repo, c, logger.NewLogger(nil), testMetrics, time.Minute, delay)

	start := time.Now()
	m.Sweep(context.Background())
	elapsed := time.Since(start)

	// Two pauses between three items.
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Len(t, c.checked, 3)
}

func TestSweepStopsOnCanceledContext(t *testing.T) {
	alerts := makeAlerts(5)
	repo := &fakeLister{alerts: alerts}
	c := &fakeChecker{}
	m := New(repo, c, logger.NewLogger(nil), testMetrics, time.Minute, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	m.Sweep(ctx)

	assert.Less(t, len(c.checked), 5)
}

func TestStartStopsOnCancel(t *testing.T) {
	repo := &fakeLister{}
	c := &fakeChecker{}
	m := New(repo, c, logger.NewLogger(nil), testMetrics, 10*time.Millisecond, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after context cancellation")
	}
}
