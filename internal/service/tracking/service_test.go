package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/tracker-api/internal/model"
	apperrors "github.com/pricewatch/tracker-api/pkg/errors"
	"github.com/pricewatch/tracker-api/pkg/logger"
)

type fakeRepo struct {
	alerts map[uuid.UUID]*model.Alert
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{alerts: make(map[uuid.UUID]*model.Alert)}
}

func (r *fakeRepo) Upsert(_ context.Context, a *model.Alert) error {
	for id, existing := range r.alerts {
		if existing.UserEmail == a.UserEmail && existing.URL == a.URL && id != a.ID {
			return errors.New("unique violation")
		}
	}
	cp := *a
	r.alerts[a.ID] = &cp
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*model.Alert, error) {
	a, ok := r.alerts[id]
	if !ok {
		return nil, fmt.Errorf("failed to get alert: %w", sql.ErrNoRows)
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) GetByUserAndURL(_ context.Context, email, url string) (*model.Alert, error) {
	for _, a := range r.alerts {
		if a.UserEmail == email && a.URL == url {
			cp := *a
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("failed to get alert by user and url: %w", sql.ErrNoRows)
}

func (r *fakeRepo) Update(_ context.Context, a *model.Alert) error {
	if _, ok := r.alerts[a.ID]; !ok {
		return fmt.Errorf("failed to update alert: %w", sql.ErrNoRows)
	}
	cp := *a
	r.alerts[a.ID] = &cp
	return nil
}

func (r *fakeRepo) DeleteByUserAndURL(_ context.Context, email, url string) error {
	for id, a := range r.alerts {
		if a.UserEmail == email && a.URL == url {
			delete(r.alerts, id)
			return nil
		}
	}
	return fmt.Errorf("failed to delete alert: %w", sql.ErrNoRows)
}

func (r *fakeRepo) ListActive(_ context.Context) ([]*model.Alert, error) {
	var out []*model.Alert
	for _, a := range r.alerts {
		if a.IsActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListActiveByUser(_ context.Context, email string) ([]*model.Alert, error) {
	var out []*model.Alert
	for _, a := range r.alerts {
		if a.IsActive && a.UserEmail == email {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeChecker struct {
	sent  bool
	err   error
	calls int
}

func (c *fakeChecker) Check(_ context.Context, a *model.Alert) (*model.Alert, bool, error) {
	c.calls++
	if c.err != nil {
		return nil, false, c.err
	}
	cp := *a
	return &cp, c.sent, nil
}

type fakeNotifier struct {
	err    error
	prices []float64
}

func (n *fakeNotifier) Notify(_ context.Context, _ *model.Alert, price float64) error {
	if n.err != nil {
		return n.err
	}
	n.prices = append(n.prices, price)
	return nil
}

func newTestService(repo *fakeRepo) (*Service, *fakeChecker, *fakeNotifier) {
	c := &fakeChecker{}
	n := &fakeNotifier{}
	return NewService(repo, c, n, logger.NewLogger(nil)), c, n
}

func validRequest() *model.CreateAlertRequest {
	return &model.CreateAlertRequest{
		UserEmail:   "buyer@example.com",
		URL:         "https://www.amazon.in/dp/B0TEST",
		TargetPrice: 50000,
	}
}

func TestAddOrUpdateCreatesAlert(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	alert, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, alert.ID)
	assert.True(t, alert.IsActive)
	assert.Equal(t, "₹", alert.Currency)
	assert.Equal(t, "amazon", alert.Platform)
	assert.Len(t, repo.alerts, 1)
}

func TestAddOrUpdateValidation(t *testing.T) {
	svc, _, _ := newTestService(newFakeRepo())

	req := validRequest()
	req.TargetPrice = 0
	_, err := svc.AddOrUpdate(context.Background(), req)
	assert.True(t, apperrors.IsBadRequest(err))

	req = validRequest()
	current := 45000.0
	req.CurrentPrice = &current
	_, err = svc.AddOrUpdate(context.Background(), req)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestAddOrUpdateMergesExisting(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	first, err := svc.AddOrUpdate(context.Background(), &model.CreateAlertRequest{
		UserEmail:   "buyer@example.com",
		URL:         "https://www.amazon.in/dp/B0TEST",
		TargetPrice: 50000,
		ProductName: "Noise Cancelling Headphones",
		ImageURL:    "https://img.example.com/p.jpg",
	})
	require.NoError(t, err)

	// Same target, blank descriptive fields: record is kept, not replaced.
	second, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Noise Cancelling Headphones", second.ProductName)
	assert.Equal(t, "https://img.example.com/p.jpg", second.ImageURL)
	assert.Len(t, repo.alerts, 1)
}

func TestAddOrUpdateNewTargetResetsEpisode(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	alert, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	// Simulate a delivered notification.
	stored := repo.alerts[alert.ID]
	stored.Notified = true
	price := 48999.0
	stored.LastNotifiedPrice = &price

	req := validRequest()
	req.TargetPrice = 45000
	updated, err := svc.AddOrUpdate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 45000.0, updated.TargetPrice)
	assert.False(t, updated.Notified)
	assert.Nil(t, updated.LastNotifiedPrice)
}

func TestAddOrUpdateReactivates(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	alert, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	stored := repo.alerts[alert.ID]
	stored.IsActive = false
	stored.FailureCount = 7
	msg := "connection refused"
	stored.LastError = &msg

	updated, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, updated.IsActive)
	assert.Equal(t, 0, updated.FailureCount)
	assert.Nil(t, updated.LastError)
}

func TestListWatchlist(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	_, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.AddOrUpdate(context.Background(), &model.CreateAlertRequest{
		UserEmail:   "other@example.com",
		URL:         "https://www.flipkart.com/p/item",
		TargetPrice: 1500,
	})
	require.NoError(t, err)

	alerts, err := svc.ListWatchlist(context.Background(), "buyer@example.com")
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.Equal(t, "buyer@example.com", alerts[0].UserEmail)
}

func TestExists(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	_, tracked, err := svc.Exists(context.Background(), "buyer@example.com", "https://www.amazon.in/dp/B0TEST")
	require.NoError(t, err)
	assert.False(t, tracked)

	alert, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	found, tracked, err := svc.Exists(context.Background(), "buyer@example.com", "https://www.amazon.in/dp/B0TEST")
	require.NoError(t, err)
	assert.True(t, tracked)
	assert.Equal(t, alert.ID, found.ID)
}

func TestDeactivate(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	alert, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), alert.ID))
	assert.False(t, repo.alerts[alert.ID].IsActive)

	err = svc.Deactivate(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRemoveByURL(t *testing.T) {
	repo := newFakeRepo()
	svc, _, _ := newTestService(repo)

	_, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.RemoveByURL(context.Background(), "buyer@example.com", "https://www.amazon.in/dp/B0TEST"))
	assert.Empty(t, repo.alerts)

	err = svc.RemoveByURL(context.Background(), "buyer@example.com", "https://www.amazon.in/dp/B0TEST")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCheckNow(t *testing.T) {
	repo := newFakeRepo()
	svc, c, _ := newTestService(repo)
	c.sent = true

	alert, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	price := 48999.0
	repo.alerts[alert.ID].CurrentPrice = &price

	outcome, err := svc.CheckNow(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.True(t, outcome.PriceReached)
	assert.True(t, outcome.NotificationSent)
	assert.Equal(t, 1, c.calls)

	_, err = svc.CheckNow(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	repo.alerts[alert.ID].IsActive = false
	_, err = svc.CheckNow(context.Background(), alert.ID)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestTestNotification(t *testing.T) {
	repo := newFakeRepo()
	svc, _, n := newTestService(repo)

	alert, err := svc.AddOrUpdate(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.TestNotification(context.Background(), alert.ID))
	require.Len(t, n.prices, 1)
	assert.Equal(t, 45000.0, n.prices[0])

	err = svc.TestNotification(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPlatformFromURL(t *testing.T) {
	assert.Equal(t, "amazon", platformFromURL("https://www.amazon.in/dp/B0TEST"))
	assert.Equal(t, "flipkart", platformFromURL("https://www.flipkart.com/p/item"))
	assert.Equal(t, "reliance", platformFromURL("https://www.reliancedigital.in/p/item"))
	assert.Equal(t, "", platformFromURL("https://example.com/p"))
}
