// Package tracking implements the user-facing watchlist operations:
// add-or-update, listing, removal and manual checks.
package tracking

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pricewatch/tracker-api/internal/model"
	"github.com/pricewatch/tracker-api/internal/repository"
	"github.com/pricewatch/tracker-api/internal/service/checker"
	apperrors "github.com/pricewatch/tracker-api/pkg/errors"
	"github.com/pricewatch/tracker-api/pkg/logger"
)

// Checker runs one check cycle for an alert. Satisfied by *checker.Engine.
type Checker interface {
	Check(ctx context.Context, alert *model.Alert) (*model.Alert, bool, error)
}

type Service struct {
	repo     repository.AlertRepository
	checker  Checker
	notifier checker.Notifier
	logger   *logger.Logger
}

func NewService(repo repository.AlertRepository, c Checker, n checker.Notifier, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		checker:  c,
		notifier: n,
		logger:   log,
	}
}

// AddOrUpdate registers a tracking request. A second request for the same
// (email, url) pair updates the existing alert in place: it is reactivated,
// its failure count is cleared, and descriptive fields already on record are
// kept when the request leaves them blank.
func (s *Service) AddOrUpdate(ctx context.Context, req *model.CreateAlertRequest) (*model.Alert, error) {
	if req.TargetPrice <= 0 {
		return nil, apperrors.BadRequest("target price must be greater than zero", nil)
	}
	if req.CurrentPrice != nil && req.TargetPrice >= *req.CurrentPrice {
		return nil, apperrors.BadRequest("target price must be below the current price", nil)
	}

	existing, err := s.repo.GetByUserAndURL(ctx, req.UserEmail, req.URL)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Internal(err)
	}

	var alert *model.Alert
	if existing != nil {
		alert = s.mergeRequest(existing, req)
	} else {
		alert = s.newAlert(req)
	}

	if err := s.repo.Upsert(ctx, alert); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("tracking saved",
		"alert_id", alert.ID.String(),
		"user", alert.UserEmail,
		"target", alert.TargetPrice,
		"updated", existing != nil)
	return alert, nil
}

func (s *Service) newAlert(req *model.CreateAlertRequest) *model.Alert {
	alert := &model.Alert{
		UserEmail:    req.UserEmail,
		URL:          req.URL,
		ProductName:  req.ProductName,
		Platform:     req.Platform,
		ImageURL:     req.ImageURL,
		Currency:     req.Currency,
		CurrentPrice: req.CurrentPrice,
		TargetPrice:  req.TargetPrice,
		RepeatAlerts: req.RepeatAlerts,
		IsActive:     true,
	}
	alert.ID = uuid.New()
	if alert.Currency == "" {
		alert.Currency = model.DefaultCurrency
	}
	if alert.Platform == "" {
		alert.Platform = platformFromURL(req.URL)
	}
	return alert
}

func (s *Service) mergeRequest(existing *model.Alert, req *model.CreateAlertRequest) *model.Alert {
	alert := *existing

	if req.ProductName != "" {
		alert.ProductName = req.ProductName
	}
	if req.Platform != "" {
		alert.Platform = req.Platform
	}
	if req.ImageURL != "" {
		alert.ImageURL = req.ImageURL
	}
	if req.Currency != "" {
		alert.Currency = req.Currency
	}
	if req.CurrentPrice != nil {
		alert.CurrentPrice = req.CurrentPrice
	}

	// A new target starts a fresh notification episode.
	if req.TargetPrice != alert.TargetPrice {
		alert.TargetPrice = req.TargetPrice
		alert.Notified = false
		alert.NotifiedAt = nil
		alert.LastNotifiedPrice = nil
	}

	alert.RepeatAlerts = req.RepeatAlerts
	alert.IsActive = true
	alert.FailureCount = 0
	alert.LastError = nil
	return &alert
}

// ListWatchlist returns the user's active alerts, oldest first.
func (s *Service) ListWatchlist(ctx context.Context, email string) ([]*model.Alert, error) {
	alerts, err := s.repo.ListActiveByUser(ctx, email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return alerts, nil
}

// Exists reports whether the user already tracks the URL, returning the
// alert when they do.
func (s *Service) Exists(ctx context.Context, email, rawURL string) (*model.Alert, bool, error) {
	alert, err := s.repo.GetByUserAndURL(ctx, email, rawURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperrors.Internal(err)
	}
	return alert, alert.IsActive, nil
}

// Deactivate stops checks for an alert without removing its record.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("alert", err)
		}
		return apperrors.Internal(err)
	}
	if !alert.IsActive {
		return nil
	}

	alert.IsActive = false
	if err := s.repo.Update(ctx, alert); err != nil {
		return apperrors.Internal(err)
	}
	s.logger.Info("tracking deactivated", "alert_id", id.String())
	return nil
}

// RemoveByURL deletes the user's alert for the given URL.
func (s *Service) RemoveByURL(ctx context.Context, email, rawURL string) error {
	if err := s.repo.DeleteByUserAndURL(ctx, email, rawURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("alert", err)
		}
		return apperrors.Internal(err)
	}
	s.logger.Info("tracking removed", "user", email, "url", rawURL)
	return nil
}

// CheckNow runs an immediate check for one alert outside the sweep schedule.
func (s *Service) CheckNow(ctx context.Context, id uuid.UUID) (*model.CheckOutcome, error) {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("alert", err)
		}
		return nil, apperrors.Internal(err)
	}
	if !alert.IsActive {
		return nil, apperrors.BadRequest("alert is not active", nil)
	}

	updated, sent, err := s.checker.Check(ctx, alert)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.CheckOutcome{
		Alert:            updated,
		PriceReached:     updated.TargetReached(),
		NotificationSent: sent,
	}, nil
}

// TestNotification sends the alert email with a simulated price just below
// target so users can verify delivery end to end.
func (s *Service) TestNotification(ctx context.Context, id uuid.UUID) error {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("alert", err)
		}
		return apperrors.Internal(err)
	}

	simulated := math.Floor(alert.TargetPrice * 0.9)
	if err := s.notifier.Notify(ctx, alert, simulated); err != nil {
		return apperrors.Internal(err)
	}
	s.logger.Info("test notification sent", "alert_id", id.String(), "price", simulated)
	return nil
}

func platformFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "amazon"):
		return "amazon"
	case strings.Contains(host, "flipkart"):
		return "flipkart"
	case strings.Contains(host, "reliancedigital"):
		return "reliance"
	default:
		return ""
	}
}
