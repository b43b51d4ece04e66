package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pricewatch/tracker-api/internal/model"
	"github.com/pricewatch/tracker-api/internal/repository"
)

type alertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) repository.AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Upsert(ctx context.Context, alert *model.Alert) error {
	query := `
		INSERT INTO alerts (
			id, user_email, url, product_name, platform, image_url, currency,
			current_price, previous_price, target_price, is_active,
			notified, notified_at, last_notified_price, repeat_alerts,
			failure_count, last_error, last_checked_at, created_at, updated_at
		)
		VALUES (
			:id, :user_email, :url, :product_name, :platform, :image_url, :currency,
			:current_price, :previous_price, :target_price, :is_active,
			:notified, :notified_at, :last_notified_price, :repeat_alerts,
			:failure_count, :last_error, :last_checked_at, :created_at, :updated_at
		)
		ON CONFLICT (user_email, url) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			platform = EXCLUDED.platform,
			image_url = EXCLUDED.image_url,
			currency = EXCLUDED.currency,
			current_price = EXCLUDED.current_price,
			previous_price = EXCLUDED.previous_price,
			target_price = EXCLUDED.target_price,
			is_active = EXCLUDED.is_active,
			notified = EXCLUDED.notified,
			notified_at = EXCLUDED.notified_at,
			last_notified_price = EXCLUDED.last_notified_price,
			repeat_alerts = EXCLUDED.repeat_alerts,
			failure_count = EXCLUDED.failure_count,
			last_error = EXCLUDED.last_error,
			last_checked_at = EXCLUDED.last_checked_at,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = now
	}
	alert.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, query, alert)
	if err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}
	return nil
}

func (r *alertRepository) Get(ctx context.Context, id uuid.UUID) (*model.Alert, error) {
	query := `SELECT * FROM alerts WHERE id = $1`
	var alert model.Alert
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &alert, nil
}

func (r *alertRepository) GetByUserAndURL(ctx context.Context, email, url string) (*model.Alert, error) {
	query := `SELECT * FROM alerts WHERE user_email = $1 AND url = $2`
	var alert model.Alert
	if err := r.db.GetContext(ctx, &alert, query, email, url); err != nil {
		return nil, fmt.Errorf("failed to get alert by user and url: %w", err)
	}
	return &alert, nil
}

func (r *alertRepository) Update(ctx context.Context, alert *model.Alert) error {
	query := `
		UPDATE alerts SET
			product_name = :product_name,
			platform = :platform,
			image_url = :image_url,
			currency = :currency,
			current_price = :current_price,
			previous_price = :previous_price,
			target_price = :target_price,
			is_active = :is_active,
			notified = :notified,
			notified_at = :notified_at,
			last_notified_price = :last_notified_price,
			repeat_alerts = :repeat_alerts,
			failure_count = :failure_count,
			last_error = :last_error,
			last_checked_at = :last_checked_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	alert.UpdatedAt = time.Now()

	res, err := r.db.NamedExecContext(ctx, query, alert)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("failed to update alert: %w", sql.ErrNoRows)
	}
	return nil
}

func (r *alertRepository) DeleteByUserAndURL(ctx context.Context, email, url string) error {
	query := `DELETE FROM alerts WHERE user_email = $1 AND url = $2`
	res, err := r.db.ExecContext(ctx, query, email, url)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("failed to delete alert: %w", sql.ErrNoRows)
	}
	return nil
}

func (r *alertRepository) ListActive(ctx context.Context) ([]*model.Alert, error) {
	query := `SELECT * FROM alerts WHERE is_active = true ORDER BY created_at`
	var alerts []*model.Alert
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	return alerts, nil
}

func (r *alertRepository) ListActiveByUser(ctx context.Context, email string) ([]*model.Alert, error) {
	query := `SELECT * FROM alerts WHERE user_email = $1 AND is_active = true ORDER BY created_at`
	var alerts []*model.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, email); err != nil {
		return nil, fmt.Errorf("failed to list alerts for user: %w", err)
	}
	return alerts, nil
}
