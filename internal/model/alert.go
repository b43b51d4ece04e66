package model

import (
	"time"
)

// DefaultCurrency is used when a tracking request carries no currency symbol.
const DefaultCurrency = "₹"

// Alert is one user's price-drop tracking request for a single product URL.
// (UserEmail, URL) is unique: a second add for the same pair updates the
// existing row instead of creating a duplicate.
type Alert struct {
	Base

	UserEmail string `json:"user_email" db:"user_email"`
	URL       string `json:"url" db:"url"`

	ProductName string `json:"product_name" db:"product_name"`
	Platform    string `json:"platform" db:"platform"`
	ImageURL    string `json:"image_url" db:"image_url"`
	Currency    string `json:"currency" db:"currency"`

	CurrentPrice  *float64 `json:"current_price" db:"current_price"`
	PreviousPrice *float64 `json:"previous_price" db:"previous_price"`
	TargetPrice   float64  `json:"target_price" db:"target_price"`

	IsActive bool `json:"is_active" db:"is_active"`

	Notified          bool       `json:"notified" db:"notified"`
	NotifiedAt        *time.Time `json:"notified_at" db:"notified_at"`
	LastNotifiedPrice *float64   `json:"last_notified_price" db:"last_notified_price"`
	RepeatAlerts      bool       `json:"repeat_alerts" db:"repeat_alerts"`

	FailureCount  int        `json:"failure_count" db:"failure_count"`
	LastError     *string    `json:"last_error" db:"last_error"`
	LastCheckedAt *time.Time `json:"last_checked_at" db:"last_checked_at"`
}

// TargetReached reports whether the last observed price is at or below target.
func (a *Alert) TargetReached() bool {
	return a.CurrentPrice != nil && *a.CurrentPrice <= a.TargetPrice
}

// CreateAlertRequest is the payload for the add-or-update endpoint.
type CreateAlertRequest struct {
	UserEmail    string   `json:"user_email" binding:"required,email"`
	URL          string   `json:"url" binding:"required,url"`
	TargetPrice  float64  `json:"target_price" binding:"required,gt=0"`
	CurrentPrice *float64 `json:"current_price"`
	ProductName  string   `json:"product_name"`
	Platform     string   `json:"platform" binding:"omitempty,marketplace"`
	ImageURL     string   `json:"image_url"`
	Currency     string   `json:"currency"`
	RepeatAlerts bool     `json:"repeat_alerts"`
}

// CheckOutcome is returned by the manual check endpoint: the post-check
// record plus whether the target was reached and a notification fired.
type CheckOutcome struct {
	Alert            *Alert `json:"alert"`
	PriceReached     bool   `json:"price_reached"`
	NotificationSent bool   `json:"notification_sent"`
}
