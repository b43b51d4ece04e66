package checker

import (
	"context"

	"github.com/pricewatch/tracker-api/internal/email"
	"github.com/pricewatch/tracker-api/internal/model"
)

// Notifier dispatches a price-drop alert through an external channel. A nil
// return means confirmed delivery.
type Notifier interface {
	Notify(ctx context.Context, alert *model.Alert, currentPrice float64) error
}

// EmailNotifier delivers alerts over the email service.
type EmailNotifier struct {
	emailSvc email.Service
}

func NewEmailNotifier(emailSvc email.Service) *EmailNotifier {
	return &EmailNotifier{emailSvc: emailSvc}
}

func (n *EmailNotifier) Notify(ctx context.Context, alert *model.Alert, currentPrice float64) error {
	return n.emailSvc.SendPriceDropAlert(ctx, alert.UserEmail, alert, currentPrice)
}

var _ Notifier = (*EmailNotifier)(nil)
