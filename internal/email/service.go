package email

import (
	"context"

	"github.com/pricewatch/tracker-api/internal/model"
)

// Service delivers user-facing mail. The check engine treats a nil error as
// confirmed delivery; notification state is never committed before that.
type Service interface {
	SendPriceDropAlert(ctx context.Context, to string, alert *model.Alert, currentPrice float64) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}
