package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/pricewatch/tracker-api/internal/config"
	"github.com/pricewatch/tracker-api/internal/model"
	"github.com/pricewatch/tracker-api/pkg/logger"
)

type smtpService struct {
	cfg    config.SMTPConfig
	logger *logger.Logger
}

func NewSMTPService(cfg config.SMTPConfig, log *logger.Logger) Service {
	return &smtpService{cfg: cfg, logger: log}
}

func (s *smtpService) SendPriceDropAlert(ctx context.Context, to string, alert *model.Alert, currentPrice float64) error {
	subject := fmt.Sprintf("Price Drop Alert: %s!", alert.ProductName)
	return s.send(ctx, to, subject, s.buildAlertBody(alert, currentPrice))
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}

func (s *smtpService) send(_ context.Context, to, subject, body string) error {
	if s.cfg.Host == "" || s.cfg.User == "" || s.cfg.From == "" {
		return fmt.Errorf("smtp config incomplete")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

func (s *smtpService) buildAlertBody(alert *model.Alert, currentPrice float64) string {
	currency := alert.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	var b strings.Builder
	b.WriteString(`<h2>Good news! Your product is now cheaper.</h2>`)
	b.WriteString(fmt.Sprintf("<p><b>%s</b> has dropped to <b>%s%.0f</b>.</p>", alert.ProductName, currency, currentPrice))
	if alert.PreviousPrice != nil && *alert.PreviousPrice > currentPrice {
		b.WriteString(fmt.Sprintf("<p>Previous price: %s%.0f</p>", currency, *alert.PreviousPrice))
	}
	b.WriteString(fmt.Sprintf("<p>Target price was: %s%.0f</p>", currency, alert.TargetPrice))
	b.WriteString(fmt.Sprintf(`<a href="%s" style="padding: 10px 20px; background: #6366f1; color: white; border-radius: 5px; text-decoration: none;">Buy Now</a>`, alert.URL))
	if alert.ImageURL != "" {
		b.WriteString(fmt.Sprintf(`<br/><br/><img src="%s" width="200" />`, alert.ImageURL))
	}
	return b.String()
}
