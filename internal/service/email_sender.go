package service

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banking-core/internal/config"
	"banking-core/internal/model"
)

type EmailSender struct {
	dialer  *mail.Dialer
	from    string
	enabled bool
	logger  *logrus.Logger
}

func NewEmailSender(cfg config.SMTPConfig, logger *logrus.Logger) *EmailSender {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	return &EmailSender{
		dialer:  d,
		from:    cfg.From,
		enabled: cfg.Enabled,
		logger:  logger,
	}
}

// SendTransferNotification mails a receipt; from and to are masked card numbers.
func (es *EmailSender) SendTransferNotification(email string, amount decimal.Decimal, currency model.Currency, from, to string) error {
	if !es.enabled {
		es.logger.Debug("Email notifications disabled")
		return nil
	}

	content := fmt.Sprintf(`
		<h1>Transfer receipt</h1>
		<p>Amount: <strong>%s %s</strong></p>
		<p>From card: <strong>%s</strong></p>
		<p>To card: <strong>%s</strong></p>
		<p>Date: <strong>%s</strong></p>
		<small>This is an automated message, please do not reply</small>
	`, amount.StringFixed(2), currency, from, to, time.Now().Format("02.01.2006 15:04"))

	return es.sendEmail(email, "Transfer receipt", content)
}

func (es *EmailSender) sendEmail(to, subject, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", es.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := es.dialer.DialAndSend(m); err != nil {
		es.logger.WithError(err).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	es.logger.WithField("to", to).Info("Email sent")
	return nil
}
