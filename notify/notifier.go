package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/aluiziolira/go-scrape-cars/config"
	"github.com/aluiziolira/go-scrape-cars/models"
	"github.com/jordan-wright/email"
)

// MaxBodySize is the largest HTML body that will be sent.
const MaxBodySize = 10_000_000

// ErrBodyTooLarge is returned instead of sending an oversized message.
var ErrBodyTooLarge = errors.New("notify: message body exceeds 10MB")

// DefaultSubject is used when Notifier.Subject is empty.
const DefaultSubject = "Filtered Car Listings"

type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

// Notifier mails ranked listings over SMTP.
type Notifier struct {
	settings config.EmailSettings
	Subject  string
	send     sendFunc
}

// NewNotifier returns a notifier for settings.
func NewNotifier(settings config.EmailSettings) *Notifier {
	return &Notifier{
		settings: settings,
		Subject:  DefaultSubject,
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}
}

// Notify sends top as an HTML table with a plain-text alternative. An
// empty list sends nothing.
func (n *Notifier) Notify(ctx context.Context, top []models.ScoredCar) error {
	if len(top) == 0 {
		slog.Info("no listings to send")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body := RenderHTML(top)
	if len(body) > MaxBodySize {
		return fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, len(body))
	}

	sender := n.settings.Sender
	if sender == "" {
		sender = n.settings.Username
	}
	subject := n.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	mail := email.NewEmail()
	mail.From = sender
	mail.To = []string{n.settings.Recipient}
	mail.Subject = subject
	mail.HTML = []byte(body)
	mail.Text = []byte(RenderText(top, false))

	addr := fmt.Sprintf("%s:%d", n.settings.SMTPServer, n.settings.SMTPPort)
	var auth smtp.Auth
	if n.settings.Username != "" {
		auth = smtp.PlainAuth("", n.settings.Username, n.settings.Password, n.settings.SMTPServer)
	}

	err := n.send(mail, addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = n.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	slog.Info("listings mailed",
		slog.String("recipient", n.settings.Recipient),
		slog.Int("listings", len(top)),
		slog.Int("bytes", len(body)),
	)
	return nil
}
