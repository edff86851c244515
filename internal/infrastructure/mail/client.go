package mail

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"

	appErrors "remindme/internal/pkg/errors"
	"remindme/internal/pkg/logger"
)

// Config carries the SMTP connection settings.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	RatePerSec float64
}

// Client sends reminder notifications over SMTP. Outbound messages are rate
// limited so a reminder with a long contact list cannot trip provider
// throttles.
type Client struct {
	dialer  *gomail.Dialer
	from    string
	limiter *rate.Limiter
	log     logger.Logger
}

// NewClient creates an SMTP sender.
func NewClient(cfg Config, log logger.Logger) *Client {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &Client{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// Send delivers one plain-text message to address. It blocks until the rate
// limiter admits the message or ctx is cancelled.
func (c *Client) Send(ctx context.Context, address, subject, body string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrNotification, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrNotification, err)
	}
	c.log.Debug(fmt.Sprintf("Sent mail to %s (%s)", address, subject))
	return nil
}
