package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrMailThrottled is returned when a recipient exceeded its mail rate
var ErrMailThrottled = errors.New("mail rate exceeded for recipient")

// Invitation is the content of a project invitation e-mail
type Invitation struct {
	ToEmail     string
	ToName      string
	InviterName string
	ProjectName string
	Link        string
}

// Mailer delivers outbound e-mail
type Mailer interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

// SMTPConfig holds outbound mail settings
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	RatePerMinute int
}

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer composes MIME messages and sends them over SMTP,
// throttled per recipient
type SMTPMailer struct {
	config   SMTPConfig
	logger   *logrus.Logger
	limiters *cache.Cache
	mu       sync.Mutex
	send     sendFunc
}

// NewSMTPMailer creates an SMTP mailer
func NewSMTPMailer(config SMTPConfig) *SMTPMailer {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if config.RatePerMinute <= 0 {
		config.RatePerMinute = 5
	}

	return &SMTPMailer{
		config:   config,
		logger:   logger,
		limiters: cache.New(10*time.Minute, 20*time.Minute),
		send:     smtp.SendMail,
	}
}

// limiterFor returns the token bucket of a recipient
func (m *SMTPMailer) limiterFor(address string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.limiters.Get(address); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.config.RatePerMinute)), m.config.RatePerMinute)
	m.limiters.SetDefault(address, limiter)
	return limiter
}

// SendInvitation sends a project invitation e-mail
func (m *SMTPMailer) SendInvitation(ctx context.Context, inv Invitation) error {
	if inv.ToEmail == "" {
		return fmt.Errorf("invitation has no recipient address")
	}
	if !m.limiterFor(inv.ToEmail).Allow() {
		m.logger.WithFields(logrus.Fields{
			"to": inv.ToEmail,
		}).Warn("Invitation e-mail throttled")
		return ErrMailThrottled
	}

	msg, err := m.compose(inv)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	start := time.Now()
	if err := m.send(addr, auth, m.config.From, []string{inv.ToEmail}, msg); err != nil {
		m.logger.WithFields(logrus.Fields{
			"to":    inv.ToEmail,
			"error": err.Error(),
		}).Error("Failed to send invitation e-mail")
		return fmt.Errorf("failed to send invitation e-mail: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"to":          inv.ToEmail,
		"project":     inv.ProjectName,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Invitation e-mail sent")
	return nil
}

// compose renders the invitation as a single-part text/plain message
func (m *SMTPMailer) compose(inv Invitation) ([]byte, error) {
	from, err := mail.ParseAddress(m.config.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", m.config.From, err)
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{{Name: inv.ToName, Address: inv.ToEmail}})
	h.SetSubject(fmt.Sprintf("%s invited you to %s", inv.InviterName, inv.ProjectName))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	greeting := "Hi"
	if inv.ToName != "" {
		greeting = "Hi " + inv.ToName
	}
	fmt.Fprintf(w, "%s,\r\n\r\n%s invited you to join the project \"%s\".\r\n\r\n", greeting, inv.InviterName, inv.ProjectName)
	if inv.Link != "" {
		fmt.Fprintf(w, "Open your notifications to respond: %s\r\n", inv.Link)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

// LogMailer logs invitations instead of sending them. Used when SMTP is not configured.
type LogMailer struct {
	logger *logrus.Logger
}

// NewLogMailer creates a mailer that only logs
func NewLogMailer() *LogMailer {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return &LogMailer{logger: logger}
}

// SendInvitation logs the invitation
func (m *LogMailer) SendInvitation(ctx context.Context, inv Invitation) error {
	m.logger.WithFields(logrus.Fields{
		"to":      inv.ToEmail,
		"project": inv.ProjectName,
		"link":    inv.Link,
	}).Info("SMTP not configured, invitation e-mail not sent")
	return nil
}
