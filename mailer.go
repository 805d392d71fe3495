package passwordless

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/smtp"
	"sync"
	"time"

	"github.com/gofiber/template/django/v3"
	"github.com/jordan-wright/email"
)

const (
	templateConfirmSignUp = "confirm_signup"
	templateSignIn        = "sign_in"

	subjectConfirmSignUp = "Confirm your email address"
	subjectSignIn        = "Your sign in link"
)

// EmailRenderer renders the HTML bodies of outgoing emails
type EmailRenderer struct {
	engine *django.Engine
	once   sync.Once
	err    error
}

// NewEmailRenderer uses the embedded email templates
func NewEmailRenderer() *EmailRenderer {
	return &EmailRenderer{
		engine: django.NewFileSystem(http.FS(GetEmailTemplatesFS()), ".html"),
	}
}

// Render executes the template name with the given link data
func (r *EmailRenderer) Render(name, username, link string, ttl time.Duration) (string, error) {
	r.once.Do(func() {
		r.err = r.engine.Load()
	})
	if r.err != nil {
		return "", fmt.Errorf("load email templates: %w", r.err)
	}

	var out bytes.Buffer
	err := r.engine.Render(&out, name, map[string]any{
		"username": username,
		"link":     link,
		"ttl":      humanDuration(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return out.String(), nil
}

// SMTPConfig holds the SMTP relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Addr returns host:port
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SendFunc delivers a composed email
type SendFunc func(e *email.Email, addr string, auth smtp.Auth) error

func sendEmail(e *email.Email, addr string, auth smtp.Auth) error {
	return e.Send(addr, auth)
}

// SMTPNotifier sends verification emails through an SMTP relay
type SMTPNotifier struct {
	cfg      SMTPConfig
	ttl      time.Duration
	renderer *EmailRenderer
	send     SendFunc
	logger   Logger
}

// SMTPNotifierOption configures an SMTPNotifier
type SMTPNotifierOption func(*SMTPNotifier)

// WithSendFunc replaces the function used to hand emails to the relay
func WithSendFunc(fn SendFunc) SMTPNotifierOption {
	return func(n *SMTPNotifier) {
		if fn != nil {
			n.send = fn
		}
	}
}

// WithNotifierLogger sets the notifier logger
func WithNotifierLogger(logger Logger) SMTPNotifierOption {
	return func(n *SMTPNotifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewSMTPNotifier creates a notifier. ttl is only shown in the email body.
func NewSMTPNotifier(cfg SMTPConfig, ttl time.Duration, opts ...SMTPNotifierOption) *SMTPNotifier {
	n := &SMTPNotifier{
		cfg:      cfg,
		ttl:      ttl,
		renderer: NewEmailRenderer(),
		send:     sendEmail,
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

func (n *SMTPNotifier) SendConfirmationEmail(ctx context.Context, to, username, link string) error {
	return n.deliver(ctx, to, username, link, subjectConfirmSignUp, templateConfirmSignUp)
}

func (n *SMTPNotifier) SendSignInEmail(ctx context.Context, to, username, link string) error {
	return n.deliver(ctx, to, username, link, subjectSignIn, templateSignIn)
}

func (n *SMTPNotifier) deliver(ctx context.Context, to, username, link, subject, tpl string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	html, err := n.renderer.Render(tpl, username, link, n.ttl)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(plainBody(username, link))
	e.HTML = []byte(html)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := n.send(e, n.cfg.Addr(), auth); err != nil {
		n.logger.Error("failed to send %q to %s: %v", subject, to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("email sent to %s: %s", to, subject)
	return nil
}

// LogNotifier writes the links to the logger instead of sending them.
// Useful in development where no relay is configured.
type LogNotifier struct {
	logger Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger Logger) *LogNotifier {
	if logger == nil {
		logger = nopLogger{}
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendConfirmationEmail(ctx context.Context, to, username, link string) error {
	n.logger.Info("====== SENDING CONFIRMATION EMAIL ======= to=%s username=%s link=%s", to, username, link)
	return nil
}

func (n *LogNotifier) SendSignInEmail(ctx context.Context, to, username, link string) error {
	n.logger.Info("====== SENDING SIGN IN EMAIL ======= to=%s username=%s link=%s", to, username, link)
	return nil
}

func plainBody(username, link string) string {
	return fmt.Sprintf("Hi %s,\n\nOpen the following link to continue:\n\n%s\n", username, link)
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 hours"
		}
		return fmt.Sprintf("%d days", days)
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
