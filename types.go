package passwordless

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the options used by the auth flows
type Config interface {
	GetBaseURL() string
	GetSigningKey() string
	GetIssuer() string
	GetCookieName() string
	GetCookieSecure() bool
	GetSessionTTL() time.Duration
	GetClaimTTL() time.Duration
}

// Notifier delivers the emails that carry verification links
type Notifier interface {
	SendConfirmationEmail(ctx context.Context, to, username, link string) error
	SendSignInEmail(ctx context.Context, to, username, link string) error
}

// Sessions issues, resolves and ends authenticated sessions
type Sessions interface {
	Start(ctx context.Context, userID uuid.UUID) (string, error)
	StartTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (string, error)
	Resolve(ctx context.Context, cookieValue string) (*Session, error)
	End(ctx context.Context, cookieValue string) error
}

// Clock returns the current time
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC()
}
