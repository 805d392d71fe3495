package passwordless

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultSessionTTL is used when the config does not set one
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionManager stores sessions in the database and hands out signed
// cookie values that reference them
type SessionManager struct {
	repo   RepositoryManager
	tokens *TokenService
	ttl    time.Duration
	now    Clock
	logger Logger
}

var _ Sessions = (*SessionManager)(nil)

// SessionOption configures a SessionManager
type SessionOption func(*SessionManager)

// WithSessionClock overrides the clock
func WithSessionClock(clock Clock) SessionOption {
	return func(s *SessionManager) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSessionLogger sets the logger
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *SessionManager) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSessionManager creates a session manager
func NewSessionManager(repo RepositoryManager, cfg Config, opts ...SessionOption) *SessionManager {
	ttl := cfg.GetSessionTTL()
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	s := &SessionManager{
		repo:   repo,
		ttl:    ttl,
		now:    defaultClock,
		logger: nopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.tokens = NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), s.logger)

	return s
}

// TTL returns the lifetime of new sessions
func (s *SessionManager) TTL() time.Duration {
	return s.ttl
}

// Start creates a session for userID and returns the cookie value
func (s *SessionManager) Start(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.StartTx(ctx, s.repo.DB(), userID)
}

// StartTx stores the session row through tx, so it commits or rolls back
// with the caller's work
func (s *SessionManager) StartTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (string, error) {
	now := s.now()

	sid, err := GenerateToken()
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session token")
	}

	session := &Session{
		ID:           uuid.New(),
		SessionToken: sid,
		UserID:       userID,
		Expires:      now.Add(s.ttl),
		CreatedAt:    now,
	}

	if err := s.repo.Sessions().InsertTx(ctx, tx, session); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store session")
	}

	return s.tokens.Sign(session, now)
}

// Resolve validates the cookie value and returns the live session
func (s *SessionManager) Resolve(ctx context.Context, cookieValue string) (*Session, error) {
	if cookieValue == "" {
		return nil, ErrUnableToFindSession
	}

	now := s.now()

	claims, err := s.tokens.Validate(cookieValue, now)
	if err != nil {
		return nil, ErrUnableToFindSession
	}

	session, err := s.repo.Sessions().FindByToken(ctx, claims.SID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUnableToFindSession
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session")
	}

	if session.IsExpired(now) || session.UserID.String() != claims.Subject {
		return nil, ErrUnableToFindSession
	}

	return session, nil
}

// End removes the session referenced by the cookie value. Unknown or
// already removed sessions are not an error.
func (s *SessionManager) End(ctx context.Context, cookieValue string) error {
	if cookieValue == "" {
		return nil
	}

	claims, err := s.tokens.Validate(cookieValue, s.now())
	if err != nil {
		return nil
	}

	if err := s.repo.Sessions().DeleteByToken(ctx, claims.SID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to end session")
	}
	return nil
}
