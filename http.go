package passwordless

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// SessionContextKey is the router locals key holding the current *Session
const SessionContextKey = "session"

// DefaultCookieName is used when the config does not name the cookie
const DefaultCookieName = "passwordless_session"

// RouteRegistrar captures the router methods used by the controllers.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// SessionMiddleware resolves the session cookie of incoming requests
type SessionMiddleware struct {
	sessions Sessions
	cfg      Config
	Logger   Logger
}

// NewSessionMiddleware creates the middleware
func NewSessionMiddleware(sessions Sessions, cfg Config) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		cfg:      cfg,
		Logger:   nopLogger{},
	}
}

// LoadSession stores the session in the request locals when the cookie
// resolves. Requests without a session go through untouched.
func (m *SessionMiddleware) LoadSession() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if session, err := m.resolve(c); err == nil {
				c.Locals(SessionContextKey, session)
			}
			return next(c)
		}
	}
}

// ProtectedRoute rejects requests without a live session
func (m *SessionMiddleware) ProtectedRoute() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			session, err := m.resolve(c)
			if err != nil {
				m.Logger.Debug("rejected unauthenticated request", "path", c.OriginalURL(), "error", err)
				return WriteError(c, err, m.Logger)
			}
			c.Locals(SessionContextKey, session)
			return next(c)
		}
	}
}

func (m *SessionMiddleware) resolve(c router.Context) (*Session, error) {
	value := c.Cookies(cookieName(m.cfg))
	if value == "" {
		return nil, ErrUnableToFindSession
	}
	return m.sessions.Resolve(c.Context(), value)
}

// SessionFromContext returns the session stored by the middleware
func SessionFromContext(c router.Context) (*Session, bool) {
	session, ok := c.Locals(SessionContextKey).(*Session)
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}

// ViewerID returns the id of the authenticated user or uuid.Nil
func ViewerID(c router.Context) uuid.UUID {
	if session, ok := SessionFromContext(c); ok {
		return session.UserID
	}
	return uuid.Nil
}

func cookieName(cfg Config) string {
	if cfg == nil || cfg.GetCookieName() == "" {
		return DefaultCookieName
	}
	return cfg.GetCookieName()
}

func cookieSecure(cfg Config) bool {
	return cfg != nil && cfg.GetCookieSecure()
}

func setSessionCookie(c router.Context, cfg Config, value string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     cookieName(cfg),
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   cookieSecure(cfg),
		SameSite: "Lax",
	})
}

func clearSessionCookie(c router.Context, cfg Config) {
	c.Cookie(&router.Cookie{
		Name:     cookieName(cfg),
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   cookieSecure(cfg),
		SameSite: "Lax",
	})
}

// ErrorResponse is the JSON body of failed requests
type ErrorResponse struct {
	Error      string         `json:"error"`
	TextCode   string         `json:"text_code,omitempty"`
	Validation map[string]any `json:"validation,omitempty"`
}

// WriteError renders err as JSON with the status derived from the error
func WriteError(c router.Context, err error, logger Logger) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := StatusFromError(richErr)

	if logger != nil {
		if status >= http.StatusInternalServerError {
			logger.Error(
				"request failed",
				"error", richErr.Error(),
				"category", richErr.Category,
				"path", c.OriginalURL(),
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			logger.Debug(
				"request rejected",
				"error", richErr.Message,
				"text_code", richErr.TextCode,
			)
		}
	}

	body := ErrorResponse{
		Error:    richErr.Message,
		TextCode: richErr.TextCode,
	}

	if validation := richErr.ValidationMap(); len(validation) > 0 {
		body.Validation = make(map[string]any, len(validation))
		for k, v := range validation {
			body.Validation[k] = v
		}
	}

	return c.JSON(status, body)
}

// StatusFromError maps an error to an HTTP status. An explicit code wins,
// otherwise the category decides.
func StatusFromError(richErr *errors.Error) int {
	if richErr == nil {
		return http.StatusInternalServerError
	}

	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
