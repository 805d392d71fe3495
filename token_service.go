package passwordless

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// SessionClaims is the payload of the session cookie. It points at a
// session row through SID, the row is the source of truth.
type SessionClaims struct {
	jwt.RegisteredClaims
	SID string `json:"sid"`
}

// TokenService signs and validates session cookies
type TokenService struct {
	signingKey []byte
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, logger Logger) *TokenService {
	if logger == nil {
		logger = nopLogger{}
	}
	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
	}
}

// Sign creates a signed cookie value for the given session
func (ts *TokenService) Sign(session *Session, now time.Time) (string, error) {
	if session == nil {
		return "", errors.New("session must not be nil", errors.CategoryInternal)
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   session.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.Expires),
			ID:        session.ID.String(),
		},
		SID: session.SessionToken,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session")
	}

	return signedString, nil
}

// Validate parses and validates a cookie value
func (ts *TokenService) Validate(tokenString string, now time.Time) (*SessionClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("unexpected session signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case IsTokenExpiredError(err):
			ts.logger.Debug("session token expired")
		case IsMalformedError(err):
			ts.logger.Warn("malformed session token: %v", err)
		default:
			ts.logger.Debug("session token rejected: %v", err)
		}
		return nil, errors.Wrap(err, ErrUnableToFindSession.Category, ErrUnableToFindSession.Message).
			WithTextCode(ErrUnableToFindSession.TextCode).
			WithCode(ErrUnableToFindSession.Code)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid && claims.SID != "" {
		return claims, nil
	}

	return nil, ErrUnableToFindSession
}
