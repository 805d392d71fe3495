package passwordless

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	verificationTokenBytes = 32
	verifyPath             = "/auth/verify"
	// DefaultClaimTTL is how long a verification link stays usable
	DefaultClaimTTL = 24 * time.Hour
)

// GenerateToken returns a random url safe token
func GenerateToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IssueVerificationToken creates a claim for userID that expires ttl after
// now and returns its token. Run it with a transaction to make the claim
// part of a larger unit of work.
func IssueVerificationToken(ctx context.Context, db bun.IDB, repo Claims, userID uuid.UUID, ttl time.Duration, now time.Time) (string, error) {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	claim := &EmailVerificationClaim{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		Expires:   now.Add(ttl),
		CreatedAt: now,
	}

	if err := repo.InsertTx(ctx, db, claim); err != nil {
		return "", err
	}

	return token, nil
}

// ComposeTokenLink builds the verification link sent by email
func ComposeTokenLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + verifyPath + "?token=" + url.QueryEscape(token)
}
