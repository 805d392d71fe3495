package passwordless

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Username      string    `bun:"username,notnull,unique" json:"username,omitempty"`
	Name          string    `bun:"name,nullzero" json:"name,omitempty"`
	Image         string    `bun:"image,nullzero" json:"image,omitempty"`
	EmailVerified bool      `bun:"email_verified,notnull" json:"email_verified"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`

	Posts                   []*Post                   `bun:"rel:has-many,join:id=created_by" json:"posts,omitempty"`
	EmailVerificationClaims []*EmailVerificationClaim `bun:"rel:has-many,join:id=user_id" json:"email_verification_claims,omitempty"`
}

// EmailVerificationClaim is one issued verification token. Sign-up and
// sign-in claims share this table and the same validity rule.
type EmailVerificationClaim struct {
	bun.BaseModel `bun:"table:email_verification_claims,alias:evc"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string    `bun:"token,notnull,unique" json:"token"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Expires       time.Time `bun:"expires,notnull" json:"expires"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Post is a user authored post
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	Title         string    `bun:"title,notnull" json:"title"`
	CreatedBy     uuid.UUID `bun:"created_by,notnull,type:uuid" json:"created_by"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Session is a server side session. The cookie only carries a signed
// reference to SessionToken, so removing the row ends the session.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id"`
	SessionToken  string    `bun:"session_token,notnull,unique" json:"session_token"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Expires       time.Time `bun:"expires,notnull" json:"expires"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

// IsExpired reports whether the session is past its expiration at now
func (s *Session) IsExpired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.Expires.After(now)
}

// NormalizeEmail trims and lower cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
