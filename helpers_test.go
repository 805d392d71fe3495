package passwordless

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type testConfig struct {
	baseURL    string
	signingKey string
	issuer     string
	cookieName string
	secure     bool
	sessionTTL time.Duration
	claimTTL   time.Duration
}

func newTestConfig() *testConfig {
	return &testConfig{
		baseURL:    "http://localhost:8978",
		signingKey: "test-signing-key-0123456789",
		issuer:     "test-issuer",
		cookieName: "test_session",
		sessionTTL: 7 * 24 * time.Hour,
		claimTTL:   time.Hour,
	}
}

func (c *testConfig) GetBaseURL() string           { return c.baseURL }
func (c *testConfig) GetSigningKey() string        { return c.signingKey }
func (c *testConfig) GetIssuer() string            { return c.issuer }
func (c *testConfig) GetCookieName() string        { return c.cookieName }
func (c *testConfig) GetCookieSecure() bool        { return c.secure }
func (c *testConfig) GetSessionTTL() time.Duration { return c.sessionTTL }
func (c *testConfig) GetClaimTTL() time.Duration   { return c.claimTTL }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: testNow}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentEmail struct {
	Kind     string
	To       string
	Username string
	Link     string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *recordingNotifier) SendConfirmationEmail(ctx context.Context, to, username, link string) error {
	return n.record("confirm", to, username, link)
}

func (n *recordingNotifier) SendSignInEmail(ctx context.Context, to, username, link string) error {
	return n.record("sign_in", to, username, link)
}

func (n *recordingNotifier) record(kind, to, username, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentEmail{Kind: kind, To: to, Username: username, Link: link})
	return nil
}

func (n *recordingNotifier) Sent() []sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentEmail, len(n.sent))
	copy(out, n.sent)
	return out
}

type capturingSink struct {
	mu     sync.Mutex
	events []ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) Events() []ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ActivityEvent, len(c.events))
	copy(out, c.events)
	return out
}

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := OpenDB(DriverSQLite, ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, RunMigrations(context.Background(), db, nil))

	return db
}

func setupTestRepo(t *testing.T) (RepositoryManager, *bun.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositoryManager(db), db
}

func seedUser(t *testing.T, repo RepositoryManager, email, username string, verified bool) *User {
	t.Helper()

	user, err := repo.Users().Create(context.Background(), &User{
		Email:         email,
		Username:      username,
		EmailVerified: verified,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	})
	require.NoError(t, err)
	return user
}

func seedClaim(t *testing.T, repo RepositoryManager, userID uuid.UUID, expires time.Time) *EmailVerificationClaim {
	t.Helper()

	token, err := GenerateToken()
	require.NoError(t, err)

	claim := &EmailVerificationClaim{
		Token:     token,
		UserID:    userID,
		Expires:   expires,
		CreatedAt: testNow,
	}
	require.NoError(t, repo.Claims().InsertTx(context.Background(), repo.DB(), claim))
	return claim
}

func countUsers(t *testing.T, db bun.IDB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*User)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func countClaims(t *testing.T, db bun.IDB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*EmailVerificationClaim)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func countSessions(t *testing.T, db bun.IDB) int {
	t.Helper()
	n, err := db.NewSelect().Model((*Session)(nil)).Count(context.Background())
	require.NoError(t, err)
	return n
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}
