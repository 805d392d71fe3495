package passwordless

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignUpFixture(t *testing.T) (*SignUpHandler, RepositoryManager, *recordingNotifier, *testClock, *capturingSink) {
	t.Helper()
	repo, _ := setupTestRepo(t)
	notifier := &recordingNotifier{}
	clock := newTestClock()
	sink := &capturingSink{}

	handler := NewSignUpHandler(repo, notifier, newTestConfig(),
		WithClock(clock.Now),
		WithActivitySink(sink),
	)
	return handler, repo, notifier, clock, sink
}

func signUpMessage(email, username string) SignUpMessage {
	return SignUpMessage{SignUpRequest: SignUpRequest{Email: email, Username: username, Name: "Test User"}}
}

func TestSignUpNewEmailCreatesUserClaimAndEmail(t *testing.T) {
	handler, repo, notifier, clock, sink := newSignUpFixture(t)
	ctx := context.Background()

	var resp *SignUpResponse
	msg := signUpMessage("alice@example.com", "alice")
	msg.OnResponse = func(r *SignUpResponse) { resp = r }

	require.NoError(t, handler.Execute(ctx, msg))
	require.NotNil(t, resp)

	assert.True(t, resp.Created)
	assert.Equal(t, int64(0), resp.ClaimsPurged)
	assert.Equal(t, 1, countUsers(t, repo.DB()))
	assert.Equal(t, 1, countClaims(t, repo.DB()))

	user, err := repo.Users().FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Test User", user.Name)

	claims, err := repo.Claims().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.True(t, claims[0].Expires.Equal(clock.Now().Add(time.Hour)))

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "confirm", sent[0].Kind)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "alice", sent[0].Username)
	assert.True(t, strings.HasPrefix(sent[0].Link, "http://localhost:8978/auth/verify?token="))
	assert.Equal(t, claims[0].Token, tokenFromLink(t, sent[0].Link))
	assert.Equal(t, sent[0].Link, resp.Link)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ActivityEventSignUpRequested, events[0].EventType)
	assert.Equal(t, user.ID.String(), events[0].UserID)
}

func TestSignUpNormalizesEmail(t *testing.T) {
	handler, repo, notifier, _, _ := newSignUpFixture(t)

	require.NoError(t, handler.Execute(context.Background(), signUpMessage("  Alice@Example.COM ", "alice")))

	user, err := repo.Users().FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
}

func TestSignUpVerifiedUserIsRejectedWithoutWrites(t *testing.T) {
	handler, repo, notifier, _, sink := newSignUpFixture(t)
	seedUser(t, repo, "alice@example.com", "alice", true)

	err := handler.Execute(context.Background(), signUpMessage("alice@example.com", "alice"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadySignedUp)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, 409, StatusFromError(richErr))

	assert.Equal(t, 1, countUsers(t, repo.DB()))
	assert.Equal(t, 0, countClaims(t, repo.DB()))
	assert.Empty(t, notifier.Sent())
	assert.Empty(t, sink.Events())
}

func TestSignUpPendingClaimIsRejected(t *testing.T) {
	handler, repo, notifier, clock, _ := newSignUpFixture(t)
	ctx := context.Background()

	require.NoError(t, handler.Execute(ctx, signUpMessage("alice@example.com", "alice")))

	clock.Advance(30 * time.Minute)

	err := handler.Execute(ctx, signUpMessage("alice@example.com", "alice"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVerificationPending)

	assert.Equal(t, 1, countUsers(t, repo.DB()))
	assert.Equal(t, 1, countClaims(t, repo.DB()))
	assert.Len(t, notifier.Sent(), 1)
}

func TestSignUpExpiredClaimReusesUser(t *testing.T) {
	handler, repo, notifier, clock, _ := newSignUpFixture(t)
	ctx := context.Background()

	var first *SignUpResponse
	msg := signUpMessage("alice@example.com", "alice")
	msg.OnResponse = func(r *SignUpResponse) { first = r }
	require.NoError(t, handler.Execute(ctx, msg))

	clock.Advance(time.Hour + time.Second)

	var second *SignUpResponse
	msg = signUpMessage("alice@example.com", "alice")
	msg.OnResponse = func(r *SignUpResponse) { second = r }
	require.NoError(t, handler.Execute(ctx, msg))

	require.NotNil(t, second)
	assert.False(t, second.Created)
	assert.Equal(t, int64(0), second.ClaimsPurged)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 1, countUsers(t, repo.DB()))

	claims, err := repo.Claims().ListByUser(ctx, first.User.ID)
	require.NoError(t, err)
	require.Len(t, claims, 2)

	valid := ValidClaims(claims, clock.Now())
	require.Len(t, valid, 1)

	sent := notifier.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, valid[0].Token, tokenFromLink(t, sent[1].Link))
}

func TestSignUpClearsClaimExpiringExactlyNow(t *testing.T) {
	handler, repo, _, clock, _ := newSignUpFixture(t)
	ctx := context.Background()

	user := seedUser(t, repo, "alice@example.com", "alice", false)
	stale := seedClaim(t, repo, user.ID, clock.Now())
	expired := seedClaim(t, repo, user.ID, clock.Now().Add(-time.Hour))

	var resp *SignUpResponse
	msg := signUpMessage("alice@example.com", "alice")
	msg.OnResponse = func(r *SignUpResponse) { resp = r }
	require.NoError(t, handler.Execute(ctx, msg))

	assert.Equal(t, int64(1), resp.ClaimsPurged)

	claims, err := repo.Claims().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, claims, 2)

	tokens := map[string]bool{}
	for _, claim := range claims {
		tokens[claim.Token] = true
	}
	assert.False(t, tokens[stale.Token])
	assert.True(t, tokens[expired.Token])
	require.Len(t, ValidClaims(claims, clock.Now()), 1)
}

func TestSignUpUsernameTaken(t *testing.T) {
	handler, repo, notifier, _, _ := newSignUpFixture(t)
	seedUser(t, repo, "bob@example.com", "alice", true)

	err := handler.Execute(context.Background(), signUpMessage("alice@example.com", "alice"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	assert.Equal(t, 1, countUsers(t, repo.DB()))
	assert.Equal(t, 0, countClaims(t, repo.DB()))
	assert.Empty(t, notifier.Sent())
}

func TestSignUpInvalidPayload(t *testing.T) {
	handler, repo, notifier, _, _ := newSignUpFixture(t)

	err := handler.Execute(context.Background(), signUpMessage("not-an-email", "a"))
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, 400, StatusFromError(richErr))

	assert.Equal(t, 0, countUsers(t, repo.DB()))
	assert.Empty(t, notifier.Sent())
}

func TestSignUpEmailFailureKeepsCommittedRows(t *testing.T) {
	handler, repo, notifier, _, sink := newSignUpFixture(t)
	notifier.err = errors.New("smtp unavailable")

	err := handler.Execute(context.Background(), signUpMessage("alice@example.com", "alice"))
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, TextCodeEmailDelivery, richErr.TextCode)
	assert.Equal(t, 500, StatusFromError(richErr))

	assert.Equal(t, 1, countUsers(t, repo.DB()))
	assert.Equal(t, 1, countClaims(t, repo.DB()))
	assert.Empty(t, sink.Events())
}

func TestSignUpCancelledContext(t *testing.T) {
	handler, repo, notifier, _, _ := newSignUpFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, signUpMessage("alice@example.com", "alice"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 0, countUsers(t, repo.DB()))
	assert.Empty(t, notifier.Sent())
}

func TestSignUpWithHashidUserIDs(t *testing.T) {
	repo, _ := setupTestRepo(t)
	notifier := &recordingNotifier{}
	clock := newTestClock()

	handler := NewSignUpHandler(repo, notifier, newTestConfig(),
		WithClock(clock.Now),
		WithHashidUserIDs(true),
	)

	var resp *SignUpResponse
	msg := signUpMessage("alice@example.com", "alice")
	msg.OnResponse = func(r *SignUpResponse) { resp = r }
	require.NoError(t, handler.Execute(context.Background(), msg))

	expected, err := hashid.NewUUID("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, expected, resp.User.ID)
}
