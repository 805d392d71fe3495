package passwordless

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestSessionManagerStartAndResolve(t *testing.T) {
	repo, db := setupTestRepo(t)
	clock := newTestClock()
	cfg := newTestConfig()
	manager := NewSessionManager(repo, cfg, WithSessionClock(clock.Now))
	ctx := context.Background()

	user := seedUser(t, repo, "alice@example.com", "alice", true)

	cookie, err := manager.Start(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, cookie)
	assert.Equal(t, 1, countSessions(t, db))

	clock.Advance(24 * time.Hour)

	session, err := manager.Resolve(ctx, cookie)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.True(t, session.Expires.Equal(testNow.Add(cfg.sessionTTL)))
}

func TestSessionManagerStartTxFollowsTransaction(t *testing.T) {
	repo, db := setupTestRepo(t)
	clock := newTestClock()
	manager := NewSessionManager(repo, newTestConfig(), WithSessionClock(clock.Now))
	ctx := context.Background()

	user := seedUser(t, repo, "alice@example.com", "alice", true)

	var cookie string
	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		cookie, err = manager.StartTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")
	assert.NotEmpty(t, cookie)
	assert.Equal(t, 0, countSessions(t, db))

	_, err = manager.Resolve(ctx, cookie)
	assert.ErrorIs(t, err, ErrUnableToFindSession)

	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		cookie, err = manager.StartTx(ctx, tx, user.ID)
		return err
	})
	require.NoError(t, err)

	session, err := manager.Resolve(ctx, cookie)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
}

func TestSessionManagerExpiredSession(t *testing.T) {
	repo, _ := setupTestRepo(t)
	clock := newTestClock()
	manager := NewSessionManager(repo, newTestConfig(), WithSessionClock(clock.Now))
	ctx := context.Background()

	user := seedUser(t, repo, "alice@example.com", "alice", true)
	cookie, err := manager.Start(ctx, user.ID)
	require.NoError(t, err)

	clock.Advance(manager.TTL() + time.Second)

	_, err = manager.Resolve(ctx, cookie)
	assert.ErrorIs(t, err, ErrUnableToFindSession)
}

func TestSessionManagerEnd(t *testing.T) {
	repo, db := setupTestRepo(t)
	clock := newTestClock()
	manager := NewSessionManager(repo, newTestConfig(), WithSessionClock(clock.Now))
	ctx := context.Background()

	user := seedUser(t, repo, "alice@example.com", "alice", true)
	cookie, err := manager.Start(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, manager.End(ctx, cookie))
	assert.Equal(t, 0, countSessions(t, db))

	_, err = manager.Resolve(ctx, cookie)
	assert.ErrorIs(t, err, ErrUnableToFindSession)

	assert.NoError(t, manager.End(ctx, cookie))
	assert.NoError(t, manager.End(ctx, ""))
	assert.NoError(t, manager.End(ctx, "garbage"))
}

func TestSessionManagerRejectsForeignCookies(t *testing.T) {
	repo, _ := setupTestRepo(t)
	clock := newTestClock()
	cfg := newTestConfig()
	manager := NewSessionManager(repo, cfg, WithSessionClock(clock.Now))
	ctx := context.Background()

	alice := seedUser(t, repo, "alice@example.com", "alice", true)
	cookie, err := manager.Start(ctx, alice.ID)
	require.NoError(t, err)

	other := newTestConfig()
	other.signingKey = "another-signing-key-987654"
	foreign := NewSessionManager(repo, other, WithSessionClock(clock.Now))

	_, err = foreign.Resolve(ctx, cookie)
	assert.ErrorIs(t, err, ErrUnableToFindSession)

	_, err = manager.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrUnableToFindSession)
}

func TestSessionManagerRejectsSubjectMismatch(t *testing.T) {
	repo, _ := setupTestRepo(t)
	clock := newTestClock()
	cfg := newTestConfig()
	manager := NewSessionManager(repo, cfg, WithSessionClock(clock.Now))
	ctx := context.Background()

	alice := seedUser(t, repo, "alice@example.com", "alice", true)

	session := &Session{
		SessionToken: "alice-sid",
		UserID:       alice.ID,
		Expires:      clock.Now().Add(time.Hour),
		CreatedAt:    clock.Now(),
	}
	require.NoError(t, repo.Sessions().Insert(ctx, session))

	forged := *session
	forged.UserID = uuid.New()

	tokens := NewTokenService([]byte(cfg.signingKey), cfg.issuer, nil)
	cookie, err := tokens.Sign(&forged, clock.Now())
	require.NoError(t, err)

	_, err = manager.Resolve(ctx, cookie)
	assert.ErrorIs(t, err, ErrUnableToFindSession)
}

func TestSessionManagerDefaultTTL(t *testing.T) {
	repo, _ := setupTestRepo(t)
	cfg := newTestConfig()
	cfg.sessionTTL = 0

	manager := NewSessionManager(repo, cfg)
	assert.Equal(t, DefaultSessionTTL, manager.TTL())
}

func TestSessionIsExpired(t *testing.T) {
	var nilSession *Session
	assert.True(t, nilSession.IsExpired(testNow))

	session := &Session{Expires: testNow}
	assert.True(t, session.IsExpired(testNow))
	assert.False(t, session.IsExpired(testNow.Add(-time.Second)))
}
