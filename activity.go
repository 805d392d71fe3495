package passwordless

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSignUpRequested   ActivityEventType = "auth.signup.requested"
	ActivityEventSignUpResent      ActivityEventType = "auth.signup.resent"
	ActivityEventSignInRequested   ActivityEventType = "auth.signin.requested"
	ActivityEventEmailVerified     ActivityEventType = "auth.email.verified"
	ActivityEventSignedOut         ActivityEventType = "auth.signout"
	ActivityEventProfileUpdated    ActivityEventType = "user.profile.updated"
	ActivityEventAccountDeleted    ActivityEventType = "user.account.deleted"
	ActivityEventPostCreated       ActivityEventType = "post.created"
	ActivityEventStaleClaimsPurged ActivityEventType = "auth.claims.purged"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// LoggerActivitySink writes activity events to a Logger
func LoggerActivitySink(logger Logger) ActivitySink {
	if logger == nil {
		return noopActivitySink{}
	}
	return ActivitySinkFunc(func(ctx context.Context, event ActivityEvent) error {
		logger.Info("activity %s user=%s email=%s metadata=%v", event.EventType, event.UserID, event.Email, event.Metadata)
		return nil
	})
}

// recordActivity sends the event to sink and logs sink failures. Activity
// never fails the operation that produced it.
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil && logger != nil {
		logger.Warn("failed to record activity %s: %v", event.EventType, err)
	}
}
