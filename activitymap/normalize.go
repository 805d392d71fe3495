// Package activitymap turns passwordless activity events into flat records
// that audit pipelines and structured loggers can consume.
package activitymap

import (
	"context"
	"strings"
	"time"

	passwordless "github.com/goliatone/go-passwordless"
)

const (
	// MetadataKeyEmail holds the address the event was about
	MetadataKeyEmail = "email"
)

const (
	defaultChannel   = "passwordless"
	anonymousActorID = "anonymous"
)

// Record is the normalized activity shape
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Fields flattens the record for key/value loggers
func (r Record) Fields() map[string]any {
	fields := map[string]any{
		"actor_id":    r.ActorID,
		"verb":        r.Verb,
		"channel":     r.Channel,
		"occurred_at": r.OccurredAt.Format(time.RFC3339),
	}
	if r.ObjectType != "" {
		fields["object_type"] = r.ObjectType
	}
	if r.ObjectID != "" {
		fields["object_id"] = r.ObjectID
	}
	for k, v := range r.Metadata {
		if _, taken := fields[k]; !taken {
			fields[k] = v
		}
	}
	return fields
}

type Option func(*options)

type options struct {
	channel     string
	redactEmail bool
}

// WithChannel overrides the record channel
func WithChannel(channel string) Option {
	return func(o *options) {
		if channel = strings.TrimSpace(channel); channel != "" {
			o.channel = channel
		}
	}
}

// WithRedactedEmail masks the local part of the email address
func WithRedactedEmail() Option {
	return func(o *options) {
		o.redactEmail = true
	}
}

// Normalize converts event into a Record
func Normalize(event passwordless.ActivityEvent, opts ...Option) Record {
	o := options{channel: defaultChannel}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	actorID := strings.TrimSpace(event.UserID)
	if actorID == "" {
		actorID = anonymousActorID
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Record{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: objectType(event.EventType),
		ObjectID:   objectID(event),
		Channel:    o.channel,
		Metadata:   metadata(event, o.redactEmail),
		OccurredAt: occurredAt,
	}
}

// Sink returns an ActivitySink that normalizes every event and hands the
// record to emit
func Sink(emit func(ctx context.Context, record Record) error, opts ...Option) passwordless.ActivitySink {
	return passwordless.ActivitySinkFunc(func(ctx context.Context, event passwordless.ActivityEvent) error {
		if emit == nil {
			return nil
		}
		return emit(ctx, Normalize(event, opts...))
	})
}

func objectType(eventType passwordless.ActivityEventType) string {
	switch eventType {
	case passwordless.ActivityEventPostCreated:
		return "post"
	case passwordless.ActivityEventStaleClaimsPurged:
		return "email_verification_claim"
	case passwordless.ActivityEventSignedOut:
		return "session"
	default:
		return "user"
	}
}

func objectID(event passwordless.ActivityEvent) string {
	if event.EventType == passwordless.ActivityEventPostCreated {
		if id, ok := event.Metadata["post_id"]; ok {
			if s, ok := id.(string); ok {
				return s
			}
		}
	}
	return strings.TrimSpace(event.UserID)
}

func metadata(event passwordless.ActivityEvent, redact bool) map[string]any {
	var out map[string]any
	if len(event.Metadata) > 0 {
		out = make(map[string]any, len(event.Metadata)+1)
		for k, v := range event.Metadata {
			out[k] = v
		}
	}

	if email := strings.TrimSpace(event.Email); email != "" {
		if out == nil {
			out = map[string]any{}
		}
		if redact {
			email = redactEmail(email)
		}
		out[MetadataKeyEmail] = email
	}

	return out
}

func redactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
