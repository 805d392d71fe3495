package passwordless

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type UserUpdateMessage struct {
	ActorID    uuid.UUID
	UserID     uuid.UUID
	Data       UserUpdateRequest
	OnResponse func(user *User)
}

func (e UserUpdateMessage) Type() string { return "user.update" }

// UserUpdateHandler writes the whitelisted profile fields of a user. Only
// the user itself may do so.
type UserUpdateHandler struct {
	handlerDeps
}

func NewUserUpdateHandler(repo RepositoryManager, opts ...HandlerOption) *UserUpdateHandler {
	return &UserUpdateHandler{handlerDeps: newHandlerDeps(repo, nil, nil, opts...)}
}

func (h *UserUpdateHandler) Execute(ctx context.Context, event UserUpdateMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UserUpdateHandler) execute(ctx context.Context, event UserUpdateMessage) error {
	if event.ActorID == uuid.Nil {
		return ErrUnableToFindSession
	}

	if event.ActorID != event.UserID {
		return ErrNotSubject
	}

	event.Data.Normalize()
	if verr := event.Data.Validate(); verr != nil {
		return verr
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	now := h.now()
	changes := event.Data.Changes()

	var user *User
	var err error

	if changes.IsEmpty() {
		user, err = h.repo.Users().FindByID(ctx, event.UserID)
	} else {
		user, err = h.repo.Users().UpdateProfileTx(ctx, h.repo.DB(), event.UserID, changes, now)
	}

	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"name":  changes.Name != nil,
			"image": changes.Image != nil,
		},
		OccurredAt: now,
	})

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
