package passwordless

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UserDeleteMessage struct {
	ActorID    uuid.UUID
	UserID     uuid.UUID
	Confirm    bool
	OnResponse func(resp *UserDeleteResponse)
}

func (e UserDeleteMessage) Type() string { return "user.delete" }

type UserDeleteResponse struct {
	UserID          uuid.UUID
	SessionsRemoved int64
}

// UserDeleteHandler removes an account. Claims and posts go with the user
// row through the foreign keys, sessions are removed explicitly so the
// caller is signed out even on stores without cascading deletes.
type UserDeleteHandler struct {
	handlerDeps
}

func NewUserDeleteHandler(repo RepositoryManager, opts ...HandlerOption) *UserDeleteHandler {
	return &UserDeleteHandler{handlerDeps: newHandlerDeps(repo, nil, nil, opts...)}
}

func (h *UserDeleteHandler) Execute(ctx context.Context, event UserDeleteMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UserDeleteHandler) execute(ctx context.Context, event UserDeleteMessage) error {
	if event.ActorID == uuid.Nil {
		return ErrUnableToFindSession
	}

	if event.ActorID != event.UserID {
		return ErrNotSubject
	}

	if !event.Confirm {
		return ErrConfirmationRequired
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &UserDeleteResponse{UserID: event.UserID}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		removed, err := h.repo.Sessions().DeleteByUserTx(ctx, tx, event.UserID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove user sessions")
		}
		resp.SessionsRemoved = removed

		if err := h.repo.Users().RemoveTx(ctx, tx, event.UserID); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user deletion transaction failed")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventAccountDeleted,
		UserID:    event.UserID.String(),
		Metadata: map[string]any{
			"sessions_removed": resp.SessionsRemoved,
		},
		OccurredAt: h.now(),
	})

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
