package passwordless

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type CreatePostMessage struct {
	AuthorID   uuid.UUID
	Data       CreatePostRequest
	OnResponse func(post *Post)
}

func (e CreatePostMessage) Type() string { return "post.create" }

type CreatePostHandler struct {
	handlerDeps
}

func NewCreatePostHandler(repo RepositoryManager, opts ...HandlerOption) *CreatePostHandler {
	return &CreatePostHandler{handlerDeps: newHandlerDeps(repo, nil, nil, opts...)}
}

func (h *CreatePostHandler) Execute(ctx context.Context, event CreatePostMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during post creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreatePostHandler) execute(ctx context.Context, event CreatePostMessage) error {
	if event.AuthorID == uuid.Nil {
		return ErrUnableToFindSession
	}

	event.Data.Title = strings.TrimSpace(event.Data.Title)
	if verr := event.Data.Validate(); verr != nil {
		return verr
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	now := h.now()
	post := &Post{
		ID:        uuid.New(),
		Title:     event.Data.Title,
		CreatedBy: event.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.repo.Posts().InsertTx(ctx, h.repo.DB(), post); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create post")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventPostCreated,
		UserID:    event.AuthorID.String(),
		Metadata: map[string]any{
			"post_id": post.ID.String(),
		},
		OccurredAt: now,
	})

	if event.OnResponse != nil {
		event.OnResponse(post)
	}

	return nil
}
