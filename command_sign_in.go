package passwordless

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SignInMessage struct {
	SignInRequest
	OnResponse func(resp *SignInResponse)
}

func (e SignInMessage) Type() string { return "auth.sign_in" }

type SignInResponse struct {
	Status string `json:"status"`
	User   *User  `json:"-"`
	Link   string `json:"-"`
}

// SignInHandler emails a sign-in link to verified users. Unknown and
// unverified emails get the same ErrUserNotFound. Unlike sign-up it does
// not clear existing claims, so a pending sign-up claim and the new
// sign-in claim can both be valid at once.
type SignInHandler struct {
	handlerDeps
}

func NewSignInHandler(repo RepositoryManager, notifier Notifier, cfg Config, opts ...HandlerOption) *SignInHandler {
	return &SignInHandler{handlerDeps: newHandlerDeps(repo, notifier, cfg, opts...)}
}

func (h *SignInHandler) Execute(ctx context.Context, event SignInMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign in",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignInHandler) execute(ctx context.Context, event SignInMessage) error {
	event.Normalize()
	if verr := event.Validate(); verr != nil {
		return verr
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	now := h.now()

	user, err := h.repo.Users().FindByEmail(ctx, event.Email)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user for sign in")
	}

	if !user.EmailVerified {
		return ErrUserNotFound
	}

	token, err := IssueVerificationToken(ctx, h.repo.DB(), h.repo.Claims(), user.ID, h.claimTTL(), now)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue sign in token")
	}

	resp := &SignInResponse{
		Status: "ok",
		User:   user,
		Link:   ComposeTokenLink(h.baseURL(), token),
	}

	if err := h.notifier.SendSignInEmail(ctx, user.Email, user.Username, resp.Link); err != nil {
		h.logger.Error("sign in email failed for %s: %v", user.Email, err)
		return goerrors.Wrap(err, ErrEmailDelivery.Category, ErrEmailDelivery.Message).
			WithTextCode(ErrEmailDelivery.TextCode).
			WithCode(ErrEmailDelivery.Code)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType:  ActivityEventSignInRequested,
		UserID:     user.ID.String(),
		Email:      user.Email,
		OccurredAt: now,
	})

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
