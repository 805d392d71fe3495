package passwordless

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ResendSignUpEmailMessage struct {
	SignUpRequest
	OnResponse func(resp *ResendSignUpEmailResponse)
}

func (e ResendSignUpEmailMessage) Type() string { return "auth.sign_up.resend" }

type ResendSignUpEmailResponse struct {
	User  *User
	Claim *EmailVerificationClaim
	Link  string
}

// ResendSignUpEmailHandler re-sends the confirmation link of the user's
// current valid claim. It never writes to the store: users whose claim
// expired have to sign up again.
type ResendSignUpEmailHandler struct {
	handlerDeps
}

func NewResendSignUpEmailHandler(repo RepositoryManager, notifier Notifier, cfg Config, opts ...HandlerOption) *ResendSignUpEmailHandler {
	return &ResendSignUpEmailHandler{handlerDeps: newHandlerDeps(repo, notifier, cfg, opts...)}
}

func (h *ResendSignUpEmailHandler) Execute(ctx context.Context, event ResendSignUpEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during resend of sign up email",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendSignUpEmailHandler) execute(ctx context.Context, event ResendSignUpEmailMessage) error {
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user for resend")
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	claims, err := h.repo.Claims().ListByUser(ctx, user.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load verification claims")
	}

	claim, ok := FindValidClaim(claims, now)
	if !ok {
		return ErrNoValidClaim
	}

	resp := &ResendSignUpEmailResponse{
		User:  user,
		Claim: claim,
		Link:  ComposeTokenLink(h.baseURL(), claim.Token),
	}

	if err := h.notifier.SendConfirmationEmail(ctx, event.Email, user.Username, resp.Link); err != nil {
		h.logger.Error("resend confirmation email failed for %s: %v", event.Email, err)
		return goerrors.Wrap(err, ErrEmailDelivery.Category, ErrEmailDelivery.Message).
			WithTextCode(ErrEmailDelivery.TextCode).
			WithCode(ErrEmailDelivery.Code)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType:  ActivityEventSignUpResent,
		UserID:     user.ID.String(),
		Email:      user.Email,
		OccurredAt: now,
	})

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
