package passwordless

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token" query:"token"`
	OnResponse func(resp *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "auth.verify_email" }

type VerifyEmailResponse struct {
	User          *User
	FirstVerified bool
	SessionCookie string
}

// VerifyEmailHandler consumes a claim from an emailed link. The first
// consumption flips email_verified, every consumption starts a session.
// Claim removal, the verified flag and the session row share one
// transaction. Only the consumed claim is removed, the rest expire on their
// own.
type VerifyEmailHandler struct {
	handlerDeps
	sessions Sessions
}

func NewVerifyEmailHandler(repo RepositoryManager, sessions Sessions, cfg Config, opts ...HandlerOption) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		handlerDeps: newHandlerDeps(repo, nil, cfg, opts...),
		sessions:    sessions,
	}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	token := strings.TrimSpace(event.Token)
	if token == "" {
		return ErrInvalidVerificationToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	now := h.now()
	resp := &VerifyEmailResponse{}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		claim, err := h.repo.Claims().FindByTokenTx(ctx, tx, token)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidVerificationToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification claim")
		}

		if !IsClaimValid(claim, now) {
			return ErrInvalidVerificationToken
		}

		user, err := h.repo.Users().FindByIDTx(ctx, tx, claim.UserID)
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidVerificationToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load claim owner")
		}

		if !user.EmailVerified {
			if err := h.repo.Users().MarkEmailVerifiedTx(ctx, tx, user.ID, now); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email as verified")
			}
			user.EmailVerified = true
			user.UpdatedAt = now
			resp.FirstVerified = true
		}

		if _, err := h.repo.Claims().DeleteByIDsTx(ctx, tx, claim.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification claim")
		}

		cookie, err := h.startSession(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		resp.User = user
		resp.SessionCookie = cookie
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventEmailVerified,
		UserID:    resp.User.ID.String(),
		Email:     resp.User.Email,
		Metadata: map[string]any{
			"first_verification": resp.FirstVerified,
		},
		OccurredAt: now,
	})

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *VerifyEmailHandler) startSession(ctx context.Context, tx bun.IDB, userID uuid.UUID) (string, error) {
	if h.sessions == nil {
		return "", nil
	}
	cookie, err := h.sessions.StartTx(ctx, tx, userID)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return "", richErr
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to start session")
	}
	return cookie, nil
}
