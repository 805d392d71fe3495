package passwordless

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SignUpMessage struct {
	SignUpRequest
	OnResponse func(resp *SignUpResponse)
}

func (e SignUpMessage) Type() string { return "auth.sign_up" }

// SignUpResponse describes which branch the sign-up took
type SignUpResponse struct {
	User         *User
	Created      bool
	ClaimsPurged int64
	Link         string
}

// SignUpHandler runs the sign-up state machine:
//
//	no user                          -> create user, issue claim, email
//	verified user                    -> ErrAlreadySignedUp
//	unverified user with valid claim -> ErrVerificationPending
//	unverified user, no valid claim  -> reuse user, purge, issue claim, email
//
// Lookup, purge, creation and issuance share one transaction. The email is
// sent after commit and awaited.
type SignUpHandler struct {
	handlerDeps
}

func NewSignUpHandler(repo RepositoryManager, notifier Notifier, cfg Config, opts ...HandlerOption) *SignUpHandler {
	return &SignUpHandler{handlerDeps: newHandlerDeps(repo, notifier, cfg, opts...)}
}

func (h *SignUpHandler) Execute(ctx context.Context, event SignUpMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during sign up",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignUpHandler) execute(ctx context.Context, event SignUpMessage) error {
	event.Normalize()
	if verr := event.Validate(); verr != nil {
		return verr
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	now := h.now()
	resp := &SignUpResponse{}
	var token string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().FindByEmailTx(ctx, tx, event.Email)
		if err != nil && !isNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user for sign up")
		}

		if err == nil {
			if user.EmailVerified {
				return ErrAlreadySignedUp
			}

			claims, err := h.repo.Claims().ListByUserTx(ctx, tx, user.ID)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load verification claims")
			}

			if _, ok := FindValidClaim(claims, now); ok {
				return ErrVerificationPending
			}

			// claims expiring exactly now are not valid but not yet
			// expired either, clear them before issuing a new one
			ids := make([]uuid.UUID, 0)
			for _, claim := range claims {
				if !claim.Expires.Before(now) {
					ids = append(ids, claim.ID)
				}
			}

			purged, err := h.repo.Claims().DeleteByIDsTx(ctx, tx, ids...)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear stale verification claims")
			}
			resp.ClaimsPurged = purged
		} else {
			taken, err := h.repo.Users().UsernameTakenTx(ctx, tx, event.Username)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username")
			}
			if taken {
				return ErrUsernameTaken
			}

			user = &User{
				Email:     event.Email,
				Username:  event.Username,
				Name:      event.Name,
				CreatedAt: now,
				UpdatedAt: now,
			}

			if h.useHashid {
				if id, err := hashid.NewUUID(event.Email); err == nil {
					user.ID = id
				}
			}

			if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
			}
			resp.Created = true
		}

		token, err = IssueVerificationToken(ctx, tx, h.repo.Claims(), user.ID, h.claimTTL(), now)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification token")
		}

		resp.User = user
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "sign up transaction failed")
	}

	if resp.ClaimsPurged > 0 {
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventStaleClaimsPurged,
			UserID:    resp.User.ID.String(),
			Email:     resp.User.Email,
			Metadata: map[string]any{
				"count": resp.ClaimsPurged,
			},
			OccurredAt: now,
		})
	}

	resp.Link = ComposeTokenLink(h.baseURL(), token)

	if err := h.notifier.SendConfirmationEmail(ctx, resp.User.Email, resp.User.Username, resp.Link); err != nil {
		h.logger.Error("sign up confirmation email failed for %s: %v", resp.User.Email, err)
		return goerrors.Wrap(err, ErrEmailDelivery.Category, ErrEmailDelivery.Message).
			WithTextCode(ErrEmailDelivery.TextCode).
			WithCode(ErrEmailDelivery.Code)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventSignUpRequested,
		UserID:    resp.User.ID.String(),
		Email:     resp.User.Email,
		Metadata: map[string]any{
			"created":       resp.Created,
			"claims_purged": resp.ClaimsPurged,
		},
		OccurredAt: now,
	})

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
