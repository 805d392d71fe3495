package passwordless

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Claims interface {
	repository.Repository[*EmailVerificationClaim]

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*EmailVerificationClaim, error)
	ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*EmailVerificationClaim, error)
	FindByToken(ctx context.Context, token string) (*EmailVerificationClaim, error)
	FindByTokenTx(ctx context.Context, tx bun.IDB, token string) (*EmailVerificationClaim, error)
	InsertTx(ctx context.Context, tx bun.IDB, claim *EmailVerificationClaim) error
	DeleteByIDsTx(ctx context.Context, tx bun.IDB, ids ...uuid.UUID) (int64, error)
}

type claims struct {
	repository.Repository[*EmailVerificationClaim]
	db *bun.DB
}

var _ Claims = (*claims)(nil)

func NewClaimsRepository(db *bun.DB) Claims {
	handlers := repository.ModelHandlers[*EmailVerificationClaim]{
		NewRecord: func() *EmailVerificationClaim {
			return &EmailVerificationClaim{}
		},
		GetID: func(record *EmailVerificationClaim) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *EmailVerificationClaim, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "token"
		},
	}
	return &claims{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
	}
}

func (c *claims) ListByUser(ctx context.Context, userID uuid.UUID) ([]*EmailVerificationClaim, error) {
	return c.ListByUserTx(ctx, c.db, userID)
}

// ListByUserTx returns every claim of the user, expired ones included.
// Validity is decided by IsClaimValid, not by the query.
func (c *claims) ListByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]*EmailVerificationClaim, error) {
	records := make([]*EmailVerificationClaim, 0)
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *claims) FindByToken(ctx context.Context, token string) (*EmailVerificationClaim, error) {
	return c.FindByTokenTx(ctx, c.db, token)
}

func (c *claims) FindByTokenTx(ctx context.Context, tx bun.IDB, token string) (*EmailVerificationClaim, error) {
	record := &EmailVerificationClaim{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (c *claims) InsertTx(ctx context.Context, tx bun.IDB, claim *EmailVerificationClaim) error {
	if claim.ID == uuid.Nil {
		claim.ID = uuid.New()
	}
	_, err := tx.NewInsert().Model(claim).Exec(ctx)
	return err
}

func (c *claims) DeleteByIDsTx(ctx context.Context, tx bun.IDB, ids ...uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := tx.NewDelete().
		Model((*EmailVerificationClaim)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
