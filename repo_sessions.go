package passwordless

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SessionsStore interface {
	repository.Repository[*Session]

	Insert(ctx context.Context, session *Session) error
	InsertTx(ctx context.Context, tx bun.IDB, session *Session) error
	FindByToken(ctx context.Context, token string) (*Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error)
}

type sessions struct {
	repository.Repository[*Session]
	db *bun.DB
}

var _ SessionsStore = (*sessions)(nil)

func NewSessionsRepository(db *bun.DB) SessionsStore {
	handlers := repository.ModelHandlers[*Session]{
		NewRecord: func() *Session {
			return &Session{}
		},
		GetID: func(record *Session) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Session, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "session_token"
		},
	}
	return &sessions{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
	}
}

func (s *sessions) Insert(ctx context.Context, session *Session) error {
	return s.InsertTx(ctx, s.db, session)
}

func (s *sessions) InsertTx(ctx context.Context, tx bun.IDB, session *Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	_, err := tx.NewInsert().Model(session).Exec(ctx)
	return err
}

func (s *sessions) FindByToken(ctx context.Context, token string) (*Session, error) {
	record := &Session{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.session_token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *sessions) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.db.NewDelete().
		Model((*Session)(nil)).
		Where("session_token = ?", token).
		Exec(ctx)
	return err
}

func (s *sessions) DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error) {
	res, err := tx.NewDelete().
		Model((*Session)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
