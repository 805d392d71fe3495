package passwordless

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Posts interface {
	repository.Repository[*Post]

	InsertTx(ctx context.Context, tx bun.IDB, post *Post) error
	ListByAuthor(ctx context.Context, userID uuid.UUID) ([]*Post, error)
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var _ Posts = (*posts)(nil)

func NewPostsRepository(db *bun.DB) Posts {
	handlers := repository.ModelHandlers[*Post]{
		NewRecord: func() *Post {
			return &Post{}
		},
		GetID: func(record *Post) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Post, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
	}
	return &posts{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
	}
}

func (p *posts) InsertTx(ctx context.Context, tx bun.IDB, post *Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	_, err := tx.NewInsert().Model(post).Exec(ctx)
	return err
}

// ListByAuthor returns the user's posts, newest first
func (p *posts) ListByAuthor(ctx context.Context, userID uuid.UUID) ([]*Post, error) {
	records := make([]*Post, 0)
	err := p.db.NewSelect().
		Model(&records).
		Where("?TableAlias.created_by = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
