package passwordless

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	DB() bun.IDB
	Users() Users
	Claims() Claims
	Sessions() SessionsStore
	Posts() Posts
}

type mngr struct {
	db       *bun.DB
	users    Users
	claims   Claims
	sessions SessionsStore
	posts    Posts
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		claims:   NewClaimsRepository(db),
		sessions: NewSessionsRepository(db),
		posts:    NewPostsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("database should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.claims == nil {
		return errors.New("repository claims should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	if m.posts == nil {
		return errors.New("repository posts should be initialized")
	}

	return nil
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// DB returns the default, non transactional handle
func (m mngr) DB() bun.IDB {
	return m.db
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Claims() Claims {
	return m.claims
}

func (m mngr) Sessions() SessionsStore {
	return m.sessions
}

func (m mngr) Posts() Posts {
	return m.posts
}

// isNotFound covers both the raw driver error and the repository wrapper
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}

func expectAffected(res sql.Result, meta map[string]any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().WithMetadata(meta)
	}
	return nil
}
