package passwordless

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-persistence-bun"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	migrationsDir = "data/sql/migrations"
)

// OpenDB opens a bun database for the given driver. sqlite connections are
// limited to one so in memory databases stay shared and foreign keys are on.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	sqldb, dialect, err := openSQL(driver, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, dialect), nil
}

// PersistenceClient is the slice of the go-persistence-bun client the server needs
type PersistenceClient interface {
	DB() *bun.DB
}

// NewPersistenceClient opens the database described by cfg and wraps it in
// a go-persistence-bun client with every model registered
func NewPersistenceClient(cfg persistence.Config) (PersistenceClient, error) {
	sqldb, dialect, err := openSQL(cfg.GetDriver(), cfg.GetServer())
	if err != nil {
		return nil, err
	}

	registerModels.Do(func() {
		persistence.RegisterModel((*User)(nil))
		persistence.RegisterModel((*EmailVerificationClaim)(nil))
		persistence.RegisterModel((*Session)(nil))
		persistence.RegisterModel((*Post)(nil))
	})

	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("create persistence client: %w", err)
	}

	return client, nil
}

var registerModels sync.Once

func openSQL(driver, dsn string) (*sql.DB, schema.Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite3", "":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)

		if _, err := sqldb.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			_ = sqldb.Close()
			return nil, nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		return sqldb, sqlitedialect.New(), nil
	case DriverPostgres, "pgx":
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return sqldb, pgdialect.New(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// gooseUpContext is a seam for testing goose.UpContext
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db
func RunMigrations(ctx context.Context, db *bun.DB, logger *logrus.Logger) error {
	if logger != nil {
		goose.SetLogger(logger)
	} else {
		goose.SetLogger(goose.NopLogger())
	}

	goose.SetBaseFS(GetMigrationsFS())

	if err := goose.SetDialect(gooseDialect(db)); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db.DB, migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func gooseDialect(db *bun.DB) string {
	if _, ok := db.Dialect().(*pgdialect.Dialect); ok {
		return "postgres"
	}
	return "sqlite3"
}
