package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/duet/internal/dbx"
	"github.com/dmitrijs2005/duet/internal/server/migrations"
	"github.com/dmitrijs2005/duet/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/duet/internal/server/repositories/records"
)

// SQLRepositoryManager vends SQL repositories for one dialect.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func NewSQLRepositoryManager(d dbx.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: d}
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect { return m.dialect }

func (m *SQLRepositoryManager) Records(db dbx.DBTX) records.Repository {
	return records.NewSQLRepository(db, m.dialect)
}

func (m *SQLRepositoryManager) Profiles(db dbx.DBTX) profiles.Repository {
	return profiles.NewSQLRepository(db, m.dialect)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	dir, gooseDialect := "postgres", "pgx"
	if m.dialect == dbx.SQLite {
		dir, gooseDialect = "sqlite", "sqlite3"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, dir)
}

// Open connects to dsn and returns the pool with a manager for its dialect.
func Open(ctx context.Context, dsn string) (*sql.DB, *SQLRepositoryManager, error) {
	d, driverDSN, err := dbx.ParseDSN(dsn)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(d.Driver(), driverDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", d, err)
	}
	if d == dbx.SQLite {
		// one writer at a time avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", d, err)
	}
	return db, NewSQLRepositoryManager(d), nil
}
