// Package repomanager opens the database, runs the embedded goose
// migrations and vends repositories bound to a DBTX.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/duet/internal/dbx"
	"github.com/dmitrijs2005/duet/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/duet/internal/server/repositories/records"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Dialect() dbx.Dialect
	Records(db dbx.DBTX) records.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}
