// Package repomanager hands out repositories bound to either the shared
// connection pool or a transaction, and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/celengan/internal/dbx"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/goals"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Goals(db dbx.DBTX) goals.Repository
	Ledger(db dbx.DBTX) ledger.Repository
}
