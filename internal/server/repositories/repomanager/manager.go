package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/homeshare/internal/dbx"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/rows"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a connection or transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	PasswordResets(db dbx.DBTX) passwordresets.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Rows(db dbx.DBTX) rows.Repository
}
