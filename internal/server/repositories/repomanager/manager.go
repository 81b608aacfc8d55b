package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notesnap/internal/dbx"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/users"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/verificationtokens"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// them either on the pool or inside a dbx.WithTx transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	VerificationTokens(db dbx.DBTX) verificationtokens.Repository
	PasswordResets(db dbx.DBTX) passwordresets.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
