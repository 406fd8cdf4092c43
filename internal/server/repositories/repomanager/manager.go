package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkov/paperstand/internal/dbx"
	"github.com/avolkov/paperstand/internal/server/repositories/connections"
	"github.com/avolkov/paperstand/internal/server/repositories/papers"
	"github.com/avolkov/paperstand/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (either *sql.DB or a
// transaction) and owns schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Papers(db dbx.DBTX) papers.Repository
	Connections(db dbx.DBTX) connections.Repository
}
