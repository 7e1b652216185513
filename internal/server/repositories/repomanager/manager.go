// Package repomanager wires the SQL repositories to a concrete database:
// PostgreSQL for hosted deployments, SQLite for single-binary local runs
// and tests.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/meals"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/synccodes"
)

// RepositoryManager owns the database handle and hands out repositories
// bound to it.
type RepositoryManager interface {
	Conn() *sql.DB
	Meals() meals.Repository
	SyncCodes() synccodes.Repository
	RunMigrations(ctx context.Context) error
	Close() error
}
