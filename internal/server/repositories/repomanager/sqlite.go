package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/foodscheduler/internal/server/migrations"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/meals"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/synccodes"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type SQLiteRepositoryManager struct {
	db        *sql.DB
	meals     meals.Repository
	syncCodes synccodes.Repository
}

func (m *SQLiteRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *SQLiteRepositoryManager) Meals() meals.Repository {
	return m.meals
}

func (m *SQLiteRepositoryManager) SyncCodes() synccodes.Repository {
	return m.syncCodes
}

func (m *SQLiteRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, m.db, ".")
}

// NewSQLiteRepositoryManager opens (or creates) a SQLite database at dsn and
// runs migrations. Use ":memory:" for tests.
func NewSQLiteRepositoryManager(dsn string) (RepositoryManager, error) {

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// The modernc driver is not safe for concurrent writers over multiple
	// connections; a single connection also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("exec pragma error: %w", err)
	}

	m := &SQLiteRepositoryManager{
		db:        db,
		meals:     meals.NewSQLRepository(db),
		syncCodes: synccodes.NewSQLRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
