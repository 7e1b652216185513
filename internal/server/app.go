// Package server initializes and runs the food scheduler backend: it wires
// the repository manager, the meal and sync services and the REST façade,
// and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/foodscheduler/internal/logging"
	"github.com/dmitrijs2005/foodscheduler/internal/server/config"
	"github.com/dmitrijs2005/foodscheduler/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/foodscheduler/internal/server/rest"
	"github.com/dmitrijs2005/foodscheduler/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	mealService *services.MealService
	syncService *services.SyncService
}

// newRepositoryManager picks the storage driver from the DSN: anything with
// a postgres scheme goes through pgx, everything else is treated as a
// SQLite file path.
func newRepositoryManager(dsn string) (repomanager.RepositoryManager, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return repomanager.NewPostgresRepositoryManager(dsn)
	}
	return repomanager.NewSQLiteRepositoryManager(dsn)
}

func NewApp(c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	rm, err := newRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	ms := services.NewMealService(rm)
	ss := services.NewSyncService(rm, c.SyncCodeTTL)

	return &App{config: c, logger: logger, repomanager: rm, mealService: ms, syncService: ss}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startRESTServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := rest.NewServer(app.config.EndpointAddr, app.logger, app.mealService, app.syncService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startRESTServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
