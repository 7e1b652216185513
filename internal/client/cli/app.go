// Package cli is the interactive shell for the food scheduler client. It
// is a thin I/O layer: all behavior lives in the meal data service and the
// sync coordinator.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/foodscheduler/internal/client/api"
	"github.com/dmitrijs2005/foodscheduler/internal/client/config"
	"github.com/dmitrijs2005/foodscheduler/internal/client/localstore"
	"github.com/dmitrijs2005/foodscheduler/internal/client/services"
	"github.com/dmitrijs2005/foodscheduler/internal/logging"
)

type App struct {
	config      *config.Config
	mealService *services.MealService
	sync        *services.SyncCoordinator
}

func NewApp(c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger := logging.NewSlogLogger(slogger)

	store, err := localstore.New(c.DataDir)
	if err != nil {
		return nil, err
	}

	var apiClient api.Client
	if c.ServerBaseURL != "" {
		apiClient = api.NewHTTPClient(c.ServerBaseURL)
	}

	ms := services.NewMealService(apiClient, store, logger)
	sc, err := services.NewSyncCoordinator(apiClient, store, logger)
	if err != nil {
		return nil, err
	}

	return &App{config: c, mealService: ms, sync: sc}, nil
}

func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

// status renders the prompt suffix: current mode plus last sync time.
func (a *App) status() string {
	state := a.mealService.State()
	mode := "remote"
	if state.IsLocalMode {
		mode = "local"
	}
	if last := a.sync.Status().LastSync; last != "" {
		return mode + " (synced " + last + ")"
	}
	return mode
}
