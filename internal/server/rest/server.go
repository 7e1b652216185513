// Package rest exposes the meal and sync services over the JSON REST
// façade consumed by devices.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/foodscheduler/internal/logging"
	"github.com/dmitrijs2005/foodscheduler/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Server wraps the HTTP server hosting the REST façade.
type Server struct {
	addr   string
	logger logging.Logger
	srv    *http.Server
}

func NewServer(addr string, logger logging.Logger, mealService *services.MealService, syncService *services.SyncService) *Server {
	router := NewRouter(logger, mealService, syncService)
	return &Server{
		addr:   addr,
		logger: logger,
		srv:    &http.Server{Addr: addr, Handler: router},
	}
}

// NewRouter builds the gin engine with all façade routes registered.
func NewRouter(logger logging.Logger, mealService *services.MealService, syncService *services.SyncService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	h := NewHandler(logger, mealService, syncService)

	router.GET("/ping", h.Ping)

	router.GET("/meals", h.ListMeals)
	router.POST("/meals", h.CreateMeal)
	router.PUT("/meals/:id", h.UpdateMeal)
	router.DELETE("/meals/:id", h.DeleteMeal)

	sync := router.Group("/sync")
	{
		sync.POST("/generate-code", h.GenerateCode)
		sync.POST("/use-code", h.UseCode)
		sync.POST("/data", h.SyncData)
	}

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "REST server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info(shutdownCtx, "Shutting down REST server...")
	return s.srv.Shutdown(shutdownCtx)
}
