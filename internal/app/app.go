package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spendlog/spendlog/internal/config"
	"github.com/spendlog/spendlog/internal/database"
	"github.com/spendlog/spendlog/internal/localstore"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Application wires configuration, stores, router and server lifecycle.
type Application struct {
	cfg  config.Application
	deps *Dependencies
	srv  *http.Server
}

// NewApplication migrates and opens the stores and builds the HTTP server, ready to Run().
func NewApplication(ctx context.Context, cfg config.Application) (*Application, error) {
	if err := database.Migrate(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	store, err := localstore.Open(ctx, cfg.LocalStore.Path)
	if err != nil {
		db.Close()
		return nil, err
	}

	deps, err := BuildDependencies(db, store, cfg)
	if err != nil {
		store.Close()
		db.Close()
		return nil, err
	}

	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, deps: deps, srv: srv}, nil
}

// Run serves HTTP until ctx is cancelled or the process receives SIGINT/SIGTERM, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.deps.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	log.Info("Server stopped")
	return err
}
