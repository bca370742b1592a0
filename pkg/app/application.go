package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"railbook/internal/health"
	"railbook/internal/worker"
	"railbook/pkg/config"
	"railbook/pkg/contracts"
	"railbook/pkg/middleware"
)

// Application hosts one service binary: an HTTP surface (health plus any
// registered handlers) and a set of periodic workers. Shutdown order is
// workers first, then the HTTP server; a worker mid-iteration finishes its
// unit of work before the process exits.
type Application struct {
	cfg     *config.Config
	server  *http.Server
	workers []*worker.Runner
	closers []func()
}

func NewApplication() *Application {
	return &Application{}
}

func (a *Application) SetApp(cfg *config.Config, handlers ...contracts.Handler) {
	a.cfg = cfg

	router := httprouter.New()
	healthHandler := health.NewHandler(cfg.Client, cfg.Log)
	healthHandler.RegisterRoutes(router)
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}

	var httpHandler http.Handler = router
	httpHandler = middleware.RequestLogging(cfg.Log)(httpHandler)
	httpHandler = middleware.Recovery(cfg.Log)(httpHandler)

	a.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	cfg.Log.Info("HTTP server configured", "port", cfg.Port)
}

// AddWorker registers a periodic worker to be started by Run.
func (a *Application) AddWorker(r *worker.Runner) {
	a.workers = append(a.workers, r)
}

// AddCloser registers a cleanup hook invoked after workers stop, before the
// HTTP server shuts down. Used for event publishers and similar resources.
func (a *Application) AddCloser(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *Application) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, w := range a.workers {
		w.Start(ctx)
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	for _, w := range a.workers {
		a.cfg.Log.Info("Stopping worker", "worker", w.Name())
		w.Stop()
	}
	a.cfg.Log.Info("Background workers stopped")

	for _, fn := range a.closers {
		fn()
	}

	ctx, cancelTimeout := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancelTimeout()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
