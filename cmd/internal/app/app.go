// Package app wires the SharePAL server runtime: config, logging, HTTP routes,
// and the realtime share gateway.
//
// It is intentionally small and deterministic to keep CI gates strict and behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sharepal/cmd/internal/share"
)

// App is the SharePAL server runtime: it owns HTTP server wiring and the
// broadcast core's dependencies.
type App struct {
	cfg Config
	log Logger

	engine *share.Engine
	ws     *share.WSGateway

	httpLimiter *share.RateLimiter

	startedAt time.Time
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	engine := share.NewEngine(
		log,
		share.NewInMemorySlotStore(),
		share.NewInMemoryRegistry(),
		share.NewRateLimiter(0, 0), // package defaults: 50 ops / 60s per session
		share.NewHub(log),
		share.NewMetrics(nil),
	)

	return &App{
		cfg:         cfg,
		log:         log,
		engine:      engine,
		ws:          share.NewWSGateway(log, engine),
		httpLimiter: share.NewRateLimiter(cfg.HTTPRateLimit, cfg.HTTPRateWindow),
		startedAt:   time.Now().UTC(),
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.engine, a.ws, a.startedAt)

	var handler http.Handler = mux
	handler = WithRateLimit(handler, a.httpLimiter, a.log, "/ws", "/metrics")
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithSecurityHeaders(handler)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
