package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"fotomu/gallery"
	"fotomu/handlers"
)

const shutdownTimeout = 10 * time.Second

func serve(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, logger := a.cfg, a.logger

	// Deferred in this order so the sweeper is stopped and drained before
	// the metadata backend is closed.
	var sweeper sync.WaitGroup
	defer sweeper.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.OrphanSweepInterval > 0 {
		sweeper.Add(1)
		go func() {
			defer sweeper.Done()
			sweepOrphans(ctx, a.gallery, cfg.OrphanSweepInterval, logger)
		}()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestLogger(logger), handlers.CORS())
	handlers.New(a.gallery, logger).Register(r)

	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))
	} else {
		logger.Warn("static directory not found, frontend disabled", "dir", cfg.StaticDir)
	}

	// No write timeout: uploads and archives may legitimately run long.
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}

	logger.Info("starting server",
		slog.String("listen", cfg.ListenAddr),
		slog.String("bucket", cfg.StorageBucket),
		slog.String("metadata", cfg.MetadataBackend),
	)
	return runServer(ctx, server, ln, logger)
}

// runServer serves on ln until ctx is cancelled and returns only once
// in-flight requests have finished or the shutdown timeout has passed.
func runServer(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-shutdownDone
	return nil
}

// sweepOrphans periodically retries remote deletes that failed earlier.
func sweepOrphans(ctx context.Context, g *gallery.Gallery, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := g.SweepOrphans(ctx); err != nil {
				logger.Warn("orphan sweep failed", "error", err)
			}
		}
	}
}
