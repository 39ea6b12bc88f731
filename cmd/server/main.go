package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/napolitain/blueprint-solver/internal/loader"
	"github.com/napolitain/blueprint-solver/internal/logging"
	"github.com/napolitain/blueprint-solver/internal/scenario"
	"github.com/napolitain/blueprint-solver/internal/solver/frontier"
	"github.com/napolitain/blueprint-solver/internal/store"
)

const name = "blueprint-server"

var version = "dev"

var (
	port     = flag.Int("port", 8080, "The server port")
	input    = flag.String("input", "blueprints.txt", "Blueprint file loaded at startup")
	workers  = flag.Int("workers", 2, "Blueprints solved concurrently per request")
	timeout  = flag.Duration("timeout", 30*time.Second, "Per-request search timeout")
	cacheDB  = flag.String("cache", "", "SQLite file caching solved runs (empty disables)")
	logLevel = flag.String("log-level", "info", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()
	logging.SetDefaultStructuredLoggerWithLevel(name, version, *logLevel)

	blueprints, err := loader.LoadBlueprints(*input)
	if err != nil {
		slog.Warn("no blueprints preloaded", "input", *input, "error", err)
	}
	slog.Info("loaded blueprints", "count", len(blueprints))

	runner := scenario.NewRunner(frontier.DefaultConfig(), *workers)
	if *cacheDB != "" {
		st, err := store.Open(*cacheDB)
		if err != nil {
			slog.Error("failed to open cache", "path", *cacheDB, "error", err)
			os.Exit(1)
		}
		defer st.Close()
		runner.WithCache(st)
	}

	srv := &server{blueprints: blueprints, runner: runner, timeout: *timeout}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          logging.NewLogLogger(slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("server listening", "port", *port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to serve", "error", err)
		os.Exit(1)
	}
}
