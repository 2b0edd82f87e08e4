// Command mindmatch-server serves MindMatch matches over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MJE43/mindmatch/internal/api"
	"github.com/MJE43/mindmatch/internal/app"
	"github.com/MJE43/mindmatch/internal/config"
	"github.com/MJE43/mindmatch/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before reading MINDMATCH_* variables")
	offline := flag.Bool("offline", false, "never call the generation service; use the offline opponent")
	flag.Parse()

	if err := run(*envFile, *offline); err != nil {
		fmt.Fprintln(os.Stderr, "mindmatch-server:", err)
		os.Exit(1)
	}
}

func run(envFile string, offline bool) (err error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogDev)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := app.Startup(cfg, logger, offline)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Shutdown()) }()

	if err := a.Lobby.StartReaper(cfg.ReapInterval); err != nil {
		return fmt.Errorf("start reaper: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(a.Lobby, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("version", api.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
