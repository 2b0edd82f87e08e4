// Package app assembles the long-lived components shared by the server and
// the terminal driver.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/config"
	"github.com/MJE43/mindmatch/internal/credentials"
	"github.com/MJE43/mindmatch/internal/lobby"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/oracle"
	"github.com/MJE43/mindmatch/internal/store"
)

// App owns the process-wide components.
type App struct {
	Config      config.Config
	Logger      *zap.Logger
	Credentials *credentials.Source
	Oracle      *oracle.Oracle
	Engine      *match.Engine
	Lobby       *lobby.Lobby
}

// NewOracle picks the primary decider: the strategy script when one is
// configured, else the generation service unless offline is set. The
// fallback is always present.
func NewOracle(cfg config.OracleConfig, keys oracle.KeySource, offline bool, logger *zap.Logger) (*oracle.Oracle, error) {
	logger = logger.Named("oracle")
	fallback := oracle.NewFallback(cfg.FallbackSeed)

	var primary oracle.Decider
	switch {
	case cfg.StrategyScript != "":
		script, err := oracle.LoadScript(cfg.StrategyScript, logger)
		if err != nil {
			return nil, fmt.Errorf("strategy script: %w", err)
		}
		primary = script
	case !offline:
		primary = oracle.NewGenAI(oracle.GenAIConfig{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		}, keys)
	}
	o := oracle.New(primary, fallback, logger)
	logger.Info("opponent ready", zap.String("decider", o.Primary()))
	return o, nil
}

// OpenJournal opens and migrates the SQLite journal at path. An empty path
// disables journaling and returns a nil Journal.
func OpenJournal(path string) (store.Journal, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal directory: %w", err)
		}
	}
	db, err := store.NewSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	return db, nil
}

// Startup builds every component from cfg. offline forces the fallback
// opponent unless a strategy script is configured.
func Startup(cfg config.Config, logger *zap.Logger, offline bool) (*App, error) {
	creds := credentials.NewSource(credentials.NewStore(cfg.KeyringService, cfg.SecretsFile))

	o, err := NewOracle(cfg.Oracle, creds, offline, logger)
	if err != nil {
		return nil, err
	}
	engine := match.NewEngine(o)

	journal, err := OpenJournal(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if journal != nil {
		logger.Info("journal enabled", zap.String("path", cfg.DBPath))
	}

	lb := lobby.New(lobby.Config{
		OracleTimeout: cfg.Oracle.Timeout,
		IdleTTL:       cfg.MatchIdleTTL,
		Decider:       o.Primary(),
	}, engine, journal, logger.Named("lobby"))

	return &App{
		Config:      cfg,
		Logger:      logger,
		Credentials: creds,
		Oracle:      o,
		Engine:      engine,
		Lobby:       lb,
	}, nil
}

// Shutdown ends every match and closes the journal.
func (a *App) Shutdown() error {
	return a.Lobby.Close()
}
