// Package config reads MindMatch settings from MINDMATCH_* environment
// variables, optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "MINDMATCH_"

// Config holds process-wide settings. Zero values are replaced by defaults
// in Load.
type Config struct {
	Addr   string
	LogDev bool

	// DBPath enables the SQLite turn journal when non-empty.
	DBPath string

	Oracle OracleConfig

	KeyringService string
	SecretsFile    string

	MatchIdleTTL time.Duration
	ReapInterval time.Duration
}

type OracleConfig struct {
	BaseURL        string
	Model          string
	Timeout        time.Duration
	MaxRetries     uint64
	RetryDelay     time.Duration
	StrategyScript string
	// FallbackSeed seeds the offline opponent. Zero seeds from the clock.
	FallbackSeed uint64
}

// Default returns the built-in settings.
func Default() Config {
	secrets := ""
	if dir, err := os.UserConfigDir(); err == nil {
		secrets = filepath.Join(dir, "mindmatch", "secrets.json")
	}
	return Config{
		Addr: ":8080",
		Oracle: OracleConfig{
			BaseURL:    "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:      "gemini-2.5-flash",
			Timeout:    30 * time.Second,
			MaxRetries: 1,
			RetryDelay: 500 * time.Millisecond,
		},
		KeyringService: "mindmatch",
		SecretsFile:    secrets,
		MatchIdleTTL:   30 * time.Minute,
		ReapInterval:   time.Minute,
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment without overriding variables already set, then
// builds the config from the environment. Missing files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the config from a variable lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	r := reader{lookup: lookup}

	r.str("ADDR", &c.Addr)
	r.boolean("LOG_DEV", &c.LogDev)
	r.str("DB_PATH", &c.DBPath)
	r.str("ORACLE_BASE_URL", &c.Oracle.BaseURL)
	r.str("ORACLE_MODEL", &c.Oracle.Model)
	r.duration("ORACLE_TIMEOUT", &c.Oracle.Timeout)
	r.uint("ORACLE_MAX_RETRIES", &c.Oracle.MaxRetries)
	r.duration("ORACLE_RETRY_DELAY", &c.Oracle.RetryDelay)
	r.str("STRATEGY_SCRIPT", &c.Oracle.StrategyScript)
	r.uint("FALLBACK_SEED", &c.Oracle.FallbackSeed)
	r.str("KEYRING_SERVICE", &c.KeyringService)
	r.str("SECRETS_FILE", &c.SecretsFile)
	r.duration("MATCH_IDLE_TTL", &c.MatchIdleTTL)
	r.duration("REAP_INTERVAL", &c.ReapInterval)

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("config: %sADDR must not be empty", envPrefix)
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("config: oracle timeout must be > 0")
	}
	if c.Oracle.RetryDelay < 0 {
		return fmt.Errorf("config: oracle retry delay must be >= 0")
	}
	if c.Oracle.MaxRetries > 10 {
		return fmt.Errorf("config: oracle max retries must be <= 10, got %d", c.Oracle.MaxRetries)
	}
	if c.MatchIdleTTL <= 0 || c.ReapInterval <= 0 {
		return fmt.Errorf("config: match idle TTL and reap interval must be > 0")
	}
	if c.ReapInterval > c.MatchIdleTTL {
		return fmt.Errorf("config: reap interval %s exceeds idle TTL %s", c.ReapInterval, c.MatchIdleTTL)
	}
	return nil
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) get(key string) (string, bool) {
	v, ok := r.lookup(envPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *reader) boolean(key string, dst *bool) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s%s: %w", envPrefix, key, err))
		return
	}
	*dst = b
}

func (r *reader) uint(key string, dst *uint64) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s%s: %w", envPrefix, key, err))
		return
	}
	*dst = n
}

func (r *reader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s%s: %w", envPrefix, key, err))
		return
	}
	*dst = d
}
