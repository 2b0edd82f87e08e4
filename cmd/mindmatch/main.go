// Command mindmatch plays one game-theory match in the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/app"
	"github.com/MJE43/mindmatch/internal/cli"
	"github.com/MJE43/mindmatch/internal/config"
	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/logging"
	"github.com/MJE43/mindmatch/internal/persona"
)

var (
	flagGame    = flag.String("game", "PRISONERS_DILEMMA", "game: PRISONERS_DILEMMA, CHICKEN_GAME, STAG_HUNT or ULTIMATUM_GAME")
	flagPersona = flag.String("persona", "RATIONAL", "opponent persona: RATIONAL, COOPERATIVE, AGGRESSIVE, CHAOTIC or MIRROR")
	flagRounds  = flag.Int("rounds", 0, "stop after this many rounds (0 plays until quit)")
	flagOffline = flag.Bool("offline", false, "never call the generation service; use the offline opponent")
	flagSetKey  = flag.Bool("set-key", false, "read an API key from stdin, store it in the OS keyring and exit")
	flagEnv     = flag.String("env", ".env", "dotenv file to load before reading MINDMATCH_* variables")
	flagVerbose = flag.Bool("v", false, "log opponent diagnostics to stderr")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mindmatch:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*flagEnv)
	if err != nil {
		return err
	}
	// The terminal driver keeps no journal.
	cfg.DBPath = ""

	logger := zap.NewNop()
	if *flagVerbose {
		if logger, err = logging.New(true); err != nil {
			return err
		}
		defer logger.Sync()
	}

	a, err := app.Startup(cfg, logger, *flagOffline)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if *flagSetKey {
		return setKey(a, os.Stdin)
	}

	game, err := games.ParseGameType(*flagGame)
	if err != nil {
		return err
	}
	p, err := persona.Parse(*flagPersona)
	if err != nil {
		return err
	}

	player, err := cli.NewPlayer(a.Engine, cli.Options{
		Game:          game,
		Persona:       p,
		Rounds:        *flagRounds,
		OracleTimeout: cfg.Oracle.Timeout,
	}, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := player.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func setKey(a *app.App, in io.Reader) error {
	fmt.Fprint(os.Stderr, "API key: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return errors.New("no key given")
	}
	if err := a.Credentials.SetAPIKey(key); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "stored.")
	return nil
}
