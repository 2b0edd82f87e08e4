// Package cli is the line-oriented terminal driver: one human against one
// opponent, reading moves from an io.Reader.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/fatih/color"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/persona"
)

// Options configures a terminal match.
type Options struct {
	Game    games.GameType
	Persona persona.Persona
	// Rounds stops the match after this many rounds. Zero plays until the
	// input ends or the player quits.
	Rounds        int
	OracleTimeout time.Duration
}

// Player runs one match on a terminal.
type Player struct {
	engine *match.Engine
	opts   Options
	state  *match.State
	in     *bufio.Scanner
	out    io.Writer

	human    func(a ...any) string
	opponent func(a ...any) string
	dim      func(a ...any) string
	alert    func(a ...any) string
}

func NewPlayer(engine *match.Engine, opts Options, in io.Reader, out io.Writer) (*Player, error) {
	st, err := match.NewState(opts.Game, opts.Persona)
	if err != nil {
		return nil, err
	}
	if opts.OracleTimeout <= 0 {
		opts.OracleTimeout = 30 * time.Second
	}
	return &Player{
		engine:   engine,
		opts:     opts,
		state:    st,
		in:       bufio.NewScanner(in),
		out:      out,
		human:    sayWith(color.FgCyan),
		opponent: sayWith(color.FgMagenta),
		dim:      sayWith(color.Faint),
		alert:    sayWith(color.FgRed),
	}, nil
}

// sayWith colours text after removing any escape codes it already carries,
// so opponent text cannot restyle the terminal.
func sayWith(attr color.Attribute) func(a ...any) string {
	paint := color.New(attr).SprintFunc()
	return func(a ...any) string {
		return paint(stripansi.Strip(fmt.Sprint(a...)))
	}
}

// State returns the live match state.
func (p *Player) State() *match.State { return p.state }

// Run plays until the round limit, a quit command or the end of input.
func (p *Player) Run(ctx context.Context) error {
	p.banner()
	for p.opts.Rounds == 0 || len(p.state.History) < p.opts.Rounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.state.AwaitingProposal() {
			if err := p.requestProposal(ctx); err != nil {
				return err
			}
		}

		p.prompt()
		line, ok := p.readLine()
		if !ok {
			break
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "q", "quit", "exit":
			p.summary()
			return nil
		case "help", "?":
			p.rules()
			continue
		case "score":
			p.score()
			continue
		case "reset":
			p.engine.Reset(p.state)
			fmt.Fprintln(p.out, p.dim("Match reset."))
			continue
		}

		move, err := games.ParseMove(line)
		if err != nil {
			fmt.Fprintln(p.out, p.alert(fmt.Sprintf("Unknown move %q. Type help for the rules.", line)))
			continue
		}
		if err := p.play(ctx, move); err != nil {
			if errors.Is(err, games.ErrIllegalMove) {
				fmt.Fprintln(p.out, p.alert(err.Error()))
				continue
			}
			return err
		}
	}
	p.summary()
	return p.in.Err()
}

func (p *Player) readLine() (string, bool) {
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

func (p *Player) requestProposal(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.OracleTimeout)
	defer cancel()
	fmt.Fprintln(p.out, p.dim("The opponent is preparing an offer..."))
	offer, err := p.engine.RequestOpponentProposal(ctx, p.state)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Opponent offers you %s of %d points.\n", p.opponent(offer), games.UltimatumPot)
	if prop := p.state.PendingProposal; prop != nil && prop.Taunt != "" {
		fmt.Fprintf(p.out, "  %s %s\n", p.dim("["+string(prop.Emotion)+"]"), p.opponent(prop.Taunt))
	}
	return nil
}

func (p *Player) play(ctx context.Context, move games.Move) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.OracleTimeout)
	defer cancel()
	rec, err := p.engine.SubmitTurn(ctx, p.state, move)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "---> you %s, opponent %s: %s / %s\n",
		p.human(rec.HumanMove), p.opponent(rec.OpponentMove),
		p.human(fmt.Sprintf("%+d", rec.HumanDelta)), p.opponent(fmt.Sprintf("%+d", rec.OpponentDelta)))
	if remark := rec.Remark(); remark != "" {
		fmt.Fprintf(p.out, "  %s %s\n", p.dim("["+string(rec.OpponentEmotion)+"]"), p.opponent(remark))
	}
	if rec.OpponentTaunt != "" && rec.OpponentReasoning != "" {
		fmt.Fprintf(p.out, "  %s\n", p.dim("thinking: "+rec.OpponentReasoning))
	}
	return nil
}

func (p *Player) banner() {
	spec := games.Spec(p.opts.Game)
	prof := p.opts.Persona.Profile()
	fmt.Fprintln(p.out, "*** Playing", p.human(spec.Name), "against", p.opponent(prof.Title))
	fmt.Fprintln(p.out, p.dim(prof.Description))
	p.rules()
}

func (p *Player) rules() {
	spec := games.Spec(p.opts.Game)
	fmt.Fprintln(p.out, spec.Description)
	for _, o := range spec.Outcomes {
		fmt.Fprintf(p.out, "  %s vs %s: you %+d, opponent %+d (%s)\n", o.Human, o.Opponent, o.Payoff.Human, o.Payoff.Opponent, o.Label)
	}
	fmt.Fprintln(p.out, p.dim("Commands: score, reset, help, quit."))
}

func (p *Player) prompt() {
	domain, err := p.state.HumanDomain()
	if err != nil {
		return
	}
	var ask string
	switch domain.Shape {
	case games.ShapeOffer:
		ask = fmt.Sprintf("offer %d-%d points", domain.MinOffer, domain.MaxOffer)
	default:
		names := make([]string, len(domain.Symbols))
		for i, s := range domain.Symbols {
			names[i] = s.String()
		}
		ask = strings.Join(names, " / ")
	}
	fmt.Fprintf(p.out, "\n== Round %d (%s) > ", p.state.Round, ask)
}

func (p *Player) score() {
	fmt.Fprintf(p.out, "Score: you %s, opponent %s after %d rounds\n",
		p.human(p.state.HumanTotal), p.opponent(p.state.OpponentTotal), len(p.state.History))
}

func (p *Player) summary() {
	sum := match.Summarize(p.state)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "*** Final score")
	fmt.Fprintf(p.out, "  you: %s (avg %s)\n", p.human(sum.HumanTotal), sum.HumanAverage.StringFixed(2))
	fmt.Fprintf(p.out, "  opponent: %s (avg %s)\n", p.opponent(sum.OpponentTotal), sum.OpponentAverage.StringFixed(2))
	switch sum.Leader {
	case match.LeaderHuman:
		fmt.Fprintln(p.out, "  You win.")
	case match.LeaderOpponent:
		fmt.Fprintln(p.out, "  The opponent wins.")
	default:
		fmt.Fprintln(p.out, "  It's a tie.")
	}
}
