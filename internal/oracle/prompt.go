package oracle

import (
	"fmt"
	"strings"

	"github.com/MJE43/mindmatch/internal/games"
)

const (
	promptIntro = `You are playing a classic game-theory game against a human. Your persona is %s.
%s`

	promptOutro = `Study the history to predict what the human will do. Return your decision together with one short line in character (an inner thought or a taunt) and your current emotion.`

	ultimatumRules = `Game: Ultimatum Game
Rules:
- The proposer splits a pot of %d points by offering some of them to the responder.
- The responder either accepts or rejects.
- Accept: the pot is split as proposed.
- Reject: both players get 0.
Current round:
- If the human's move is a number, the human is the proposer and you are the responder. Reject offers below what you consider acceptable.
- If you are asked to propose, answer with a number from %d to %d: the points you give to the human. Offer too little and the human may reject, leaving you with nothing.
Your legal moves:
- As responder: %q or %q.
- As proposer: a string holding an integer, for example "40".`
)

// SystemPrompt frames the persona and spells out the exact rules of game.
func SystemPrompt(req Request) string {
	profile := req.Persona.Profile()
	var b strings.Builder
	fmt.Fprintf(&b, promptIntro, profile.Title, req.Persona.Directive())
	b.WriteString("\n\n")
	b.WriteString(rulesText(req.Game))
	b.WriteString("\n\n")
	b.WriteString(promptOutro)
	return b.String()
}

func rulesText(game games.GameType) string {
	if game == games.UltimatumGame {
		return fmt.Sprintf(ultimatumRules, games.UltimatumPot, games.MinOffer, games.MaxOffer,
			games.Accept.String(), games.Reject.String())
	}
	spec := games.Spec(game)
	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s\n%s\nRules:\n", spec.Name, spec.Description)
	for _, out := range spec.Outcomes {
		fmt.Fprintf(&b, "- human plays %s, you play %s: human gets %+d, you get %+d.\n",
			out.Human, out.Opponent, out.Payoff.Human, out.Payoff.Opponent)
	}
	fmt.Fprintf(&b, "Your legal moves: %s.", strings.Join(quoteAll(spec.Moves), ", "))
	return b.String()
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// UserPrompt carries the transcript and the cue for this decision.
func UserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Game history (last 5 rounds):\n")
	if t := Transcript(req.History); t != "" {
		b.WriteString(t)
	} else {
		b.WriteString("(no rounds played yet)")
	}
	fmt.Fprintf(&b, "\n\nCurrent round: %d\n", req.Round)
	if req.Propose {
		b.WriteString("Human move: the human is waiting for your offer.\n")
	} else {
		fmt.Fprintf(&b, "Human move: %s\n", req.HumanMove)
	}
	b.WriteString("Decide according to your persona and the situation.")
	return b.String()
}
