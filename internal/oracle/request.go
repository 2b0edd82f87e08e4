package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/persona"
)

// HistoryWindow is how many past rounds the opponent gets to see.
const HistoryWindow = 5

// Emotion is the opponent's mood after choosing a move.
type Emotion string

const (
	Neutral   Emotion = "neutral"
	Happy     Emotion = "happy"
	Angry     Emotion = "angry"
	Smug      Emotion = "smug"
	Sad       Emotion = "sad"
	Surprised Emotion = "surprised"
)

var emotions = []Emotion{Neutral, Happy, Angry, Smug, Sad, Surprised}

// Emotions returns the closed set of emotion tags.
func Emotions() []Emotion {
	out := make([]Emotion, len(emotions))
	copy(out, emotions)
	return out
}

// ParseEmotion maps an empty tag to Neutral and rejects anything outside the
// closed set.
func ParseEmotion(s string) (Emotion, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Neutral, nil
	}
	for _, e := range emotions {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", s)
}

// Source names the decider that produced a proposal.
type Source string

const (
	SourceGenAI    Source = "genai"
	SourceScript   Source = "script"
	SourceFallback Source = "fallback"
)

// Exchange is one completed round as the opponent remembers it.
type Exchange struct {
	Round        int
	HumanMove    games.Move
	OpponentMove games.Move
	Reasoning    string
}

// Request is everything a decider is told about the current decision.
// Propose is set when the opponent must open an Ultimatum round with an
// offer; HumanMove is then empty.
type Request struct {
	Game      games.GameType
	Persona   persona.Persona
	Round     int
	History   []Exchange
	HumanMove games.Move
	Propose   bool
}

// Window returns the most recent HistoryWindow exchanges of h.
func Window(h []Exchange) []Exchange {
	if len(h) <= HistoryWindow {
		return h
	}
	return h[len(h)-HistoryWindow:]
}

// Transcript renders the history window one line per round.
func Transcript(h []Exchange) string {
	var b strings.Builder
	for i, x := range Window(h) {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "round %d: human=%s, opponent=%s; opponent's prior rationale=%s",
			x.Round, x.HumanMove, x.OpponentMove, x.Reasoning)
	}
	return b.String()
}

// Reply is the raw answer of a decider, before the oracle checks it.
type Reply struct {
	Move      string `json:"move"`
	Reasoning string `json:"reasoning"`
	Taunt     string `json:"taunt,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
}

// Proposal is the checked, always well-formed answer the oracle hands back.
type Proposal struct {
	Move      games.Move `json:"move"`
	Reasoning string     `json:"reasoning"`
	Taunt     string     `json:"taunt,omitempty"`
	Emotion   Emotion    `json:"emotion"`
	Source    Source     `json:"source"`
}

// flexString decodes a JSON string or number into its textual form. Models
// asked for a numeric string sometimes answer with a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
