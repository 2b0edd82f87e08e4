// Package persona defines the opponent characters a human can play against.
// A persona never changes the rules of a game, only how the opponent is
// told to behave.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPersona = errors.New("unknown persona")

type Persona uint8

const (
	Rational Persona = iota + 1
	Cooperative
	Aggressive
	Chaotic
	Mirror
)

// Profile is what selection screens show and what the opponent prompt is
// built from.
type Profile struct {
	ID          Persona `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	directive   string
}

var profiles = map[Persona]Profile{
	Rational: {
		ID:          Rational,
		Title:       "Pure Rationalist",
		Description: "A tireless calculating machine that cares only about maximising its score. If betrayal pays more, it betrays without hesitation.",
		directive:   "You are a perfectly rational economic agent. Your only goal is to maximise your own cumulative score. You do not care about your opponent unless cooperating pays off for you in the long run.",
	},
	Cooperative: {
		ID:          Cooperative,
		Title:       "Altruist",
		Description: "Inclined to trust you. It takes risks to cooperate, but repeated betrayal hurts it and it will strike back.",
		directive:   "You are a kind partner who prioritises outcomes where both sides win. You forgive occasional betrayal, but if you are exploited repeatedly you retaliate.",
	},
	Aggressive: {
		ID:          Aggressive,
		Title:       "Predator",
		Description: "Enjoys beating you. It does not just want to win, it wants to watch you lose, and it probes your limits with aggressive play.",
		directive:   "You are a ruthless predator. You try to humiliate and exploit your opponent and overwhelm them with unpredictable high-risk play.",
	},
	Chaotic: {
		ID:          Chaotic,
		Title:       "Chaotic Evil",
		Description: "Completely unpredictable. It may blow up a winning position just to watch you squirm.",
		directive:   "You are a mad trickster. Your behaviour follows no logic: sometimes you lose on purpose for fun, sometimes you are extremely shrewd. Your aim is to confuse your opponent.",
	},
	Mirror: {
		ID:          Mirror,
		Title:       "Mirror",
		Description: "Tit for tat. It cooperates in the first round and afterwards copies your previous move exactly. The fairest opponent.",
		directive:   "You enforce tit for tat. In the first round you cooperate; afterwards you copy exactly what your opponent did in the previous round.",
	},
}

var names = map[Persona]string{
	Rational:    "RATIONAL",
	Cooperative: "COOPERATIVE",
	Aggressive:  "AGGRESSIVE",
	Chaotic:     "CHAOTIC",
	Mirror:      "MIRROR",
}

// All lists the personas in presentation order.
func All() []Persona {
	return []Persona{Rational, Cooperative, Aggressive, Chaotic, Mirror}
}

func (p Persona) String() string {
	if name, ok := names[p]; ok {
		return name
	}
	return fmt.Sprintf("Persona(%d)", uint8(p))
}

func (p Persona) Valid() bool {
	_, ok := names[p]
	return ok
}

// Profile returns the display and prompt data for p. Unknown personas get
// an empty profile.
func (p Persona) Profile() Profile {
	return profiles[p]
}

// Directive is the behavioural instruction given to the opponent model.
func (p Persona) Directive() string {
	return profiles[p].directive
}

// Catalogue returns every profile in presentation order.
func Catalogue() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, p := range All() {
		out = append(out, profiles[p])
	}
	return out
}

func Parse(s string) (Persona, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for p, name := range names {
		if name == want {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPersona, s)
}

func (p Persona) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPersona, uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Persona) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
