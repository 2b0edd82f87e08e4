package games

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Symbol is a categorical move. Each game draws its two legal symbols from
// this set.
type Symbol uint8

const (
	SymbolNone Symbol = iota
	Cooperate
	Defect
	Straight
	Swerve
	Stag
	Rabbit
	Accept
	Reject
)

var symbolNames = map[Symbol]string{
	Cooperate: "COOPERATE",
	Defect:    "DEFECT",
	Straight:  "STRAIGHT",
	Swerve:    "SWERVE",
	Stag:      "STAG",
	Rabbit:    "RABBIT",
	Accept:    "ACCEPT",
	Reject:    "REJECT",
}

func (s Symbol) String() string {
	if name, ok := symbolNames[s]; ok {
		return name
	}
	return "NONE"
}

// ParseSymbol accepts a symbol name case-insensitively. Surrounding quotes
// and a trailing full stop are tolerated because model replies often carry
// them.
func ParseSymbol(s string) (Symbol, error) {
	want := strings.ToUpper(strings.Trim(strings.TrimSpace(s), `"'.`))
	for sym, name := range symbolNames {
		if name == want {
			return sym, nil
		}
	}
	return SymbolNone, fmt.Errorf("%w: %q", ErrUnknownSymbol, s)
}

// MoveKind tags which half of a Move is meaningful.
type MoveKind uint8

const (
	MoveKindNone MoveKind = iota
	MoveKindSymbol
	MoveKindOffer
)

// Move is either a categorical symbol or an Ultimatum offer: the number of
// points (0..100) the proposer hands to the other side.
type Move struct {
	Kind   MoveKind
	Symbol Symbol
	Offer  int
}

// SymbolMove wraps a categorical choice.
func SymbolMove(s Symbol) Move { return Move{Kind: MoveKindSymbol, Symbol: s} }

// OfferMove wraps an Ultimatum offer. Range is checked by Domain.Validate.
func OfferMove(points int) Move { return Move{Kind: MoveKindOffer, Offer: points} }

func (m Move) IsZero() bool  { return m.Kind == MoveKindNone }
func (m Move) IsOffer() bool { return m.Kind == MoveKindOffer }

func (m Move) String() string {
	switch m.Kind {
	case MoveKindSymbol:
		return m.Symbol.String()
	case MoveKindOffer:
		return strconv.Itoa(m.Offer)
	default:
		return "NONE"
	}
}

// ParseMove reads the textual form of a move: a symbol name or a decimal
// offer.
func ParseMove(s string) (Move, error) {
	if sym, err := ParseSymbol(s); err == nil {
		return SymbolMove(sym), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, s)
	}
	return OfferMove(n), nil
}

// MarshalJSON writes symbols as strings and offers as numbers.
func (m Move) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MoveKindSymbol:
		return json.Marshal(m.Symbol.String())
	case MoveKindOffer:
		return json.Marshal(m.Offer)
	default:
		return []byte("null"), nil
	}
}

func (m *Move) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Move{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseMove(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("move must be a symbol or an integer offer: %w", err)
	}
	*m = OfferMove(n)
	return nil
}
