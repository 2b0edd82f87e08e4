package games

import (
	"encoding/json"
	"fmt"
)

// Ultimatum offers split a pot of this many points.
const (
	UltimatumPot = 100
	MinOffer     = 0
	MaxOffer     = UltimatumPot
)

// Role is the Ultimatum-specific position of a player in a round.
type Role uint8

const (
	RoleNone Role = iota
	RoleProposer
	RoleResponder
)

var roleNames = map[Role]string{
	RoleNone:      "none",
	RoleProposer:  "proposer",
	RoleResponder: "responder",
}

func (r Role) String() string { return roleNames[r] }

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(text []byte) error {
	for role, name := range roleNames {
		if name == string(text) {
			*r = role
			return nil
		}
	}
	return fmt.Errorf("unknown role %q", text)
}

// Shape says what kind of move a domain admits.
type Shape uint8

const (
	ShapeChoice   Shape = iota + 1 // one of two game symbols, chosen simultaneously
	ShapeOffer                     // an integer offer in [MinOffer, MaxOffer]
	ShapeResponse                  // Accept or Reject to a known offer
)

var shapeNames = map[Shape]string{
	ShapeChoice:   "choice",
	ShapeOffer:    "offer",
	ShapeResponse: "response",
}

func (s Shape) String() string { return shapeNames[s] }

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shape) UnmarshalText(text []byte) error {
	for shape, name := range shapeNames {
		if name == string(text) {
			*s = shape
			return nil
		}
	}
	return fmt.Errorf("unknown domain shape %q", text)
}

// Domain is the set of moves a player may legally submit in a round.
type Domain struct {
	Shape    Shape
	Symbols  []Symbol
	MinOffer int
	MaxOffer int
}

func choiceDomain(a, b Symbol) Domain {
	return Domain{Shape: ShapeChoice, Symbols: []Symbol{a, b}}
}

var (
	offerDomain    = Domain{Shape: ShapeOffer, MinOffer: MinOffer, MaxOffer: MaxOffer}
	responseDomain = Domain{Shape: ShapeResponse, Symbols: []Symbol{Accept, Reject}}
)

// Contains reports whether m is legal in d.
func (d Domain) Contains(m Move) bool {
	return d.Validate(m) == nil
}

// Validate returns ErrIllegalMove (wrapped with detail) when m does not fit d.
func (d Domain) Validate(m Move) error {
	switch d.Shape {
	case ShapeOffer:
		if m.Kind != MoveKindOffer {
			return fmt.Errorf("%w: expected an offer, got %s", ErrIllegalMove, m)
		}
		if m.Offer < d.MinOffer || m.Offer > d.MaxOffer {
			return fmt.Errorf("%w: offer %d outside [%d, %d]", ErrIllegalMove, m.Offer, d.MinOffer, d.MaxOffer)
		}
		return nil
	case ShapeChoice, ShapeResponse:
		if m.Kind != MoveKindSymbol {
			return fmt.Errorf("%w: expected one of %v, got %s", ErrIllegalMove, d.Symbols, m)
		}
		for _, s := range d.Symbols {
			if s == m.Symbol {
				return nil
			}
		}
		return fmt.Errorf("%w: %s is not one of %v", ErrIllegalMove, m.Symbol, d.Symbols)
	default:
		return fmt.Errorf("%w: empty domain", ErrIllegalMove)
	}
}

// MarshalJSON renders the domain for clients deciding which controls to show.
func (d Domain) MarshalJSON() ([]byte, error) {
	out := struct {
		Shape    Shape    `json:"shape"`
		Symbols  []string `json:"symbols,omitempty"`
		MinOffer *int     `json:"minOffer,omitempty"`
		MaxOffer *int     `json:"maxOffer,omitempty"`
	}{Shape: d.Shape}
	for _, s := range d.Symbols {
		out.Symbols = append(out.Symbols, s.String())
	}
	if d.Shape == ShapeOffer {
		lo, hi := d.MinOffer, d.MaxOffer
		out.MinOffer, out.MaxOffer = &lo, &hi
	}
	return json.Marshal(out)
}

func (d *Domain) UnmarshalJSON(data []byte) error {
	var in struct {
		Shape    Shape    `json:"shape"`
		Symbols  []string `json:"symbols"`
		MinOffer int      `json:"minOffer"`
		MaxOffer int      `json:"maxOffer"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Domain{Shape: in.Shape, MinOffer: in.MinOffer, MaxOffer: in.MaxOffer}
	for _, name := range in.Symbols {
		sym, err := ParseSymbol(name)
		if err != nil {
			return err
		}
		out.Symbols = append(out.Symbols, sym)
	}
	*d = out
	return nil
}

// UltimatumRole returns the human's role for an Ultimatum round. The human
// proposes on odd rounds, starting with round 1.
func UltimatumRole(round int) Role {
	if round < 1 {
		return RoleNone
	}
	if round%2 == 1 {
		return RoleProposer
	}
	return RoleResponder
}

// HumanDomain is the legal move domain for the human in the given round.
func HumanDomain(game GameType, round int) (Domain, error) {
	if round < 1 {
		return Domain{}, ErrInvalidRound
	}
	if game.Symmetric() {
		return symmetricDomain(game), nil
	}
	if game != UltimatumGame {
		return Domain{}, fmt.Errorf("%w: %d", ErrUnknownGame, uint8(game))
	}
	if UltimatumRole(round) == RoleProposer {
		return offerDomain, nil
	}
	return responseDomain, nil
}

// OpponentDomain is the legal move domain for the opponent in the given
// round. For the symmetric games it equals the human domain; for Ultimatum
// it is the complementary role.
func OpponentDomain(game GameType, round int) (Domain, error) {
	if round < 1 {
		return Domain{}, ErrInvalidRound
	}
	if game.Symmetric() {
		return symmetricDomain(game), nil
	}
	if game != UltimatumGame {
		return Domain{}, fmt.Errorf("%w: %d", ErrUnknownGame, uint8(game))
	}
	if UltimatumRole(round) == RoleProposer {
		return responseDomain, nil
	}
	return offerDomain, nil
}

// Choices returns the two symbols of a symmetric game, first option first.
func Choices(game GameType) (first, second Symbol) {
	m := payoffTables[game]
	return m.moves[0], m.moves[1]
}

func symmetricDomain(game GameType) Domain {
	first, second := Choices(game)
	return choiceDomain(first, second)
}
