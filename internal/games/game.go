// Package games holds the four two-player games MindMatch offers: the move
// vocabulary, the legal move domain for each round, and the payoff table.
// Everything here is pure; nothing touches the network or the clock.
package games

import (
	"fmt"
	"strings"
)

// GameType identifies one of the supported games. The zero value is invalid.
type GameType uint8

const (
	PrisonersDilemma GameType = iota + 1
	ChickenGame
	StagHunt
	UltimatumGame
)

var gameTypeNames = map[GameType]string{
	PrisonersDilemma: "PRISONERS_DILEMMA",
	ChickenGame:      "CHICKEN_GAME",
	StagHunt:         "STAG_HUNT",
	UltimatumGame:    "ULTIMATUM_GAME",
}

// AllGameTypes lists the games in presentation order.
func AllGameTypes() []GameType {
	return []GameType{PrisonersDilemma, ChickenGame, StagHunt, UltimatumGame}
}

func (g GameType) String() string {
	if name, ok := gameTypeNames[g]; ok {
		return name
	}
	return fmt.Sprintf("GameType(%d)", uint8(g))
}

// Valid reports whether g is one of the declared games.
func (g GameType) Valid() bool {
	_, ok := gameTypeNames[g]
	return ok
}

// Symmetric reports whether both players choose from the same two symbols
// simultaneously. Only the Ultimatum game is sequential.
func (g GameType) Symmetric() bool {
	return g.Valid() && g != UltimatumGame
}

// ParseGameType accepts the wire name of a game, case-insensitively.
func ParseGameType(s string) (GameType, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for g, name := range gameTypeNames {
		if name == want {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGame, s)
}

func (g GameType) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGame, uint8(g))
	}
	return []byte(g.String()), nil
}

func (g *GameType) UnmarshalText(text []byte) error {
	parsed, err := ParseGameType(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
