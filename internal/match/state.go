// Package match owns the state of one human-versus-opponent match and the
// engine that advances it one round at a time.
package match

import (
	"fmt"
	"time"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/oracle"
	"github.com/MJE43/mindmatch/internal/persona"
)

// TurnRecord is the immutable result of one round.
type TurnRecord struct {
	Round             int            `json:"round"`
	HumanMove         games.Move     `json:"humanMove"`
	OpponentMove      games.Move     `json:"opponentMove"`
	HumanDelta        int            `json:"humanDelta"`
	OpponentDelta     int            `json:"opponentDelta"`
	OpponentReasoning string         `json:"opponentReasoning"`
	OpponentTaunt     string         `json:"opponentTaunt,omitempty"`
	OpponentEmotion   oracle.Emotion `json:"opponentEmotion"`
	Source            oracle.Source  `json:"source"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// Remark is what to show as the opponent's line for the round: the taunt
// when there is one, otherwise the reasoning.
func (r TurnRecord) Remark() string {
	if r.OpponentTaunt != "" {
		return r.OpponentTaunt
	}
	return r.OpponentReasoning
}

// State is one match. Round is always len(History)+1 and the totals are
// the sums of the recorded deltas.
type State struct {
	Active          bool             `json:"active"`
	GameType        games.GameType   `json:"gameType"`
	Persona         persona.Persona  `json:"persona"`
	Round           int              `json:"round"`
	HumanTotal      int              `json:"humanTotal"`
	OpponentTotal   int              `json:"opponentTotal"`
	History         []TurnRecord     `json:"history"`
	OracleBusy      bool             `json:"oracleBusy"`
	PendingProposal *oracle.Proposal `json:"pendingProposal,omitempty"`
}

// NewState starts a match of game against persona.
func NewState(game games.GameType, p persona.Persona) (*State, error) {
	if !game.Valid() {
		return nil, fmt.Errorf("%w: %d", games.ErrUnknownGame, uint8(game))
	}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", persona.ErrUnknownPersona, uint8(p))
	}
	return &State{
		Active:   true,
		GameType: game,
		Persona:  p,
		Round:    1,
		History:  []TurnRecord{},
	}, nil
}

// Clone returns a copy that shares nothing mutable with s.
func (s *State) Clone() *State {
	c := *s
	c.History = make([]TurnRecord, len(s.History))
	copy(c.History, s.History)
	if s.PendingProposal != nil {
		p := *s.PendingProposal
		c.PendingProposal = &p
	}
	return &c
}

// LastTurn returns the most recent record, if any.
func (s *State) LastTurn() (TurnRecord, bool) {
	if len(s.History) == 0 {
		return TurnRecord{}, false
	}
	return s.History[len(s.History)-1], true
}

// HumanDomain is the human's legal move domain for the current round.
func (s *State) HumanDomain() (games.Domain, error) {
	return games.HumanDomain(s.GameType, s.Round)
}

// AwaitingProposal reports whether the human must wait for an opponent
// offer before moving.
func (s *State) AwaitingProposal() bool {
	return s.Active && s.opponentProposes() && s.PendingProposal == nil
}

func (s *State) opponentProposes() bool {
	return s.GameType == games.UltimatumGame && games.UltimatumRole(s.Round) == games.RoleResponder
}

// Check verifies the round and total invariants.
func (s *State) Check() error {
	if s.Round != len(s.History)+1 {
		return fmt.Errorf("%w: round %d with %d records", ErrInvariant, s.Round, len(s.History))
	}
	var h, o int
	for i, r := range s.History {
		if r.Round != i+1 {
			return fmt.Errorf("%w: record %d has round %d", ErrInvariant, i, r.Round)
		}
		h += r.HumanDelta
		o += r.OpponentDelta
	}
	if h != s.HumanTotal || o != s.OpponentTotal {
		return fmt.Errorf("%w: totals (%d, %d) but records sum to (%d, %d)", ErrInvariant, s.HumanTotal, s.OpponentTotal, h, o)
	}
	return nil
}

func exchanges(history []TurnRecord) []oracle.Exchange {
	if len(history) > oracle.HistoryWindow {
		history = history[len(history)-oracle.HistoryWindow:]
	}
	out := make([]oracle.Exchange, len(history))
	for i, r := range history {
		out[i] = oracle.Exchange{
			Round:        r.Round,
			HumanMove:    r.HumanMove,
			OpponentMove: r.OpponentMove,
			Reasoning:    r.OpponentReasoning,
		}
	}
	return out
}
