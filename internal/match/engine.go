package match

import (
	"context"
	"fmt"
	"time"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/oracle"
)

// DefaultProposalOffer is used when the opponent's proposal is not a usable
// offer.
const DefaultProposalOffer = 20

// Proposer is the opponent decision source. *oracle.Oracle satisfies it.
type Proposer interface {
	ProposeMove(ctx context.Context, req oracle.Request) oracle.Proposal
}

// Engine resolves rounds. It holds no per-match state and is safe for
// concurrent use across matches.
type Engine struct {
	oracle Proposer
	now    func() time.Time
}

type Option func(*Engine)

// WithClock overrides the timestamp source for turn records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(o Proposer, opts ...Option) *Engine {
	e := &Engine{oracle: o, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitTurn plays the human's move for the current round. The move is
// checked before the opponent is consulted; on error the state is left as
// it was.
func (e *Engine) SubmitTurn(ctx context.Context, s *State, move games.Move) (TurnRecord, error) {
	if !s.Active {
		return TurnRecord{}, ErrMatchInactive
	}
	if s.OracleBusy {
		return TurnRecord{}, ErrOracleBusy
	}
	domain, err := s.HumanDomain()
	if err != nil {
		return TurnRecord{}, err
	}
	if err := domain.Validate(move); err != nil {
		return TurnRecord{}, fmt.Errorf("round %d: %w", s.Round, err)
	}

	var prop oracle.Proposal
	if s.opponentProposes() {
		if s.PendingProposal == nil {
			return TurnRecord{}, ErrNoPendingProposal
		}
		prop = *s.PendingProposal
	} else {
		prop = e.consult(ctx, s, oracle.Request{
			Game:      s.GameType,
			Persona:   s.Persona,
			Round:     s.Round,
			History:   exchanges(s.History),
			HumanMove: move,
		})
	}

	humanDelta, opponentDelta, err := games.Score(s.GameType, move, prop.Move)
	if err != nil {
		return TurnRecord{}, fmt.Errorf("round %d: %w", s.Round, err)
	}

	rec := TurnRecord{
		Round:             s.Round,
		HumanMove:         move,
		OpponentMove:      prop.Move,
		HumanDelta:        humanDelta,
		OpponentDelta:     opponentDelta,
		OpponentReasoning: prop.Reasoning,
		OpponentTaunt:     prop.Taunt,
		OpponentEmotion:   prop.Emotion,
		Source:            prop.Source,
		CreatedAt:         e.now().UTC(),
	}
	s.History = append(s.History, rec)
	s.Round++
	s.HumanTotal += humanDelta
	s.OpponentTotal += opponentDelta
	s.PendingProposal = nil
	return rec, nil
}

// RequestOpponentProposal asks the opponent for its Ultimatum offer in a
// round where the human responds. The offer is kept on the state until the
// human answers; asking again returns the same offer.
func (e *Engine) RequestOpponentProposal(ctx context.Context, s *State) (int, error) {
	if !s.Active {
		return 0, ErrMatchInactive
	}
	if s.OracleBusy {
		return 0, ErrOracleBusy
	}
	if !s.opponentProposes() {
		return 0, ErrNotProposalRound
	}
	if s.PendingProposal != nil {
		return s.PendingProposal.Move.Offer, nil
	}

	prop := e.consult(ctx, s, oracle.Request{
		Game:    s.GameType,
		Persona: s.Persona,
		Round:   s.Round,
		History: exchanges(s.History),
		Propose: true,
	})
	if !prop.Move.IsOffer() || prop.Move.Offer < games.MinOffer || prop.Move.Offer > games.MaxOffer {
		prop.Move = games.OfferMove(DefaultProposalOffer)
	}
	s.PendingProposal = &prop
	return prop.Move.Offer, nil
}

func (e *Engine) consult(ctx context.Context, s *State, req oracle.Request) oracle.Proposal {
	s.OracleBusy = true
	defer func() { s.OracleBusy = false }()
	return e.oracle.ProposeMove(ctx, req)
}

// Reset starts the match over with the same game and persona. Any pending
// offer is discarded.
func (e *Engine) Reset(s *State) {
	*s = State{
		Active:   s.GameType.Valid() && s.Persona.Valid(),
		GameType: s.GameType,
		Persona:  s.Persona,
		Round:    1,
		History:  []TurnRecord{},
	}
}
