package games

import "fmt"

// Payoff is the score change for both sides of one round.
type Payoff struct {
	Human    int `json:"human"`
	Opponent int `json:"opponent"`
}

// payoffMatrix indexes cells[human][opponent] by the position of each
// symbol in moves.
type payoffMatrix struct {
	moves [2]Symbol
	cells [2][2]Payoff
}

var payoffTables = map[GameType]payoffMatrix{
	PrisonersDilemma: {
		moves: [2]Symbol{Cooperate, Defect},
		cells: [2][2]Payoff{
			{{3, 3}, {0, 5}},
			{{5, 0}, {1, 1}},
		},
	},
	ChickenGame: {
		moves: [2]Symbol{Straight, Swerve},
		cells: [2][2]Payoff{
			{{-10, -10}, {2, -1}},
			{{-1, 2}, {0, 0}},
		},
	},
	StagHunt: {
		moves: [2]Symbol{Stag, Rabbit},
		cells: [2][2]Payoff{
			{{5, 5}, {0, 2}},
			{{2, 0}, {1, 1}},
		},
	},
}

func (m payoffMatrix) index(s Symbol) (int, bool) {
	for i, candidate := range m.moves {
		if candidate == s {
			return i, true
		}
	}
	return 0, false
}

// Score returns the (human, opponent) score deltas for one round. For the
// Ultimatum game exactly one of the two moves must be an offer; whichever
// side made it is the proposer. Any combination outside the game's legal
// shapes is ErrIllegalMove.
func Score(game GameType, human, opponent Move) (humanDelta, opponentDelta int, err error) {
	if game == UltimatumGame {
		return scoreUltimatumMoves(human, opponent)
	}
	m, ok := payoffTables[game]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownGame, uint8(game))
	}
	if human.Kind != MoveKindSymbol || opponent.Kind != MoveKindSymbol {
		return 0, 0, fmt.Errorf("%w: %s expects two symbols, got %s/%s", ErrIllegalMove, game, human, opponent)
	}
	hi, ok := m.index(human.Symbol)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s is not a %s move", ErrIllegalMove, human.Symbol, game)
	}
	oi, ok := m.index(opponent.Symbol)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s is not a %s move", ErrIllegalMove, opponent.Symbol, game)
	}
	p := m.cells[hi][oi]
	return p.Human, p.Opponent, nil
}

func scoreUltimatumMoves(human, opponent Move) (int, int, error) {
	switch {
	case human.Kind == MoveKindOffer && opponent.Kind == MoveKindSymbol:
		return ScoreUltimatum(true, human.Offer, opponent.Symbol)
	case opponent.Kind == MoveKindOffer && human.Kind == MoveKindSymbol:
		return ScoreUltimatum(false, opponent.Offer, human.Symbol)
	default:
		return 0, 0, fmt.Errorf("%w: ultimatum needs one offer and one response, got %s/%s", ErrIllegalMove, human, opponent)
	}
}

// ScoreUltimatum settles an Ultimatum round. offer is what the proposer
// hands to the responder; on Accept the proposer keeps the rest of the pot,
// on Reject nobody scores.
func ScoreUltimatum(humanProposes bool, offer int, response Symbol) (humanDelta, opponentDelta int, err error) {
	if offer < MinOffer || offer > MaxOffer {
		return 0, 0, fmt.Errorf("%w: offer %d outside [%d, %d]", ErrIllegalMove, offer, MinOffer, MaxOffer)
	}
	var proposer, responder int
	switch response {
	case Accept:
		proposer, responder = UltimatumPot-offer, offer
	case Reject:
	default:
		return 0, 0, fmt.Errorf("%w: %s is not a response", ErrIllegalMove, response)
	}
	if humanProposes {
		return proposer, responder, nil
	}
	return responder, proposer, nil
}
