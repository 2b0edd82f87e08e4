package match

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/mindmatch/internal/games"
)

// SeriesPoint is one step of the running score, for charting.
type SeriesPoint struct {
	Round         int `json:"round"`
	HumanDelta    int `json:"humanDelta"`
	OpponentDelta int `json:"opponentDelta"`
	HumanTotal    int `json:"humanTotal"`
	OpponentTotal int `json:"opponentTotal"`
}

// Series folds history into cumulative totals. It is recomputed on demand
// and never stored.
func Series(history []TurnRecord) []SeriesPoint {
	out := make([]SeriesPoint, len(history))
	var h, o int
	for i, r := range history {
		h += r.HumanDelta
		o += r.OpponentDelta
		out[i] = SeriesPoint{
			Round:         r.Round,
			HumanDelta:    r.HumanDelta,
			OpponentDelta: r.OpponentDelta,
			HumanTotal:    h,
			OpponentTotal: o,
		}
	}
	return out
}

// Leader values.
const (
	LeaderHuman    = "human"
	LeaderOpponent = "opponent"
	LeaderTie      = "tie"
)

// Summary is a scoreboard view of a match.
type Summary struct {
	Rounds          int             `json:"rounds"`
	HumanTotal      int             `json:"humanTotal"`
	OpponentTotal   int             `json:"opponentTotal"`
	HumanAverage    decimal.Decimal `json:"humanAverage"`
	OpponentAverage decimal.Decimal `json:"opponentAverage"`
	Leader          string          `json:"leader"`

	// Symmetric games: share of rounds each side chose the game's first
	// option (cooperate, straight, stag).
	HumanFirstChoiceRate    *decimal.Decimal `json:"humanFirstChoiceRate,omitempty"`
	OpponentFirstChoiceRate *decimal.Decimal `json:"opponentFirstChoiceRate,omitempty"`

	// Ultimatum only.
	AcceptRate           *decimal.Decimal `json:"acceptRate,omitempty"`
	HumanAverageOffer    *decimal.Decimal `json:"humanAverageOffer,omitempty"`
	OpponentAverageOffer *decimal.Decimal `json:"opponentAverageOffer,omitempty"`
}

// Summarize computes the scoreboard of s. Ratios are rounded to two places.
func Summarize(s *State) Summary {
	sum := Summary{
		Rounds:          len(s.History),
		HumanTotal:      s.HumanTotal,
		OpponentTotal:   s.OpponentTotal,
		HumanAverage:    ratio(s.HumanTotal, len(s.History)),
		OpponentAverage: ratio(s.OpponentTotal, len(s.History)),
		Leader:          LeaderTie,
	}
	switch {
	case s.HumanTotal > s.OpponentTotal:
		sum.Leader = LeaderHuman
	case s.OpponentTotal > s.HumanTotal:
		sum.Leader = LeaderOpponent
	}
	if len(s.History) == 0 {
		return sum
	}

	if s.GameType.Symmetric() {
		first, _ := games.Choices(s.GameType)
		var h, o int
		for _, r := range s.History {
			if r.HumanMove.Symbol == first {
				h++
			}
			if r.OpponentMove.Symbol == first {
				o++
			}
		}
		hr, or := ratio(h, len(s.History)), ratio(o, len(s.History))
		sum.HumanFirstChoiceRate, sum.OpponentFirstChoiceRate = &hr, &or
		return sum
	}

	if s.GameType == games.UltimatumGame {
		var accepted, humanOffers, humanSum, oppOffers, oppSum int
		for _, r := range s.History {
			if r.HumanMove.Symbol == games.Accept || r.OpponentMove.Symbol == games.Accept {
				accepted++
			}
			if r.HumanMove.IsOffer() {
				humanOffers++
				humanSum += r.HumanMove.Offer
			}
			if r.OpponentMove.IsOffer() {
				oppOffers++
				oppSum += r.OpponentMove.Offer
			}
		}
		ar := ratio(accepted, len(s.History))
		sum.AcceptRate = &ar
		if humanOffers > 0 {
			v := ratio(humanSum, humanOffers)
			sum.HumanAverageOffer = &v
		}
		if oppOffers > 0 {
			v := ratio(oppSum, oppOffers)
			sum.OpponentAverageOffer = &v
		}
	}
	return sum
}

func ratio(num, den int) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(num)).DivRound(decimal.NewFromInt(int64(den)), 2)
}
