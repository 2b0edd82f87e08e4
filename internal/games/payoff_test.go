package games

import (
	"errors"
	"testing"
)

func TestScoreSymmetricTables(t *testing.T) {
	tests := []struct {
		game     GameType
		human    Symbol
		opponent Symbol
		wantH    int
		wantO    int
	}{
		{PrisonersDilemma, Cooperate, Cooperate, 3, 3},
		{PrisonersDilemma, Cooperate, Defect, 0, 5},
		{PrisonersDilemma, Defect, Cooperate, 5, 0},
		{PrisonersDilemma, Defect, Defect, 1, 1},
		{ChickenGame, Straight, Straight, -10, -10},
		{ChickenGame, Straight, Swerve, 2, -1},
		{ChickenGame, Swerve, Straight, -1, 2},
		{ChickenGame, Swerve, Swerve, 0, 0},
		{StagHunt, Stag, Stag, 5, 5},
		{StagHunt, Stag, Rabbit, 0, 2},
		{StagHunt, Rabbit, Stag, 2, 0},
		{StagHunt, Rabbit, Rabbit, 1, 1},
	}

	for _, tt := range tests {
		h, o, err := Score(tt.game, SymbolMove(tt.human), SymbolMove(tt.opponent))
		if err != nil {
			t.Errorf("%s %s/%s: unexpected error: %v", tt.game, tt.human, tt.opponent, err)
			continue
		}
		if h != tt.wantH || o != tt.wantO {
			t.Errorf("%s %s/%s: expected (%d, %d), got (%d, %d)", tt.game, tt.human, tt.opponent, tt.wantH, tt.wantO, h, o)
		}
	}
}

func TestScoreSymmetricPayoffIsMirrored(t *testing.T) {
	for _, g := range []GameType{PrisonersDilemma, ChickenGame, StagHunt} {
		a, b := Choices(g)
		for _, x := range []Symbol{a, b} {
			for _, y := range []Symbol{a, b} {
				h1, o1, _ := Score(g, SymbolMove(x), SymbolMove(y))
				h2, o2, _ := Score(g, SymbolMove(y), SymbolMove(x))
				if h1 != o2 || o1 != h2 {
					t.Errorf("%s: (%s,%s)=(%d,%d) is not the mirror of (%s,%s)=(%d,%d)", g, x, y, h1, o1, y, x, h2, o2)
				}
			}
		}
	}
}

func TestScoreRejectsForeignSymbols(t *testing.T) {
	cases := []struct {
		game     GameType
		human    Move
		opponent Move
	}{
		{PrisonersDilemma, SymbolMove(Stag), SymbolMove(Defect)},
		{ChickenGame, SymbolMove(Swerve), SymbolMove(Cooperate)},
		{StagHunt, OfferMove(40), SymbolMove(Stag)},
		{StagHunt, Move{}, SymbolMove(Stag)},
		{UltimatumGame, OfferMove(40), OfferMove(60)},
		{UltimatumGame, SymbolMove(Accept), SymbolMove(Reject)},
	}
	for _, c := range cases {
		if _, _, err := Score(c.game, c.human, c.opponent); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("%s %s/%s: expected ErrIllegalMove, got %v", c.game, c.human, c.opponent, err)
		}
	}

	if _, _, err := Score(GameType(42), SymbolMove(Cooperate), SymbolMove(Cooperate)); !errors.Is(err, ErrUnknownGame) {
		t.Errorf("expected ErrUnknownGame, got %v", err)
	}
}

func TestScoreUltimatum(t *testing.T) {
	tests := []struct {
		name          string
		humanProposes bool
		offer         int
		response      Symbol
		wantH, wantO  int
	}{
		{"human offers 30 accepted", true, 30, Accept, 70, 30},
		{"opponent offers 30 accepted", false, 30, Accept, 30, 70},
		{"human offers 30 rejected", true, 30, Reject, 0, 0},
		{"opponent offers 40 rejected", false, 40, Reject, 0, 0},
		{"everything given away", true, 100, Accept, 0, 100},
		{"nothing given away", false, 0, Accept, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, o, err := ScoreUltimatum(tt.humanProposes, tt.offer, tt.response)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tt.wantH || o != tt.wantO {
				t.Errorf("expected (%d, %d), got (%d, %d)", tt.wantH, tt.wantO, h, o)
			}
		})
	}
}

func TestScoreUltimatumSumsToPotOrZero(t *testing.T) {
	for k := MinOffer; k <= MaxOffer; k++ {
		h, o, err := ScoreUltimatum(k%2 == 0, k, Accept)
		if err != nil {
			t.Fatalf("offer %d: %v", k, err)
		}
		if h+o != UltimatumPot {
			t.Errorf("offer %d accepted: deltas sum to %d", k, h+o)
		}
		h, o, _ = ScoreUltimatum(k%2 == 0, k, Reject)
		if h != 0 || o != 0 {
			t.Errorf("offer %d rejected: expected (0, 0), got (%d, %d)", k, h, o)
		}
	}
}

func TestScoreUltimatumInvalid(t *testing.T) {
	if _, _, err := ScoreUltimatum(true, 101, Accept); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("offer 101: expected ErrIllegalMove, got %v", err)
	}
	if _, _, err := ScoreUltimatum(true, -1, Accept); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("offer -1: expected ErrIllegalMove, got %v", err)
	}
	if _, _, err := ScoreUltimatum(false, 50, Cooperate); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("response COOPERATE: expected ErrIllegalMove, got %v", err)
	}
}

func TestScoreDispatchesUltimatumByOfferSide(t *testing.T) {
	h, o, err := Score(UltimatumGame, OfferMove(30), SymbolMove(Accept))
	if err != nil || h != 70 || o != 30 {
		t.Errorf("human proposer: expected (70, 30, nil), got (%d, %d, %v)", h, o, err)
	}
	h, o, err = Score(UltimatumGame, SymbolMove(Accept), OfferMove(40))
	if err != nil || h != 40 || o != 60 {
		t.Errorf("opponent proposer: expected (40, 60, nil), got (%d, %d, %v)", h, o, err)
	}
}
