package games

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseGameType(t *testing.T) {
	for _, g := range AllGameTypes() {
		got, err := ParseGameType(strings.ToLower(g.String()))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", g, err)
			continue
		}
		if got != g {
			t.Errorf("expected %s, got %s", g, got)
		}
	}

	if _, err := ParseGameType("MATCHING_PENNIES"); !errors.Is(err, ErrUnknownGame) {
		t.Errorf("expected ErrUnknownGame, got %v", err)
	}
	if GameType(0).Valid() {
		t.Error("zero GameType should be invalid")
	}
	if UltimatumGame.Symmetric() {
		t.Error("ultimatum should not be symmetric")
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		in   string
		want Move
	}{
		{"COOPERATE", SymbolMove(Cooperate)},
		{" defect ", SymbolMove(Defect)},
		{`"Stag".`, SymbolMove(Stag)},
		{"accept", SymbolMove(Accept)},
		{"40", OfferMove(40)},
		{" 0 ", OfferMove(0)},
	}
	for _, tt := range tests {
		got, err := ParseMove(tt.in)
		if err != nil {
			t.Errorf("ParseMove(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMove(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	for _, bad := range []string{"", "betray", "forty"} {
		if _, err := ParseMove(bad); !errors.Is(err, ErrUnknownSymbol) {
			t.Errorf("ParseMove(%q): expected ErrUnknownSymbol, got %v", bad, err)
		}
	}
}

func TestMoveJSON(t *testing.T) {
	raw, err := json.Marshal([]Move{SymbolMove(Swerve), OfferMove(35), {}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `["SWERVE",35,null]` {
		t.Errorf("unexpected encoding %s", raw)
	}

	var decoded []Move
	if err := json.Unmarshal([]byte(`["rabbit", 12, "60", null]`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []Move{SymbolMove(Rabbit), OfferMove(12), OfferMove(60), {}}
	for i := range want {
		if decoded[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], decoded[i])
		}
	}

	var m Move
	if err := json.Unmarshal([]byte(`"sideways"`), &m); err == nil {
		t.Error("expected error for unknown symbol")
	}
}

func TestUltimatumRoleParity(t *testing.T) {
	for round := 1; round <= 10; round++ {
		want := RoleResponder
		if round%2 == 1 {
			want = RoleProposer
		}
		if got := UltimatumRole(round); got != want {
			t.Errorf("round %d: expected %s, got %s", round, want, got)
		}
	}
	if UltimatumRole(0) != RoleNone {
		t.Error("round 0 should have no role")
	}
}

func TestHumanAndOpponentDomains(t *testing.T) {
	for _, g := range []GameType{PrisonersDilemma, ChickenGame, StagHunt} {
		h, err := HumanDomain(g, 3)
		if err != nil {
			t.Fatalf("%s: %v", g, err)
		}
		o, _ := OpponentDomain(g, 3)
		if h.Shape != ShapeChoice || o.Shape != ShapeChoice {
			t.Errorf("%s: expected choice domains, got %s/%s", g, h.Shape, o.Shape)
		}
		a, b := Choices(g)
		if !h.Contains(SymbolMove(a)) || !h.Contains(SymbolMove(b)) {
			t.Errorf("%s: domain should contain %s and %s", g, a, b)
		}
		if h.Contains(OfferMove(10)) {
			t.Errorf("%s: domain should not contain offers", g)
		}
	}

	h1, _ := HumanDomain(UltimatumGame, 1)
	o1, _ := OpponentDomain(UltimatumGame, 1)
	if h1.Shape != ShapeOffer || o1.Shape != ShapeResponse {
		t.Errorf("round 1: expected offer/response, got %s/%s", h1.Shape, o1.Shape)
	}
	h2, _ := HumanDomain(UltimatumGame, 2)
	o2, _ := OpponentDomain(UltimatumGame, 2)
	if h2.Shape != ShapeResponse || o2.Shape != ShapeOffer {
		t.Errorf("round 2: expected response/offer, got %s/%s", h2.Shape, o2.Shape)
	}

	if !h1.Contains(OfferMove(0)) || !h1.Contains(OfferMove(100)) {
		t.Error("offer domain should include both bounds")
	}
	if err := h1.Validate(OfferMove(101)); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("offer 101: expected ErrIllegalMove, got %v", err)
	}
	if err := h2.Validate(SymbolMove(Cooperate)); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("COOPERATE as response: expected ErrIllegalMove, got %v", err)
	}

	if _, err := HumanDomain(PrisonersDilemma, 0); !errors.Is(err, ErrInvalidRound) {
		t.Errorf("round 0: expected ErrInvalidRound, got %v", err)
	}
	if _, err := OpponentDomain(GameType(9), 1); !errors.Is(err, ErrUnknownGame) {
		t.Errorf("unknown game: expected ErrUnknownGame, got %v", err)
	}
}

func TestDomainJSON(t *testing.T) {
	d, _ := HumanDomain(UltimatumGame, 1)
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"shape":"offer","minOffer":0,"maxOffer":100}` {
		t.Errorf("unexpected encoding %s", raw)
	}

	d, _ = HumanDomain(StagHunt, 1)
	raw, _ = json.Marshal(d)
	if string(raw) != `{"shape":"choice","symbols":["STAG","RABBIT"]}` {
		t.Errorf("unexpected encoding %s", raw)
	}

	var back Domain
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Shape != ShapeChoice || len(back.Symbols) != 2 || !back.Contains(SymbolMove(Rabbit)) {
		t.Errorf("unexpected decoded domain %+v", back)
	}
	if err := json.Unmarshal([]byte(`{"shape":"pyramid"}`), &back); err == nil {
		t.Error("expected unknown shape to fail")
	}
}

func TestCatalogue(t *testing.T) {
	specs := Catalogue()
	if len(specs) != 4 {
		t.Fatalf("expected 4 games, got %d", len(specs))
	}
	for _, spec := range specs {
		if spec.Name == "" || spec.Description == "" {
			t.Errorf("%s: missing name or description", spec.ID)
		}
		if spec.ID == UltimatumGame {
			if !spec.Sequential {
				t.Error("ultimatum should be sequential")
			}
			continue
		}
		if len(spec.Outcomes) != 4 {
			t.Errorf("%s: expected 4 outcomes, got %d", spec.ID, len(spec.Outcomes))
		}
		for _, out := range spec.Outcomes {
			h, o, err := Score(spec.ID, out.Human, out.Opponent)
			if err != nil {
				t.Errorf("%s: %v", spec.ID, err)
				continue
			}
			if h != out.Payoff.Human || o != out.Payoff.Opponent {
				t.Errorf("%s %s/%s: catalogue says %+v, Score says (%d, %d)", spec.ID, out.Human, out.Opponent, out.Payoff, h, o)
			}
		}
	}
}
