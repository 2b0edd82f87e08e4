package games

// Outcome is one cell of a game's payoff matrix, labelled for display.
type Outcome struct {
	Human    Move   `json:"human"`
	Opponent Move   `json:"opponent"`
	Payoff   Payoff `json:"payoff"`
	Label    string `json:"label"`
}

// GameSpec describes a game for selection screens and rule dialogs.
type GameSpec struct {
	ID          GameType  `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Moves       []string  `json:"moves"`
	Outcomes    []Outcome `json:"outcomes"`
	Sequential  bool      `json:"sequential"`
}

type specText struct {
	name        string
	description string
	labels      [2][2]string
}

var specTexts = map[GameType]specText{
	PrisonersDilemma: {
		name:        "Prisoner's Dilemma",
		description: "Two suspects are questioned separately. Each is tempted to betray the other, yet mutual betrayal leaves both worse off than mutual silence.",
		labels:      [2][2]string{{"mutual gain", "you were sold out"}, {"you sold them out", "mutual loss"}},
	},
	ChickenGame: {
		name:        "Chicken",
		description: "Two drivers speed toward each other. Whoever swerves first is the chicken; if neither swerves, both crash.",
		labels:      [2][2]string{{"head-on crash", "you win"}, {"you flinched", "draw"}},
	},
	StagHunt: {
		name:        "Stag Hunt",
		description: "Hunting a stag pays well but needs both hunters. A rabbit can be caught alone for a smaller meal, leaving a lone stag hunter empty-handed.",
		labels:      [2][2]string{{"feast", "you go hungry"}, {"you eat alone", "subsistence"}},
	},
	UltimatumGame: {
		name:        "Ultimatum Game",
		description: "A fairness experiment. The proposer decides how to split 100 points and the responder accepts or rejects. A rejection destroys the pot.",
	},
}

// Spec returns the display metadata of a game. Payoffs are read from the
// same table Score uses so the two cannot drift apart.
func Spec(game GameType) GameSpec {
	text := specTexts[game]
	spec := GameSpec{
		ID:          game,
		Name:        text.name,
		Description: text.description,
		Sequential:  game == UltimatumGame,
	}
	if game == UltimatumGame {
		spec.Moves = []string{"OFFER", Accept.String(), Reject.String()}
		spec.Outcomes = []Outcome{
			{Human: OfferMove(40), Opponent: SymbolMove(Accept), Payoff: Payoff{UltimatumPot - 40, 40}, Label: "deal: proposer keeps the rest"},
			{Human: OfferMove(40), Opponent: SymbolMove(Reject), Payoff: Payoff{0, 0}, Label: "no deal"},
		}
		return spec
	}
	m, ok := payoffTables[game]
	if !ok {
		return spec
	}
	spec.Moves = []string{m.moves[0].String(), m.moves[1].String()}
	for hi, h := range m.moves {
		for oi, o := range m.moves {
			spec.Outcomes = append(spec.Outcomes, Outcome{
				Human:    SymbolMove(h),
				Opponent: SymbolMove(o),
				Payoff:   m.cells[hi][oi],
				Label:    text.labels[hi][oi],
			})
		}
	}
	return spec
}

// Catalogue returns the specs of every game in presentation order.
func Catalogue() []GameSpec {
	out := make([]GameSpec, 0, len(gameTypeNames))
	for _, g := range AllGameTypes() {
		out = append(out, Spec(g))
	}
	return out
}
