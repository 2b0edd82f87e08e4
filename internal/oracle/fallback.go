package oracle

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/MJE43/mindmatch/internal/games"
)

// Fallback behaviour. These are part of the opponent's observable contract
// and are asserted by tests.
const (
	FallbackAcceptThreshold = 30
	FallbackOffer           = 40
	FallbackStagChance      = 0.7
	FallbackStraightChance  = 0.5

	FallbackReasoning = "The connection is unstable, so I can only act at random."
	FallbackTaunt     = "Lucky you, I dropped off the network."
)

// Fallback is the offline decider. It never fails for a valid request and
// never touches the network.
type Fallback struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewFallback returns a fallback seeded with seed. A zero seed uses the
// current time.
func NewFallback(seed uint64) *Fallback {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Fallback{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (f *Fallback) Name() string { return string(SourceFallback) }

func (f *Fallback) Decide(_ context.Context, req Request) (Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reply := Reply{
		Reasoning: FallbackReasoning,
		Taunt:     FallbackTaunt,
		Emotion:   string(emotions[f.rng.IntN(len(emotions))]),
	}

	switch req.Game {
	case games.PrisonersDilemma:
		reply.Move = games.Defect.String()
	case games.ChickenGame:
		reply.Move = f.pick(FallbackStraightChance, games.Straight, games.Swerve)
	case games.StagHunt:
		reply.Move = f.pick(FallbackStagChance, games.Stag, games.Rabbit)
	case games.UltimatumGame:
		switch {
		case req.Propose:
			reply.Move = strconv.Itoa(FallbackOffer)
		case req.HumanMove.IsOffer() && req.HumanMove.Offer >= FallbackAcceptThreshold:
			reply.Move = games.Accept.String()
		default:
			reply.Move = games.Reject.String()
		}
	}
	return reply, nil
}

func (f *Fallback) pick(chance float64, first, second games.Symbol) string {
	if f.rng.Float64() < chance {
		return first.String()
	}
	return second.String()
}
