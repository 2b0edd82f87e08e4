// Package oracle decides the opponent's moves. A Decider produces a raw
// reply; the Oracle checks it against the game rules and substitutes the
// offline fallback whenever the configured decider fails, so callers always
// receive a legal, well-formed Proposal.
package oracle

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"
	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/games"
)

// Offer used when a proposer reply cannot be read as an integer in range.
const DefaultPrimaryOffer = 50

// Decider is one source of opponent moves.
type Decider interface {
	Decide(ctx context.Context, req Request) (Reply, error)
	// Name identifies the decider in logs and turn records.
	Name() string
}

// Oracle wraps a primary decider with the offline fallback.
type Oracle struct {
	primary  Decider
	fallback *Fallback
	logger   *zap.Logger
}

// New returns an oracle. primary may be nil, in which case every decision
// comes from fallback.
func New(primary Decider, fallback *Fallback, logger *zap.Logger) *Oracle {
	if fallback == nil {
		fallback = NewFallback(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{primary: primary, fallback: fallback, logger: logger}
}

// Primary returns the name of the configured decider.
func (o *Oracle) Primary() string {
	if o.primary == nil {
		return o.fallback.Name()
	}
	return o.primary.Name()
}

// ProposeMove never fails. Any error or panic in the primary decider is
// logged and answered by the fallback.
func (o *Oracle) ProposeMove(ctx context.Context, req Request) Proposal {
	req.History = Window(req.History)

	if o.primary != nil {
		p, err := o.consult(ctx, o.primary, req, DefaultPrimaryOffer)
		if err == nil {
			return p
		}
		o.logger.Warn("decider failed, using fallback",
			zap.String("decider", o.primary.Name()),
			zap.Stringer("game", req.Game),
			zap.Int("round", req.Round),
			zap.Error(err))
	}

	p, err := o.consult(ctx, o.fallback, req, FallbackOffer)
	if err != nil {
		o.logger.Error("fallback produced no legal move",
			zap.Stringer("game", req.Game),
			zap.Int("round", req.Round),
			zap.Error(err))
		return Proposal{Reasoning: FallbackReasoning, Taunt: FallbackTaunt, Emotion: Neutral, Source: SourceFallback}
	}
	return p
}

func (o *Oracle) consult(ctx context.Context, d Decider, req Request, defaultOffer int) (p Proposal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decider %s panicked: %v", d.Name(), r)
		}
	}()

	reply, err := d.Decide(ctx, req)
	if err != nil {
		return Proposal{}, err
	}
	p, err = finalize(req, reply, defaultOffer)
	if err != nil {
		return Proposal{}, err
	}
	p.Source = Source(d.Name())

	o.logger.Debug("opponent decided",
		zap.String("decider", d.Name()),
		zap.Stringer("game", req.Game),
		zap.Int("round", req.Round),
		zap.Stringer("move", p.Move),
		zap.String("reasoning", stripansi.Strip(p.Reasoning)))
	return p, nil
}

// finalize checks a raw reply against the opponent's legal domain. Offers
// that cannot be read fall back to defaultOffer; anything else illegal is a
// SchemaError.
func finalize(req Request, reply Reply, defaultOffer int) (Proposal, error) {
	domain, err := games.OpponentDomain(req.Game, req.Round)
	if err != nil {
		return Proposal{}, err
	}
	if strings.TrimSpace(reply.Move) == "" {
		return Proposal{}, &SchemaError{Field: "move", Reason: "missing"}
	}
	if strings.TrimSpace(reply.Reasoning) == "" {
		return Proposal{}, &SchemaError{Field: "reasoning", Reason: "missing"}
	}
	emotion, err := ParseEmotion(reply.Emotion)
	if err != nil {
		return Proposal{}, &SchemaError{Field: "emotion", Reason: err.Error()}
	}

	var move games.Move
	if domain.Shape == games.ShapeOffer {
		move = games.OfferMove(ParseOffer(reply.Move, defaultOffer))
	} else {
		move, err = games.ParseMove(reply.Move)
		if err != nil {
			return Proposal{}, &SchemaError{Field: "move", Reason: err.Error()}
		}
		if err := domain.Validate(move); err != nil {
			return Proposal{}, &SchemaError{Field: "move", Reason: err.Error()}
		}
	}

	return Proposal{
		Move:      move,
		Reasoning: strings.TrimSpace(reply.Reasoning),
		Taunt:     strings.TrimSpace(reply.Taunt),
		Emotion:   emotion,
	}, nil
}

// ParseOffer reads the leading integer of s, so "40 points" is 40. A missing
// or out-of-range number yields def.
func ParseOffer(s string, def int) int {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < games.MinOffer || n > games.MaxOffer {
		return def
	}
	return n
}
