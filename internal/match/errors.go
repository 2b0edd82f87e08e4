package match

import "errors"

var (
	ErrOracleBusy        = errors.New("match: opponent is still deciding")
	ErrMatchInactive     = errors.New("match: not started")
	ErrNoPendingProposal = errors.New("match: no opponent offer to respond to")
	ErrNotProposalRound  = errors.New("match: opponent does not propose this round")
	ErrInvariant         = errors.New("match: state invariant violated")
)
