package games

import "errors"

var (
	ErrUnknownGame   = errors.New("unknown game type")
	ErrUnknownSymbol = errors.New("unknown move symbol")
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidRound  = errors.New("round must be >= 1")
)
