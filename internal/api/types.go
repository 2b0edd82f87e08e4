package api

import (
	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/persona"
	"github.com/MJE43/mindmatch/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

func (e EngineError) Error() string {
	return e.Message
}

// Error types
const (
	// Input validation errors
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"
	ErrTypeIllegalMove   = "illegal_move"

	// Match state errors
	ErrTypeMatchNotFound = "match_not_found"
	ErrTypeOracleBusy    = "oracle_busy"
	ErrTypeWrongPhase    = "wrong_phase"
	ErrTypeMatchInactive = "match_inactive"
	ErrTypeSuperseded    = "superseded"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory groups error types for logging.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryMatch      ErrorCategory = "match"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeValidation, ErrTypeIllegalMove:
		return CategoryValidation
	case ErrTypeMatchNotFound, ErrTypeOracleBusy, ErrTypeWrongPhase, ErrTypeMatchInactive, ErrTypeSuperseded:
		return CategoryMatch
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

type GamesResponse struct {
	Games   []games.GameSpec `json:"games"`
	Version string           `json:"version"`
}

type PersonasResponse struct {
	Personas []persona.Profile `json:"personas"`
	Version  string            `json:"version"`
}

// CreateMatchRequest starts a match. Game and persona use their wire names,
// e.g. PRISONERS_DILEMMA and MIRROR.
type CreateMatchRequest struct {
	Game    games.GameType  `json:"game"`
	Persona persona.Persona `json:"persona"`
}

// TurnRequest carries the human's move: a symbol name or an integer offer.
type TurnRequest struct {
	Move games.Move `json:"move"`
}

// MatchResponse is the read-only projection of a live match.
type MatchResponse struct {
	ID         string `json:"id"`
	Generation int    `json:"generation"`
	*match.State
	HumanRole        games.Role        `json:"humanRole,omitempty"`
	Domain           *games.Domain     `json:"domain,omitempty"`
	AwaitingProposal bool              `json:"awaitingProposal"`
	LastTurn         *match.TurnRecord `json:"lastTurn,omitempty"`
	Summary          match.Summary     `json:"summary"`
}

type TurnResponse struct {
	Turn  match.TurnRecord `json:"turn"`
	Match MatchResponse    `json:"match"`
}

type ProposalResponse struct {
	Offer int           `json:"offer"`
	Match MatchResponse `json:"match"`
}

type SeriesResponse struct {
	MatchID string              `json:"matchId"`
	Series  []match.SeriesPoint `json:"series"`
}

type JournalResponse struct {
	Match *store.MatchRow `json:"match"`
	Turns []store.TurnRow `json:"turns"`
}
