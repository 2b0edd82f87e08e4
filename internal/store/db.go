// Package store keeps an append-only SQLite journal of matches and their
// turns. The journal is an audit trail; matches are never restored from it.
package store

import (
	"context"
	"time"

	"github.com/MJE43/mindmatch/internal/match"
)

// Journal is the write-mostly audit interface the lobby records into.
type Journal interface {
	Close() error
	Migrate() error
	RecordMatch(ctx context.Context, m *MatchRow) error
	RecordTurn(ctx context.Context, matchID string, epoch int, rec match.TurnRecord) error
	RecordReset(ctx context.Context, matchID string) error
	EndMatch(ctx context.Context, matchID string, at time.Time) error
	GetMatch(ctx context.Context, id string) (*MatchRow, error)
	Turns(ctx context.Context, matchID string) ([]TurnRow, error)
	ListMatches(ctx context.Context, q MatchesQuery) (*MatchesList, error)
}

// MatchRow is one journaled match.
type MatchRow struct {
	ID        string     `json:"id"`
	Game      string     `json:"game"`
	Persona   string     `json:"persona"`
	Decider   string     `json:"decider"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Resets    int        `json:"resets"`
}

// TurnRow is a journaled turn. Epoch counts resets, so rounds restart at 1
// in each epoch.
type TurnRow struct {
	Epoch int `json:"epoch"`
	match.TurnRecord
}

// MatchesQuery represents query parameters for listing matches.
type MatchesQuery struct {
	Game    string `json:"game,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// MatchesList represents a paginated matches response.
type MatchesList struct {
	Matches    []MatchRow `json:"matches"`
	TotalCount int        `json:"totalCount"`
	Page       int        `json:"page"`
	PerPage    int        `json:"perPage"`
	TotalPages int        `json:"totalPages"`
}
