package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/oracle"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestMigrationIdempotency(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 2; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("migrate again (%d): %v", i, err)
		}
	}
	if err := db.RecordMatch(context.Background(), &MatchRow{ID: "m1", Game: "STAG_HUNT", Persona: "MIRROR"}); err != nil {
		t.Fatalf("RecordMatch after repeated migrations: %v", err)
	}
}

func TestJournalRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	m := &MatchRow{Game: games.UltimatumGame.String(), Persona: "RATIONAL", Decider: "genai", StartedAt: start}
	if err := db.RecordMatch(ctx, m); err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected generated ID")
	}

	recs := []match.TurnRecord{
		{Round: 1, HumanMove: games.OfferMove(30), OpponentMove: games.SymbolMove(games.Accept), HumanDelta: 70, OpponentDelta: 30,
			OpponentReasoning: "fine", OpponentEmotion: oracle.Neutral, Source: oracle.SourceGenAI, CreatedAt: start.Add(time.Second)},
		{Round: 2, HumanMove: games.SymbolMove(games.Reject), OpponentMove: games.OfferMove(10), OpponentReasoning: "greedy",
			OpponentTaunt: "take it", OpponentEmotion: oracle.Smug, Source: oracle.SourceFallback, CreatedAt: start.Add(2 * time.Second)},
	}
	for _, r := range recs {
		if err := db.RecordTurn(ctx, m.ID, 0, r); err != nil {
			t.Fatalf("RecordTurn: %v", err)
		}
	}
	if err := db.RecordReset(ctx, m.ID); err != nil {
		t.Fatalf("RecordReset: %v", err)
	}
	if err := db.RecordTurn(ctx, m.ID, 1, recs[0]); err != nil {
		t.Fatalf("RecordTurn after reset: %v", err)
	}
	if err := db.RecordTurn(ctx, m.ID, 1, recs[0]); err == nil {
		t.Error("expected duplicate round in the same epoch to fail")
	}

	turns, err := db.Turns(ctx, m.ID)
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	got := turns[1]
	if got.Epoch != 0 || got.Round != 2 || got.HumanMove != games.SymbolMove(games.Reject) || got.OpponentMove != games.OfferMove(10) {
		t.Errorf("unexpected turn %+v", got)
	}
	if got.OpponentTaunt != "take it" || got.OpponentEmotion != oracle.Smug || got.Source != oracle.SourceFallback {
		t.Errorf("unexpected commentary %+v", got)
	}
	if !got.CreatedAt.Equal(recs[1].CreatedAt) {
		t.Errorf("expected %v, got %v", recs[1].CreatedAt, got.CreatedAt)
	}
	if turns[2].Epoch != 1 {
		t.Errorf("expected epoch 1, got %d", turns[2].Epoch)
	}

	end := start.Add(time.Hour)
	if err := db.EndMatch(ctx, m.ID, end); err != nil {
		t.Fatalf("EndMatch: %v", err)
	}
	row, err := db.GetMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if row.Resets != 1 || row.EndedAt == nil || !row.EndedAt.Equal(end) || row.Decider != "genai" {
		t.Errorf("unexpected match row %+v", row)
	}
	if err := db.EndMatch(ctx, m.ID, end); !errors.Is(err, ErrNotFound) {
		t.Errorf("ending twice: expected ErrNotFound, got %v", err)
	}
}

func TestUnknownMatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if _, err := db.GetMatch(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.RecordReset(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.RecordTurn(ctx, "nope", 0, match.TurnRecord{Round: 1, HumanMove: games.SymbolMove(games.Stag), OpponentMove: games.SymbolMove(games.Stag)}); err == nil {
		t.Error("expected foreign key failure for unknown match")
	}
	turns, err := db.Turns(ctx, "nope")
	if err != nil || len(turns) != 0 {
		t.Errorf("expected no turns, got %v, %v", turns, err)
	}
}

func TestListMatches(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, g := range []string{"PRISONERS_DILEMMA", "STAG_HUNT", "PRISONERS_DILEMMA", "CHICKEN_GAME", "PRISONERS_DILEMMA"} {
		m := &MatchRow{Game: g, Persona: "MIRROR", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := db.RecordMatch(ctx, m); err != nil {
			t.Fatalf("RecordMatch: %v", err)
		}
	}

	all, err := db.ListMatches(ctx, MatchesQuery{})
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if all.TotalCount != 5 || len(all.Matches) != 5 || all.Page != 1 || all.PerPage != 50 {
		t.Errorf("unexpected list %+v", all)
	}
	if all.Matches[0].Game != "PRISONERS_DILEMMA" || !all.Matches[0].StartedAt.Equal(base.Add(4*time.Minute)) {
		t.Errorf("expected newest first, got %+v", all.Matches[0])
	}

	pd, err := db.ListMatches(ctx, MatchesQuery{Game: "PRISONERS_DILEMMA", Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if pd.TotalCount != 3 || pd.TotalPages != 2 || len(pd.Matches) != 1 {
		t.Errorf("unexpected filtered page %+v", pd)
	}
}
