package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/oracle"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("store: not found")

// SQLiteDB implements Journal on SQLite.
type SQLiteDB struct {
	db *sql.DB
}

var _ Journal = (*SQLiteDB)(nil)

// NewSQLiteDB opens (or creates) the database at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps an in-memory database on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded goose migrations. It is safe to call more
// than once.
func (s *SQLiteDB) Migrate() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLiteDB) RecordMatch(ctx context.Context, m *MatchRow) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.StartedAt.IsZero() {
		m.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (id, game, persona, decider, started_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Game, m.Persona, m.Decider, m.StartedAt)
	if err != nil {
		return fmt.Errorf("record match %s: %w", m.ID, err)
	}
	return nil
}

func (s *SQLiteDB) RecordTurn(ctx context.Context, matchID string, epoch int, rec match.TurnRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO turns (
		match_id, epoch, round, human_move, opponent_move, human_delta, opponent_delta,
		reasoning, taunt, emotion, source, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		matchID, epoch, rec.Round, rec.HumanMove.String(), rec.OpponentMove.String(),
		rec.HumanDelta, rec.OpponentDelta, rec.OpponentReasoning, rec.OpponentTaunt,
		string(rec.OpponentEmotion), string(rec.Source), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record turn %s/%d/%d: %w", matchID, epoch, rec.Round, err)
	}
	return nil
}

func (s *SQLiteDB) RecordReset(ctx context.Context, matchID string) error {
	return s.updateMatch(ctx, `UPDATE matches SET resets = resets + 1 WHERE id = ?`, matchID)
}

func (s *SQLiteDB) EndMatch(ctx context.Context, matchID string, at time.Time) error {
	return s.updateMatch(ctx, `UPDATE matches SET ended_at = ? WHERE id = ? AND ended_at IS NULL`, at, matchID)
}

func (s *SQLiteDB) updateMatch(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const matchColumns = `id, game, persona, decider, started_at, ended_at, resets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*MatchRow, error) {
	var m MatchRow
	var ended sql.NullTime
	if err := row.Scan(&m.ID, &m.Game, &m.Persona, &m.Decider, &m.StartedAt, &ended, &m.Resets); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		m.EndedAt = &t
	}
	return &m, nil
}

func (s *SQLiteDB) GetMatch(ctx context.Context, id string) (*MatchRow, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// Turns returns every journaled turn of a match, oldest first.
func (s *SQLiteDB) Turns(ctx context.Context, matchID string) ([]TurnRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		epoch, round, human_move, opponent_move, human_delta, opponent_delta,
		reasoning, taunt, emotion, source, created_at
		FROM turns WHERE match_id = ? ORDER BY epoch, round`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TurnRow{}
	for rows.Next() {
		var t TurnRow
		var human, opponent, emotion, source string
		err := rows.Scan(&t.Epoch, &t.Round, &human, &opponent, &t.HumanDelta, &t.OpponentDelta,
			&t.OpponentReasoning, &t.OpponentTaunt, &emotion, &source, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if t.HumanMove, err = games.ParseMove(human); err != nil {
			return nil, fmt.Errorf("turn %d human move: %w", t.Round, err)
		}
		if t.OpponentMove, err = games.ParseMove(opponent); err != nil {
			return nil, fmt.Errorf("turn %d opponent move: %w", t.Round, err)
		}
		t.OpponentEmotion = oracle.Emotion(emotion)
		t.Source = oracle.Source(source)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListMatches retrieves matches with pagination and filtering, newest first.
func (s *SQLiteDB) ListMatches(ctx context.Context, query MatchesQuery) (*MatchesList, error) {
	whereClause := ""
	args := []any{}
	if query.Game != "" {
		whereClause = "WHERE game = ?"
		args = append(args, query.Game)
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	args = append(args, query.PerPage, offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches `+whereClause+`
		ORDER BY started_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []MatchRow{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}

	return &MatchesList{
		Matches:    matches,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}
