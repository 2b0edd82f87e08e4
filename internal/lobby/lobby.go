// Package lobby keeps the live matches of the HTTP service, keyed by UUID,
// and journals what happens to them.
package lobby

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/persona"
	"github.com/MJE43/mindmatch/internal/store"
)

var (
	ErrNotFound      = errors.New("lobby: match not found")
	ErrSessionClosed = errors.New("lobby: match has ended")
	ErrSuperseded    = errors.New("lobby: match was reset while the opponent was deciding")
)

const journalTimeout = 5 * time.Second

type Config struct {
	OracleTimeout time.Duration
	IdleTTL       time.Duration
	// Decider is recorded in the journal for every new match.
	Decider string
}

// Lobby is the registry of live sessions.
type Lobby struct {
	cfg     Config
	engine  *match.Engine
	journal store.Journal
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	sessions  map[string]*Session
	scheduler gocron.Scheduler
}

// New returns a lobby. journal may be nil to disable journaling.
func New(cfg Config, engine *match.Engine, journal store.Journal, logger *zap.Logger) *Lobby {
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 30 * time.Second
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lobby{
		cfg:      cfg,
		engine:   engine,
		journal:  journal,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Journal returns the configured journal, or nil.
func (l *Lobby) Journal() store.Journal { return l.journal }

// Create starts a new match.
func (l *Lobby) Create(game games.GameType, p persona.Persona) (*Session, error) {
	st, err := match.NewState(game, p)
	if err != nil {
		return nil, err
	}
	now := l.now()
	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		lobby:      l,
		state:      st,
		lastActive: now,
		subs:       make(map[int]chan Event),
	}

	l.mu.Lock()
	l.sessions[s.ID] = s
	l.mu.Unlock()

	if l.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()
		row := &store.MatchRow{ID: s.ID, Game: game.String(), Persona: p.String(), Decider: l.cfg.Decider, StartedAt: now.UTC()}
		if err := l.journal.RecordMatch(ctx, row); err != nil {
			l.logger.Error("journal match failed", zap.String("match", s.ID), zap.Error(err))
		}
	}
	l.logger.Info("match created", zap.String("match", s.ID), zap.Stringer("game", game), zap.Stringer("persona", p))
	return s, nil
}

func (l *Lobby) Get(id string) (*Session, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Len returns the number of live sessions.
func (l *Lobby) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sessions)
}

// End removes a match and closes its event streams.
func (l *Lobby) End(id string) error {
	l.mu.Lock()
	s, ok := l.sessions[id]
	delete(l.sessions, id)
	l.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	l.finish(s, "ended")
	return nil
}

func (l *Lobby) finish(s *Session, reason string) {
	if !s.close() {
		return
	}
	if l.journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()
		if err := l.journal.EndMatch(ctx, s.ID, l.now().UTC()); err != nil {
			l.logger.Error("journal end failed", zap.String("match", s.ID), zap.Error(err))
		}
	}
	l.logger.Info("match closed", zap.String("match", s.ID), zap.String("reason", reason))
}

// Reap closes every session idle for longer than the idle TTL and returns
// how many it removed. Sessions waiting on the opponent are never reaped.
func (l *Lobby) Reap() int {
	cutoff := l.now().Add(-l.cfg.IdleTTL)

	l.mu.Lock()
	var idle []*Session
	for id, s := range l.sessions {
		if s.idleSince(cutoff) {
			idle = append(idle, s)
			delete(l.sessions, id)
		}
	}
	l.mu.Unlock()

	for _, s := range idle {
		l.finish(s, "idle")
	}
	return len(idle)
}

// StartReaper runs Reap every interval until Close.
func (l *Lobby) StartReaper(interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := l.Reap(); n > 0 {
				l.logger.Info("reaped idle matches", zap.Int("count", n), zap.Int("live", l.Len()))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}
	sched.Start()

	l.mu.Lock()
	l.scheduler = sched
	l.mu.Unlock()
	return nil
}

// Close stops the reaper, ends every match and closes the journal.
func (l *Lobby) Close() error {
	l.mu.Lock()
	sched := l.scheduler
	l.scheduler = nil
	sessions := make([]*Session, 0, len(l.sessions))
	for id, s := range l.sessions {
		sessions = append(sessions, s)
		delete(l.sessions, id)
	}
	l.mu.Unlock()

	var err error
	if sched != nil {
		err = multierr.Append(err, sched.Shutdown())
	}
	for _, s := range sessions {
		l.finish(s, "shutdown")
	}
	if l.journal != nil {
		err = multierr.Append(err, l.journal.Close())
	}
	return err
}

func (l *Lobby) journalTurn(id string, epoch int, rec match.TurnRecord) {
	if l.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := l.journal.RecordTurn(ctx, id, epoch, rec); err != nil {
		l.logger.Error("journal turn failed", zap.String("match", id), zap.Int("round", rec.Round), zap.Error(err))
	}
}

func (l *Lobby) journalReset(id string) {
	if l.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := l.journal.RecordReset(ctx, id); err != nil {
		l.logger.Error("journal reset failed", zap.String("match", id), zap.Error(err))
	}
}
