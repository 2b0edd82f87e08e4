package lobby

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/match"
)

const subscriberBuffer = 16

// EventType names what happened to a match.
type EventType string

const (
	EventTurn     EventType = "turn"
	EventProposal EventType = "proposal"
	EventReset    EventType = "reset"
	EventEnded    EventType = "ended"
)

// Event is pushed to subscribers after every committed change.
type Event struct {
	Type    EventType         `json:"type"`
	MatchID string            `json:"matchId"`
	Round   int               `json:"round"`
	Turn    *match.TurnRecord `json:"turn,omitempty"`
	Offer   *int              `json:"offer,omitempty"`
	Human   int               `json:"humanTotal"`
	Opp     int               `json:"opponentTotal"`
}

// Session is one live match. The oracle call runs on a private copy of the
// state while the shared state is marked busy; the result is committed only
// if no reset happened in the meantime.
type Session struct {
	ID        string
	CreatedAt time.Time

	lobby *Lobby

	mu         sync.Mutex
	state      *match.State
	generation int
	lastActive time.Time
	closed     bool
	subs       map[int]chan Event
	nextSub    int
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	ID         string
	Generation int
	LastActive time.Time
	State      *match.State
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{ID: s.ID, Generation: s.generation, LastActive: s.lastActive, State: s.state.Clone()}
}

// begin marks the shared state busy and hands out a private copy to work on.
func (s *Session) begin() (*match.State, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrSessionClosed
	}
	if s.state.OracleBusy {
		return nil, 0, match.ErrOracleBusy
	}
	work := s.state.Clone()
	s.state.OracleBusy = true
	s.lastActive = s.lobby.now()
	return work, s.generation, nil
}

// oracleContext detaches from the caller so a dropped request cannot abort
// a turn half way, and bounds the call by the configured timeout.
func (s *Session) oracleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.lobby.cfg.OracleTimeout)
}

// Submit plays the human's move.
func (s *Session) Submit(ctx context.Context, move games.Move) (match.TurnRecord, error) {
	work, gen, err := s.begin()
	if err != nil {
		return match.TurnRecord{}, err
	}

	octx, cancel := s.oracleContext(ctx)
	rec, err := s.lobby.engine.SubmitTurn(octx, work, move)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed {
		return match.TurnRecord{}, ErrSuperseded
	}
	s.state.OracleBusy = false
	if err != nil {
		return match.TurnRecord{}, err
	}
	s.state = work
	s.lastActive = s.lobby.now()

	s.lobby.journalTurn(s.ID, gen, rec)
	s.publishLocked(Event{Type: EventTurn, Turn: &rec})
	return rec, nil
}

// RequestProposal asks the opponent for its Ultimatum offer.
func (s *Session) RequestProposal(ctx context.Context) (int, error) {
	work, gen, err := s.begin()
	if err != nil {
		return 0, err
	}

	octx, cancel := s.oracleContext(ctx)
	offer, err := s.lobby.engine.RequestOpponentProposal(octx, work)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.closed {
		return 0, ErrSuperseded
	}
	s.state.OracleBusy = false
	if err != nil {
		return 0, err
	}
	s.state = work
	s.lastActive = s.lobby.now()

	s.publishLocked(Event{Type: EventProposal, Offer: &offer})
	return offer, nil
}

// Reset restarts the match. A turn still in flight is discarded when it
// returns.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lobby.engine.Reset(s.state)
	s.generation++
	s.lastActive = s.lobby.now()

	s.lobby.journalReset(s.ID)
	s.publishLocked(Event{Type: EventReset})
	return nil
}

// Subscribe returns a channel of events and a function to stop receiving
// them. The channel is closed when the session ends. Slow subscribers miss
// events rather than block the match.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) publishLocked(ev Event) {
	ev.MatchID = s.ID
	ev.Round = s.state.Round
	ev.Human = s.state.HumanTotal
	ev.Opp = s.state.OpponentTotal
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.lobby.logger.Warn("dropping event for slow subscriber",
				zap.String("match", s.ID), zap.Int("subscriber", id), zap.String("event", string(ev.Type)))
		}
	}
}

// close ends the session. It reports whether this call closed it.
func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.state.Active = false
	s.publishLocked(Event{Type: EventEnded})
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	return true
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.OracleBusy && s.lastActive.Before(cutoff)
}
