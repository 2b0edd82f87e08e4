package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/lobby"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/persona"
	"github.com/MJE43/mindmatch/internal/store"
)

const maxBodyBytes = 1 << 16

// GET /api/v1/games
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GamesResponse{Games: games.Catalogue(), Version: Version})
}

// GET /api/v1/personas
func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, PersonasResponse{Personas: persona.Catalogue(), Version: Version})
}

// POST /api/v1/matches
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		if errors.Is(err, games.ErrUnknownGame) || errors.Is(err, persona.ErrUnknownPersona) {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	if !req.Game.Valid() {
		s.errorHandler.HandleValidationError(w, r, "game", "game is required")
		return
	}
	if !req.Persona.Valid() {
		s.errorHandler.HandleValidationError(w, r, "persona", "persona is required")
		return
	}

	sess, err := s.lobby.Create(req.Game, req.Persona)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/matches/"+sess.ID)
	s.writeJSON(w, http.StatusCreated, project(sess.Snapshot()))
}

// GET /api/v1/matches/{id}
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, project(sess.Snapshot()))
}

// DELETE /api/v1/matches/{id}
func (s *Server) handleEndMatch(w http.ResponseWriter, r *http.Request) {
	if err := s.lobby.End(chi.URLParam(r, "id")); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/matches/{id}/turns
func (s *Server) handleSubmitTurn(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req TurnRequest
	if err := decodeBody(w, r, &req); err != nil {
		if errors.Is(err, games.ErrUnknownSymbol) {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		s.errorHandler.HandleValidationError(w, r, "move", err.Error())
		return
	}
	if req.Move.IsZero() {
		s.errorHandler.HandleValidationError(w, r, "move", "move is required")
		return
	}

	rec, err := sess.Submit(r.Context(), req.Move)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.logger.Debug("turn played",
		zap.String("match", sess.ID),
		zap.Int("round", rec.Round),
		zap.Stringer("human", rec.HumanMove),
		zap.Stringer("opponent", rec.OpponentMove),
		zap.String("source", string(rec.Source)))
	s.writeJSON(w, http.StatusOK, TurnResponse{Turn: rec, Match: project(sess.Snapshot())})
}

// POST /api/v1/matches/{id}/proposal
func (s *Server) handleRequestProposal(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	offer, err := sess.RequestProposal(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ProposalResponse{Offer: offer, Match: project(sess.Snapshot())})
}

// POST /api/v1/matches/{id}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Reset(); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, project(sess.Snapshot()))
}

// GET /api/v1/matches/{id}/series
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	s.writeJSON(w, http.StatusOK, SeriesResponse{MatchID: snap.ID, Series: match.Series(snap.State.History)})
}

// GET /api/v1/matches/{id}/journal
func (s *Server) handleMatchJournal(w http.ResponseWriter, r *http.Request) {
	journal := s.lobby.Journal()
	if journal == nil {
		s.errorHandler.HandleUnavailable(w, r, "journal")
		return
	}
	id := chi.URLParam(r, "id")
	row, err := journal.GetMatch(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	turns, err := journal.Turns(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, JournalResponse{Match: row, Turns: turns})
}

// GET /api/v1/journal?game=&page=&perPage=
func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	journal := s.lobby.Journal()
	if journal == nil {
		s.errorHandler.HandleUnavailable(w, r, "journal")
		return
	}
	q := store.MatchesQuery{
		Page:    clampInt(qInt(r, "page", 1), 1, 1_000_000),
		PerPage: clampInt(qInt(r, "perPage", 50), 1, 500),
	}
	if g := r.URL.Query().Get("game"); g != "" {
		game, err := games.ParseGameType(g)
		if err != nil {
			s.errorHandler.HandleValidationError(w, r, "game", err.Error())
			return
		}
		q.Game = game.String()
	}
	list, err := journal.ListMatches(r.Context(), q)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*lobby.Session, bool) {
	sess, err := s.lobby.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return sess, true
}

// project builds the client view of a snapshot.
func project(snap lobby.Snapshot) MatchResponse {
	st := snap.State
	resp := MatchResponse{
		ID:               snap.ID,
		Generation:       snap.Generation,
		State:            st,
		AwaitingProposal: st.AwaitingProposal(),
		Summary:          match.Summarize(st),
	}
	if st.GameType == games.UltimatumGame {
		resp.HumanRole = games.UltimatumRole(st.Round)
	}
	if st.Active {
		if d, err := st.HumanDomain(); err == nil {
			resp.Domain = &d
		}
	}
	if last, ok := st.LastTurn(); ok {
		resp.LastTurn = &last
	}
	return resp
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func qInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
