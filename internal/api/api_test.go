package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/lobby"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/oracle"
	"github.com/MJE43/mindmatch/internal/persona"
	"github.com/MJE43/mindmatch/internal/store"
)

// firstChoice always plays the game's first option, offers 25 and accepts.
type firstChoice struct{}

func (firstChoice) ProposeMove(_ context.Context, req oracle.Request) oracle.Proposal {
	var mv games.Move
	switch {
	case req.Propose:
		mv = games.OfferMove(25)
	case req.Game == games.UltimatumGame:
		mv = games.SymbolMove(games.Accept)
	default:
		first, _ := games.Choices(req.Game)
		mv = games.SymbolMove(first)
	}
	return oracle.Proposal{Move: mv, Reasoning: "plain", Taunt: "again?", Emotion: oracle.Smug, Source: oracle.SourceScript}
}

func newTestServer(t *testing.T, journal store.Journal) (*Server, *lobby.Lobby) {
	t.Helper()
	lb := lobby.New(lobby.Config{OracleTimeout: time.Second, Decider: "script"}, match.NewEngine(firstChoice{}), journal, nil)
	t.Cleanup(func() { lb.Close() })
	return NewServer(lb, nil), lb
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func createMatch(t *testing.T, h http.Handler, game, persona string) MatchResponse {
	t.Helper()
	w := do(t, h, "POST", "/api/v1/matches", `{"game":"`+game+`","persona":"`+persona+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[MatchResponse](t, w)
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, errType string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
	e := decode[EngineError](t, w)
	if e.Type != errType {
		t.Errorf("expected error type %q, got %q (%s)", errType, e.Type, e.Message)
	}
	if w.Header().Get("X-Error-Type") != errType {
		t.Errorf("expected X-Error-Type %q, got %q", errType, w.Header().Get("X-Error-Type"))
	}
}

func TestHealthEndpoints(t *testing.T) {
	server, _ := newTestServer(t, nil)
	h := server.Routes()

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/version"} {
		w := do(t, h, "GET", path, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}

	health := decode[HealthCheckResponse](t, do(t, h, "GET", "/health", ""))
	if health.Status != HealthStatusHealthy || len(health.Checks) != 3 {
		t.Errorf("unexpected health %+v", health)
	}
	if health.Checks["journal"].Message != "Journal disabled" {
		t.Errorf("unexpected journal check %+v", health.Checks["journal"])
	}
}

func TestCatalogueEndpoints(t *testing.T) {
	server, _ := newTestServer(t, nil)
	h := server.Routes()

	gs := decode[GamesResponse](t, do(t, h, "GET", "/api/v1/games", ""))
	if len(gs.Games) != 4 || gs.Version == "" {
		t.Errorf("unexpected games response %+v", gs)
	}

	w := do(t, h, "GET", "/api/v1/personas", "")
	var raw struct {
		Personas []map[string]any `json:"personas"`
	}
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("decode personas: %v", err)
	}
	if len(raw.Personas) != 5 {
		t.Fatalf("expected 5 personas, got %d", len(raw.Personas))
	}
	if raw.Personas[0]["id"] != "RATIONAL" {
		t.Errorf("unexpected first persona %v", raw.Personas[0])
	}
}

func TestSymmetricMatchFlow(t *testing.T) {
	server, _ := newTestServer(t, nil)
	h := server.Routes()

	m := createMatch(t, h, "PRISONERS_DILEMMA", "MIRROR")
	if m.ID == "" || m.State == nil || !m.Active || m.Round != 1 || m.Domain == nil {
		t.Fatalf("unexpected match %+v", m)
	}
	if m.HumanRole != games.RoleNone {
		t.Errorf("symmetric match should have no role, got %v", m.HumanRole)
	}

	w := do(t, h, "POST", "/api/v1/matches/"+m.ID+"/turns", `{"move":"DEFECT"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("turn: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	tr := decode[TurnResponse](t, w)
	if tr.Turn.HumanDelta != 5 || tr.Turn.OpponentDelta != 0 || tr.Turn.OpponentTaunt != "again?" {
		t.Errorf("unexpected turn %+v", tr.Turn)
	}
	if tr.Match.Round != 2 || tr.Match.HumanTotal != 5 || tr.Match.LastTurn == nil || tr.Match.Summary.Rounds != 1 {
		t.Errorf("unexpected match after turn %+v", tr.Match)
	}

	do(t, h, "POST", "/api/v1/matches/"+m.ID+"/turns", `{"move":"cooperate"}`)
	series := decode[SeriesResponse](t, do(t, h, "GET", "/api/v1/matches/"+m.ID+"/series", ""))
	if len(series.Series) != 2 || series.Series[1].HumanTotal != 8 || series.Series[1].OpponentTotal != 3 {
		t.Errorf("unexpected series %+v", series)
	}

	reset := decode[MatchResponse](t, do(t, h, "POST", "/api/v1/matches/"+m.ID+"/reset", ""))
	if reset.Round != 1 || reset.HumanTotal != 0 || reset.Generation != 1 || len(reset.History) != 0 {
		t.Errorf("unexpected match after reset %+v", reset)
	}

	if w := do(t, h, "DELETE", "/api/v1/matches/"+m.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", w.Code)
	}
	expectError(t, do(t, h, "GET", "/api/v1/matches/"+m.ID, ""), http.StatusNotFound, ErrTypeMatchNotFound)
}

func TestUltimatumFlow(t *testing.T) {
	server, _ := newTestServer(t, nil)
	h := server.Routes()
	m := createMatch(t, h, "ULTIMATUM_GAME", "RATIONAL")
	if m.HumanRole != games.RoleProposer || m.Domain == nil || m.Domain.Shape != games.ShapeOffer {
		t.Fatalf("unexpected opening %+v", m)
	}

	expectError(t, do(t, h, "POST", "/api/v1/matches/"+m.ID+"/proposal", ""), http.StatusConflict, ErrTypeWrongPhase)

	w := do(t, h, "POST", "/api/v1/matches/"+m.ID+"/turns", `{"move":30}`)
	if w.Code != http.StatusOK {
		t.Fatalf("offer: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if tr := decode[TurnResponse](t, w); tr.Turn.HumanDelta != 70 || tr.Turn.OpponentDelta != 30 {
		t.Errorf("unexpected payoff %+v", tr.Turn)
	}

	expectError(t, do(t, h, "POST", "/api/v1/matches/"+m.ID+"/turns", `{"move":"ACCEPT"}`), http.StatusConflict, ErrTypeWrongPhase)

	pr := decode[ProposalResponse](t, do(t, h, "POST", "/api/v1/matches/"+m.ID+"/proposal", ""))
	if pr.Offer != 25 || pr.Match.AwaitingProposal || pr.Match.PendingProposal == nil || pr.Match.HumanRole != games.RoleResponder {
		t.Errorf("unexpected proposal %+v", pr)
	}

	w = do(t, h, "POST", "/api/v1/matches/"+m.ID+"/turns", `{"move":"ACCEPT"}`)
	if tr := decode[TurnResponse](t, w); tr.Turn.HumanDelta != 25 || tr.Turn.OpponentDelta != 75 {
		t.Errorf("unexpected payoff %+v", tr.Turn)
	}
}

func TestMatchErrors(t *testing.T) {
	server, _ := newTestServer(t, nil)
	h := server.Routes()
	m := createMatch(t, h, "STAG_HUNT", "CHAOTIC")
	turns := "/api/v1/matches/" + m.ID + "/turns"

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		errType string
	}{
		{"unknown game", "POST", "/api/v1/matches", `{"game":"CHESS","persona":"MIRROR"}`, http.StatusBadRequest, ErrTypeInvalidParams},
		{"unknown persona", "POST", "/api/v1/matches", `{"game":"STAG_HUNT","persona":"SAINT"}`, http.StatusBadRequest, ErrTypeInvalidParams},
		{"missing persona", "POST", "/api/v1/matches", `{"game":"STAG_HUNT"}`, http.StatusBadRequest, ErrTypeValidation},
		{"malformed body", "POST", "/api/v1/matches", `{`, http.StatusBadRequest, ErrTypeValidation},
		{"foreign symbol", "POST", turns, `{"move":"COOPERATE"}`, http.StatusUnprocessableEntity, ErrTypeIllegalMove},
		{"unknown symbol", "POST", turns, `{"move":"BANANA"}`, http.StatusUnprocessableEntity, ErrTypeIllegalMove},
		{"offer in choice game", "POST", turns, `{"move":40}`, http.StatusUnprocessableEntity, ErrTypeIllegalMove},
		{"missing move", "POST", turns, `{}`, http.StatusBadRequest, ErrTypeValidation},
		{"unknown match", "POST", "/api/v1/matches/nope/turns", `{"move":"STAG"}`, http.StatusNotFound, ErrTypeMatchNotFound},
		{"proposal in symmetric game", "POST", "/api/v1/matches/" + m.ID + "/proposal", "", http.StatusConflict, ErrTypeWrongPhase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, do(t, h, tt.method, tt.path, tt.body), tt.status, tt.errType)
		})
	}

	got := decode[MatchResponse](t, do(t, h, "GET", "/api/v1/matches/"+m.ID, ""))
	if got.Round != 1 || len(got.History) != 0 {
		t.Errorf("rejected moves changed the match: %+v", got)
	}
}

func TestJournalEndpoints(t *testing.T) {
	server, _ := newTestServer(t, nil)
	expectError(t, do(t, server.Routes(), "GET", "/api/v1/journal", ""), http.StatusServiceUnavailable, ErrTypeServiceUnavailable)

	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	server, _ = newTestServer(t, db)
	h := server.Routes()

	m := createMatch(t, h, "CHICKEN_GAME", "AGGRESSIVE")
	createMatch(t, h, "STAG_HUNT", "MIRROR")
	do(t, h, "POST", "/api/v1/matches/"+m.ID+"/turns", `{"move":"SWERVE"}`)

	w := do(t, h, "GET", "/api/v1/matches/"+m.ID+"/journal", "")
	if w.Code != http.StatusOK {
		t.Fatalf("journal: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	j := decode[JournalResponse](t, w)
	if j.Match == nil || j.Match.Game != "CHICKEN_GAME" || len(j.Turns) != 1 || j.Turns[0].OpponentMove != games.SymbolMove(games.Straight) {
		t.Errorf("unexpected journal %+v", j)
	}

	list := decode[store.MatchesList](t, do(t, h, "GET", "/api/v1/journal?game=chicken_game", ""))
	if list.TotalCount != 1 || list.Matches[0].ID != m.ID {
		t.Errorf("unexpected filtered list %+v", list)
	}
	expectError(t, do(t, h, "GET", "/api/v1/journal?game=chess", ""), http.StatusBadRequest, ErrTypeValidation)
	expectError(t, do(t, h, "GET", "/api/v1/matches/nope/journal", ""), http.StatusNotFound, ErrTypeMatchNotFound)
}

func TestEventStream(t *testing.T) {
	server, lb := newTestServer(t, nil)
	srv := httptest.NewServer(server.Routes())
	defer srv.Close()

	sess, err := lb.Create(games.PrisonersDilemma, persona.Mirror)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/matches/" + sess.ID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	resp, err := http.Post(srv.URL+"/api/v1/matches/"+sess.ID+"/turns", "application/json", strings.NewReader(`{"move":"COOPERATE"}`))
	if err != nil {
		t.Fatalf("post turn: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev lobby.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != lobby.EventTurn || ev.Turn == nil || ev.Turn.HumanDelta != 3 || ev.MatchID != sess.ID {
		t.Errorf("unexpected event %+v", ev)
	}

	if err := lb.End(sess.ID); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := conn.ReadJSON(&ev); err != nil || ev.Type != lobby.EventEnded {
		t.Fatalf("expected ended event, got %+v, %v", ev, err)
	}
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close, got %v", err)
	}

	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Error("expected dialing an ended match to fail")
	}
}
