package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/store"
)

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

type HealthCheckResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit,omitempty"`
	BuildTime string                 `json:"build_time,omitempty"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]HealthCheck `json:"checks"`
	System    SystemInfo             `json:"system"`
	RequestID string                 `json:"request_id,omitempty"`
}

type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// GET /health
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]HealthCheck{
		"games":   s.checkGames(),
		"journal": s.checkJournal(r.Context()),
		"lobby":   s.checkLobby(),
	}
	overall := HealthStatusHealthy
	for _, c := range checks {
		switch {
		case c.Status == HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case c.Status == HealthStatusDegraded && overall == HealthStatusHealthy:
			overall = HealthStatusDegraded
		}
	}

	status := http.StatusOK
	if overall == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, HealthCheckResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		Uptime:    time.Since(s.startTime).String(),
		Checks:    checks,
		System:    systemInfo(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// GET /health/ready
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ready, message := true, "Ready"
	if s.lobby == nil {
		ready, message = false, "Lobby not initialised"
	} else if len(games.Catalogue()) == 0 {
		ready, message = false, "No games available"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"ready":      ready,
		"message":    message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    Version,
		"request_id": middleware.GetReqID(r.Context()),
	})
}

// GET /health/live
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"alive":      true,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    Version,
		"uptime":     time.Since(s.startTime).String(),
		"request_id": middleware.GetReqID(r.Context()),
	})
}

// GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

func (s *Server) checkGames() HealthCheck {
	start := time.Now()
	n := len(games.Catalogue())
	check := HealthCheck{Status: HealthStatusHealthy, Message: fmt.Sprintf("%d games available", n)}
	if n < len(games.AllGameTypes()) {
		check.Status = HealthStatusDegraded
	}
	return stamp(check, start)
}

func (s *Server) checkJournal(ctx context.Context) HealthCheck {
	start := time.Now()
	journal := s.lobby.Journal()
	if journal == nil {
		return stamp(HealthCheck{Status: HealthStatusHealthy, Message: "Journal disabled"}, start)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := journal.ListMatches(ctx, store.MatchesQuery{PerPage: 1}); err != nil {
		return stamp(HealthCheck{Status: HealthStatusDegraded, Message: err.Error()}, start)
	}
	return stamp(HealthCheck{Status: HealthStatusHealthy, Message: "Journal reachable"}, start)
}

func (s *Server) checkLobby() HealthCheck {
	start := time.Now()
	return stamp(HealthCheck{Status: HealthStatusHealthy, Message: fmt.Sprintf("%d live matches", s.lobby.Len())}, start)
}

func stamp(c HealthCheck, start time.Time) HealthCheck {
	c.LastChecked = time.Now().UTC().Format(time.RFC3339)
	c.Duration = time.Since(start).String()
	return c
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAlloc:   m.Alloc,
		GCCycles:      m.NumGC,
	}
}
