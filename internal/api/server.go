// Package api serves matches over HTTP, with a WebSocket stream of turn
// events per match.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/lobby"
)

// RequestTimeout bounds every non-streaming request.
const RequestTimeout = 60 * time.Second

// Server handles HTTP requests
type Server struct {
	lobby        *lobby.Lobby
	errorHandler *ErrorHandler
	logger       *zap.Logger
	upgrader     websocket.Upgrader
	startTime    time.Time
}

func NewServer(lb *lobby.Lobby, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")
	s := &Server{
		lobby:        lb,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
	}
	logger.Info("api server initialised", zap.String("version", Version))
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.errorHandler.RecoveryHandler)

	// Streams outlive the request timeout.
	r.Get("/api/v1/matches/{id}/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))

		r.Get("/health", s.handleHealthCheck)
		r.Get("/health/ready", s.handleReadiness)
		r.Get("/health/live", s.handleLiveness)
		r.Get("/version", s.handleVersion)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/games", s.handleListGames)
			r.Get("/personas", s.handleListPersonas)
			r.Get("/journal", s.handleListJournal)

			r.Post("/matches", s.handleCreateMatch)
			r.Route("/matches/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMatch)
				r.Delete("/", s.handleEndMatch)
				r.Post("/turns", s.handleSubmitTurn)
				r.Post("/proposal", s.handleRequestProposal)
				r.Post("/reset", s.handleReset)
				r.Get("/series", s.handleSeries)
				r.Get("/journal", s.handleMatchJournal)
			})
		})
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-MindMatch-Version", Version)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

// requestLogger logs one line per request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request completed",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		}()
		next.ServeHTTP(ww, r)
	})
}
