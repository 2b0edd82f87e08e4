package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/games"
	"github.com/MJE43/mindmatch/internal/lobby"
	"github.com/MJE43/mindmatch/internal/match"
	"github.com/MJE43/mindmatch/internal/persona"
	"github.com/MJE43/mindmatch/internal/store"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error message.
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

func (eb *ErrorBuilder) Build() EngineError {
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   eb.context,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// classify maps a domain error to its HTTP status, error type and message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, lobby.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrTypeMatchNotFound, "Match not found"
	case errors.Is(err, games.ErrIllegalMove), errors.Is(err, games.ErrUnknownSymbol):
		return http.StatusUnprocessableEntity, ErrTypeIllegalMove, "Illegal move for this round"
	case errors.Is(err, match.ErrOracleBusy):
		return http.StatusConflict, ErrTypeOracleBusy, "The opponent is still deciding"
	case errors.Is(err, match.ErrNotProposalRound), errors.Is(err, match.ErrNoPendingProposal):
		return http.StatusConflict, ErrTypeWrongPhase, "Not possible in this phase of the round"
	case errors.Is(err, match.ErrMatchInactive), errors.Is(err, lobby.ErrSessionClosed):
		return http.StatusConflict, ErrTypeMatchInactive, "Match is not active"
	case errors.Is(err, lobby.ErrSuperseded):
		return http.StatusConflict, ErrTypeSuperseded, "Match was reset during the turn"
	case errors.Is(err, games.ErrUnknownGame), errors.Is(err, persona.ErrUnknownPersona):
		return http.StatusBadRequest, ErrTypeInvalidParams, "Unknown game or persona"
	default:
		return http.StatusInternalServerError, ErrTypeInternal, "Internal server error"
	}
}

// ErrorHandler writes error envelopes and logs them.
type ErrorHandler struct {
	logger *zap.Logger
}

func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies err and writes the matching response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	if errors.As(err, &engineErr) {
		eh.write(w, r, http.StatusInternalServerError, engineErr)
		return
	}

	status, errType, message := classify(err)
	engineErr = NewError(errType, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		WithCause(err).
		Build()
	eh.write(w, r, status, engineErr)
}

// HandleValidationError handles malformed requests.
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		Build()
	eh.write(w, r, http.StatusBadRequest, engineErr)
}

// HandleUnavailable reports a disabled optional component.
func (eh *ErrorHandler) HandleUnavailable(w http.ResponseWriter, r *http.Request, component string) {
	engineErr := NewError(ErrTypeServiceUnavailable, fmt.Sprintf("%s is not enabled", component)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("component", component).
		Build()
	eh.write(w, r, http.StatusServiceUnavailable, engineErr)
}

func (eh *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, engineErr EngineError) {
	eh.logError(r, engineErr, status)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-MindMatch-Version", Version)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.logger.Error("failed to encode error response", zap.Error(err))
	}
}

func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	fields := []zap.Field{
		zap.String("type", engineErr.Type),
		zap.String("category", string(GetErrorCategory(engineErr.Type))),
		zap.Int("status", status),
		zap.String("request_id", engineErr.RequestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Any("context", engineErr.Context),
	}
	if status >= http.StatusInternalServerError {
		eh.logger.Error(engineErr.Message, fields...)
		return
	}
	eh.logger.Warn(engineErr.Message, fields...)
}

// RecoveryHandler turns handler panics into internal_error responses.
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())
				eh.logger.Error("panic recovered",
					zap.String("request_id", requestID),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rvr),
					zap.Stack("stack"))

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()
				eh.write(w, r, http.StatusInternalServerError, engineErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
