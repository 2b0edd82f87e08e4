package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/MJE43/mindmatch/internal/games"
)

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 1 * time.Second
)

// Script runs a JavaScript strategy in a sandboxed goja runtime. The script
// must define decide(input) returning {move, reasoning, taunt, emotion}.
type Script struct {
	runtime *goja.Runtime
	mu      sync.Mutex
	logger  *zap.Logger
}

// LoadScript reads and compiles a strategy file.
func LoadScript(path string, logger *zap.Logger) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy script: %w", err)
	}
	return NewScript(string(src), logger)
}

// NewScript compiles source and checks that decide() exists.
func NewScript(source string, logger *zap.Logger) (*Script, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Script{runtime: goja.New(), logger: logger}
	s.injectGlobals()

	err := s.runWithTimeout(scriptInitTimeout, func() error {
		_, err := s.runtime.RunString(source)
		if err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, ok := goja.AssertFunction(s.runtime.Get("decide")); !ok {
		return nil, ErrScriptUndefined
	}
	return s, nil
}

func (s *Script) injectGlobals() {
	s.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		s.logger.Debug("strategy script", zap.String("message", strings.Join(parts, " ")))
		return goja.Undefined()
	})
	console := s.runtime.NewObject()
	console.Set("log", s.runtime.Get("log"))
	s.runtime.Set("console", console)

	s.runtime.Set("require", goja.Undefined())
	s.runtime.Set("fetch", goja.Undefined())
	s.runtime.Set("XMLHttpRequest", goja.Undefined())
	s.runtime.Set("eval", goja.Undefined())
	s.runtime.Set("Function", goja.Undefined())
}

func (s *Script) Name() string { return string(SourceScript) }

func (s *Script) Decide(ctx context.Context, req Request) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	var reply Reply
	err := s.runWithTimeout(scriptCallTimeout, func() error {
		fn, ok := goja.AssertFunction(s.runtime.Get("decide"))
		if !ok {
			return ErrScriptUndefined
		}
		out, err := fn(goja.Undefined(), s.runtime.ToValue(scriptInput(req)))
		if err != nil {
			return fmt.Errorf("decide() error: %w", err)
		}
		reply, err = scriptReply(out)
		return err
	})
	return reply, err
}

func scriptInput(req Request) map[string]any {
	history := make([]any, 0, len(req.History))
	for _, x := range Window(req.History) {
		history = append(history, map[string]any{
			"round":     x.Round,
			"human":     x.HumanMove.String(),
			"opponent":  x.OpponentMove.String(),
			"reasoning": x.Reasoning,
		})
	}
	in := map[string]any{
		"game":    req.Game.String(),
		"persona": req.Persona.String(),
		"round":   req.Round,
		"propose": req.Propose,
		"history": history,
	}
	if !req.HumanMove.IsZero() {
		if req.HumanMove.IsOffer() {
			in["humanMove"] = req.HumanMove.Offer
		} else {
			in["humanMove"] = req.HumanMove.String()
		}
	}
	if d, err := games.OpponentDomain(req.Game, req.Round); err == nil {
		legal := make([]any, 0, len(d.Symbols))
		for _, sym := range d.Symbols {
			legal = append(legal, sym.String())
		}
		in["legal"] = legal
	}
	return in
}

func scriptReply(v goja.Value) (Reply, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return Reply{}, ErrEmptyResponse
	}
	obj, ok := v.Export().(map[string]any)
	if !ok {
		return Reply{}, &SchemaError{Field: "", Reason: "decide() must return an object"}
	}
	field := func(name string) string {
		raw, ok := obj[name]
		if !ok || raw == nil {
			return ""
		}
		return fmt.Sprint(raw)
	}
	return Reply{
		Move:      field("move"),
		Reasoning: field("reasoning"),
		Taunt:     field("taunt"),
		Emotion:   field("emotion"),
	}, nil
}

func (s *Script) runWithTimeout(timeout time.Duration, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runtime.ClearInterrupt()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		s.runtime.Interrupt("script execution timeout")
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("script timed out: %w", err)
			}
			return fmt.Errorf("script timed out")
		case <-time.After(200 * time.Millisecond):
			return fmt.Errorf("script timed out")
		}
	}
}
