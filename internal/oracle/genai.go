package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.5-flash"
)

// KeySource supplies the API key. It is asked once per call so a key added
// while the process runs is picked up on the next turn.
type KeySource interface {
	APIKey() (string, error)
}

// GenAIConfig holds the generation service settings.
type GenAIConfig struct {
	BaseURL    string
	Model      string
	MaxRetries uint64
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// GenAI asks an OpenAI-compatible chat completion endpoint for a move.
type GenAI struct {
	cfg  GenAIConfig
	keys KeySource
}

// NewGenAI returns a GenAI decider. Zero config fields take defaults.
func NewGenAI(cfg GenAIConfig, keys KeySource) *GenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &GenAI{cfg: cfg, keys: keys}
}

func (g *GenAI) Name() string { return string(SourceGenAI) }

var replySchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"move": {
			Type:        jsonschema.String,
			Description: "Your move. When proposing in the Ultimatum game, the offer as a numeric string.",
		},
		"reasoning": {
			Type:        jsonschema.String,
			Description: "A short strategic thought.",
		},
		"taunt": {
			Type:        jsonschema.String,
			Description: "One line addressed to the human.",
		},
		"emotion": {
			Type:        jsonschema.String,
			Enum:        []string{"neutral", "happy", "angry", "smug", "sad", "surprised"},
			Description: "Your emotional reaction right now.",
		},
	},
	Required: []string{"move", "reasoning"},
}

func (g *GenAI) Decide(ctx context.Context, req Request) (Reply, error) {
	key, err := g.keys.APIKey()
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	if strings.TrimSpace(key) == "" {
		return Reply{}, ErrMissingCredential
	}

	clientCfg := openai.DefaultConfig(key)
	clientCfg.BaseURL = g.cfg.BaseURL
	if g.cfg.HTTPClient != nil {
		clientCfg.HTTPClient = g.cfg.HTTPClient
	}
	client := openai.NewClientWithConfig(clientCfg)

	chatReq := openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: UserPrompt(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "opponent_move",
				Schema: &replySchema,
				Strict: false,
			},
		},
	}

	var resp openai.ChatCompletionResponse
	backoff := retry.WithMaxRetries(g.cfg.MaxRetries, retry.NewExponential(g.cfg.RetryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		resp, callErr = client.CreateChatCompletion(ctx, chatReq)
		if callErr == nil {
			return nil
		}
		callErr = asHTTPError(callErr)
		if httpErr, ok := callErr.(*HTTPError); ok && httpErr.IsRetryable() {
			return retry.RetryableError(httpErr)
		}
		return callErr
	})
	if err != nil {
		return Reply{}, err
	}

	if len(resp.Choices) == 0 {
		return Reply{}, ErrEmptyResponse
	}
	return decodeReply(resp.Choices[0].Message.Content)
}

// decodeReply parses the model's JSON answer. A surrounding markdown code
// fence is tolerated.
func decodeReply(content string) (Reply, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return Reply{}, ErrEmptyResponse
	}

	var wire struct {
		Move      flexString `json:"move"`
		Reasoning string     `json:"reasoning"`
		Taunt     string     `json:"taunt"`
		Emotion   string     `json:"emotion"`
	}
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return Reply{}, fmt.Errorf("oracle: decode reply: %w", err)
	}
	return Reply{
		Move:      string(wire.Move),
		Reasoning: wire.Reasoning,
		Taunt:     wire.Taunt,
		Emotion:   wire.Emotion,
	}, nil
}
