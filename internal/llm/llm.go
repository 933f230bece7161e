// Package llm provides the single ask(system_prompt, user_message, max_tokens)
// helper every other component uses to reach a language model, with two
// underlying strategies: the MCP client's own sampling capability (preferred,
// since it reuses whatever model the connected agent already has configured
// and costs the agent nothing extra), and a direct HTTP call to an
// OpenAI-compatible endpoint as a fallback for hosts that don't support
// sampling. Grounded on the HTTP-call shape of the pack's provider
// implementations (entrhq-forge/pkg/llm/openai, stxkxs-cadre's anthropic
// provider), simplified to a single non-streaming request since nothing
// downstream consumes partial tokens.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Strategy selects which path Ask takes.
type Strategy string

const (
	StrategyAuto     Strategy = "auto"
	StrategySampling Strategy = "sampling"
	StrategyDirect   Strategy = "direct"
)

const defaultMaxTokens = 1024

// SamplingFunc invokes the connected MCP client's sampling capability. It is
// supplied by the server layer, which owns the mcp-go session and therefore
// the only code with a handle on the client's createMessage request. A nil
// SamplingFunc means the host has no sampling capability.
type SamplingFunc func(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error)

// DirectConfig configures the HTTP fallback path.
type DirectConfig struct {
	BaseURL string // e.g. "https://api.openai.com/v1"
	APIKey  string
	Model   string
}

// resolvedDirectConfig fills BaseURL/APIKey/Model from the environment when
// the config document leaves them blank, matching how every provider in the
// pack treats its API key as parameter-or-env.
func resolvedDirectConfig(c DirectConfig) DirectConfig {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPEN_PALACE_LLM_API_KEY")
	}
	if c.BaseURL == "" {
		if v := os.Getenv("OPEN_PALACE_LLM_BASE_URL"); v != "" {
			c.BaseURL = v
		} else {
			c.BaseURL = "https://api.openai.com/v1"
		}
	}
	if c.Model == "" {
		if v := os.Getenv("OPEN_PALACE_LLM_MODEL"); v != "" {
			c.Model = v
		} else {
			c.Model = "gpt-4o-mini"
		}
	}
	return c
}

// Caller implements the ask() helper. It is safe for concurrent use.
type Caller struct {
	strategy Strategy
	sampling SamplingFunc
	direct   DirectConfig
	client   *http.Client
}

// New returns a Caller configured with strategy, an optional sampling
// function, and the direct HTTP fallback's configuration.
func New(strategy Strategy, sampling SamplingFunc, direct DirectConfig) *Caller {
	if strategy == "" {
		strategy = StrategyAuto
	}
	return &Caller{
		strategy: strategy,
		sampling: sampling,
		direct:   resolvedDirectConfig(direct),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Ask sends systemPrompt and userMessage to a model and returns its reply.
// A maxTokens of 0 uses defaultMaxTokens.
func (c *Caller) Ask(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	switch c.strategy {
	case StrategySampling:
		if c.sampling == nil {
			return "", fmt.Errorf("llm: sampling strategy requested but no sampling-capable client is connected")
		}
		return c.sampling(ctx, systemPrompt, userMessage, maxTokens)
	case StrategyDirect:
		return c.askDirect(ctx, systemPrompt, userMessage, maxTokens)
	default: // auto
		if c.sampling != nil {
			reply, err := c.sampling(ctx, systemPrompt, userMessage, maxTokens)
			if err == nil {
				return reply, nil
			}
		}
		return c.askDirect(ctx, systemPrompt, userMessage, maxTokens)
	}
}

// askTemperature is fixed per the single-turn ask() contract: deterministic
// enough for summaries and verdicts without being fully greedy.
const askTemperature = 0.3

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Caller) askDirect(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error) {
	if c.direct.APIKey == "" {
		return "", fmt.Errorf("llm: direct strategy requires an API key (config or OPEN_PALACE_LLM_API_KEY)")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.direct.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   maxTokens,
		Temperature: askTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.direct.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.direct.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: direct call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: direct call returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llm: decoding response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm: provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
