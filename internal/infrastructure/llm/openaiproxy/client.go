// Package openaiproxy talks to an OpenAI-compatible chat completions
// endpoint. The gateway URL, model and credentials come from config.
package openaiproxy

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramay1243/docscan/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	runner      *resilience.Runner
	limiter     *rate.Limiter
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	// RequestsPerMinute caps outbound completion calls. Zero disables
	// the limiter.
	RequestsPerMinute int
}

func New(cfg Config, runner *resilience.Runner) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		runner:      runner,
		limiter:     limiter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one system+user exchange and returns the assistant text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	request := chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   maxTokens,
	}
	if strings.TrimSpace(systemPrompt) != "" {
		request.Messages = append(request.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	request.Messages = append(request.Messages, chatMessage{Role: "user", Content: userPrompt})

	var response chatResponse
	err := c.runner.Do(ctx, "llm_complete", func(ctx context.Context) error {
		response = chatResponse{}
		return c.postJSON(ctx, "/v1/chat/completions", request, &response, "complete")
	}, classifyCompletionError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("llm_complete", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("completion rejected: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
