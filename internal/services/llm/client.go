package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"minutes/internal/services"
)

const (
	component = "summarize"

	defaultBaseURL     = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4o-mini"
	defaultHTTPTimeout = 120 * time.Second
	defaultMaxTokens   = 2000
	defaultTemperature = 0.3
)

// SystemPrompt is the fixed system role sent with every summarization request.
const SystemPrompt = "You are a professional meeting notes summarizer. Produce clear, well-structured " +
	"summaries of meeting transcripts that follow the user's instructions exactly. " +
	"Only use information present in the transcript."

// Config captures the runtime settings required to talk to the chat completion API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps an OpenAI-compatible chat completion endpoint.
// It is stateless and safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a summarization client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			MaxTokens:      cfg.MaxTokens,
			Temperature:    cfg.Temperature,
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.cfg.MaxTokens <= 0 {
		client.cfg.MaxTokens = defaultMaxTokens
	}
	if client.cfg.Temperature <= 0 {
		client.cfg.Temperature = defaultTemperature
	}
	return client
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// UserPrompt renders the user message for a transcript and instruction.
func UserPrompt(transcript, prompt string) string {
	return fmt.Sprintf(
		"Please summarize the following meeting transcript according to these instructions: \"%s\"\n\nTranscript:\n%s",
		prompt,
		transcript,
	)
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Summarize sends one chat completion request and returns the trimmed content
// of the first choice. Empty inputs fail before any network call.
func (c *Client) Summarize(ctx context.Context, transcript, prompt string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", services.Wrap(services.ErrMissingInput, component, "validate", "transcript is required", nil)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", services.Wrap(services.ErrMissingInput, component, "validate", "prompt is required", nil)
	}
	if !c.Configured() {
		return "", services.Wrap(services.ErrServiceUnavailable, component, "configure", "LLM API key not set", nil)
	}

	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: UserPrompt(transcript, prompt)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	completion, err := c.send(ctx, payload)
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", services.Wrap(services.ErrEmptyResult, component, "parse", "no choices in response", nil)
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", services.Wrap(
			services.ErrEmptyResult,
			component,
			"parse",
			fmt.Sprintf("empty content (finish_reason=%q)", completion.Choices[0].FinishReason),
			nil,
		)
	}
	return content, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) send(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, error) {
	var completion chatCompletionResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, services.Wrap(services.ErrTransport, component, "encode", "marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return completion, services.Wrap(services.ErrTransport, component, "request", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, services.Wrap(
			services.ErrTransport,
			component,
			"request",
			fmt.Sprintf("http error (timeout=%s)", c.httpClient.Timeout),
			err,
		)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, services.Wrap(services.ErrTransport, component, "request", "read body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return completion, services.Wrap(
			services.ErrUpstream,
			component,
			"request",
			"provider rejected request",
			&httpStatusError{StatusCode: resp.StatusCode, Body: string(body)},
		)
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, services.Wrap(services.ErrUpstream, component, "decode", "invalid response body", err)
	}
	if completion.Error != nil && strings.TrimSpace(completion.Error.Message) != "" {
		return completion, services.Wrap(services.ErrUpstream, component, "request", strings.TrimSpace(completion.Error.Message), nil)
	}
	return completion, nil
}
