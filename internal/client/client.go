package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/services/transcribe"
)

const (
	component      = "client"
	defaultTimeout = 15 * time.Minute
	maxErrorBody   = 64 << 10
)

// Client calls the minutesd HTTP API. Failures carry the same services
// markers the gateways use, so callers classify remote and local errors alike.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for response diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig builds a client from the [client] section.
func FromConfig(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		return New("http://127.0.0.1:8787", opts...)
	}
	timeout := time.Duration(cfg.Client.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts = append([]Option{WithHTTPClient(&http.Client{Timeout: timeout})}, opts...)
	return New(cfg.Client.ServerURL, opts...)
}

// BaseURL returns the server root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Summarize calls POST /summarize.
func (c *Client) Summarize(ctx context.Context, transcript, prompt string) (string, error) {
	var resp api.SummarizeResponse
	if err := c.postJSON(ctx, "/summarize", api.SummarizeRequest{Transcript: transcript, Prompt: prompt}, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

// SendEmail calls POST /send-email.
func (c *Client) SendEmail(ctx context.Context, req api.EmailRequest) (api.EmailResponse, error) {
	var resp api.EmailResponse
	err := c.postJSON(ctx, "/send-email", req, &resp)
	return resp, err
}

// Transcribe uploads audio to POST /voice-to-text.
func (c *Client) Transcribe(ctx context.Context, audio transcribe.Audio) (string, error) {
	result, err := c.VoiceToText(ctx, audio)
	if err != nil {
		return "", err
	}
	return result.Transcription, nil
}

// VoiceToText uploads audio and returns the full transcription result.
func (c *Client) VoiceToText(ctx context.Context, audio transcribe.Audio) (api.TranscriptionResult, error) {
	var result api.TranscriptionResult
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	name := filepath.Base(strings.TrimSpace(audio.Filename))
	if name == "" || name == "." {
		name = "audio"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, name))
	contentType := audio.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return result, services.Wrap(services.ErrTransport, component, "encode", "create multipart part", err)
	}
	if _, err := part.Write(audio.Data); err != nil {
		return result, services.Wrap(services.ErrTransport, component, "encode", "write audio", err)
	}
	if err := writer.Close(); err != nil {
		return result, services.Wrap(services.ErrTransport, component, "encode", "close multipart", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/voice-to-text", &buf)
	if err != nil {
		return result, services.Wrap(services.ErrTransport, component, "request", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	err = c.do(req, &result)
	return result, err
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return resp, services.Wrap(services.ErrTransport, component, "request", "build request", err)
	}
	err = c.do(req, &resp)
	return resp, err
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return services.Wrap(services.ErrTransport, component, "encode", "marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return services.Wrap(services.ErrTransport, component, "request", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// RemoteError is the decoded error body of a failed call. It unwraps to the
// services marker named by Kind.
type RemoteError struct {
	Status  int
	Kind    string
	Message string
	Details string
	marker  error
}

func (e *RemoteError) Unwrap() error { return e.marker }

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("server returned %d", e.Status)
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (c *Client) do(req *http.Request, out any) error {
	operation := strings.TrimPrefix(req.URL.Path, "/")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, component, operation, "could not reach minutesd at "+c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body api.ErrorResponse
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err == nil {
			err = json.Unmarshal(raw, &body)
		}
		if err != nil {
			c.logger.Debug("error response body not decoded",
				logging.String("operation", operation),
				logging.Int("status", resp.StatusCode),
				logging.Error(err),
			)
		}
		remote := &RemoteError{
			Status:  resp.StatusCode,
			Kind:    body.Kind,
			Message: strings.TrimSpace(body.Error),
			Details: strings.TrimSpace(body.Details),
			marker:  services.MarkerForKind(body.Kind),
		}
		if remote.Message == "" {
			remote.Message = strings.TrimSpace(string(raw))
		}
		if body.Kind == "" && resp.StatusCode == http.StatusBadRequest {
			remote.marker = services.ErrMissingInput
		}
		return remote
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransport, component, operation, "decode response", err)
	}
	return nil
}
