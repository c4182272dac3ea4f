package transcribe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"minutes/internal/config"
	"minutes/internal/services"
)

const (
	component = "transcribe"

	defaultHTTPTimeout  = 5 * time.Minute
	defaultPollInterval = 2 * time.Second
	defaultMaxWait      = 10 * time.Minute
	maxErrorBody        = 4096
)

// Audio is an uploaded recording.
type Audio struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service converts audio into transcript text.
type Service interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
	Configured() bool
}

// Config holds provider settings.
type Config struct {
	Mode         string
	APIKey       string
	BaseURL      string
	Model        string
	Language     string
	PollInterval time.Duration
	// MaxWait bounds the async poll loop; zero polls until a terminal status.
	MaxWait time.Duration
	Timeout time.Duration
}

// ConfigFrom maps the transcription section of the application config.
func ConfigFrom(cfg config.Transcription) Config {
	return Config{
		Mode:         cfg.Mode,
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Model:        cfg.Model,
		Language:     cfg.Language,
		PollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		MaxWait:      time.Duration(cfg.MaxWaitSeconds) * time.Second,
		Timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Option customizes a provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
	sleep      func(context.Context, time.Duration) error
	now        func() time.Time
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithSleeper overrides how the poll loop waits between status checks.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(o *options) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithClock overrides the time source used for the poll bound.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// NewService returns the provider selected by cfg.Mode. Unknown or empty
// modes fall back to the async provider.
func NewService(cfg Config, opts ...Option) Service {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxWait < 0 {
		cfg.MaxWait = defaultMaxWait
	}

	o := options{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sleep:      sleepContext,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.EqualFold(strings.TrimSpace(cfg.Mode), config.ModeSync) {
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com/v1"
		}
		if strings.TrimSpace(cfg.Model) == "" {
			cfg.Model = "whisper-1"
		}
		return &syncProvider{cfg: cfg, client: o.httpClient}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.assemblyai.com/v2"
	}
	return &asyncProvider{cfg: cfg, client: o.httpClient, sleep: o.sleep, now: o.now}
}

func validate(cfg Config, audio Audio) error {
	if len(audio.Data) == 0 {
		return services.Wrap(services.ErrMissingInput, component, "validate", "audio file is required", nil)
	}
	if cfg.APIKey == "" {
		return services.Wrap(services.ErrServiceUnavailable, component, "configure", "transcription API key not set", nil)
	}
	return nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// do executes req and returns the body of a 2xx response. Non-2xx responses
// wrap ErrUpstream and transport failures wrap ErrTransport.
func do(client *http.Client, req *http.Request, operation string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, services.Wrap(services.ErrTransport, component, operation, "request canceled", ctxErr)
		}
		return nil, services.Wrap(services.ErrTransport, component, operation, "http error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, services.Wrap(
			services.ErrUpstream,
			component,
			operation,
			"provider rejected request",
			&httpStatusError{StatusCode: resp.StatusCode, Body: string(body)},
		)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, component, operation, "read body", err)
	}
	return body, nil
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
