package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/services"
)

const (
	component      = "email"
	userAgent      = "minutes/0.1.0"
	defaultTitle   = "Meeting Summary"
	defaultTimeout = 30 * time.Second
	dateLayout     = "January 2, 2006"
	maxErrorBody   = 4096
)

// Receipt identifies an accepted message.
type Receipt struct {
	ID string
}

// Service delivers rendered summaries.
type Service interface {
	Send(ctx context.Context, req api.EmailRequest) (Receipt, error)
	Configured() bool
}

// Option customizes the service.
type Option func(*resendService)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *resendService) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClock overrides the time source used for subjects and the metadata block.
func WithClock(now func() time.Time) Option {
	return func(s *resendService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *resendService) {
		if logger != nil {
			s.logger = logging.NewComponentLogger(logger, component)
		}
	}
}

// NewService builds a Resend-backed mailer from the email section of cfg.
// Without an API key every Send fails with services.ErrServiceUnavailable.
func NewService(cfg *config.Config, opts ...Option) Service {
	var section config.Email
	if cfg != nil {
		section = cfg.Email
	}
	timeout := time.Duration(section.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(strings.TrimSpace(section.BaseURL), "/")
	if base == "" {
		base = "https://api.resend.com"
	}
	svc := &resendService{
		apiKey:   strings.TrimSpace(section.APIKey),
		endpoint: base + "/emails",
		from:     strings.TrimSpace(section.From),
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type resendService struct {
	apiKey   string
	endpoint string
	from     string
	client   *http.Client
	now      func() time.Time
	logger   *slog.Logger
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

func (s *resendService) Configured() bool { return s.apiKey != "" }

// Send renders req and submits a single message addressed to every recipient.
func (s *resendService) Send(ctx context.Context, req api.EmailRequest) (Receipt, error) {
	if err := req.Validate(); err != nil {
		return Receipt{}, err
	}
	if !s.Configured() {
		return Receipt{}, services.Wrap(services.ErrServiceUnavailable, component, "configure", "email API key not set", nil)
	}

	now := s.now()
	html, err := Render(req, now)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransport, component, "render", "execute template", err)
	}
	payload := sendRequest{
		From:    s.from,
		To:      req.CleanRecipients(),
		Subject: Subject(req.Title, now),
		HTML:    html,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransport, component, "encode", "marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransport, component, "request", "build request", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrTransport, component, "request", "send email", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Receipt{}, services.Wrap(
			services.ErrUpstream,
			component,
			"request",
			fmt.Sprintf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}

	// The message is accepted at this point; a bad body only loses the id.
	var parsed sendResponse
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil {
		err = json.Unmarshal(body, &parsed)
	}
	if err != nil {
		s.logger.Debug("email accepted but response body unreadable",
			logging.Int("status", resp.StatusCode),
			logging.Error(err),
		)
	}
	return Receipt{ID: parsed.ID}, nil
}

// Subject returns "Meeting Summary: <title>", or the dated fallback when no
// title was supplied.
func Subject(title string, now time.Time) string {
	if title = strings.TrimSpace(title); title != "" {
		return defaultTitle + ": " + title
	}
	return defaultTitle + " - " + now.Format(dateLayout)
}
