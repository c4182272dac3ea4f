package mailer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/services/mailer"
)

var fixedNow = time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)

type captured struct {
	calls   int
	path    string
	auth    string
	payload struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}
}

func newServer(t *testing.T, status int, body string, c *captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.calls++
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&c.payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func newService(url, key string) mailer.Service {
	cfg := config.Default()
	cfg.Email.APIKey = key
	cfg.Email.BaseURL = url
	return mailer.NewService(&cfg, mailer.WithClock(func() time.Time { return fixedNow }))
}

func TestSendSingleMessageToAllRecipients(t *testing.T) {
	var c captured
	server := newServer(t, http.StatusOK, `{"id":"msg_123"}`, &c)
	defer server.Close()

	svc := newService(server.URL, "re_test")
	receipt, err := svc.Send(context.Background(), api.EmailRequest{
		Recipients:     []string{"a@x.io", " b@y.io "},
		Summary:        "Line one\nLine <two>",
		OriginalPrompt: "List action items",
		Title:          "Weekly Sync",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if receipt.ID != "msg_123" {
		t.Fatalf("receipt id = %q", receipt.ID)
	}
	if c.calls != 1 || c.path != "/emails" {
		t.Fatalf("expected one POST /emails, got %d calls to %q", c.calls, c.path)
	}
	if c.auth != "Bearer re_test" {
		t.Fatalf("Authorization = %q", c.auth)
	}
	if len(c.payload.To) != 2 || c.payload.To[0] != "a@x.io" || c.payload.To[1] != "b@y.io" {
		t.Fatalf("unexpected to list %v", c.payload.To)
	}
	if c.payload.Subject != "Meeting Summary: Weekly Sync" {
		t.Fatalf("subject = %q", c.payload.Subject)
	}
	if !strings.Contains(c.payload.From, "@") {
		t.Fatalf("from = %q", c.payload.From)
	}
	html := c.payload.HTML
	if !strings.Contains(html, "Line one<br>Line &lt;two&gt;") {
		t.Fatalf("summary not escaped with <br> breaks: %s", html)
	}
	if !strings.Contains(html, "List action items") || !strings.Contains(html, "March 4, 2026") {
		t.Fatalf("metadata block missing: %s", html)
	}
}

func TestSendUntitledSubject(t *testing.T) {
	var c captured
	server := newServer(t, http.StatusOK, `{}`, &c)
	defer server.Close()

	_, err := newService(server.URL, "k").Send(context.Background(), api.EmailRequest{Recipients: []string{"a@x.io"}, Summary: "S"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if c.payload.Subject != "Meeting Summary - March 4, 2026" {
		t.Fatalf("subject = %q", c.payload.Subject)
	}
	if !strings.Contains(c.payload.HTML, "<h1") || !strings.Contains(c.payload.HTML, ">Meeting Summary</h1>") {
		t.Fatalf("expected default heading: %s", c.payload.HTML)
	}
}

func TestSendPreconditions(t *testing.T) {
	var c captured
	server := newServer(t, http.StatusOK, `{}`, &c)
	defer server.Close()

	_, err := newService(server.URL, "k").Send(context.Background(), api.EmailRequest{Summary: "S"})
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput for no recipients, got %v", err)
	}
	_, err = newService(server.URL, "k").Send(context.Background(), api.EmailRequest{Recipients: []string{"a@x.io"}})
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput for empty summary, got %v", err)
	}
	unconfigured := newService(server.URL, "")
	if unconfigured.Configured() {
		t.Fatal("expected unconfigured mailer")
	}
	_, err = unconfigured.Send(context.Background(), api.EmailRequest{Recipients: []string{"a@x.io"}, Summary: "S"})
	if !errors.Is(err, services.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if c.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", c.calls)
	}
}

func TestSendUpstreamRejection(t *testing.T) {
	var c captured
	server := newServer(t, http.StatusUnprocessableEntity, `{"message":"invalid from address"}`, &c)
	defer server.Close()

	_, err := newService(server.URL, "k").Send(context.Background(), api.EmailRequest{Recipients: []string{"a@x.io"}, Summary: "S"})
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid from address") {
		t.Fatalf("expected provider message in error, got %v", err)
	}
}

func TestRenderExcludesMarkupInjection(t *testing.T) {
	html, err := mailer.Render(api.EmailRequest{
		Summary:        "<script>alert(1)</script>",
		OriginalPrompt: `"><img src=x>`,
		Title:          "<b>Board</b>",
	}, fixedNow)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	for _, raw := range []string{"<script>", "<img", "<b>Board</b>"} {
		if strings.Contains(html, raw) {
			t.Fatalf("rendered html contains unescaped %q", raw)
		}
	}
}

func TestSendAcceptedWithUnreadableBodyLogsDebug(t *testing.T) {
	var c captured
	server := newServer(t, http.StatusOK, `not json`, &c)
	defer server.Close()

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	cfg := config.Default()
	cfg.Email.APIKey = "re_test"
	cfg.Email.BaseURL = server.URL
	svc := mailer.NewService(&cfg, mailer.WithLogger(logger))

	receipt, err := svc.Send(context.Background(), api.EmailRequest{Recipients: []string{"a@x.io"}, Summary: "S"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if receipt.ID != "" {
		t.Fatalf("expected empty receipt id, got %q", receipt.ID)
	}
	if !strings.Contains(buf.String(), "response body unreadable") {
		t.Fatalf("expected debug log for the bad body, got %q", buf.String())
	}
}
