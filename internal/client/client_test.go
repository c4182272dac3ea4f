package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"minutes/internal/api"
	"minutes/internal/client"
	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/server"
	"minutes/internal/services"
	"minutes/internal/services/mailer"
	"minutes/internal/services/transcribe"
)

type stubSummarizer struct{ err error }

func (s stubSummarizer) Summarize(_ context.Context, transcript, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "summary of " + transcript + " per " + prompt, nil
}

func (stubSummarizer) Configured() bool { return true }

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(_ context.Context, audio transcribe.Audio) (string, error) {
	return "heard " + string(audio.Data), nil
}

func (stubTranscriber) Configured() bool { return true }

type stubMailer struct{}

func (stubMailer) Send(context.Context, api.EmailRequest) (mailer.Receipt, error) {
	return mailer.Receipt{ID: "m-1"}, nil
}

func (stubMailer) Configured() bool { return true }

func newRemote(t *testing.T, gw server.Gateways) *client.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	ts := httptest.NewServer(server.New(&cfg, gw, nil).Handler())
	t.Cleanup(ts.Close)
	return client.New(ts.URL + "/")
}

func TestRoundTripAgainstServer(t *testing.T) {
	c := newRemote(t, server.Gateways{
		Summarizer:  stubSummarizer{},
		Transcriber: stubTranscriber{},
		Mailer:      stubMailer{},
	})
	ctx := context.Background()

	summary, err := c.Summarize(ctx, "T", "P")
	if err != nil || summary != "summary of T per P" {
		t.Fatalf("Summarize = %q, %v", summary, err)
	}

	result, err := c.VoiceToText(ctx, transcribe.Audio{Filename: "memo.wav", Data: []byte("abc")})
	if err != nil {
		t.Fatalf("VoiceToText: %v", err)
	}
	if result.Transcription != "heard abc" || result.Filename != "memo.wav" || result.Size != 3 {
		t.Fatalf("unexpected result %+v", result)
	}

	resp, err := c.SendEmail(ctx, api.EmailRequest{Recipients: []string{"a@x.io"}, Summary: "S"})
	if err != nil || !resp.Success || resp.ID != "m-1" {
		t.Fatalf("SendEmail = %+v, %v", resp, err)
	}

	health, err := c.Health(ctx)
	if err != nil || health.Status != "ok" {
		t.Fatalf("Health = %+v, %v", health, err)
	}
}

func TestErrorKindsMapToMarkers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		marker error
	}{
		{"upstream", services.Wrap(services.ErrUpstream, "summarize", "request", "http 500", nil), services.ErrUpstream},
		{"unconfigured", services.Wrap(services.ErrServiceUnavailable, "summarize", "configure", "", nil), services.ErrServiceUnavailable},
		{"empty", services.Wrap(services.ErrEmptyResult, "summarize", "parse", "", nil), services.ErrEmptyResult},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newRemote(t, server.Gateways{Summarizer: stubSummarizer{err: tc.err}})
			_, err := c.Summarize(context.Background(), "T", "P")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			var remote *client.RemoteError
			if !errors.As(err, &remote) || remote.Status != http.StatusInternalServerError {
				t.Fatalf("expected RemoteError 500, got %v", err)
			}
		})
	}
}

func TestMissingInputFromServer(t *testing.T) {
	c := newRemote(t, server.Gateways{Summarizer: stubSummarizer{}})
	_, err := c.Summarize(context.Background(), "", "P")
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestBareErrorBodyWithoutKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Transcript and prompt are required"})
	}))
	defer ts.Close()

	_, err := client.New(ts.URL).Summarize(context.Background(), "T", "")
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput for bare 400, got %v", err)
	}
	if err.Error() != "Transcript and prompt are required" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := client.New(url).Summarize(context.Background(), "T", "P")
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestRemoteErrorIncludesDetails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Method not allowed", Details: "POST /summarize"})
	}))
	defer ts.Close()

	_, err := client.New(ts.URL).Summarize(context.Background(), "T", "P")
	var remote *client.RemoteError
	if !errors.As(err, &remote) || remote.Details != "POST /summarize" {
		t.Fatalf("expected RemoteError with details, got %v", err)
	}
	if err.Error() != "Method not allowed (POST /summarize)" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUndecodableErrorBodyIsLogged(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer ts.Close()

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	_, err = client.New(ts.URL, client.WithLogger(logger)).Summarize(context.Background(), "T", "P")
	if err == nil || !strings.Contains(err.Error(), "bad gateway") {
		t.Fatalf("expected raw body in error, got %v", err)
	}
	if !strings.Contains(buf.String(), "error response body not decoded") {
		t.Fatalf("expected debug log, got %q", buf.String())
	}
}
