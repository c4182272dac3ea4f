package transcribe_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"minutes/internal/config"
	"minutes/internal/services"
	"minutes/internal/services/transcribe"
)

type fakeAssembly struct {
	mu        sync.Mutex
	statuses  []transcriptStatus
	polls     int
	uploaded  []byte
	submitted string
	auth      []string
}

type transcriptStatus struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (f *fakeAssembly) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.uploaded = data
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/audio-1"})
	})
	mux.HandleFunc("POST /transcript", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode submit: %v", err)
		}
		f.mu.Lock()
		f.submitted = payload["audio_url"]
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": transcribe.StatusQueued})
	})
	mux.HandleFunc("GET /transcript/job-1", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		idx := f.polls
		f.polls++
		f.mu.Unlock()
		if idx >= len(f.statuses) {
			idx = len(f.statuses) - 1
		}
		_ = json.NewEncoder(w).Encode(f.statuses[idx])
	})
	return mux
}

func (f *fakeAssembly) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
}

func noSleep(sleeps *int) transcribe.Option {
	return transcribe.WithSleeper(func(ctx context.Context, _ time.Duration) error {
		*sleeps++
		return ctx.Err()
	})
}

func TestAsyncPollsUntilCompleted(t *testing.T) {
	fake := &fakeAssembly{statuses: []transcriptStatus{
		{Status: transcribe.StatusProcessing},
		{Status: transcribe.StatusProcessing},
		{Status: transcribe.StatusCompleted, Text: " hello team "},
	}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	var sleeps int
	svc := transcribe.NewService(transcribe.Config{Mode: config.ModeAsync, APIKey: "aai", BaseURL: server.URL}, noSleep(&sleeps))
	text, err := svc.Transcribe(context.Background(), transcribe.Audio{Filename: "call.mp3", Data: []byte("RIFF")})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "hello team" {
		t.Fatalf("unexpected transcript %q", text)
	}
	if fake.polls < 2 {
		t.Fatalf("expected at least two status polls, got %d", fake.polls)
	}
	if fake.polls != 3 || sleeps != 3 {
		t.Fatalf("expected 3 polls and 3 sleeps, got %d polls %d sleeps", fake.polls, sleeps)
	}
	if string(fake.uploaded) != "RIFF" {
		t.Fatalf("uploaded bytes = %q", fake.uploaded)
	}
	if fake.submitted != "https://cdn.example/audio-1" {
		t.Fatalf("submitted audio_url = %q", fake.submitted)
	}
	for _, auth := range fake.auth {
		if auth != "aai" {
			t.Fatalf("expected raw key in Authorization, got %q", auth)
		}
	}
}

func TestAsyncErrorStatusIsFinal(t *testing.T) {
	fake := &fakeAssembly{statuses: []transcriptStatus{
		{Status: transcribe.StatusProcessing},
		{Status: transcribe.StatusError, Error: "unsupported codec"},
		{Status: transcribe.StatusCompleted, Text: "never reached"},
	}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	var sleeps int
	svc := transcribe.NewService(transcribe.Config{APIKey: "aai", BaseURL: server.URL}, noSleep(&sleeps))
	_, err := svc.Transcribe(context.Background(), transcribe.Audio{Data: []byte("x")})
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported codec") {
		t.Fatalf("expected provider error in message, got %v", err)
	}
	if fake.polls != 2 {
		t.Fatalf("expected polling to stop at the error status, got %d polls", fake.polls)
	}
}

func TestAsyncMaxWaitBound(t *testing.T) {
	fake := &fakeAssembly{statuses: []transcriptStatus{{Status: transcribe.StatusProcessing}}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	svc := transcribe.NewService(
		transcribe.Config{APIKey: "aai", BaseURL: server.URL, PollInterval: 2 * time.Second, MaxWait: 5 * time.Second},
		transcribe.WithClock(func() time.Time { return now }),
		transcribe.WithSleeper(func(_ context.Context, d time.Duration) error {
			now = now.Add(d)
			return nil
		}),
	)
	_, err := svc.Transcribe(context.Background(), transcribe.Audio{Data: []byte("x")})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if fake.polls != 3 {
		t.Fatalf("expected 3 polls inside a 5s bound at 2s intervals, got %d", fake.polls)
	}
}

func TestAsyncCanceledContextStopsPolling(t *testing.T) {
	fake := &fakeAssembly{statuses: []transcriptStatus{{Status: transcribe.StatusProcessing}}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	svc := transcribe.NewService(
		transcribe.Config{APIKey: "aai", BaseURL: server.URL},
		transcribe.WithSleeper(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)
	_, err := svc.Transcribe(ctx, transcribe.Audio{Data: []byte("x")})
	if !errors.Is(err, services.ErrTransport) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled transport error, got %v", err)
	}
}

func TestAsyncUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer server.Close()

	svc := transcribe.NewService(transcribe.Config{APIKey: "bad", BaseURL: server.URL})
	_, err := svc.Transcribe(context.Background(), transcribe.Audio{Data: []byte("x")})
	if !errors.Is(err, services.ErrUpstream) || !strings.Contains(err.Error(), "Invalid API key") {
		t.Fatalf("expected upstream error with body, got %v", err)
	}
}

func TestSyncProviderMultipart(t *testing.T) {
	var gotAuth, gotModel, gotFormat, gotFilename, gotData string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		data, _ := io.ReadAll(file)
		gotData = string(data)
		_, _ = w.Write([]byte("Alice: kickoff at ten\n"))
	}))
	defer server.Close()

	svc := transcribe.NewService(transcribe.Config{Mode: "sync", APIKey: "sk", BaseURL: server.URL})
	text, err := svc.Transcribe(context.Background(), transcribe.Audio{Filename: "standup.m4a", Data: []byte("AUDIO")})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "Alice: kickoff at ten" {
		t.Fatalf("unexpected transcript %q", text)
	}
	if gotAuth != "Bearer sk" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotModel != "whisper-1" || gotFormat != "text" {
		t.Fatalf("unexpected fields model=%q response_format=%q", gotModel, gotFormat)
	}
	if gotFilename != "standup.m4a" || gotData != "AUDIO" {
		t.Fatalf("unexpected file %q (%q)", gotFilename, gotData)
	}
}

func TestSyncProviderEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("  \n"))
	}))
	defer server.Close()

	svc := transcribe.NewService(transcribe.Config{Mode: "sync", APIKey: "sk", BaseURL: server.URL})
	_, err := svc.Transcribe(context.Background(), transcribe.Audio{Data: []byte("x")})
	if !errors.Is(err, services.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestPreconditions(t *testing.T) {
	for _, mode := range []string{config.ModeSync, config.ModeAsync} {
		t.Run(mode, func(t *testing.T) {
			unconfigured := transcribe.NewService(transcribe.Config{Mode: mode, BaseURL: "http://127.0.0.1:1"})
			if unconfigured.Configured() {
				t.Fatal("expected unconfigured provider")
			}
			_, err := unconfigured.Transcribe(context.Background(), transcribe.Audio{Data: []byte("x")})
			if !errors.Is(err, services.ErrServiceUnavailable) {
				t.Fatalf("expected ErrServiceUnavailable, got %v", err)
			}

			configured := transcribe.NewService(transcribe.Config{Mode: mode, APIKey: "k", BaseURL: "http://127.0.0.1:1"})
			_, err = configured.Transcribe(context.Background(), transcribe.Audio{Filename: "empty.wav"})
			if !errors.Is(err, services.ErrMissingInput) {
				t.Fatalf("expected ErrMissingInput, got %v", err)
			}
		})
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	got := transcribe.ConfigFrom(cfg.Transcription)
	if got.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval = %s, want 2s", got.PollInterval)
	}
	if got.MaxWait != 10*time.Minute {
		t.Fatalf("MaxWait = %s, want 10m", got.MaxWait)
	}
}

func TestAsyncCompletedWithoutTextIsEmptyResult(t *testing.T) {
	fake := &fakeAssembly{statuses: []transcriptStatus{
		{Status: transcribe.StatusProcessing},
		{Status: transcribe.StatusCompleted, Text: "  "},
	}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	var sleeps int
	svc := transcribe.NewService(transcribe.Config{Mode: config.ModeAsync, APIKey: "aai", BaseURL: server.URL}, noSleep(&sleeps))
	_, err := svc.Transcribe(context.Background(), transcribe.Audio{Data: []byte("x")})
	if !errors.Is(err, services.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	if fake.polls != 2 {
		t.Fatalf("expected polling to stop at completion, got %d polls", fake.polls)
	}
}

func TestAsyncTransportFailureMidPollIsFinal(t *testing.T) {
	fake := &fakeAssembly{statuses: []transcriptStatus{{Status: transcribe.StatusProcessing}}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	sleeps := 0
	svc := transcribe.NewService(
		transcribe.Config{Mode: config.ModeAsync, APIKey: "aai", BaseURL: server.URL},
		transcribe.WithSleeper(func(ctx context.Context, _ time.Duration) error {
			sleeps++
			if sleeps == 2 {
				// Provider goes away between polls.
				server.Close()
			}
			return ctx.Err()
		}),
	)
	_, err := svc.Transcribe(context.Background(), transcribe.Audio{Data: []byte("x")})
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if fake.polls != 1 || sleeps != 2 {
		t.Fatalf("expected no retry after the transport failure, got %d polls %d sleeps", fake.polls, sleeps)
	}
}
