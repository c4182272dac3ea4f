package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/server"
	"minutes/internal/services"
	"minutes/internal/services/mailer"
	"minutes/internal/services/transcribe"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSummarizer struct {
	calls      int
	transcript string
	prompt     string
	summary    string
	err        error
	configured bool
}

func (f *fakeSummarizer) Summarize(_ context.Context, transcript, prompt string) (string, error) {
	f.calls++
	f.transcript = transcript
	f.prompt = prompt
	return f.summary, f.err
}

func (f *fakeSummarizer) Configured() bool { return f.configured }

type fakeMailer struct {
	calls int
	req   api.EmailRequest
	err   error
}

func (f *fakeMailer) Send(_ context.Context, req api.EmailRequest) (mailer.Receipt, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return mailer.Receipt{}, f.err
	}
	return mailer.Receipt{ID: "msg-1"}, nil
}

func (f *fakeMailer) Configured() bool { return true }

type fakeTranscriber struct {
	audio transcribe.Audio
	text  string
	err   error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio transcribe.Audio) (string, error) {
	f.audio = audio
	return f.text, f.err
}

func (f *fakeTranscriber) Configured() bool { return false }

func newHandler(t *testing.T, gw server.Gateways) http.Handler {
	t.Helper()
	cfg := config.Default()
	return server.New(&cfg, gw, nil).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var body api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%q)", err, rec.Body.String())
	}
	return body
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	h := rec.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" ||
		h.Get("Access-Control-Allow-Methods") != "POST, OPTIONS" ||
		h.Get("Access-Control-Allow-Headers") != "Content-Type" {
		t.Fatalf("missing CORS headers: %v", h)
	}
}

func TestSummarizeSuccess(t *testing.T) {
	sum := &fakeSummarizer{summary: "S", configured: true}
	h := newHandler(t, server.Gateways{Summarizer: sum})

	rec := doJSON(t, h, http.MethodPost, server.PathSummarize, `{"transcript":"T","prompt":"P"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	assertCORS(t, rec)
	var body api.SummarizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Summary != "S" {
		t.Fatalf("summary = %q", body.Summary)
	}
	if sum.transcript != "T" || sum.prompt != "P" {
		t.Fatalf("gateway got %q/%q", sum.transcript, sum.prompt)
	}
	if rec.Header().Get(server.RequestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestSummarizeMissingFieldsIs400WithoutCall(t *testing.T) {
	sum := &fakeSummarizer{summary: "S", configured: true}
	h := newHandler(t, server.Gateways{Summarizer: sum})

	for _, body := range []string{`{"transcript":"","prompt":"P"}`, `{"transcript":"T"}`, `not json`, ``} {
		rec := doJSON(t, h, http.MethodPost, server.PathSummarize, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, rec.Code)
		}
		if got := decodeError(t, rec); got.Kind != services.KindMissingInput || got.Error == "" {
			t.Fatalf("body %q: unexpected error body %+v", body, got)
		}
		assertCORS(t, rec)
	}
	if sum.calls != 0 {
		t.Fatalf("expected no gateway calls, got %d", sum.calls)
	}
}

func TestSummarizeGatewayErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    string
		message string
	}{
		{
			name: "unconfigured",
			err:  services.Wrap(services.ErrServiceUnavailable, "summarize", "configure", "LLM API key not set", nil),
			kind: services.KindServiceUnavailable, message: "service not configured",
		},
		{
			name: "upstream",
			err:  services.Wrap(services.ErrUpstream, "summarize", "request", "http 401: bad key", nil),
			kind: services.KindUpstreamError, message: "bad key",
		},
		{
			name: "transport",
			err:  services.Wrap(services.ErrTransport, "summarize", "request", "dial tcp 10.0.0.1:443", nil),
			kind: services.KindTransportError, message: "could not reach provider",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandler(t, server.Gateways{Summarizer: &fakeSummarizer{err: tc.err}})
			rec := doJSON(t, h, http.MethodPost, server.PathSummarize, `{"transcript":"T","prompt":"P"}`)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d", rec.Code)
			}
			body := decodeError(t, rec)
			if body.Kind != tc.kind || !strings.Contains(body.Error, tc.message) {
				t.Fatalf("unexpected body %+v", body)
			}
			if strings.Contains(body.Error, "10.0.0.1") {
				t.Fatalf("transport detail leaked: %q", body.Error)
			}
		})
	}
}

func TestPreflightAndMethodNotAllowed(t *testing.T) {
	h := newHandler(t, server.Gateways{})
	for _, path := range []string{server.PathSummarize, server.PathSendEmail, server.PathVoiceToText} {
		rec := doJSON(t, h, http.MethodOptions, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("OPTIONS %s: status = %d", path, rec.Code)
		}
		assertCORS(t, rec)

		rec = doJSON(t, h, http.MethodGet, path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("GET %s: status = %d", path, rec.Code)
		}
		if body := decodeError(t, rec); body.Error != "Method not allowed" || body.Details != "GET "+path {
			t.Fatalf("GET %s: body %+v", path, body)
		}
		assertCORS(t, rec)
	}
}

func TestSendEmail(t *testing.T) {
	m := &fakeMailer{}
	h := newHandler(t, server.Gateways{Mailer: m})

	rec := doJSON(t, h, http.MethodPost, server.PathSendEmail,
		`{"recipients":["a@x.io","b@y.io"],"summary":"S","originalPrompt":"P","title":"Weekly"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body api.EmailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || !strings.Contains(body.Message, "2 recipient") {
		t.Fatalf("unexpected body %+v", body)
	}
	if m.req.OriginalPrompt != "P" || m.req.Title != "Weekly" {
		t.Fatalf("mailer got %+v", m.req)
	}

	rec = doJSON(t, h, http.MethodPost, server.PathSendEmail, `{"recipients":[],"summary":"S"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty recipients: status = %d", rec.Code)
	}
	if m.calls != 1 {
		t.Fatalf("expected a single mailer call, got %d", m.calls)
	}
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(data)
	} else {
		_ = w.WriteField("note", "no file")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestVoiceToText(t *testing.T) {
	tr := &fakeTranscriber{text: "hello"}
	h := newHandler(t, server.Gateways{Transcriber: tr})

	body, contentType := multipartBody(t, "audio", "call.mp3", []byte("12345"))
	req := httptest.NewRequest(http.MethodPost, server.PathVoiceToText, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var result api.TranscriptionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Transcription != "hello" || result.Filename != "call.mp3" || result.Size != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
	if string(tr.audio.Data) != "12345" {
		t.Fatalf("transcriber got %q", tr.audio.Data)
	}
}

func TestVoiceToTextMissingFile(t *testing.T) {
	h := newHandler(t, server.Gateways{Transcriber: &fakeTranscriber{text: "x"}})

	body, contentType := multipartBody(t, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, server.PathVoiceToText, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Kind != services.KindMissingInput {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestHealth(t *testing.T) {
	h := newHandler(t, server.Gateways{
		Summarizer:  &fakeSummarizer{configured: true},
		Mailer:      &fakeMailer{},
		Transcriber: &fakeTranscriber{},
	})
	rec := doJSON(t, h, http.MethodGet, server.PathHealth, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body api.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || !body.Services[api.ServiceSummarize] || !body.Services[api.ServiceEmail] || body.Services[api.ServiceTranscription] {
		t.Fatalf("unexpected health %+v", body)
	}
}
