package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"minutes/internal/services"
)

// Job statuses reported by the provider.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// asyncProvider speaks the AssemblyAI v2 API: upload the bytes, submit a
// transcript job for the returned URL, then poll the job until it settles.
type asyncProvider struct {
	cfg    Config
	client *http.Client
	sleep  func(context.Context, time.Duration) error
	now    func() time.Time
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type submitRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code,omitempty"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

func (p *asyncProvider) Configured() bool { return p.cfg.APIKey != "" }

func (p *asyncProvider) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if err := validate(p.cfg, audio); err != nil {
		return "", err
	}

	uploadURL, err := p.upload(ctx, audio.Data)
	if err != nil {
		return "", err
	}
	job, err := p.submit(ctx, uploadURL)
	if err != nil {
		return "", err
	}
	return p.poll(ctx, job)
}

func (p *asyncProvider) upload(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", services.Wrap(services.ErrTransport, component, "upload", "build request", err)
	}
	req.Header.Set("Authorization", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	body, err := do(p.client, req, "upload")
	if err != nil {
		return "", err
	}
	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", services.Wrap(services.ErrUpstream, component, "upload", "invalid response body", err)
	}
	if strings.TrimSpace(parsed.UploadURL) == "" {
		return "", services.Wrap(services.ErrUpstream, component, "upload", "provider returned no upload_url", nil)
	}
	return parsed.UploadURL, nil
}

func (p *asyncProvider) submit(ctx context.Context, uploadURL string) (transcriptResponse, error) {
	var job transcriptResponse
	encoded, err := json.Marshal(submitRequest{AudioURL: uploadURL, LanguageCode: strings.TrimSpace(p.cfg.Language)})
	if err != nil {
		return job, services.Wrap(services.ErrTransport, component, "submit", "marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/transcript", bytes.NewReader(encoded))
	if err != nil {
		return job, services.Wrap(services.ErrTransport, component, "submit", "build request", err)
	}
	req.Header.Set("Authorization", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := do(p.client, req, "submit")
	if err != nil {
		return job, err
	}
	if err := json.Unmarshal(body, &job); err != nil {
		return job, services.Wrap(services.ErrUpstream, component, "submit", "invalid response body", err)
	}
	if strings.TrimSpace(job.ID) == "" {
		return job, services.Wrap(services.ErrUpstream, component, "submit", "provider returned no job id", nil)
	}
	return job, nil
}

// poll fetches the job every PollInterval until it completes or errors. The
// loop ends early on context cancellation and, when MaxWait is set, once the
// bound is exceeded.
func (p *asyncProvider) poll(ctx context.Context, job transcriptResponse) (string, error) {
	started := p.now()
	endpoint := p.cfg.BaseURL + "/transcript/" + url.PathEscape(job.ID)
	for {
		if done, text, err := settle(job); done {
			return text, err
		}
		if p.cfg.MaxWait > 0 && p.now().Sub(started) >= p.cfg.MaxWait {
			return "", services.Wrap(
				services.ErrTimeout,
				component,
				"poll",
				fmt.Sprintf("job %s still %s after %s", job.ID, job.Status, p.cfg.MaxWait),
				nil,
			)
		}
		if err := p.sleep(ctx, p.cfg.PollInterval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", services.Wrap(services.ErrTimeout, component, "poll", "deadline exceeded", err)
			}
			return "", services.Wrap(services.ErrTransport, component, "poll", "polling canceled", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", services.Wrap(services.ErrTransport, component, "poll", "build request", err)
		}
		req.Header.Set("Authorization", p.cfg.APIKey)
		body, err := do(p.client, req, "poll")
		if err != nil {
			return "", err
		}
		var next transcriptResponse
		if err := json.Unmarshal(body, &next); err != nil {
			return "", services.Wrap(services.ErrUpstream, component, "poll", "invalid response body", err)
		}
		if next.ID == "" {
			next.ID = job.ID
		}
		job = next
	}
}

func settle(job transcriptResponse) (bool, string, error) {
	switch strings.ToLower(strings.TrimSpace(job.Status)) {
	case StatusCompleted:
		text := strings.TrimSpace(job.Text)
		if text == "" {
			return true, "", services.Wrap(services.ErrEmptyResult, component, "poll", "job completed without text", nil)
		}
		return true, text, nil
	case StatusError:
		msg := strings.TrimSpace(job.Error)
		if msg == "" {
			msg = "transcription failed"
		}
		return true, "", services.Wrap(services.ErrUpstream, component, "poll", msg, nil)
	default:
		return false, "", nil
	}
}
