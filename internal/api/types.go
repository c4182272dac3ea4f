package api

import (
	"strings"

	"minutes/internal/services"
)

// SummarizeRequest is the body of POST /summarize.
type SummarizeRequest struct {
	Transcript string `json:"transcript"`
	Prompt     string `json:"prompt"`
}

// Validate reports ErrMissingInput when either field is blank.
func (r SummarizeRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Transcript) == "" {
		missing = append(missing, "transcript")
	}
	if strings.TrimSpace(r.Prompt) == "" {
		missing = append(missing, "prompt")
	}
	return missingFields(missing)
}

// SummarizeResponse is the success body of POST /summarize.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// EmailRequest is the body of POST /send-email.
type EmailRequest struct {
	Recipients     []string `json:"recipients"`
	Summary        string   `json:"summary"`
	OriginalPrompt string   `json:"originalPrompt"`
	Title          string   `json:"title,omitempty"`
}

// Validate reports ErrMissingInput when there is no usable recipient or the
// summary is blank.
func (r EmailRequest) Validate() error {
	var missing []string
	if len(r.CleanRecipients()) == 0 {
		missing = append(missing, "recipients")
	}
	if strings.TrimSpace(r.Summary) == "" {
		missing = append(missing, "summary")
	}
	return missingFields(missing)
}

// CleanRecipients returns the recipients trimmed, with empty entries dropped.
func (r EmailRequest) CleanRecipients() []string {
	out := make([]string, 0, len(r.Recipients))
	for _, rcpt := range r.Recipients {
		if rcpt = strings.TrimSpace(rcpt); rcpt != "" {
			out = append(out, rcpt)
		}
	}
	return out
}

// EmailResponse is the success body of POST /send-email.
type EmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// TranscriptionResult is the success body of POST /voice-to-text.
type TranscriptionResult struct {
	Transcription string `json:"transcription"`
	Filename      string `json:"filename"`
	Size          int64  `json:"size"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services"`
}

// Gateway names reported by /health.
const (
	ServiceSummarize     = "summarize"
	ServiceEmail         = "email"
	ServiceTranscription = "transcription"
)

func missingFields(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return services.Wrap(services.ErrMissingInput, "api", "validate", strings.Join(fields, " and ")+" required", nil)
}
