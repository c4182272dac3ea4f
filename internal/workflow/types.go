package workflow

import (
	"context"
	"errors"
	"time"

	"minutes/internal/api"
	"minutes/internal/services/transcribe"
)

// State is the controller's position in the session lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateTranscribing State = "transcribing"
	StateGenerating   State = "generating"
	StateReady        State = "ready"
	StateEditing      State = "editing"
	StateSending      State = "sending"
)

// ErrInvalidState is returned when an operation is not allowed from the
// current state.
var ErrInvalidState = errors.New("invalid state")

// Summarizer produces a summary for a transcript and instruction prompt.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, prompt string) (string, error)
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio transcribe.Audio) (string, error)
}

// Mailer delivers a summary to a list of recipients.
type Mailer interface {
	SendEmail(ctx context.Context, req api.EmailRequest) (api.EmailResponse, error)
}

// Gateways groups the remote collaborators a controller calls.
type Gateways struct {
	Summarizer  Summarizer
	Transcriber Transcriber
	Mailer      Mailer
}

// Summary is one generated (and possibly edited) summary.
type Summary struct {
	ID                 string    `json:"id"`
	Content            string    `json:"content"`
	Prompt             string    `json:"prompt"`
	OriginalTranscript string    `json:"originalTranscript"`
	CreatedAt          time.Time `json:"createdAt"`
	Title              string    `json:"title"`
}

// StoredResponse is a history entry.
type StoredResponse struct {
	Summary   Summary   `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// ID returns the entry's identifier.
func (r StoredResponse) ID() string { return r.Summary.ID }

// Snapshot is a read-only copy of the session fields.
type Snapshot struct {
	State      State
	Transcript string
	Prompt     string
	Summary    string
	Title      string
	SelectedID string
	History    int
}

// HasSummary reports whether the snapshot holds a non-empty summary.
func (s Snapshot) HasSummary() bool { return s.Summary != "" }

// Export is a rendered plain-text download.
type Export struct {
	FileName string
	Content  string
}
