package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/services/transcribe"
)

const (
	component         = "workflow"
	defaultNoticeTTL  = 5 * time.Second
	defaultTitle      = "Meeting Summary"
	defaultTitleDate  = "Jan 2, 2006"
	generatedLayout   = "Jan 2, 2006 3:04:05 PM"
	maxTextUploadSize = 32 << 20
)

// Controller coordinates one summary session. The zero value is not usable;
// construct with New.
type Controller struct {
	gateways      Gateways
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
	defaultPrompt string
	notices       *noticeBoard

	// opMu serializes operations, including across gateway calls.
	opMu sync.Mutex

	// mu guards the fields below for readers.
	mu          sync.RWMutex
	state       State
	transcript  string
	prompt      string
	summary     string
	title       string
	titleIsAuto bool
	selectedID  string
	history     []StoredResponse
}

// Option configures optional Controller behavior.
type Option func(*Controller)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithNoticeTTL overrides how long notices stay visible.
func WithNoticeTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		if ttl > 0 {
			c.notices.ttl = ttl
		}
	}
}

// WithIDGenerator overrides history id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New constructs a controller. cfg may be nil, in which case no default
// prompt applies and notices use a five second lifetime.
func New(cfg *config.Config, gateways Gateways, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Controller{
		gateways: gateways,
		logger:   logger.With(logging.String(logging.FieldComponent, component)),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		state:    StateIdle,
		notices:  &noticeBoard{ttl: defaultNoticeTTL},
	}
	if cfg != nil {
		c.defaultPrompt = strings.TrimSpace(cfg.Client.DefaultPrompt)
		if ttl := cfg.NoticeTTL(); ttl > 0 {
			c.notices.ttl = ttl
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	c.notices.now = func() time.Time { return c.now() }
	return c
}

// Snapshot returns a copy of the session fields.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		State:      c.state,
		Transcript: c.transcript,
		Prompt:     c.effectivePromptLocked(),
		Summary:    c.summary,
		Title:      c.title,
		SelectedID: c.selectedID,
		History:    len(c.history),
	}
}

// History returns the saved entries, newest first.
func (c *Controller) History() []StoredResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]StoredResponse, len(c.history))
	copy(out, c.history)
	return out
}

// Notices returns the notices that have not yet expired.
func (c *Controller) Notices() []Notice {
	return c.notices.live()
}

// UploadText replaces the transcript with the contents of r.
func (c *Controller) UploadText(name string, r io.Reader) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if r == nil {
		return c.failed("upload", services.Wrap(services.ErrMissingInput, component, "upload", "no file provided", nil))
	}
	data, err := io.ReadAll(io.LimitReader(r, maxTextUploadSize+1))
	if err != nil {
		return c.failed("upload", services.Wrap(services.ErrMissingInput, component, "upload", "unreadable file", err))
	}
	if len(data) > maxTextUploadSize {
		return c.failed("upload", services.Wrap(services.ErrMissingInput, component, "upload", "transcript exceeds 32 MiB", nil))
	}

	c.mu.Lock()
	c.transcript = string(data)
	c.mu.Unlock()

	c.logger.Info("transcript loaded",
		logging.String("file", name),
		logging.Int("bytes", len(data)),
	)
	c.notices.raise(NoticeSuccess, fmt.Sprintf("Loaded transcript from %s", displayName(name)))
	return nil
}

// UploadAudio transcribes audio and replaces the transcript with the result.
// On failure the transcript is left untouched.
func (c *Controller) UploadAudio(ctx context.Context, audio transcribe.Audio) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if len(audio.Data) == 0 {
		return c.failed("transcribe", services.Wrap(services.ErrMissingInput, component, "transcribe", "no audio provided", nil))
	}
	if c.gateways.Transcriber == nil {
		return c.failed("transcribe", services.Wrap(services.ErrServiceUnavailable, component, "transcribe", "transcriber not wired", nil))
	}
	prior, err := c.enter("transcribe", StateTranscribing, StateIdle, StateReady)
	if err != nil {
		return err
	}

	start := c.now()
	text, err := c.gateways.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		c.setState(prior)
		return c.failed("transcribe", err)
	}

	c.mu.Lock()
	c.transcript = text
	c.state = prior
	c.mu.Unlock()

	c.logger.Info("audio transcribed",
		logging.String("file", audio.Filename),
		logging.Int("audio_bytes", len(audio.Data)),
		logging.Int("transcript_chars", len(text)),
		logging.Duration("elapsed", c.now().Sub(start)),
	)
	c.notices.raise(NoticeSuccess, fmt.Sprintf("Transcribed %s", displayName(audio.Filename)))
	return nil
}

// SetTranscript replaces the transcript.
func (c *Controller) SetTranscript(text string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	c.transcript = text
	c.mu.Unlock()
}

// SetPrompt replaces the instruction prompt.
func (c *Controller) SetPrompt(prompt string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	c.prompt = prompt
	c.mu.Unlock()
}

// SetTitle replaces the document title. A title set here is kept across
// later generations.
func (c *Controller) SetTitle(title string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	c.title = strings.TrimSpace(title)
	c.titleIsAuto = false
	c.mu.Unlock()
}

// EditSummary replaces the summary text. Only allowed while editing.
func (c *Controller) EditSummary(text string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return fmt.Errorf("edit summary while %s: %w", c.state, ErrInvalidState)
	}
	c.summary = text
	return nil
}

// ToggleEdit switches between Ready and Editing.
func (c *Controller) ToggleEdit() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateReady:
		c.state = StateEditing
	case StateEditing:
		c.state = StateReady
	default:
		return fmt.Errorf("toggle edit while %s: %w", c.state, ErrInvalidState)
	}
	return nil
}

// Generate summarizes the current transcript with the current prompt. The
// default prompt applies when none was set. On failure the previous summary
// and state are kept.
func (c *Controller) Generate(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.generateLocked(ctx, "generate")
}

// Regenerate runs Generate again with the held transcript and prompt.
func (c *Controller) Regenerate(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.generateLocked(ctx, "regenerate")
}

func (c *Controller) generateLocked(ctx context.Context, op string) error {
	c.mu.RLock()
	transcript := c.transcript
	prompt := c.effectivePromptLocked()
	c.mu.RUnlock()

	if strings.TrimSpace(transcript) == "" || strings.TrimSpace(prompt) == "" {
		return c.failed(op, services.Wrap(services.ErrMissingInput, component, op, "transcript and prompt required", nil))
	}
	if c.gateways.Summarizer == nil {
		return c.failed(op, services.Wrap(services.ErrServiceUnavailable, component, op, "summarizer not wired", nil))
	}
	prior, err := c.enter(op, StateGenerating, StateIdle, StateReady)
	if err != nil {
		return err
	}

	start := c.now()
	summary, err := c.gateways.Summarizer.Summarize(ctx, transcript, prompt)
	if err != nil {
		c.setState(prior)
		return c.failed(op, err)
	}

	now := c.now()
	c.mu.Lock()
	c.summary = summary
	c.prompt = prompt
	if c.title == "" || c.titleIsAuto {
		c.title = fmt.Sprintf("%s - %s", defaultTitle, now.Format(defaultTitleDate))
		c.titleIsAuto = true
	}
	c.state = StateReady
	c.mu.Unlock()

	c.logger.Info("summary generated",
		logging.String("operation", op),
		logging.Int("transcript_chars", len(transcript)),
		logging.Int("summary_chars", len(summary)),
		logging.Duration("elapsed", now.Sub(start)),
	)
	c.notices.raise(NoticeSuccess, "Summary generated")
	return nil
}

// Save prepends the current summary to history under a fresh id. Saving the
// same summary twice yields two entries.
func (c *Controller) Save() (StoredResponse, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	now := c.now()
	c.mu.Lock()
	if c.summary == "" {
		c.mu.Unlock()
		return StoredResponse{}, c.failed("save", services.Wrap(services.ErrMissingInput, component, "save", "no summary to save", nil))
	}
	entry := StoredResponse{
		Summary: Summary{
			ID:                 c.newID(),
			Content:            c.summary,
			Prompt:             c.effectivePromptLocked(),
			OriginalTranscript: c.transcript,
			CreatedAt:          now,
			Title:              c.title,
		},
		Timestamp: now,
	}
	c.history = append([]StoredResponse{entry}, c.history...)
	size := len(c.history)
	c.mu.Unlock()

	c.logger.Info("summary saved",
		logging.String("id", entry.ID()),
		logging.Int("history_size", size),
	)
	c.notices.raise(NoticeSuccess, "Summary saved to history")
	return entry, nil
}

// Load replaces the session fields with a saved entry. Unknown ids are
// ignored and report false.
func (c *Controller) Load(id string) bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.history {
		if entry.ID() != id {
			continue
		}
		c.transcript = entry.Summary.OriginalTranscript
		c.prompt = entry.Summary.Prompt
		c.summary = entry.Summary.Content
		c.title = entry.Summary.Title
		c.titleIsAuto = false
		c.selectedID = id
		c.state = StateReady
		return true
	}
	return false
}

// Delete removes a saved entry, clearing the selection when it pointed at
// that entry. Reports whether anything was removed.
func (c *Controller) Delete(id string) bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, entry := range c.history {
		if entry.ID() != id {
			continue
		}
		c.history = append(c.history[:i:i], c.history[i+1:]...)
		if c.selectedID == id {
			c.selectedID = ""
		}
		return true
	}
	return false
}

// Download renders the current summary as a plain-text document.
func (c *Controller) Download() (Export, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	summary := c.summary
	title := c.title
	prompt := c.effectivePromptLocked()
	c.mu.RUnlock()

	if summary == "" {
		return Export{}, c.failed("download", services.Wrap(services.ErrMissingInput, component, "download", "no summary to download", nil))
	}
	export := RenderExport(title, prompt, summary, c.now())
	c.notices.raise(NoticeSuccess, fmt.Sprintf("Prepared %s", export.FileName))
	return export, nil
}

// SendEmail mails the current summary to a comma separated recipient list.
func (c *Controller) SendEmail(ctx context.Context, recipientsCSV string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	recipients := SplitRecipients(recipientsCSV)
	c.mu.RLock()
	req := api.EmailRequest{
		Recipients:     recipients,
		Summary:        c.summary,
		OriginalPrompt: c.effectivePromptLocked(),
		Title:          c.title,
	}
	c.mu.RUnlock()

	if req.Summary == "" {
		return c.failed("email", services.Wrap(services.ErrMissingInput, component, "email", "no summary to send", nil))
	}
	if len(recipients) == 0 {
		return c.failed("email", services.Wrap(services.ErrMissingInput, component, "email", "at least one recipient required", nil))
	}
	if c.gateways.Mailer == nil {
		return c.failed("email", services.Wrap(services.ErrServiceUnavailable, component, "email", "mailer not wired", nil))
	}
	prior, err := c.enter("email", StateSending, StateReady, StateEditing)
	if err != nil {
		return err
	}

	resp, err := c.gateways.Mailer.SendEmail(ctx, req)
	c.setState(prior)
	if err != nil {
		return c.failed("email", err)
	}

	c.logger.Info("summary emailed",
		logging.Int("recipients", len(recipients)),
		logging.String("message_id", resp.ID),
	)
	message := resp.Message
	if message == "" {
		message = fmt.Sprintf("Email sent successfully to %d recipient(s)", len(recipients))
	}
	c.notices.raise(NoticeSuccess, message)
	return nil
}

// enter moves into a busy state when the current state is one of allowed and
// returns the state to restore afterwards.
func (c *Controller) enter(op string, busy State, allowed ...State) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prior := c.state
	for _, s := range allowed {
		if prior == s {
			c.state = busy
			return prior, nil
		}
	}
	err := fmt.Errorf("%s while %s: %w", op, prior, ErrInvalidState)
	c.notices.raise(NoticeError, fmt.Sprintf("Cannot %s while %s", op, prior))
	return prior, err
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// failed logs err, raises an error notice, and returns err unchanged.
func (c *Controller) failed(op string, err error) error {
	kind := services.Kind(err)
	logging.WarnWithContext(c.logger, "session operation failed", "operation_failed",
		logging.String("operation", op),
		logging.String(logging.FieldErrorKind, kind),
		logging.Error(err),
	)
	c.notices.raise(NoticeError, fmt.Sprintf("%s failed: %s", opLabel(op), err.Error()))
	return err
}

func (c *Controller) effectivePromptLocked() string {
	if strings.TrimSpace(c.prompt) != "" {
		return c.prompt
	}
	return c.defaultPrompt
}

// SplitRecipients splits a comma separated list, trimming whitespace and
// dropping empty entries.
func SplitRecipients(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func opLabel(op string) string {
	switch op {
	case "upload":
		return "Upload"
	case "transcribe":
		return "Transcription"
	case "generate", "regenerate":
		return "Summary generation"
	case "save":
		return "Save"
	case "download":
		return "Download"
	case "email":
		return "Email"
	default:
		return op
	}
}

func displayName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return "upload"
}
