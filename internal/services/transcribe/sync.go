package transcribe

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"minutes/internal/services"
)

// syncProvider speaks the OpenAI audio transcription API: one multipart POST
// returning plain text.
type syncProvider struct {
	cfg    Config
	client *http.Client
}

func (p *syncProvider) Configured() bool { return p.cfg.APIKey != "" }

func (p *syncProvider) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if err := validate(p.cfg, audio); err != nil {
		return "", err
	}

	body, contentType, err := p.encode(audio)
	if err != nil {
		return "", services.Wrap(services.ErrTransport, component, "encode", "build multipart body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", services.Wrap(services.ErrTransport, component, "request", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	raw, err := do(p.client, req, "transcribe")
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", services.Wrap(services.ErrEmptyResult, component, "transcribe", "provider returned no text", nil)
	}
	return text, nil
}

func (p *syncProvider) encode(audio Audio) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	name := filepath.Base(strings.TrimSpace(audio.Filename))
	if name == "" || name == "." || name == "/" {
		name = "audio"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(name)+`"`)
	contentType := strings.TrimSpace(audio.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"model", p.cfg.Model},
		{"response_format", "text"},
	}
	if lang := strings.TrimSpace(p.cfg.Language); lang != "" {
		fields = append(fields, [2]string{"language", lang})
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
