package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"minutes/internal/api"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/services/transcribe"
)

// Endpoint paths.
const (
	PathSummarize   = "/summarize"
	PathSendEmail   = "/send-email"
	PathVoiceToText = "/voice-to-text"
	PathHealth      = "/health"

	audioField = "audio"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(s.recovery(), cors(), requestContext(), s.accessLog())
	r.NoMethod(methodNotAllowed)
	r.NoRoute(notFound)

	r.POST(PathSummarize, s.handleSummarize)
	r.POST(PathSendEmail, s.handleSendEmail)
	r.POST(PathVoiceToText, s.handleVoiceToText)
	for _, path := range []string{PathSummarize, PathSendEmail, PathVoiceToText} {
		r.OPTIONS(path, preflight)
	}
	r.GET(PathHealth, s.handleHealth)
	return r
}

func (s *Server) handleSummarize(c *gin.Context) {
	var req api.SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, malformed(err))
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	if s.gateways.Summarizer == nil {
		s.fail(c, unconfigured("summarize"))
		return
	}

	summary, err := s.gateways.Summarizer.Summarize(c.Request.Context(), req.Transcript, req.Prompt)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.SummarizeResponse{Summary: summary})
}

func (s *Server) handleSendEmail(c *gin.Context) {
	var req api.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, malformed(err))
		return
	}
	if err := req.Validate(); err != nil {
		s.fail(c, err)
		return
	}
	if s.gateways.Mailer == nil {
		s.fail(c, unconfigured("email"))
		return
	}

	receipt, err := s.gateways.Mailer.Send(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	recipients := req.CleanRecipients()
	c.JSON(http.StatusOK, api.EmailResponse{
		Success: true,
		Message: fmt.Sprintf("Email sent successfully to %d recipient(s)", len(recipients)),
		ID:      receipt.ID,
	})
}

func (s *Server) handleVoiceToText(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	header, err := c.FormFile(audioField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, services.Wrap(services.ErrMissingInput, "transcribe", "upload",
				fmt.Sprintf("audio file exceeds %d MiB limit", s.maxUpload>>20), nil))
			return
		}
		s.fail(c, services.Wrap(services.ErrMissingInput, "transcribe", "upload", "no audio file provided", nil))
		return
	}
	file, err := header.Open()
	if err != nil {
		s.fail(c, services.Wrap(services.ErrMissingInput, "transcribe", "upload", "unreadable audio file", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(c, services.Wrap(services.ErrMissingInput, "transcribe", "upload", "unreadable audio file", err))
		return
	}
	if s.gateways.Transcriber == nil {
		s.fail(c, unconfigured("transcribe"))
		return
	}

	audio := transcribe.Audio{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	text, err := s.gateways.Transcriber.Transcribe(c.Request.Context(), audio)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.TranscriptionResult{
		Transcription: text,
		Filename:      header.Filename,
		Size:          header.Size,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok", Services: s.Services()})
}

// fail logs err and writes the classified error body.
func (s *Server) fail(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	kind := services.Kind(err)
	logger := logging.WithContext(c.Request.Context(), s.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldErrorKind, kind),
		logging.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(logger, "gateway call failed", "gateway_failed", attrs...)
	} else {
		logger.Debug("request validation failed", logging.Args(attrs...)...)
	}
	c.AbortWithStatusJSON(status, api.ErrorResponse{
		Error: services.PublicMessage(err),
		Kind:  kind,
	})
}

func malformed(err error) error {
	msg := "request body must be valid JSON"
	if errors.Is(err, io.EOF) {
		msg = "request body is empty"
	}
	return services.Wrap(services.ErrMissingInput, "api", "decode", msg, nil)
}

func unconfigured(component string) error {
	return services.Wrap(services.ErrServiceUnavailable, strings.TrimSpace(component), "configure", "gateway not wired", nil)
}
