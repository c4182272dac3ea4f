package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"minutes/internal/api"
	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/services/mailer"
	"minutes/internal/services/transcribe"
)

const defaultMaxUpload = 100 << 20

// Summarizer produces a summary from a transcript and instruction prompt.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, prompt string) (string, error)
	Configured() bool
}

// Gateways bundles the provider clients the HTTP endpoints delegate to.
type Gateways struct {
	Summarizer  Summarizer
	Transcriber transcribe.Service
	Mailer      mailer.Service
}

// Server exposes the gateways over HTTP.
type Server struct {
	bind      string
	maxUpload int64
	gateways  Gateways
	logger    *slog.Logger
	engine    *gin.Engine

	listener net.Listener
	server   *http.Server
}

// New builds the gin engine and routes. Call Start to begin serving.
func New(cfg *config.Config, gateways Gateways, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		maxUpload: defaultMaxUpload,
		gateways:  gateways,
		logger:    logging.NewComponentLogger(logger, "api-server"),
	}
	if cfg != nil {
		s.bind = strings.TrimSpace(cfg.Server.Bind)
		if limit := cfg.MaxUploadBytes(); limit > 0 {
			s.maxUpload = limit
		}
	}
	s.engine = s.routes()
	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		// No WriteTimeout: async transcription may poll for up to max_wait.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr reports the bound listener address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Start listens on the configured bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api listen: bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool(api.ServiceSummarize, s.summarizeReady()),
		logging.Bool(api.ServiceEmail, s.emailReady()),
		logging.Bool(api.ServiceTranscription, s.transcriptionReady()),
	)
	return nil
}

// Stop shuts the HTTP server down, waiting up to five seconds for in-flight requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

// Services reports which gateways are wired and configured.
func (s *Server) Services() map[string]bool {
	return map[string]bool{
		api.ServiceSummarize:     s.summarizeReady(),
		api.ServiceEmail:         s.emailReady(),
		api.ServiceTranscription: s.transcriptionReady(),
	}
}

func (s *Server) summarizeReady() bool {
	return s.gateways.Summarizer != nil && s.gateways.Summarizer.Configured()
}

func (s *Server) emailReady() bool {
	return s.gateways.Mailer != nil && s.gateways.Mailer.Configured()
}

func (s *Server) transcriptionReady() bool {
	return s.gateways.Transcriber != nil && s.gateways.Transcriber.Configured()
}
