package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"minutes/internal/config"
	"minutes/internal/daemon"
	"minutes/internal/logging"
	"minutes/internal/server"
	"minutes/internal/services/llm"
	"minutes/internal/services/mailer"
	"minutes/internal/services/transcribe"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts minutesd and blocks until SIGINT, SIGTERM, or ctx cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if !opts.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	logConfigSnapshot(logger, cfg)

	d, err := daemon.New(cfg, BuildGateways(cfg, logger), logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.WarnWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the bind address and whether another minutesd holds the lock"),
		)
		return err
	}
	reportGateways(logger, d.Status())

	<-signalCtx.Done()
	logger.Info("minutesd shutting down")
	return nil
}

// BuildGateways constructs the provider clients from configuration.
func BuildGateways(cfg *config.Config, logger *slog.Logger) server.Gateways {
	return server.Gateways{
		Summarizer: llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			MaxTokens:      cfg.LLM.MaxTokens,
			Temperature:    cfg.LLM.Temperature,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		}),
		Transcriber: transcribe.NewService(transcribe.ConfigFrom(cfg.Transcription)),
		Mailer:      mailer.NewService(cfg, mailer.WithLogger(logger)),
	}
}

// reportGateways warns once per gateway that cannot serve requests yet.
func reportGateways(logger *slog.Logger, status daemon.Status) {
	for _, name := range slices.Sorted(maps.Keys(status.Services)) {
		if status.Services[name] {
			continue
		}
		logging.WarnWithContext(logger, "gateway not configured", "gateway_unconfigured",
			logging.String("service", name),
			logging.String(logging.FieldErrorHint, "set the "+name+" API key in config or environment"),
		)
	}
	logger.Info("minutesd ready",
		logging.String("address", status.Address),
		logging.String("lock_file", status.LockFilePath),
	)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("bind", cfg.Server.Bind),
		logging.Int("max_upload_mib", cfg.Server.MaxUploadMiB),
		logging.String("llm_model", cfg.LLM.Model),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.String("transcription_mode", cfg.Transcription.Mode),
		logging.Bool("transcription_key_present", strings.TrimSpace(cfg.Transcription.APIKey) != ""),
		logging.Int("transcription_max_wait_seconds", cfg.Transcription.MaxWaitSeconds),
		logging.Bool("email_key_present", strings.TrimSpace(cfg.Email.APIKey) != ""),
	)
}
