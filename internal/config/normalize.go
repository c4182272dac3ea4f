package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	if err := c.loadEnvFile(); err != nil {
		return err
	}
	if err := c.normalizeServer(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTranscription()
	c.normalizeEmail()
	if err := c.normalizeClient(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

// loadEnvFile reads KEY=value pairs from the configured .env file (or ./.env)
// into the process environment. Variables already set win.
func (c *Config) loadEnvFile() error {
	c.Server.EnvFile = strings.TrimSpace(c.Server.EnvFile)
	if c.Server.EnvFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			return godotenv.Load()
		}
		return nil
	}
	path, err := expandPath(c.Server.EnvFile)
	if err != nil {
		return fmt.Errorf("server.env_file: %w", err)
	}
	c.Server.EnvFile = path
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("server.env_file: load %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.MaxUploadMiB <= 0 {
		c.Server.MaxUploadMiB = defaultMaxUploadMiB
	}
	if strings.TrimSpace(c.Server.LockFile) == "" {
		c.Server.LockFile = defaultLockFile
	}
	var err error
	if c.Server.LockFile, err = expandPath(c.Server.LockFile); err != nil {
		return fmt.Errorf("server.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = lookupEnv("LLM_API_KEY", "OPENAI_API_KEY")
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Mode = strings.ToLower(strings.TrimSpace(c.Transcription.Mode))
	if c.Transcription.Mode == "" {
		c.Transcription.Mode = defaultTranscriptionMode
	}
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.APIKey == "" {
		fallbacks := []string{"TRANSCRIPTION_API_KEY", "ASSEMBLYAI_API_KEY"}
		if c.Transcription.Mode == ModeSync {
			fallbacks = []string{"TRANSCRIPTION_API_KEY", "OPENAI_API_KEY"}
		}
		c.Transcription.APIKey = lookupEnv(fallbacks...)
	}
	c.Transcription.BaseURL = strings.TrimSpace(c.Transcription.BaseURL)
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = defaultAsyncBaseURL
		if c.Transcription.Mode == ModeSync {
			c.Transcription.BaseURL = defaultSyncBaseURL
		}
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" && c.Transcription.Mode == ModeSync {
		c.Transcription.Model = defaultSyncModel
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.PollIntervalSeconds <= 0 {
		c.Transcription.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Transcription.MaxWaitSeconds < 0 {
		c.Transcription.MaxWaitSeconds = 0
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
}

func (c *Config) normalizeEmail() {
	c.Email.APIKey = strings.TrimSpace(c.Email.APIKey)
	if c.Email.APIKey == "" {
		c.Email.APIKey = lookupEnv("RESEND_API_KEY", "EMAIL_API_KEY")
	}
	c.Email.BaseURL = strings.TrimSpace(c.Email.BaseURL)
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = defaultEmailBaseURL
	}
	c.Email.From = strings.TrimSpace(c.Email.From)
	if c.Email.From == "" {
		c.Email.From = defaultEmailFrom
	}
	if c.Email.TimeoutSeconds <= 0 {
		c.Email.TimeoutSeconds = defaultEmailTimeoutSeconds
	}
}

func (c *Config) normalizeClient() error {
	c.Client.ServerURL = strings.TrimRight(strings.TrimSpace(c.Client.ServerURL), "/")
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = defaultClientServerURL
	}
	if c.Client.NoticeSeconds <= 0 {
		c.Client.NoticeSeconds = defaultNoticeSeconds
	}
	if strings.TrimSpace(c.Client.DownloadDir) == "" {
		c.Client.DownloadDir = defaultDownloadDir
	}
	var err error
	if c.Client.DownloadDir, err = expandPath(c.Client.DownloadDir); err != nil {
		return fmt.Errorf("client.download_dir: %w", err)
	}
	c.Client.DefaultPrompt = strings.TrimSpace(c.Client.DefaultPrompt)
	if c.Client.TimeoutSeconds <= 0 {
		c.Client.TimeoutSeconds = defaultClientTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func lookupEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
