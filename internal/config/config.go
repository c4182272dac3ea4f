package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains the API bind address and request limits.
type Server struct {
	Bind         string `toml:"bind"`
	MaxUploadMiB int    `toml:"max_upload_mib"`
	LockFile     string `toml:"lock_file"`
	EnvFile      string `toml:"env_file"`
}

// LLM contains the summarization provider settings.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Transcription contains the speech-to-text provider settings.
type Transcription struct {
	// Mode selects the provider flavour: "sync" posts audio and reads the
	// text back in one call, "async" uploads, submits a job, and polls.
	Mode                string `toml:"mode"`
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	Model               string `toml:"model"`
	Language            string `toml:"language"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	// MaxWaitSeconds bounds the async poll loop. Zero polls until the job
	// reaches a terminal status.
	MaxWaitSeconds int `toml:"max_wait_seconds"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Email contains the transactional email provider settings.
type Email struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	From           string `toml:"from"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Client contains settings for the minutes CLI session.
type Client struct {
	ServerURL      string `toml:"server_url"`
	NoticeSeconds  int    `toml:"notice_seconds"`
	DownloadDir    string `toml:"download_dir"`
	DefaultPrompt  string `toml:"default_prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for minutes.
//
// Configuration sections by subsystem:
//   - Server: API bind address, upload cap, instance lock
//   - LLM: chat completion provider used for summaries
//   - Transcription: speech-to-text provider (sync or async)
//   - Email: transactional email provider
//   - Client: CLI session defaults
//   - Logging: log format, level, and directory
type Config struct {
	Server        Server        `toml:"server"`
	LLM           LLM           `toml:"llm"`
	Transcription Transcription `toml:"transcription"`
	Email         Email         `toml:"email"`
	Client        Client        `toml:"client"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/minutes/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and secrets resolved from the environment.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("minutes.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and download directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Logging.Dir, c.Client.DownloadDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MaxUploadBytes returns the upload cap applied to /voice-to-text.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMiB) << 20
}

// NoticeTTL returns how long session notices stay visible.
func (c *Config) NoticeTTL() time.Duration {
	return time.Duration(c.Client.NoticeSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
