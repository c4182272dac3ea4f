package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"minutes/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The server binds an ephemeral port and no provider keys are set.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.LockFile = filepath.Join(base, "run", "minutesd.lock")
	cfgVal.Client.DownloadDir = filepath.Join(base, "downloads")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServerURL points the client section at a running server.
func WithServerURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Client.ServerURL = url
	}
}

// WithDefaultPrompt sets the prompt used when a session never sets one.
func WithDefaultPrompt(prompt string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Client.DefaultPrompt = prompt
	}
}

// WriteConfig encodes cfg as TOML into a temp file and returns its path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
