package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"minutes/internal/client"
	"minutes/internal/config"
	"minutes/internal/logging"
	"minutes/internal/services"
	"minutes/internal/workflow"
)

const cliLogFileName = "minutes-cli.log"

type commandContext struct {
	configFlag *string
	serverFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, serverFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.serverFlag != nil {
			if server := strings.TrimSpace(*c.serverFlag); server != "" {
				cfg.Client.ServerURL = strings.TrimRight(server, "/")
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) client() (*client.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return client.FromConfig(cfg, client.WithLogger(c.logger())), nil
}

// logger writes CLI diagnostics to a file beside the daemon log so terminal
// output stays limited to command results.
func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil || strings.TrimSpace(cfg.Logging.Dir) == "" {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Logging.Dir, cliLogFileName)},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(logger, "cli")
}

func (c *commandContext) newController() (*workflow.Controller, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger()
	remote := client.FromConfig(cfg, client.WithLogger(logger))
	gateways := workflow.Gateways{
		Summarizer:  remote,
		Transcriber: remote,
		Mailer:      remote,
	}
	return workflow.New(cfg, gateways, logger), nil
}

func (c *commandContext) downloadDir() string {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "."
	}
	return cfg.Client.DownloadDir
}

// describeError adds a next step for failures the user can fix locally.
func describeError(err error, serverURL string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrTransport):
		return fmt.Errorf("%w (is minutesd running at %s?)", err, serverURL)
	case errors.Is(err, services.ErrServiceUnavailable):
		return fmt.Errorf("%w (set the provider API key in the minutesd config or environment)", err)
	default:
		return err
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
