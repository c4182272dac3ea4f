package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Missing provider API keys are
// not validation errors: the server starts and the affected endpoint fails
// closed with a ServiceUnavailable response.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	if err := c.validateClient(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLLM() error {
	if err := validateURL("llm.base_url", c.LLM.BaseURL); err != nil {
		return err
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Mode {
	case ModeSync, ModeAsync:
	default:
		return fmt.Errorf("transcription.mode must be %q or %q, got %q", ModeSync, ModeAsync, c.Transcription.Mode)
	}
	if err := validateURL("transcription.base_url", c.Transcription.BaseURL); err != nil {
		return err
	}
	if c.Transcription.MaxWaitSeconds > 0 && c.Transcription.MaxWaitSeconds < c.Transcription.PollIntervalSeconds {
		return errors.New("transcription.max_wait_seconds must be zero or at least poll_interval_seconds")
	}
	return nil
}

func (c *Config) validateEmail() error {
	if err := validateURL("email.base_url", c.Email.BaseURL); err != nil {
		return err
	}
	if !strings.Contains(c.Email.From, "@") {
		return fmt.Errorf("email.from must contain an address, got %q", c.Email.From)
	}
	return nil
}

func (c *Config) validateClient() error {
	return validateURL("client.server_url", c.Client.ServerURL)
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}
