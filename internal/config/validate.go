package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataset() error {
	if len(c.Dataset.Language) < 2 {
		return fmt.Errorf("dataset.language %q must be a language code such as \"fr\"", c.Dataset.Language)
	}
	if c.Dataset.NumVideos <= 0 {
		return errors.New("dataset.num_videos must be positive")
	}
	if c.Dataset.MinDurationSeconds <= 0 {
		return errors.New("dataset.min_duration_seconds must be positive")
	}
	if c.Dataset.SampleRate <= 0 {
		return errors.New("dataset.sample_rate must be positive")
	}
	switch c.Dataset.AudioFormat {
	case "m4a", "mp3":
	default:
		return fmt.Errorf("dataset.audio_format: unsupported value %q (use m4a or mp3)", c.Dataset.AudioFormat)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
