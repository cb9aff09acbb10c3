package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"subclip/internal/config"
	"subclip/internal/language"
	"subclip/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// resolveLanguage returns the ISO 639-1 code for flag, or the configured
// default language when flag is empty.
func (c *commandContext) resolveLanguage(flag string) (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(flag)
	if value == "" {
		value = cfg.Dataset.Language
	}
	code := language.ToISO2(value)
	if code == "" {
		return "", fmt.Errorf("unknown language %q", value)
	}
	return code, nil
}

// videosDir is where per-creator listings for lang are cached.
func videosDir(cfg *config.Config, lang string) string {
	return filepath.Join(cfg.Paths.VideosDir, lang)
}

func lockDir(cfg *config.Config, lang string) string {
	return filepath.Dir(cfg.LockPath(lang))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func addLanguageFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "lang", "l", "", "Dataset language (defaults to dataset.language)")
}
