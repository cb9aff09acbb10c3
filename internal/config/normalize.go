package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeFillerTokens()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AlphabetDir) == "" {
		c.Paths.AlphabetDir = defaultAlphabetDir
	}
	if c.Paths.AlphabetDir, err = expandPath(c.Paths.AlphabetDir); err != nil {
		return fmt.Errorf("paths.alphabet_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CreatorsDir) == "" {
		c.Paths.CreatorsDir = defaultCreatorsDir
	}
	if c.Paths.CreatorsDir, err = expandPath(c.Paths.CreatorsDir); err != nil {
		return fmt.Errorf("paths.creators_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.VideosDir) == "" {
		c.Paths.VideosDir = defaultVideosDir
	}
	if c.Paths.VideosDir, err = expandPath(c.Paths.VideosDir); err != nil {
		return fmt.Errorf("paths.videos_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() {
	c.Dataset.Language = strings.ToLower(strings.TrimSpace(c.Dataset.Language))
	if c.Dataset.Language == "" {
		c.Dataset.Language = defaultLanguage
	}
	c.Dataset.AudioFormat = strings.ToLower(strings.TrimSpace(c.Dataset.AudioFormat))
	if c.Dataset.AudioFormat == "" {
		c.Dataset.AudioFormat = defaultAudioFormat
	}
	if c.Dataset.SampleRate == 0 {
		c.Dataset.SampleRate = defaultSampleRate
	}
}

// normalizeFillerTokens lower-cases language keys and tokens. A language the
// file names replaces its default list; languages it omits keep the defaults.
func (c *Config) normalizeFillerTokens() {
	defaults := defaultFillerTokens()
	if c.FillerTokens == nil {
		c.FillerTokens = defaults
		return
	}
	raw := make([]string, 0, len(c.FillerTokens))
	for lang := range c.FillerTokens {
		raw = append(raw, lang)
	}
	sort.Strings(raw)

	normalized := make(map[string][]string, len(raw)+len(defaults))
	seen := make(map[string]map[string]struct{}, len(raw))
	for _, lang := range raw {
		key := strings.ToLower(strings.TrimSpace(lang))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = make(map[string]struct{})
			normalized[key] = []string{}
		}
		for _, token := range c.FillerTokens[lang] {
			value := strings.ToLower(strings.TrimSpace(token))
			if value == "" {
				continue
			}
			if _, ok := seen[key][value]; ok {
				continue
			}
			seen[key][value] = struct{}{}
			normalized[key] = append(normalized[key], value)
		}
	}
	for lang, tokens := range defaults {
		if _, ok := normalized[lang]; !ok {
			normalized[lang] = tokens
		}
	}
	c.FillerTokens = normalized
}

func (c *Config) normalizeTools() {
	c.Tools.YtDlp = strings.TrimSpace(c.Tools.YtDlp)
	if c.Tools.YtDlp == "" {
		if value, ok := os.LookupEnv("YTDLP_PATH"); ok && strings.TrimSpace(value) != "" {
			c.Tools.YtDlp = strings.TrimSpace(value)
		} else {
			c.Tools.YtDlp = defaultYtDlpBinary
		}
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		if value, ok := os.LookupEnv("FFMPEG_PATH"); ok && strings.TrimSpace(value) != "" {
			c.Tools.FFmpeg = strings.TrimSpace(value)
		} else {
			c.Tools.FFmpeg = defaultFFmpegBinary
		}
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
