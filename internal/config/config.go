package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the on-disk locations the harvester reads from and writes to.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	AlphabetDir string `toml:"alphabet_dir"`
	CreatorsDir string `toml:"creators_dir"`
	VideosDir   string `toml:"videos_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// Dataset contains the dataset shaping parameters.
type Dataset struct {
	Language           string `toml:"language"`
	NumVideos          int    `toml:"num_videos"`
	MinDurationSeconds int    `toml:"min_duration_seconds"`
	SampleRate         int    `toml:"sample_rate"`
	// AudioFormat selects the intermediate audio download: "m4a" keeps the
	// original stream (decoded with ffmpeg), "mp3" asks yt-dlp to transcode so
	// decoding happens in-process.
	AudioFormat  string `toml:"audio_format"`
	AutoCaptions bool   `toml:"auto_captions"`
}

// Tools contains external binary names.
type Tools struct {
	YtDlp  string `toml:"yt_dlp"`
	FFmpeg string `toml:"ffmpeg"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subclip.
//
// Configuration sections by subsystem:
//   - Paths: data, alphabet, creator list, video list cache, state and log directories
//   - Dataset: language, batch size, clip duration threshold, sample rate
//   - FillerTokens: per-language filtered-text values that never become clips
//   - Tools: yt-dlp and ffmpeg binaries
//   - Logging: log format and level
type Config struct {
	Paths        Paths               `toml:"paths"`
	Dataset      Dataset             `toml:"dataset"`
	FillerTokens map[string][]string `toml:"filler_tokens"`
	Tools        Tools               `toml:"tools"`
	Logging      Logging             `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subclip/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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

		// Filler lists are replaced per language, not merged into the defaults.
		cfg.FillerTokens = nil
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

	projectPath, err := filepath.Abs("subclip.toml")
	if err != nil {
		return "", false, err
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a harvest run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.VideosDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
		}
	}
	return nil
}

// AlphabetPath returns the alphabet file for the given language.
func (c *Config) AlphabetPath(lang string) string {
	return filepath.Join(c.Paths.AlphabetDir, lang+".txt")
}

// CreatorsPath returns the creator list file for the given language.
func (c *Config) CreatorsPath(lang string) string {
	return filepath.Join(c.Paths.CreatorsDir, lang+".txt")
}

// LanguageDataDir returns data/<lang>, the root that holds every creator directory.
func (c *Config) LanguageDataDir(lang string) string {
	return filepath.Join(c.Paths.DataDir, lang)
}

// JournalPath returns the SQLite attempt journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the run lock file for a language.
func (c *Config) LockPath(lang string) string {
	return filepath.Join(c.Paths.StateDir, "locks", "harvest-"+lang+".lock")
}

// FillerTokensFor returns the filler denylist configured for lang.
func (c *Config) FillerTokensFor(lang string) []string {
	return append([]string(nil), c.FillerTokens[strings.ToLower(strings.TrimSpace(lang))]...)
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
