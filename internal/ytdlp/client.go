package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subclip/internal/catalog"
	"subclip/internal/services"
)

const (
	watchURLPrefix = "https://www.youtube.com/watch?v="
	channelURLFmt  = "https://www.youtube.com/@%s/videos"
	listTemplate   = "%(upload_date)s:%(id)s"
)

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}

// ChannelURL returns the uploads tab of a channel handle.
func ChannelURL(channel string) string {
	return fmt.Sprintf(channelURLFmt, strings.TrimPrefix(channel, "@"))
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithExtraArgs appends arguments to every invocation, e.g. cookies options.
func WithExtraArgs(args ...string) Option {
	return func(c *Client) {
		c.extraArgs = append(c.extraArgs, args...)
	}
}

// Client wraps yt-dlp invocations.
type Client struct {
	binary    string
	exec      Executor
	extraArgs []string
}

// New constructs a client for binary.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	full := append(append([]string{"--no-warnings", "--no-progress"}, c.extraArgs...), args...)
	stdout, stderr, err := c.exec.Run(ctx, c.binary, full)
	if err != nil {
		detail := lastLine(stderr)
		if isAgeGate(string(stderr)) {
			return nil, services.Wrap(services.ErrAgeRestricted, "retrieve", "yt-dlp", detail, err)
		}
		if detail == "" {
			detail = "yt-dlp failed"
		}
		return nil, services.Wrap(services.ErrRetrieval, "retrieve", "yt-dlp", detail, err)
	}
	return stdout, nil
}

// ListVideos returns the channel's uploads in lister order (newest first).
func (c *Client) ListVideos(ctx context.Context, channel string) ([]catalog.VideoRef, error) {
	out, err := c.run(ctx,
		"--flat-playlist", "--skip-download",
		"--extractor-args", "youtubetab:approximate_date",
		"--print", listTemplate,
		ChannelURL(channel),
	)
	if err != nil {
		return nil, err
	}
	refs, err := catalog.ParseVideoList(bytes.NewReader(out))
	if err != nil {
		return nil, services.Wrap(services.ErrRetrieval, "list", "parse listing", "unexpected yt-dlp output", err)
	}
	return refs, nil
}

// Probe fetches video metadata without downloading media.
func (c *Client) Probe(ctx context.Context, videoID string) (Video, error) {
	out, err := c.run(ctx, "-j", "--skip-download", WatchURL(videoID))
	if err != nil {
		return Video{}, err
	}
	video, err := parseVideo(out)
	if err != nil {
		return Video{}, services.Wrap(services.ErrRetrieval, "retrieve", "parse metadata", "invalid yt-dlp json", err)
	}
	if video.AgeRestricted() {
		return video, services.Wrap(services.ErrAgeRestricted, "retrieve", "probe",
			fmt.Sprintf("age_limit=%d availability=%s", video.AgeLimit, video.Availability), nil)
	}
	return video, nil
}

// DownloadSubtitles writes the chosen caption track to destPath as SRT.
func (c *Client) DownloadSubtitles(ctx context.Context, videoID string, track Track, destPath string) error {
	dir := filepath.Dir(destPath)
	stem := strings.TrimSuffix(filepath.Base(destPath), filepath.Ext(destPath))
	write := "--write-subs"
	if track.Auto {
		write = "--write-auto-subs"
	}
	_, err := c.run(ctx,
		"--skip-download", write,
		"--sub-langs", track.Lang,
		"--sub-format", "srt/vtt/best",
		"--convert-subs", "srt",
		"-o", filepath.Join(dir, stem+".%(ext)s"),
		WatchURL(videoID),
	)
	if err != nil {
		return err
	}
	// yt-dlp names the file <stem>.<lang>.srt.
	produced := filepath.Join(dir, stem+"."+track.Lang+".srt")
	if _, statErr := os.Stat(produced); statErr != nil {
		matches, _ := filepath.Glob(filepath.Join(dir, stem+".*.srt"))
		if len(matches) == 0 {
			return services.Wrap(services.ErrNoSubtitles, "retrieve", "subtitles", "yt-dlp produced no srt file", nil)
		}
		produced = matches[0]
	}
	if err := os.Rename(produced, destPath); err != nil {
		return fmt.Errorf("move subtitles: %w", err)
	}
	return nil
}

// DownloadAudio fetches the audio stream to destPath. Format "mp3" converts
// the best audio stream; anything else keeps the original m4a stream.
func (c *Client) DownloadAudio(ctx context.Context, videoID, format, destPath string) error {
	args := []string{"--no-playlist"}
	if strings.EqualFold(format, "mp3") {
		stem := strings.TrimSuffix(destPath, filepath.Ext(destPath))
		args = append(args, "-f", "bestaudio", "-x", "--audio-format", "mp3", "-o", stem+".%(ext)s")
	} else {
		args = append(args, "-f", "bestaudio[ext=m4a]/bestaudio", "-o", destPath)
	}
	args = append(args, WatchURL(videoID))
	if _, err := c.run(ctx, args...); err != nil {
		return err
	}
	if _, err := os.Stat(destPath); err != nil {
		return services.Wrap(services.ErrRetrieval, "retrieve", "audio", "yt-dlp produced no audio file", err)
	}
	return nil
}

// Version returns the yt-dlp version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	stdout, _, err := c.exec.Run(ctx, c.binary, []string{"--version"})
	if err != nil {
		return "", fmt.Errorf("yt-dlp --version: %w", err)
	}
	return strings.TrimSpace(string(stdout)), nil
}

func parseVideo(data []byte) (Video, error) {
	// yt-dlp may print warnings before the JSON document.
	var payload []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if bytes.HasPrefix(line, []byte("{")) {
			payload = line
		}
	}
	if payload == nil {
		return Video{}, errors.New("no json object in output")
	}
	var raw rawVideo
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Video{}, err
	}
	return raw.toVideo(), nil
}

func isAgeGate(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range []string{"confirm your age", "age-restricted", "age restricted", "inappropriate for some users"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
