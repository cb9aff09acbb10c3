package dataset

import (
	"path/filepath"
	"strings"
)

const (
	MetricFile    = "metric.json"
	LogFile       = "log.txt"
	SubtitleFile  = "subtitles.srt"
	ClipTextFile  = "subtitles.txt"
	ClipAudioFile = "audio.wav"
	audioBase     = "audio"
)

// Layout resolves dataset paths for one language.
type Layout struct {
	Root string
	Lang string
}

// LanguageDir returns <root>/<lang>.
func (l Layout) LanguageDir() string {
	return filepath.Join(l.Root, l.Lang)
}

// CreatorDir returns the directory holding one channel's videos and metric.
func (l Layout) CreatorDir(creator string) string {
	return filepath.Join(l.Root, l.Lang, creator)
}

// VideoDir returns the directory for one video's clips.
func (l Layout) VideoDir(creator, videoID string) string {
	return filepath.Join(l.CreatorDir(creator), videoID)
}

// ClipDir returns the directory for one clip.
func (l Layout) ClipDir(creator, videoID, clipName string) string {
	return filepath.Join(l.VideoDir(creator, videoID), clipName)
}

// MetricPath returns the metric.json location for creator.
func (l Layout) MetricPath(creator string) string {
	return filepath.Join(l.CreatorDir(creator), MetricFile)
}

// LogPath returns the log.txt location for creator.
func (l Layout) LogPath(creator string) string {
	return filepath.Join(l.CreatorDir(creator), LogFile)
}

// SubtitlePath returns the transient SRT location for a video.
func (l Layout) SubtitlePath(creator, videoID string) string {
	return filepath.Join(l.VideoDir(creator, videoID), SubtitleFile)
}

// AudioPath returns the transient audio download location for a video. The
// m4a stream is stored as audio.mp4; other formats keep their extension.
func (l Layout) AudioPath(creator, videoID, format string) string {
	return filepath.Join(l.VideoDir(creator, videoID), AudioFileName(format))
}

// AudioFileName maps a download format to the transient file name.
func AudioFileName(format string) string {
	format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch format {
	case "", "m4a", "mp4":
		return audioBase + ".mp4"
	default:
		return audioBase + "." + format
	}
}
