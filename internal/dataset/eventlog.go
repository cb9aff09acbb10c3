package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Outcome messages written after the video URL in log.txt.
const (
	EventOK            = "OK"
	EventNoSubtitles   = "no subtitles"
	EventAgeRestricted = "age restricted"
	EventRetrieval     = "retrieval error"
	EventHarvested     = "already harvested"
)

// EventLog appends human-readable lines to a channel's log.txt.
type EventLog struct {
	Path string
}

// Append writes msg followed by a newline.
func (l EventLog) Append(msg string) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("ensure log dir: %w", err)
	}
	file, err := os.OpenFile(l.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	if _, err := file.WriteString(strings.TrimRight(msg, "\n") + "\n"); err != nil {
		_ = file.Close()
		return fmt.Errorf("append event log: %w", err)
	}
	return file.Close()
}

// Record writes "<url>: <event>" or "<url>: <event>, <detail>".
func (l EventLog) Record(url, event string, detail error) error {
	msg := url + ": " + event
	if detail != nil {
		msg += ", " + detail.Error()
	}
	return l.Append(msg)
}
