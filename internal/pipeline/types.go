package pipeline

import (
	"context"

	"subclip/internal/catalog"
	"subclip/internal/journal"
	"subclip/internal/ytdlp"
)

// State is the terminal state of one video attempt.
type State string

const (
	StatePending         State = "pending"
	StateAgeRestricted   State = "age_restricted"
	StateNoSubtitles     State = "no_subtitles"
	StateRetrievalFailed State = "retrieval_failed"
	StateOK              State = "ok"
	// StateHarvested marks a video whose clips already exist; nothing is
	// downloaded and only the download counter advances.
	StateHarvested State = "already_harvested"
)

func (s State) journalState() string {
	switch s {
	case StateOK:
		return journal.StateOK
	case StateAgeRestricted:
		return journal.StateAgeRestricted
	case StateNoSubtitles:
		return journal.StateNoSubtitles
	case StateHarvested:
		return journal.StateHarvested
	default:
		return journal.StateRetrievalFailed
	}
}

// SkipReason explains why a merged segment did not become a clip.
type SkipReason string

const (
	SkipEmpty  SkipReason = "empty_text"
	SkipFiller SkipReason = "filler_text"
	SkipShort  SkipReason = "below_min_duration"
	// SkipNoAudio is a segment that starts past the end of the decoded audio.
	SkipNoAudio SkipReason = "no_audio"
)

// Outcome describes one processed video.
type Outcome struct {
	VideoID string
	Title   string
	State   State
	Samples int
	// Seconds is the summed whole-second duration of persisted clips.
	Seconds int
	Skipped map[SkipReason]int
	Err     error
}

// Summary aggregates a run.
type Summary struct {
	RunID     string
	Creators  int
	Videos    int
	Succeeded int
	Samples   int
	Seconds   int
	States    map[State]int
}

func (s *Summary) add(o Outcome) {
	if s.States == nil {
		s.States = make(map[State]int)
	}
	s.Videos++
	s.States[o.State]++
	if o.State == StateOK {
		s.Succeeded++
		s.Samples += o.Samples
		s.Seconds += o.Seconds
	}
}

// Lister enumerates a channel's uploads, newest first.
type Lister interface {
	ListVideos(ctx context.Context, channel string) ([]catalog.VideoRef, error)
}

// Retriever fetches video metadata and media.
type Retriever interface {
	Probe(ctx context.Context, videoID string) (ytdlp.Video, error)
	DownloadSubtitles(ctx context.Context, videoID string, track ytdlp.Track, destPath string) error
	DownloadAudio(ctx context.Context, videoID, format, destPath string) error
}

// Journal stores run and attempt history.
type Journal interface {
	StartRun(ctx context.Context, run journal.Run) error
	FinishRun(ctx context.Context, run journal.Run) error
	RecordAttempt(ctx context.Context, attempt journal.Attempt) (int64, error)
	Harvested(ctx context.Context, lang, creator, videoID string) (bool, error)
}
