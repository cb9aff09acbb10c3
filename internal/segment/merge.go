package segment

import (
	"strings"
	"time"

	"subclip/internal/subtitles"
)

// MinDuration is the default shortest segment the merger aims for.
const MinDuration = 10 * time.Second

// Segment is a contiguous run of cues treated as one clip.
type Segment struct {
	Start subtitles.Timestamp
	End   subtitles.Timestamp
	// Text is the raw cue text joined with single spaces, before filtering.
	Text string
	// Cues counts the merged cues.
	Cues int
}

// DurationMillis returns End minus Start.
func (s Segment) DurationMillis() int64 {
	return s.End.Milliseconds() - s.Start.Milliseconds()
}

// Name returns the clip directory name "<start>-<end>".
func (s Segment) Name() string {
	return s.Start.String() + "-" + s.End.String()
}

// Merge walks cues in order. Each segment starts at the current cue and keeps
// absorbing the next cue while it is shorter than minDuration and cues remain.
// The final segment may therefore be shorter than minDuration; callers decide
// whether to keep it.
func Merge(cues []subtitles.Cue, minDuration time.Duration) []Segment {
	if len(cues) == 0 {
		return nil
	}
	minMillis := minDuration.Milliseconds()

	var segments []Segment
	for i := 0; i < len(cues); i++ {
		start := cues[i].Start
		end := cues[i].End
		parts := []string{cues[i].Text}

		for end.Milliseconds()-start.Milliseconds() < minMillis && i < len(cues)-1 {
			i++
			end = cues[i].End
			parts = append(parts, cues[i].Text)
		}

		segments = append(segments, Segment{
			Start: start,
			End:   end,
			Text:  strings.Join(parts, " "),
			Cues:  len(parts),
		})
	}
	return segments
}
