package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"subclip/internal/audio"
	"subclip/internal/dataset"
	"subclip/internal/journal"
	"subclip/internal/logging"
	"subclip/internal/metrics"
	"subclip/internal/segment"
	"subclip/internal/services"
	"subclip/internal/subtitles"
	"subclip/internal/ytdlp"
)

// ProcessVideo runs one attempt for videoID and records it: transient files
// are removed, log.txt gets a line, the metric is advanced and the journal
// gets a row. A video with complete clips on disk, or an ok attempt in the
// journal, is not downloaded again and its clips are never touched. Per-video failures are reported in Outcome.Err; the returned
// error is reserved for failures that should stop the run.
func (p *Pipeline) ProcessVideo(ctx context.Context, creator, videoID string) (Outcome, error) {
	ctx = services.WithCreator(ctx, creator)
	ctx = services.WithVideoID(ctx, videoID)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()

	videoDir := p.opts.Layout.VideoDir(creator, videoID)
	existing, err := dataset.Salvage(videoDir)
	if err != nil {
		return Outcome{}, fmt.Errorf("inspect video directory: %w", err)
	}
	if len(existing) > 0 || p.journaledOK(ctx, logger, creator, videoID) {
		logger.Info("video already harvested, keeping its clips",
			logging.String("url", ytdlp.WatchURL(videoID)),
			logging.Int("clips", len(existing)),
		)
		outcome := Outcome{VideoID: videoID, State: StateHarvested, Skipped: map[SkipReason]int{}}
		if err := p.record(ctx, logger, creator, outcome, started); err != nil {
			return outcome, err
		}
		return outcome, nil
	}
	if err := os.MkdirAll(videoDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("create video directory: %w", err)
	}

	outcome, err := p.attempt(ctx, logger, creator, videoID)
	if err != nil {
		return outcome, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome, ctxErr
	}

	if err := p.record(ctx, logger, creator, outcome, started); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (p *Pipeline) journaledOK(ctx context.Context, logger *slog.Logger, creator, videoID string) bool {
	if p.opts.Journal == nil {
		return false
	}
	ok, err := p.opts.Journal.Harvested(ctx, p.opts.Lang, creator, videoID)
	if err != nil {
		logger.Debug("journal lookup failed", logging.Error(err))
		return false
	}
	return ok
}

func (p *Pipeline) attempt(ctx context.Context, logger *slog.Logger, creator, videoID string) (Outcome, error) {
	outcome := Outcome{VideoID: videoID, State: StatePending, Skipped: map[SkipReason]int{}}
	url := ytdlp.WatchURL(videoID)

	fail := func(err error) (Outcome, error) {
		outcome.State = classify(err)
		outcome.Err = err
		logging.WarnWithContext(logger, "video skipped", "video_"+string(outcome.State),
			logging.String("url", url),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no clips from this video; it will not be retried"),
		)
		return outcome, nil
	}

	video, err := p.opts.Retriever.Probe(ctx, videoID)
	if err != nil {
		return fail(err)
	}
	outcome.Title = video.Title
	logger.Info("downloading video", logging.String("url", url), logging.String("title", video.Title))

	track, ok := video.SelectTrack(p.opts.Lang, p.displayName, p.opts.AutoCaptions)
	if !ok {
		return fail(services.Wrap(services.ErrNoSubtitles, "retrieve", "select track",
			fmt.Sprintf("no %s caption track", p.displayName), nil))
	}
	logger.Debug("caption track selected",
		logging.String("track", track.Name),
		logging.String("track_lang", track.Lang),
		logging.Bool("automatic", track.Auto),
	)

	srtPath := p.opts.Layout.SubtitlePath(creator, videoID)
	if err := p.opts.Retriever.DownloadSubtitles(ctx, videoID, track, srtPath); err != nil {
		return fail(err)
	}
	cues, issues, err := subtitles.ReadSRTFile(srtPath)
	if err != nil {
		return fail(services.Wrap(services.ErrRetrieval, "parse", "subtitles", "", err))
	}
	if len(issues) > 0 {
		logging.WarnWithContext(logger, "subtitle blocks skipped", "subtitle_parse_issue",
			logging.Int("issues", len(issues)),
			logging.String("first", issues[0].String()),
			logging.String(logging.FieldImpact, "speech under skipped cues is not clipped"),
		)
	}
	if len(cues) == 0 {
		return fail(services.Wrap(services.ErrNoSubtitles, "parse", "subtitles", "caption track has no cues", nil))
	}

	audioPath := p.opts.Layout.AudioPath(creator, videoID, p.opts.AudioFormat)
	if err := p.opts.Retriever.DownloadAudio(ctx, videoID, p.opts.AudioFormat, audioPath); err != nil {
		return fail(err)
	}
	signal, err := p.opts.Decoder.Decode(ctx, audioPath, p.opts.SampleRate)
	if err != nil {
		return fail(services.Wrap(services.ErrRetrieval, "decode", "audio", "", err))
	}
	logger.Debug("audio decoded",
		logging.Duration("duration", signal.Duration()),
		logging.Int("cues", len(cues)),
	)

	if err := p.clip(logger, creator, videoID, cues, signal, &outcome); err != nil {
		return outcome, err
	}
	outcome.State = StateOK
	return outcome, nil
}

func (p *Pipeline) clip(logger *slog.Logger, creator, videoID string, cues []subtitles.Cue, signal audio.Signal, outcome *Outcome) error {
	minMillis := p.opts.MinDuration.Milliseconds()
	for _, seg := range segment.Merge(cues, p.opts.MinDuration) {
		text := p.opts.Filter.Filter(seg.Text)
		switch {
		case text == "":
			outcome.Skipped[SkipEmpty]++
			continue
		case p.opts.Denylist.Contains(text):
			outcome.Skipped[SkipFiller]++
			continue
		case seg.DurationMillis() < minMillis:
			outcome.Skipped[SkipShort]++
			continue
		}

		dir := p.opts.Layout.ClipDir(creator, videoID, seg.Name())
		samples := signal.Slice(seg.Start.Milliseconds(), seg.End.Milliseconds())
		if len(samples) == 0 {
			outcome.Skipped[SkipNoAudio]++
			logger.Debug("segment past end of audio", logging.String("clip", seg.Name()))
			continue
		}
		if err := dataset.WriteClip(dir, text, samples, signal.SampleRate); err != nil {
			if errors.Is(err, fs.ErrExist) {
				logger.Debug("duplicate segment ignored", logging.String("clip", seg.Name()))
				continue
			}
			return fmt.Errorf("write clip %s: %w", seg.Name(), err)
		}
		outcome.Samples++
		outcome.Seconds += int(seg.DurationMillis() / 1000)
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, creator string, outcome Outcome, started time.Time) error {
	videoDir := p.opts.Layout.VideoDir(creator, outcome.VideoID)
	if err := dataset.RemoveTransient(videoDir); err != nil {
		logging.WarnWithContext(logger, "transient files not removed", "cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "downloaded media remains on disk"),
		)
	}
	if outcome.State != StateOK {
		// Only an empty directory is removed; existing clips stay.
		_ = os.Remove(videoDir)
	}

	eventLog := dataset.EventLog{Path: p.opts.Layout.LogPath(creator)}
	if err := eventLog.Record(ytdlp.WatchURL(outcome.VideoID), eventFor(outcome.State), eventDetail(outcome)); err != nil {
		return fmt.Errorf("append event log: %w", err)
	}

	delta := metrics.Delta{Download: 1}
	if outcome.State == StateOK {
		delta.Success = 1
		delta.Samples = outcome.Samples
		delta.TotalTime = outcome.Seconds
	}
	metric, err := p.metricStore(creator).Apply(context.WithoutCancel(ctx), delta)
	if err != nil {
		return fmt.Errorf("update metric: %w", err)
	}

	if p.opts.Journal != nil {
		attempt := journal.Attempt{
			RunID:      p.opts.RunID,
			Lang:       p.opts.Lang,
			Creator:    creator,
			VideoID:    outcome.VideoID,
			State:      outcome.State.journalState(),
			Samples:    outcome.Samples,
			Seconds:    outcome.Seconds,
			Skipped:    skippedTotal(outcome.Skipped),
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if outcome.Err != nil {
			attempt.Error = outcome.Err.Error()
		}
		if _, err := p.opts.Journal.RecordAttempt(context.WithoutCancel(ctx), attempt); err != nil {
			logger.Debug("journal attempt write failed", logging.Error(err))
		}
	}

	logger.Info("video processed",
		logging.String("state", string(outcome.State)),
		logging.Int("samples", outcome.Samples),
		logging.Int("seconds", outcome.Seconds),
		logging.Int("skipped", skippedTotal(outcome.Skipped)),
		logging.Int("download", metric.Download),
	)
	return nil
}

func classify(err error) State {
	switch {
	case errors.Is(err, services.ErrAgeRestricted):
		return StateAgeRestricted
	case errors.Is(err, services.ErrNoSubtitles):
		return StateNoSubtitles
	default:
		return StateRetrievalFailed
	}
}

func eventFor(state State) string {
	switch state {
	case StateOK:
		return dataset.EventOK
	case StateAgeRestricted:
		return dataset.EventAgeRestricted
	case StateNoSubtitles:
		return dataset.EventNoSubtitles
	case StateHarvested:
		return dataset.EventHarvested
	default:
		return dataset.EventRetrieval
	}
}

// eventDetail drops the taxonomy prefix, which the event name already says.
func eventDetail(o Outcome) error {
	switch o.State {
	case StateAgeRestricted, StateRetrievalFailed:
	default:
		return nil
	}
	if o.Err == nil {
		return nil
	}
	msg := o.Err.Error()
	if marker := services.Marker(o.Err); marker != nil {
		msg = strings.TrimPrefix(msg, marker.Error()+": ")
	}
	return errors.New(msg)
}

func skippedTotal(skipped map[SkipReason]int) int {
	total := 0
	for _, n := range skipped {
		total += n
	}
	return total
}
