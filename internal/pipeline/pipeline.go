package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"subclip/internal/audio"
	"subclip/internal/catalog"
	"subclip/internal/dataset"
	"subclip/internal/journal"
	"subclip/internal/language"
	"subclip/internal/logging"
	"subclip/internal/metrics"
	"subclip/internal/segment"
	"subclip/internal/services"
	"subclip/internal/textfilter"
)

// Options configures a Pipeline.
type Options struct {
	Lang         string
	NumVideos    int
	MinDuration  time.Duration
	SampleRate   int
	AudioFormat  string
	AutoCaptions bool

	Filter   *textfilter.Filter
	Denylist textfilter.Denylist
	Layout   dataset.Layout
	// VideosDir receives one cached listing per creator.
	VideosDir string
	// LockDir holds the run lock and per-channel metric locks.
	LockDir string

	Lister    Lister
	Retriever Retriever
	Decoder   audio.Decoder
	Journal   Journal
	Logger    *slog.Logger
	RunID     string
}

// Pipeline harvests clips for one language.
type Pipeline struct {
	opts        Options
	displayName string
	logger      *slog.Logger
}

// New validates opts and returns a pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case strings.TrimSpace(opts.Lang) == "":
		return nil, errors.New("pipeline: language required")
	case opts.Filter == nil:
		return nil, errors.New("pipeline: text filter required")
	case opts.Lister == nil || opts.Retriever == nil:
		return nil, errors.New("pipeline: lister and retriever required")
	case opts.Decoder == nil:
		return nil, errors.New("pipeline: audio decoder required")
	case opts.Layout.Root == "":
		return nil, errors.New("pipeline: data root required")
	case opts.LockDir == "":
		return nil, errors.New("pipeline: lock directory required")
	}
	if opts.NumVideos <= 0 {
		opts.NumVideos = 1
	}
	if opts.MinDuration <= 0 {
		opts.MinDuration = segment.MinDuration
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	opts.Layout.Lang = opts.Lang
	return &Pipeline{
		opts:        opts,
		displayName: language.DisplayName(opts.Lang),
		logger:      logging.NewComponentLogger(opts.Logger, "pipeline"),
	}, nil
}

// RunID returns the identifier attached to this pipeline's logs and journal rows.
func (p *Pipeline) RunID() string {
	return p.opts.RunID
}

// Run harvests up to NumVideos new videos for every creator, sequentially.
// Only one run per language may hold the lock at a time.
func (p *Pipeline) Run(ctx context.Context, creators []catalog.Creator) (summary Summary, err error) {
	summary.RunID = p.opts.RunID
	ctx = services.WithRunID(ctx, p.opts.RunID)
	logger := logging.WithContext(ctx, p.logger)

	lock, err := p.acquireRunLock()
	if err != nil {
		return summary, err
	}
	defer func() { _ = lock.Unlock() }()

	if p.opts.Journal != nil {
		if jerr := p.opts.Journal.StartRun(ctx, journal.Run{ID: p.opts.RunID, Lang: p.opts.Lang, StartedAt: time.Now()}); jerr != nil {
			logging.WarnWithContext(logger, "journal unavailable for run", "journal_write_failed",
				logging.Error(jerr),
				logging.String(logging.FieldImpact, "attempt history will not be recorded"),
			)
		}
		defer func() {
			run := journal.Run{
				ID:        p.opts.RunID,
				Videos:    summary.Videos,
				Succeeded: summary.Succeeded,
				Samples:   summary.Samples,
			}
			if err != nil {
				run.Error = err.Error()
			}
			if jerr := p.opts.Journal.FinishRun(context.WithoutCancel(ctx), run); jerr != nil {
				logger.Debug("journal run finish failed", logging.Error(jerr))
			}
		}()
	}

	logger.Info("harvest started",
		logging.String("lang", p.opts.Lang),
		logging.Int("creators", len(creators)),
		logging.Int("num_videos", p.opts.NumVideos),
	)

	for _, creator := range creators {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Creators++
		if err := p.runCreator(ctx, creator, &summary); err != nil {
			return summary, err
		}
	}

	logger.Info("harvest finished",
		logging.Int("videos", summary.Videos),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("samples", summary.Samples),
		logging.Int("seconds", summary.Seconds),
	)
	return summary, nil
}

func (p *Pipeline) acquireRunLock() (*flock.Flock, error) {
	if err := os.MkdirAll(p.opts.LockDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	lockPath := filepath.Join(p.opts.LockDir, "harvest-"+p.opts.Lang+".lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire harvest lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another harvest for %q is running (lock %s)", p.opts.Lang, lockPath)
	}
	return lock, nil
}

func (p *Pipeline) metricStore(creator string) *metrics.Store {
	lockName := fmt.Sprintf("metric-%s-%s.lock", p.opts.Lang, creator)
	return metrics.NewStore(p.opts.Layout.MetricPath(creator), filepath.Join(p.opts.LockDir, lockName))
}

// Pending returns the videos a run would attempt next for creator, along with
// the current metric and the total number of eligible videos.
func (p *Pipeline) Pending(ctx context.Context, creator catalog.Creator) ([]catalog.VideoRef, metrics.Metric, int, error) {
	refs, err := p.listVideos(ctx, creator)
	if err != nil {
		return nil, metrics.Metric{}, 0, err
	}
	ordered := catalog.OldestFirst(catalog.FilterAfter(refs, creator.DateAfter))
	metric, err := p.metricStore(creator.Channel).Load()
	if err != nil {
		return nil, metrics.Metric{}, 0, err
	}
	return catalog.Window(ordered, metric.Download, p.opts.NumVideos), metric, len(ordered), nil
}

func (p *Pipeline) runCreator(ctx context.Context, creator catalog.Creator, summary *Summary) error {
	ctx = services.WithCreator(ctx, creator.Channel)
	logger := logging.WithContext(ctx, p.logger)

	if err := os.MkdirAll(p.opts.Layout.CreatorDir(creator.Channel), 0o755); err != nil {
		return fmt.Errorf("ensure creator directory: %w", err)
	}

	pending, metric, total, err := p.Pending(ctx, creator)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, metrics.ErrCorrupt) {
			logging.ErrorWithContext(logger, "channel metric unreadable", "metric_corrupt",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "repair metric.json by hand; the channel is skipped until then"),
			)
			return nil
		}
		logging.ErrorWithContext(logger, "video listing failed", "listing_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the channel handle and yt-dlp availability"),
		)
		return nil
	}

	logger.Info("channel progress",
		logging.Int("downloaded", metric.Download),
		logging.Int("available", total),
	)
	if len(pending) == 0 {
		logger.Info("all available videos already downloaded")
		return nil
	}

	for _, ref := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := p.ProcessVideo(ctx, creator.Channel, ref.ID)
		if err != nil {
			return err
		}
		summary.add(outcome)
	}
	return nil
}

func (p *Pipeline) listVideos(ctx context.Context, creator catalog.Creator) ([]catalog.VideoRef, error) {
	cachePath := ""
	if p.opts.VideosDir != "" {
		cachePath = filepath.Join(p.opts.VideosDir, creator.Channel+".txt")
	}
	refs, err := p.opts.Lister.ListVideos(ctx, creator.Channel)
	if err != nil {
		if cachePath == "" || ctx.Err() != nil {
			return nil, err
		}
		cached, cacheErr := catalog.ReadCache(cachePath)
		if cacheErr != nil {
			return nil, err
		}
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "using cached video listing", "listing_cached",
			logging.Error(err),
			logging.String("cache", cachePath),
			logging.String(logging.FieldImpact, "videos uploaded since the last listing are not visible"),
		)
		return cached, nil
	}
	if cachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
			return nil, fmt.Errorf("ensure videos directory: %w", err)
		}
		if err := catalog.WriteCache(cachePath, refs); err != nil {
			return nil, fmt.Errorf("write video cache: %w", err)
		}
	}
	return refs, nil
}
