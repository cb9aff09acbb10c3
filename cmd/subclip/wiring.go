package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subclip/internal/audio"
	"subclip/internal/config"
	"subclip/internal/dataset"
	"subclip/internal/journal"
	"subclip/internal/language"
	"subclip/internal/logging"
	"subclip/internal/pipeline"
	"subclip/internal/textfilter"
	"subclip/internal/ytdlp"
)

type pipelineParams struct {
	lang      string
	numVideos int
	journal   *journal.Store
	logger    *slog.Logger
}

func buildPipeline(cfg *config.Config, params pipelineParams) (*pipeline.Pipeline, error) {
	alphabet, err := textfilter.LoadAlphabet(cfg.AlphabetPath(params.lang))
	if err != nil {
		return nil, err
	}
	client, err := ytdlp.New(cfg.Tools.YtDlp)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp client: %w", err)
	}

	opts := pipeline.Options{
		Lang:         params.lang,
		NumVideos:    params.numVideos,
		MinDuration:  time.Duration(cfg.Dataset.MinDurationSeconds) * time.Second,
		SampleRate:   cfg.Dataset.SampleRate,
		AudioFormat:  cfg.Dataset.AudioFormat,
		AutoCaptions: cfg.Dataset.AutoCaptions,
		Filter:       textfilter.New(alphabet, language.Tag(params.lang)),
		Denylist:     textfilter.NewDenylist(cfg.FillerTokensFor(params.lang)...),
		Layout:       dataset.Layout{Root: cfg.Paths.DataDir},
		VideosDir:    videosDir(cfg, params.lang),
		LockDir:      lockDir(cfg, params.lang),
		Lister:       client,
		Retriever:    client,
		Decoder: audio.AutoDecoder{
			FFmpeg: audio.NewFFmpegDecoder(cfg.Tools.FFmpeg),
			MP3:    audio.MP3Decoder{},
		},
		Logger: params.logger,
	}
	// A nil *journal.Store must not become a non-nil interface.
	if params.journal != nil {
		opts.Journal = params.journal
	}
	return pipeline.New(opts)
}

// openJournal opens the attempt journal. Harvesting continues without history
// when it cannot be opened.
func openJournal(cfg *config.Config, logger *slog.Logger) *journal.Store {
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		logging.WarnWithContext(logger, "attempt journal unavailable", "journal_open_failed",
			logging.Error(err),
			logging.String("path", cfg.JournalPath()),
			logging.String(logging.FieldImpact, "status will not list recent failures for this run"),
		)
		return nil
	}
	return store
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
