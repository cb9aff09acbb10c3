package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subclip/internal/catalog"
	"subclip/internal/config"
	"subclip/internal/dataset"
	"subclip/internal/fileutil"
	"subclip/internal/journal"
	"subclip/internal/metrics"
)

type statusReport struct {
	Lang     string          `json:"lang" yaml:"lang"`
	Creators []creatorReport `json:"creators" yaml:"creators"`
	LastRun  *runReport      `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	Attempts map[string]int  `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Failures []failureReport `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type creatorReport struct {
	Channel   string  `json:"channel" yaml:"channel"`
	DateAfter string  `json:"date_after,omitempty" yaml:"date_after,omitempty"`
	Download  int     `json:"download" yaml:"download"`
	Success   int     `json:"success" yaml:"success"`
	Samples   int     `json:"samples" yaml:"samples"`
	TotalTime int     `json:"total_time" yaml:"total_time"`
	AvgTime   float64 `json:"avg_time" yaml:"avg_time"`
	Error     string  `json:"error,omitempty" yaml:"error,omitempty"`
}

type runReport struct {
	ID        string    `json:"id" yaml:"id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Finished  bool      `json:"finished" yaml:"finished"`
	Videos    int       `json:"videos" yaml:"videos"`
	Succeeded int       `json:"succeeded" yaml:"succeeded"`
	Samples   int       `json:"samples" yaml:"samples"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

type failureReport struct {
	When    time.Time `json:"when" yaml:"when"`
	Creator string    `json:"creator" yaml:"creator"`
	VideoID string    `json:"video_id" yaml:"video_id"`
	State   string    `json:"state" yaml:"state"`
	Error   string    `json:"error,omitempty" yaml:"error,omitempty"`
}

type creatorStatus struct {
	creator catalog.Creator
	metric  metrics.Metric
	err     error
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		lang     string
		failures int
		format   string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-creator progress and recent failed videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			code, err := ctx.resolveLanguage(lang)
			if err != nil {
				return err
			}
			if format, err = checkFormat(format); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses, err := collectCreatorStatus(cfg, code)
			if err != nil {
				return err
			}
			if format != formatTable {
				report, err := buildStatusReport(cmd.Context(), cfg, code, statuses, failures)
				if err != nil {
					return err
				}
				return writeStructured(cmd, format, report)
			}
			for _, line := range renderSectionHeader("Creators ("+code+")", colorize) {
				fmt.Fprintln(out, line)
			}
			if len(statuses) == 0 {
				fmt.Fprintln(out, "No creators configured or harvested yet.")
			} else {
				fmt.Fprintln(out, renderCreatorTable(statuses))
			}

			if exists, err := fileutil.Exists(cfg.JournalPath()); err != nil || !exists {
				return err
			}
			store, err := journal.Open(cfg.JournalPath())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Journal", statusWarn, err.Error(), colorize))
				return nil
			}
			defer store.Close()
			return renderJournalStatus(cmd.Context(), out, store, code, failures, colorize)
		},
	}

	addLanguageFlag(cmd, &lang)
	cmd.Flags().IntVar(&failures, "failures", 10, "Number of recent failed attempts to list")
	addFormatFlag(cmd, &format)
	return cmd
}

// collectCreatorStatus merges the creator list with creator directories that
// already exist on disk, so channels removed from the list still show up.
func collectCreatorStatus(cfg *config.Config, lang string) ([]creatorStatus, error) {
	creators, err := catalog.LoadCreators(cfg.CreatorsPath(lang))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	known := make(map[string]bool, len(creators))
	for _, c := range creators {
		known[c.Channel] = true
	}
	entries, err := os.ReadDir(cfg.LanguageDataDir(lang))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list data directory: %w", err)
	}
	var extra []catalog.Creator
	for _, entry := range entries {
		if entry.IsDir() && !known[entry.Name()] {
			extra = append(extra, catalog.Creator{Channel: entry.Name()})
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Channel < extra[j].Channel })
	creators = append(creators, extra...)

	layout := dataset.Layout{Root: cfg.Paths.DataDir, Lang: lang}
	statuses := make([]creatorStatus, 0, len(creators))
	for _, c := range creators {
		store := metrics.NewStore(layout.MetricPath(c.Channel), filepath.Join(lockDir(cfg, lang), "metric-"+lang+"-"+c.Channel+".lock"))
		m, err := store.Load()
		statuses = append(statuses, creatorStatus{creator: c, metric: m, err: err})
	}
	return statuses, nil
}

func buildStatusReport(ctx context.Context, cfg *config.Config, lang string, statuses []creatorStatus, limit int) (statusReport, error) {
	report := statusReport{Lang: lang, Creators: make([]creatorReport, 0, len(statuses))}
	for _, s := range statuses {
		r := creatorReport{
			Channel:   s.creator.Channel,
			DateAfter: s.creator.DateAfter,
			Download:  s.metric.Download,
			Success:   s.metric.Success,
			Samples:   s.metric.Samples,
			TotalTime: s.metric.TotalTime,
			AvgTime:   s.metric.AvgTime,
		}
		if s.err != nil {
			r.Error = s.err.Error()
		}
		report.Creators = append(report.Creators, r)
	}

	if exists, err := fileutil.Exists(cfg.JournalPath()); err != nil || !exists {
		return report, err
	}
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return report, err
	}
	defer store.Close()

	if run, ok, err := store.LastRun(ctx, lang); err != nil {
		return report, err
	} else if ok {
		report.LastRun = &runReport{
			ID:        run.ID,
			StartedAt: run.StartedAt,
			Finished:  !run.FinishedAt.IsZero(),
			Videos:    run.Videos,
			Succeeded: run.Succeeded,
			Samples:   run.Samples,
			Error:     run.Error,
		}
	}
	if report.Attempts, err = store.StateCounts(ctx, lang); err != nil {
		return report, err
	}
	if limit > 0 {
		failed, err := store.Attempts(ctx, journal.Filter{Lang: lang, FailedOnly: true, Limit: limit})
		if err != nil {
			return report, err
		}
		for _, a := range failed {
			report.Failures = append(report.Failures, failureReport{
				When: a.FinishedAt, Creator: a.Creator, VideoID: a.VideoID, State: a.State, Error: a.Error,
			})
		}
	}
	return report, nil
}

func renderCreatorTable(statuses []creatorStatus) string {
	rows := make([][]string, 0, len(statuses)+1)
	var total metrics.Metric
	for _, s := range statuses {
		if s.err != nil {
			rows = append(rows, []string{s.creator.Channel, dateOrDash(s.creator.DateAfter), "error: " + s.err.Error(), "", "", "", ""})
			continue
		}
		m := s.metric
		total = total.Add(metrics.Delta{Download: m.Download, Success: m.Success, Samples: m.Samples, TotalTime: m.TotalTime})
		rows = append(rows, metricRow(s.creator.Channel, dateOrDash(s.creator.DateAfter), m))
	}
	if len(statuses) > 1 {
		rows = append(rows, metricRow("Total", "", total))
	}
	return renderTable("",
		[]string{"Creator", "After", "Attempted", "Succeeded", "Clips", "Audio", "Avg clip"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func metricRow(name, after string, m metrics.Metric) []string {
	return []string{
		name,
		after,
		strconv.Itoa(m.Download),
		strconv.Itoa(m.Success),
		strconv.Itoa(m.Samples),
		formatSeconds(m.TotalTime),
		strconv.FormatFloat(m.AvgTime, 'f', 1, 64) + "s",
	}
}

func renderJournalStatus(ctx context.Context, out io.Writer, store *journal.Store, lang string, limit int, colorize bool) error {
	for _, line := range renderSectionHeader("History", colorize) {
		fmt.Fprintln(out, line)
	}
	run, ok, err := store.LastRun(ctx, lang)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, renderStatusLine("Last run", statusInfo, "none recorded", colorize))
		return nil
	}
	kind, msg := statusOK, fmt.Sprintf("%s: %d videos, %d succeeded, %d clips", formatWhen(run.StartedAt), run.Videos, run.Succeeded, run.Samples)
	switch {
	case run.Error != "":
		kind = statusError
		msg += " (" + run.Error + ")"
	case run.FinishedAt.IsZero():
		kind = statusWarn
		msg += " (did not finish)"
	}
	fmt.Fprintln(out, renderStatusLine("Last run", kind, msg, colorize))

	counts, err := store.StateCounts(ctx, lang)
	if err != nil {
		return err
	}
	states := make([]string, 0, len(counts))
	for state := range counts {
		states = append(states, state)
	}
	sort.Strings(states)
	parts := make([]string, 0, len(states))
	for _, state := range states {
		parts = append(parts, fmt.Sprintf("%s=%d", state, counts[state]))
	}
	fmt.Fprintln(out, renderStatusLine("Attempts", statusInfo, strings.Join(parts, " "), colorize))

	if limit <= 0 {
		return nil
	}
	failed, err := store.Attempts(ctx, journal.Filter{Lang: lang, FailedOnly: true, Limit: limit})
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(failed))
	for _, a := range failed {
		rows = append(rows, []string{formatWhen(a.FinishedAt), a.Creator, a.VideoID, a.State, truncate(a.Error, 60)})
	}
	fmt.Fprintln(out, renderTable("Recent failures", []string{"When", "Creator", "Video", "State", "Error"}, rows, nil))
	return nil
}

func formatSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
