package preflight

import (
	"context"

	"subclip/internal/config"
)

// minFreeBytes leaves room for a few long videos' audio plus their clips.
const minFreeBytes = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and tool checks for a harvest of lang.
func RunAll(ctx context.Context, cfg *config.Config, lang string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckFileReadable("Alphabet", cfg.AlphabetPath(lang)),
		CheckFileReadable("Creator list", cfg.CreatorsPath(lang)),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Videos directory", cfg.Paths.VideosDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("Data free space", cfg.Paths.DataDir, minFreeBytes),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		if status.Optional && !status.Available {
			continue
		}
		r := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if r.Passed {
			r.Detail = status.Version
		}
		results = append(results, r)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
