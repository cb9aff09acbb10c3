package prune

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"subclip/internal/dataset"
	"subclip/internal/logging"
	"subclip/internal/textfilter"
)

// Result counts what a pass did (or would do, for a dry run).
type Result struct {
	Scanned   int
	Removed   int
	Rewritten int
	// RemovedDirs lists removed clip directories in walk order.
	RemovedDirs []string
}

// Pruner walks a dataset tree.
type Pruner struct {
	Denylist textfilter.Denylist
	DryRun   bool
	Logger   *slog.Logger
}

// Run processes every subtitles.txt below root.
func (p Pruner) Run(root string) (Result, error) {
	logger := logging.NewComponentLogger(p.Logger, "prune")
	var (
		result Result
		doomed []string
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != dataset.ClipTextFile {
			return nil
		}
		result.Scanned++

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		text := string(data)
		collapsed := textfilter.CollapseSpace(text)

		if collapsed == "" || p.Denylist.Contains(collapsed) {
			clipDir := filepath.Dir(path)
			doomed = append(doomed, clipDir)
			logger.Info("removing clip",
				logging.String("clip", clipDir),
				logging.String("text", collapsed),
				logging.Bool("dry_run", p.DryRun),
			)
			return fs.SkipDir
		}

		if collapsed != text {
			result.Rewritten++
			if !p.DryRun {
				if err := os.WriteFile(path, []byte(collapsed), 0o644); err != nil {
					return fmt.Errorf("rewrite %s: %w", path, err)
				}
			}
			logger.Debug("normalized clip text", logging.String("path", path))
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	var errs []error
	for _, dir := range doomed {
		if !p.DryRun {
			if err := os.RemoveAll(dir); err != nil {
				errs = append(errs, fmt.Errorf("remove %s: %w", dir, err))
				continue
			}
		}
		result.Removed++
		result.RemovedDirs = append(result.RemovedDirs, dir)
	}

	logger.Info("prune complete",
		logging.Int("scanned", result.Scanned),
		logging.Int("removed", result.Removed),
		logging.Int("rewritten", result.Rewritten),
		logging.Bool("dry_run", p.DryRun),
	)
	return result, errors.Join(errs...)
}
