package verify

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subclip/internal/logging"
	"subclip/internal/services"
)

// DefaultMinSeconds is the shortest acceptable clip in whole seconds.
const DefaultMinSeconds = 10

// Failure identifies the clip text file that failed validation.
type Failure struct {
	Path string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Report summarizes a successful pass.
type Report struct {
	Checked int
}

// Validator walks a dataset tree and checks every clip text file.
type Validator struct {
	MinSeconds int
	Logger     *slog.Logger
	// OnClip, when set, is called for every clip that passed the text check.
	OnClip func(path string)
}

// Run validates every file under root named subtitles*.txt in lexical order.
// The returned error is a *Failure for validation problems and a plain error
// for I/O problems.
func (v Validator) Run(root string) (Report, error) {
	minSeconds := v.MinSeconds
	if minSeconds <= 0 {
		minSeconds = DefaultMinSeconds
	}
	logger := logging.NewComponentLogger(v.Logger, "verify")

	var report Report
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isClipText(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return &Failure{Path: path, Err: services.ErrEmptyText}
		}
		if v.OnClip != nil {
			v.OnClip(path)
		}

		start, end, err := ParseClipName(filepath.Base(filepath.Dir(path)))
		if err != nil {
			return &Failure{Path: path, Err: err}
		}
		duration := end.TotalSeconds() - start.TotalSeconds()
		if duration < minSeconds {
			return &Failure{
				Path: path,
				Err:  fmt.Errorf("%w: %d seconds is less than %d", services.ErrBelowMinDuration, duration, minSeconds),
			}
		}
		report.Checked++
		return nil
	})
	if err != nil {
		var failure *Failure
		if errors.As(err, &failure) {
			logger.Error("clip validation failed",
				logging.String("path", failure.Path),
				logging.Error(failure.Err),
				logging.String(logging.FieldEventType, "clip_invalid"),
				logging.Int("checked", report.Checked),
			)
		}
		return report, err
	}
	logger.Info("clip validation passed", logging.Int("checked", report.Checked))
	return report, nil
}

func isClipText(name string) bool {
	return strings.HasPrefix(name, "subtitles") && strings.HasSuffix(name, ".txt")
}
