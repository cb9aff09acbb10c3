package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"subclip/internal/fileutil"
)

const lockRetryDelay = 50 * time.Millisecond

// ErrCorrupt reports a metric.json that exists but cannot be decoded. The
// download counter drives resumption, so it is never silently reset.
var ErrCorrupt = errors.New("metric file is corrupt")

// Store reads and updates one metric.json file.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore returns a store for path guarded by the lock file at lockPath.
// The lock lives outside the data tree so the dataset layout is unchanged.
func NewStore(path, lockPath string) *Store {
	return &Store{path: path, lock: flock.New(lockPath)}
}

// Path returns the metric file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the metric. A missing file yields the zero metric; a file that
// does not decode yields ErrCorrupt.
func (s *Store) Load() (Metric, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metric{}, nil
		}
		return Metric{}, fmt.Errorf("read metric: %w", err)
	}
	var m Metric
	if err := json.Unmarshal(data, &m); err != nil {
		return Metric{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return m, nil
}

// Apply adds d to the stored metric and returns the new value.
func (s *Store) Apply(ctx context.Context, d Delta) (Metric, error) {
	if err := os.MkdirAll(filepath.Dir(s.lock.Path()), 0o755); err != nil {
		return Metric{}, fmt.Errorf("ensure lock directory: %w", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Metric{}, fmt.Errorf("lock metric: %w", err)
	}
	if !locked {
		return Metric{}, fmt.Errorf("lock metric: %s is held by another process", s.lock.Path())
	}
	defer func() { _ = s.lock.Unlock() }()

	current, err := s.Load()
	if err != nil {
		return Metric{}, err
	}
	next := current.Add(d)

	data := next.Bytes()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Metric{}, fmt.Errorf("ensure metric directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return Metric{}, fmt.Errorf("write metric: %w", err)
	}
	return next, nil
}
