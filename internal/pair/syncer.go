package pair

import (
	"context"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/filepair/filepair/internal/sniff"
	"github.com/filepair/filepair/internal/utils"
	"github.com/filepair/filepair/internal/watch"
)

// Config carries the validated CLI inputs for one sync pair.
type Config struct {
	PathA     string
	PathB     string
	Overwrite bool
	// Debounce overrides the watch coalescing window. Zero means the
	// watcher default.
	Debounce time.Duration
}

// Syncer wires the pair components together: validation gates entry, the
// reconciler runs once, then the sync loop runs until the process is
// terminated or the watch subsystem dies.
type Syncer struct {
	config    *Config
	a         *TrackedFile
	b         *TrackedFile
	validator *Validator
	watcher   *watch.Watcher
	flock     *flock.Flock
}

// NewSyncer canonicalizes both paths (they must exist) and prepares the
// components. Nothing is mutated until Start.
func NewSyncer(config *Config) (*Syncer, error) {
	pathA, err := utils.CanonicalPath(config.PathA)
	if err != nil {
		return nil, &IOError{Op: "resolve", Path: config.PathA, Err: err}
	}
	pathB, err := utils.CanonicalPath(config.PathB)
	if err != nil {
		return nil, &IOError{Op: "resolve", Path: config.PathB, Err: err}
	}

	if pathA == pathB {
		return nil, fmt.Errorf("%w: %s", ErrSameFile, pathA)
	}

	for _, path := range []string{pathA, pathB} {
		if !utils.FileExists(path) {
			return nil, fmt.Errorf("%w: %s is not a regular file", ErrInvalidPath, path)
		}
	}

	a := NewTrackedFile(pathA)
	b := NewTrackedFile(pathB)

	watcher := watch.New(a.ParentDir, b.ParentDir)
	if config.Debounce > 0 {
		watcher.SetDebounceWindow(config.Debounce)
	}

	return &Syncer{
		config:    config,
		a:         a,
		b:         b,
		validator: NewValidator(sniff.NewContentClassifier()),
		watcher:   watcher,
		flock:     flock.New(lockPath(pathA, pathB)),
	}, nil
}

// Start validates the pair, reconciles initial divergence, then watches both
// parent directories until ctx is cancelled. Validation and reconciliation
// errors abort before any watch is registered.
func (s *Syncer) Start(ctx context.Context) error {
	locked, err := s.flock.TryLock()
	if err != nil {
		return &IOError{Op: "lock", Path: s.flock.Path(), Err: err}
	}
	if !locked {
		return ErrPairLocked
	}
	defer s.flock.Unlock()

	slog.Info("linking pair", "a", s.a.Path, "b", s.b.Path, "overwrite", s.config.Overwrite)

	if err := s.validator.Validate(s.a.Path, s.b.Path); err != nil {
		return err
	}

	decision, err := Reconcile(s.a, s.b, s.config.Overwrite)
	if err != nil {
		return err
	}
	slog.Info("reconciled", "decision", decision)

	if err := s.watcher.Start(ctx); err != nil {
		return fmt.Errorf("pair: watch subsystem: %w", err)
	}
	defer s.watcher.Stop()

	loop := NewSyncLoop(s.a, s.b, s.watcher.Batches())
	return loop.Run(ctx)
}

// lockPath derives a per-pair advisory lock file under the system temp dir,
// stable across argument order.
func lockPath(pathA, pathB string) string {
	if pathB < pathA {
		pathA, pathB = pathB, pathA
	}
	sum := crc32.ChecksumIEEE([]byte(pathA + "\x00" + pathB))
	return filepath.Join(os.TempDir(), fmt.Sprintf("filepair-%08x.lock", sum))
}
