package pair

import (
	"context"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/filepair/filepair/internal/watch"
)

// SyncLoop is the steady-state watch/react cycle. It consumes event batches
// for the pair's parent directories and ping-pongs content in the direction
// of each detected change.
//
// Processing is strictly sequential, one batch at a time, so the two held
// digests need no locking. Per-event I/O failures are logged and skipped,
// never fatal; the next filesystem change re-attempts convergence.
type SyncLoop struct {
	a       *TrackedFile
	b       *TrackedFile
	batches <-chan watch.Batch
}

func NewSyncLoop(a, b *TrackedFile, batches <-chan watch.Batch) *SyncLoop {
	return &SyncLoop{a: a, b: b, batches: batches}
}

// Run blocks until the context is cancelled (returns nil) or the event
// stream closes (returns ErrWatchClosed). It has no other exit paths.
func (l *SyncLoop) Run(ctx context.Context) error {
	slog.Info("sync loop running", "a", l.a.Path, "b", l.b.Path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-l.batches:
			if !ok {
				return ErrWatchClosed
			}
			l.handleBatch(batch)
		}
	}
}

// handleBatch reacts to one debounced batch. A is always processed before B,
// so when both sides genuinely changed in the same window, B's propagation
// runs last and wins. That outcome is arbitrary but deterministic.
func (l *SyncLoop) handleBatch(batch watch.Batch) {
	var touchedA, touchedB bool

	for _, event := range batch {
		if event.Kind == watch.KindAccess {
			// pure reads carry no content change
			continue
		}
		// Exact path match only: sibling files in the watched directories
		// are none of our business.
		if event.Path == l.a.Path {
			touchedA = true
		}
		if event.Path == l.b.Path {
			touchedB = true
		}
	}

	if touchedA {
		l.propagate(l.a, l.b)
	}
	if touchedB {
		l.propagate(l.b, l.a)
	}
}

// propagate re-digests src and, if its content truly changed, copies it onto
// dst. A digest matching the held one is an echo of this process's own prior
// write and is suppressed.
func (l *SyncLoop) propagate(src, dst *TrackedFile) {
	newDigest, err := Digest(src.Path)
	if err != nil {
		// held digest stays as-is; the next event re-attempts
		slog.Warn("digest failed, skipping event", "path", src.Path, "error", err)
		return
	}

	if newDigest.Equal(src.digest) {
		slog.Debug("echo suppressed", "path", src.Path, "digest", newDigest)
		return
	}

	src.setDigest(newDigest)

	content, err := os.ReadFile(src.Path)
	if err != nil {
		slog.Warn("read failed, skipping propagation", "path", src.Path, "error", err)
		return
	}

	if err := os.WriteFile(dst.Path, content, 0o644); err != nil {
		// dst's held digest is left untouched so the next legitimate event
		// on dst is not spuriously suppressed
		slog.Warn("write failed, pair diverged until next change", "path", dst.Path, "error", err)
		return
	}

	dst.setDigest(newDigest)

	slog.Info("change propagated",
		"from", src.Path,
		"to", dst.Path,
		"digest", newDigest,
		"size", humanize.Bytes(uint64(len(content))))
}
