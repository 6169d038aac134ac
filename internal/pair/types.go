// Package pair implements the reconcile-and-watch loop that keeps exactly two
// files mirrored: pair validation, initial divergence resolution, and the
// steady-state sync loop with echo suppression.
package pair

import (
	"path/filepath"
)

// TrackedFile is one side of the mirrored pair. The held digest must always
// reflect the last content this process wrote or observed on that side; a
// stale digest breaks echo suppression and loops the pair forever.
type TrackedFile struct {
	// Path is the canonical absolute path of the file.
	Path string
	// ParentDir is the directory registered with the watch subsystem.
	ParentDir string

	digest Fingerprint
}

// NewTrackedFile wraps a canonical absolute path. The held digest starts
// invalid until the reconciler computes it.
func NewTrackedFile(path string) *TrackedFile {
	return &TrackedFile{
		Path:      path,
		ParentDir: filepath.Dir(path),
	}
}

// Digest returns the currently-held fingerprint.
func (t *TrackedFile) Digest() Fingerprint {
	return t.digest
}

func (t *TrackedFile) setDigest(fp Fingerprint) {
	t.digest = fp
}

// SyncDecision is the initial convergence decision, produced exactly once by
// Reconcile.
type SyncDecision uint8

const (
	// DecisionNoop means the pair was already converged.
	DecisionNoop SyncDecision = iota
	// DecisionCopyAtoB means B was empty and received A's content.
	DecisionCopyAtoB
	// DecisionCopyBtoA means A was empty and received B's content.
	DecisionCopyBtoA
	// DecisionConflictBackup means both sides were non-empty and divergent:
	// both were backed up, then A's content was copied onto B.
	DecisionConflictBackup
)

func (d SyncDecision) String() string {
	switch d {
	case DecisionNoop:
		return "noop"
	case DecisionCopyAtoB:
		return "copy-a-to-b"
	case DecisionCopyBtoA:
		return "copy-b-to-a"
	case DecisionConflictBackup:
		return "conflict-backup-then-copy-a-to-b"
	default:
		return "unknown"
	}
}
