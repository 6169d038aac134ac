package pair

import (
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
)

// Reconcile resolves pre-existing divergence between the pair. It runs
// exactly once at startup, after validation, and leaves both held digests
// reflecting the on-disk state it produced. Running it again on the converged
// pair yields DecisionNoop.
//
// Any I/O failure while backing up or copying is fatal: partial copies are
// not rolled back.
func Reconcile(a, b *TrackedFile, overwrite bool) (SyncDecision, error) {
	digestA, err := Digest(a.Path)
	if err != nil {
		slog.Warn("initial digest failed", "path", a.Path, "error", err)
	}
	digestB, err := Digest(b.Path)
	if err != nil {
		slog.Warn("initial digest failed", "path", b.Path, "error", err)
	}

	a.setDigest(digestA)
	b.setDigest(digestB)

	slog.Info("initial digests", "a", digestA, "b", digestB)

	if digestA.Equal(digestB) {
		return DecisionNoop, nil
	}

	if !overwrite {
		return DecisionNoop, ErrUnresolvedDivergence
	}

	lenA, err := fileSize(a.Path)
	if err != nil {
		return DecisionNoop, err
	}
	lenB, err := fileSize(b.Path)
	if err != nil {
		return DecisionNoop, err
	}

	switch {
	case lenA > 0 && lenB > 0:
		// True conflict. Snapshot both sides, then A wins: its content is
		// copied onto B. The tie-break direction is fixed policy.
		slog.Warn("conflict: both files have content, backing up both sides",
			"sizeA", humanize.Bytes(uint64(lenA)), "sizeB", humanize.Bytes(uint64(lenB)))

		contentA, err := readFile(a.Path)
		if err != nil {
			return DecisionNoop, err
		}
		contentB, err := readFile(b.Path)
		if err != nil {
			return DecisionNoop, err
		}

		backupA := BackupPath(a.Path)
		backupB := BackupPath(b.Path)
		if err := writeFile(backupA, contentA); err != nil {
			return DecisionNoop, err
		}
		if err := writeFile(backupB, contentB); err != nil {
			return DecisionNoop, err
		}
		slog.Info("backups created", "a", backupA, "b", backupB)

		if err := writeFile(b.Path, contentA); err != nil {
			return DecisionConflictBackup, err
		}
		b.setDigest(digestA)
		return DecisionConflictBackup, nil

	case lenA > 0 && lenB == 0:
		slog.Info("b is empty, syncing a -> b", "size", humanize.Bytes(uint64(lenA)))
		contentA, err := readFile(a.Path)
		if err != nil {
			return DecisionNoop, err
		}
		if err := writeFile(b.Path, contentA); err != nil {
			return DecisionCopyAtoB, err
		}
		b.setDigest(digestA)
		return DecisionCopyAtoB, nil

	case lenB > 0 && lenA == 0:
		slog.Info("a is empty, syncing b -> a", "size", humanize.Bytes(uint64(lenB)))
		contentB, err := readFile(b.Path)
		if err != nil {
			return DecisionNoop, err
		}
		if err := writeFile(a.Path, contentB); err != nil {
			return DecisionCopyBtoA, err
		}
		a.setDigest(digestB)
		return DecisionCopyBtoA, nil

	default:
		// Two empty files are already identical.
		return DecisionNoop, nil
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, &IOError{Op: "stat", Path: path, Err: err}
	}
	return info.Size(), nil
}

func readFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return content, nil
}

func writeFile(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
