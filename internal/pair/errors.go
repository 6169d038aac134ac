package pair

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath means a path has no usable file name component.
	ErrInvalidPath = errors.New("pair: path has no file name component")

	// ErrSameFile means both arguments resolve to the same file.
	ErrSameFile = errors.New("pair: both paths resolve to the same file")

	// ErrUnresolvedDivergence means the pair differs and overwrite was not
	// allowed. Startup must abort without mutating either file.
	ErrUnresolvedDivergence = errors.New("pair: files differ, pass --overwrite to reconcile them (backups are created)")

	// ErrPairLocked means another process already syncs this pair.
	ErrPairLocked = errors.New("pair: already being synced by another process")

	// ErrWatchClosed means the watch subsystem closed the event stream.
	ErrWatchClosed = errors.New("pair: watch event stream closed")
)

// NameMismatchError is returned when the two base names differ.
type NameMismatchError struct {
	NameA string
	NameB string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("pair: file names do not match: %q vs %q", e.NameA, e.NameB)
}

// BinaryFileError is returned when a side classifies as binary content.
type BinaryFileError struct {
	Path string
	MIME string
}

func (e *BinaryFileError) Error() string {
	return fmt.Sprintf("pair: %s looks like binary content (%s), only text files can be synced", e.Path, e.MIME)
}

// IOError wraps a filesystem failure with the operation and path it hit.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("pair: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
