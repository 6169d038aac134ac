// Package sniff classifies file content as text or binary from a bounded
// prefix probe. It never reads more than ProbeSize bytes per file.
package sniff

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// ProbeSize is the maximum number of bytes read from a file to classify it.
const ProbeSize = 1024

// Result is a single-shot classification of a file's leading bytes.
type Result struct {
	// Binary is true when the prefix matches a known binary signature or the
	// content is not valid UTF-8.
	Binary bool
	// MIME is the detected media type, e.g. "text/plain; charset=utf-8" or
	// "image/png".
	MIME string
}

// Classifier decides whether a file looks like text. Implementations must be
// read-only and must not retain the probed bytes.
type Classifier interface {
	Classify(path string) (Result, error)
}

// ContentClassifier classifies by magic-number sniffing plus a UTF-8
// validity check over the probed prefix.
type ContentClassifier struct{}

func NewContentClassifier() *ContentClassifier {
	return &ContentClassifier{}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Classify reads up to ProbeSize bytes of the file and reports whether the
// content looks binary. A zero-length file always classifies as text.
func (c *ContentClassifier) Classify(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("classify open %s: %w", path, err)
	}
	defer f.Close()

	probe := make([]byte, ProbeSize)
	n, err := io.ReadFull(f, probe)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Result{}, fmt.Errorf("classify read %s: %w", path, err)
	}
	probe = probe[:n]

	if n == 0 {
		return Result{Binary: false, MIME: "text/plain; charset=utf-8"}, nil
	}

	mtype := mimetype.Detect(probe)
	if !isTextMIME(mtype) {
		return Result{Binary: true, MIME: mtype.String()}, nil
	}

	if !validTextPrefix(probe, n == ProbeSize) {
		return Result{Binary: true, MIME: mtype.String()}, nil
	}

	return Result{Binary: false, MIME: mtype.String()}, nil
}

// isTextMIME walks the detected type and its parents looking for text/plain,
// which mimetype uses as the root of its text hierarchy.
func isTextMIME(mtype *mimetype.MIME) bool {
	for t := mtype; t != nil; t = t.Parent() {
		if t.Is("text/plain") {
			return true
		}
	}
	// UTF-16 text is reported under its own branch.
	return strings.HasPrefix(mtype.String(), "text/")
}

// validTextPrefix reports whether the probe decodes as UTF-8, with or without
// a byte-order mark. When the probe is truncated at ProbeSize the final rune
// may be split mid-sequence, so up to utf8.UTFMax-1 trailing bytes are
// tolerated as an incomplete encoding.
func validTextPrefix(probe []byte, truncated bool) bool {
	probe = bytes.TrimPrefix(probe, utf8BOM)

	if truncated {
		for trim := 0; trim < utf8.UTFMax; trim++ {
			if utf8.Valid(probe[:len(probe)-trim]) {
				return true
			}
		}
		return false
	}

	return utf8.Valid(probe)
}
