package pair

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/filepair/filepair/internal/sniff"
)

// Validator decides whether two paths form an eligible sync pair. It only
// probes file content through the injected classifier, never mutating
// anything.
type Validator struct {
	classifier sniff.Classifier
}

func NewValidator(classifier sniff.Classifier) *Validator {
	return &Validator{classifier: classifier}
}

// Validate applies the eligibility rules in order, first failing rule wins:
// usable file name components, case-insensitive base-name match, and text
// classification on both sides. A missing extension only logs a warning.
func (v *Validator) Validate(pathA, pathB string) error {
	nameA := filepath.Base(pathA)
	nameB := filepath.Base(pathB)

	for _, name := range []string{nameA, nameB} {
		if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
			return fmt.Errorf("%w: %q", ErrInvalidPath, name)
		}
	}

	if !strings.EqualFold(nameA, nameB) {
		return &NameMismatchError{NameA: nameA, NameB: nameB}
	}

	for _, path := range []string{pathA, pathB} {
		if filepath.Ext(path) == "" {
			slog.Warn("file has no extension", "path", path)
		}
	}

	for _, path := range []string{pathA, pathB} {
		result, err := v.classifier.Classify(path)
		if err != nil {
			return fmt.Errorf("pair: validate %s: %w", path, err)
		}
		if result.Binary {
			return &BinaryFileError{Path: path, MIME: result.MIME}
		}
	}

	return nil
}
