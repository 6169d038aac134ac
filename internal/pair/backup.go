package pair

import (
	"path/filepath"
	"strings"
)

const (
	backupSuffix = "_backup"
	fallbackStem = "file"
	fallbackExt  = "txt"
)

// BackupPath derives the sibling backup path for an original path:
// {parent}/{stem}_backup.{ext}, with "file" and "txt" as fallbacks when the
// stem or extension is absent. Pre-existing backups are not checked for, so
// repeated conflicts overwrite older backups (last writer wins).
func BackupPath(original string) string {
	dir := filepath.Dir(original)
	base := filepath.Base(original)

	ext := filepath.Ext(base)
	if base == ext {
		// dotfiles like ".gitignore" have no extension
		ext = ""
	}

	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = fallbackStem
	}

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = fallbackExt
	}

	return filepath.Join(dir, stem+backupSuffix+"."+ext)
}
