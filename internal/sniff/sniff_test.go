package sniff

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classify(t *testing.T, name string, content []byte) Result {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))

	result, err := NewContentClassifier().Classify(path)
	require.NoError(t, err)
	return result
}

func TestClassify_PlainText(t *testing.T) {
	result := classify(t, "notes.txt", []byte("just some plain text\nwith lines\n"))
	assert.False(t, result.Binary)
}

func TestClassify_EmptyFileIsText(t *testing.T) {
	result := classify(t, "empty.txt", nil)
	assert.False(t, result.Binary)
	assert.Contains(t, result.MIME, "text/plain")
}

func TestClassify_UTF8WithBOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("bom then text")...)
	result := classify(t, "bom.txt", content)
	assert.False(t, result.Binary)
}

func TestClassify_PNGSignatureIsBinary(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13}
	result := classify(t, "img.png", pngHeader)
	assert.True(t, result.Binary)
	assert.Equal(t, "image/png", result.MIME)
}

func TestClassify_NonUTF8IsBinary(t *testing.T) {
	// arbitrary high bytes that are not a valid UTF-8 sequence
	result := classify(t, "garbage.txt", []byte{0xFF, 0xFE, 0xFD, 0x01, 0x02, 0xC0, 0xC0})
	assert.True(t, result.Binary)
}

func TestClassify_UTF16IsBinary(t *testing.T) {
	// UTF-16LE "hello" with BOM: text, but not UTF-8 text
	content := []byte{0xFF, 0xFE, 'h', 0, 'e', 0, 'l', 0, 'l', 0, 'o', 0}
	result := classify(t, "utf16.txt", content)
	assert.True(t, result.Binary)
}

func TestClassify_ProbeIsBounded(t *testing.T) {
	// valid UTF-8 text much larger than the probe, with a multi-byte rune
	// straddling the probe boundary
	var buf bytes.Buffer
	for buf.Len() < ProbeSize-1 {
		buf.WriteString("aaaaaaaaaa")
	}
	buf.Truncate(ProbeSize - 1)
	buf.WriteString("é") // 2-byte rune, second byte falls outside the probe
	buf.WriteString("plenty more text after the probe window")

	result := classify(t, "large.txt", buf.Bytes())
	assert.False(t, result.Binary, "split trailing rune must not flag the file as binary")
}

func TestClassify_MissingFile(t *testing.T) {
	_, err := NewContentClassifier().Classify(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
