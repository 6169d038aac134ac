package pair

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// digestChunkSize is the read buffer used while streaming a file through the
// checksum. Purely a throughput knob.
const digestChunkSize = 8 * 1024

// Fingerprint is a fixed-width digest of a file's bytes, used for cheap
// equality testing. Equal fingerprints are treated as proof of equal content;
// CRC32 collisions are an accepted risk of this design, not corrected.
//
// The zero value is invalid and never compares equal to anything, including
// another invalid Fingerprint. A failed read therefore can never be mistaken
// for a real digest.
type Fingerprint struct {
	sum   uint32
	valid bool
}

// Valid reports whether the fingerprint came from a successful read.
func (f Fingerprint) Valid() bool {
	return f.valid
}

// Equal reports content equality. Invalid fingerprints equal nothing.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.valid && other.valid && f.sum == other.sum
}

func (f Fingerprint) String() string {
	if !f.valid {
		return "<unknown>"
	}
	return fmt.Sprintf("%08x", f.sum)
}

// Digest streams the file through a CRC32 (IEEE) accumulator in fixed-size
// chunks, never holding the whole file in memory. Callers must treat a
// failure as "state unknown", not as equality or inequality.
func Digest(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	h := crc32.NewIEEE()
	buf := make([]byte, digestChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return Fingerprint{}, &IOError{Op: "read", Path: path, Err: err}
	}

	return Fingerprint{sum: h.Sum32(), valid: true}, nil
}
