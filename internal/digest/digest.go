// Package digest computes SHA-256 digests over byte slices, streams and files.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Size is the length of a digest in bytes.
const Size = sha256.Size

// chunkSize is the read buffer used when streaming content through the hash.
const chunkSize = 8 * 1024

// Sum returns the SHA-256 digest of data.
func Sum(data []byte) [Size]byte {
	return sha256.Sum256(data)
}

// SumReader streams r through SHA-256 in fixed-size chunks.
func SumReader(r io.Reader) ([Size]byte, error) {
	var out [Size]byte

	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return out, fmt.Errorf("failed to read content: %w", err)
	}

	copy(out[:], h.Sum(nil))
	return out, nil
}

// SumFile returns the SHA-256 digest of the file at path.
func SumFile(path string) ([Size]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [Size]byte{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return SumReader(f)
}

// Hex returns the lowercase hex encoding of b.
func Hex(b []byte) string {
	return hex.EncodeToString(b)
}
