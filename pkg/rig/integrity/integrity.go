// Package integrity verifies local files against expected SHA-1 digests.
//
// Files are hashed as a stream with a fixed read buffer so large runtime
// archives never need to be held in memory.
package integrity

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // SHA-1 is what the distribution publishes.
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync"
)

// BufferSize is the read buffer used while hashing.
const BufferSize = 2 * 1024 * 1024

var (
	// ErrInvalidDigest is returned when an expected digest is not valid hex.
	// A digest that parses but does not match is not an error for Check; it
	// reports false so callers re-fetch the file.
	ErrInvalidDigest = errors.New("invalid digest")

	// ErrMismatch is returned by callers that just wrote content whose digest
	// differs from the expected one.
	ErrMismatch = errors.New("digest mismatch")
)

// Validate reports whether expected is a usable hex digest.
func Validate(expected string) error {
	_, err := decode(expected)
	return err
}

// Check hashes the file at path and reports whether it matches expected.
// A missing file is returned as an error satisfying errors.Is(err, fs.ErrNotExist).
func Check(path, expected string) (bool, error) {
	want, err := decode(expected)
	if err != nil {
		return false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	got, err := sum(f)
	if err != nil {
		return false, fmt.Errorf("hashing %s: %w", path, err)
	}

	return bytes.Equal(got, want), nil
}

// CheckReader hashes r until EOF and reports whether it matches expected.
func CheckReader(r io.Reader, expected string) (bool, error) {
	want, err := decode(expected)
	if err != nil {
		return false, err
	}

	got, err := sum(r)
	if err != nil {
		return false, err
	}

	return bytes.Equal(got, want), nil
}

// Sum returns the lowercase hex SHA-1 of the file at path.
func Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	digest, err := sum(f)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(digest), nil
}

// NewHash returns a hash of the kind expected digests are computed with,
// for callers that hash while writing.
func NewHash() hash.Hash {
	return sha1.New() //nolint:gosec
}

// Matches reports whether digest equals the expected hex digest.
func Matches(digest []byte, expected string) (bool, error) {
	want, err := decode(expected)
	if err != nil {
		return false, err
	}
	return bytes.Equal(digest, want), nil
}

var buffers = sync.Pool{
	New: func() any {
		b := make([]byte, BufferSize)
		return &b
	},
}

// sum streams r through SHA-1 using a BufferSize read buffer.
func sum(r io.Reader) ([]byte, error) {
	buf := buffers.Get().(*[]byte)
	defer buffers.Put(buf)

	h := NewHash()
	if _, err := io.CopyBuffer(h, onlyReader{r}, *buf); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// onlyReader hides WriterTo so io.CopyBuffer honours the buffer size.
type onlyReader struct {
	io.Reader
}

func decode(expected string) ([]byte, error) {
	want, err := hex.DecodeString(strings.TrimSpace(expected))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidDigest, expected, err)
	}
	if len(want) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidDigest)
	}
	return want, nil
}
