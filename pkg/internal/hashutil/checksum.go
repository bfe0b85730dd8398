package hashutil

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
)

// CalculateFileChecksum calculates the SHA256 checksum of a file
func CalculateFileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// TreeHasher computes a digest over a directory tree. Entries must be added
// in a deterministic order (lexical walk order) for digests to be
// comparable.
type TreeHasher struct {
	h hash.Hash
}

// NewTreeHasher returns an empty tree hasher.
func NewTreeHasher() *TreeHasher {
	return &TreeHasher{h: sha256.New()}
}

// AddDir records a directory entry.
func (t *TreeHasher) AddDir(rel string) {
	fmt.Fprintf(t.h, "d %s\n", rel)
}

// AddSymlink records a symlink entry and its target.
func (t *TreeHasher) AddSymlink(rel, target string) {
	fmt.Fprintf(t.h, "l %s %s\n", rel, target)
}

// AddFile records a regular file and its content.
func (t *TreeHasher) AddFile(rel string, data []byte) {
	_, _ = t.FileWriter(rel, int64(len(data))).Write(data)
}

// FileWriter records a regular file of the given size and returns the
// writer its content must be streamed into, exactly size bytes.
func (t *TreeHasher) FileWriter(rel string, size int64) io.Writer {
	fmt.Fprintf(t.h, "f %s %d\n", rel, size)
	return t.h
}

// Sum returns the digest in "sha256:<hex>" form.
func (t *TreeHasher) Sum() string {
	return fmt.Sprintf("sha256:%x", t.h.Sum(nil))
}
