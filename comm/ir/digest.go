package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
)

// Digest returns the "sha256:<hex>" digest of text, matching the wire
// contract of spec.md §4.8/§6.
func Digest(text []byte) string {
	sum := sha256.Sum256(text)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// MarshalIndented serializes v the way every stage document is written:
// pretty-printed, because the digest is computed over this exact text and
// every re-serialization must reproduce it byte-for-byte.
func MarshalIndented(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// WriteAtomic writes data to path via a sibling temp file followed by
// rename, so readers never observe a partially-written document.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
