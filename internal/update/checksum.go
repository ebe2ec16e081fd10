package update

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrChecksumMismatch indicates the computed SHA-256 digest does not
	// match the one declared in the checksum sidecar.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidChecksum indicates the sidecar did not contain a
	// well-formed SHA-256 digest.
	ErrInvalidChecksum = errors.New("invalid sha256 checksum")
)

// ChecksumError describes a digest mismatch. It wraps ErrChecksumMismatch
// so callers can classify with errors.Is.
type ChecksumError struct {
	Path     string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("sha256 mismatch for %s (expected %s, got %s)", e.Path, e.Expected, e.Got)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// ParseChecksumText extracts the expected digest from a checksum
// sidecar: the first whitespace-delimited token, which must be exactly
// 64 hex characters. The returned digest is lowercased.
func ParseChecksumText(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: checksum file is empty", ErrInvalidChecksum)
	}

	expected := strings.ToLower(fields[0])
	if !isHexDigest(expected) {
		return "", fmt.Errorf("%w: %q", ErrInvalidChecksum, expected)
	}
	return expected, nil
}

// VerifySHA256 checks the file at path against the digest declared in
// checksumText. Comparison is case-insensitive.
func VerifySHA256(path, checksumText string) error {
	expected, err := ParseChecksumText(checksumText)
	if err != nil {
		return err
	}

	got, err := ComputeFileSHA256(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, expected) {
		return &ChecksumError{Path: path, Expected: expected, Got: got}
	}
	return nil
}

// ComputeFileSHA256 streams the file at path through SHA-256 and returns
// the lowercase hex digest.
func ComputeFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
