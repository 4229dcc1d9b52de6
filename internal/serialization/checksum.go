package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// ChecksumKey is the metadata entry holding the hex SHA-256 of the data section.
const ChecksumKey = "checksum"

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ComputeChecksumReader computes SHA-256 checksum from an io.Reader.
func ComputeChecksumReader(r io.Reader) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// ValidateChecksum compares computed checksum against stored checksum.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

// FormatChecksum renders a checksum for the metadata map.
func FormatChecksum(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// ParseChecksum parses a checksum produced by FormatChecksum.
func ParseChecksum(s string) ([32]byte, error) {
	var sum [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return sum, fmt.Errorf("%w: %v", ErrChecksumMismatch, err)
	}
	if len(b) != len(sum) {
		return sum, fmt.Errorf("%w: checksum has %d bytes", ErrChecksumMismatch, len(b))
	}
	copy(sum[:], b)
	return sum, nil
}
