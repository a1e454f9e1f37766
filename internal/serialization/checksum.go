package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeChecksum computes the SHA-256 checksum of a data section.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// VerifyChecksum checks data against the checksum stored in the file header.
// Returns an error wrapping ErrChecksumMismatch if they differ.
func VerifyChecksum(data []byte, stored [ChecksumSize]byte) error {
	computed := ComputeChecksum(data)
	if computed != stored {
		return fmt.Errorf("%w: stored %s, computed %s",
			ErrChecksumMismatch, hex.EncodeToString(stored[:8]), hex.EncodeToString(computed[:8]))
	}
	return nil
}
