package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeRunFingerprint produces a deterministic hash over the parameters that
// define an extraction run, so identical runs can be recognized later.
func ComputeRunFingerprint(bucket string, windowSize, degree, maxIter int) Hash {
	var data strings.Builder
	data.WriteString(bucket)
	data.WriteString(fmt.Sprintf("|%d|%d|%d", windowSize, degree, maxIter))
	return NewHash([]byte(data.String()))
}
