package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
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

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	SnapshotHash Hash
	ConfigHash   Hash
	TableHash    Hash
)

// Constructors
func NewSnapshotHash(data []byte) SnapshotHash { return SnapshotHash(NewHash(data)) }
func NewConfigHash(data []byte) ConfigHash     { return ConfigHash(NewHash(data)) }
func NewTableHash(data []byte) TableHash       { return TableHash(NewHash(data)) }

// String conversions
func (h SnapshotHash) String() string { return Hash(h).String() }
func (h ConfigHash) String() string   { return Hash(h).String() }
func (h TableHash) String() string    { return Hash(h).String() }

// ComputeSnapshotHash fingerprints an input population. Rows are keyed by
// customer ID and sorted before hashing so insertion order never changes
// the fingerprint.
func ComputeSnapshotHash(rowKeys []string, rowDigests map[string]string) SnapshotHash {
	keys := make([]string, len(rowKeys))
	copy(keys, rowKeys)
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(rowDigests[key])
		data.WriteString("\n")
	}

	return NewSnapshotHash([]byte(data.String()))
}

// ComputeConfigHash fingerprints a resolved configuration. Keys are sorted
// so map iteration order never changes the fingerprint.
func ComputeConfigHash(settings map[string]interface{}) ConfigHash {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString(fmt.Sprintf("%v", settings[key]))
	}

	return NewConfigHash([]byte(data.String()))
}
