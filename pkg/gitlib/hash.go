// Package gitlib wraps the libgit2 operations needed to read commit history:
// opening a repository, listing branches, remotes and authors, walking commits
// and classifying the file changes each commit introduces.
package gitlib

import (
	"encoding/hex"
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

const (
	// HashSize is the size of a SHA-1 hash in bytes.
	HashSize = 20
	// shortHashLen is the abbreviated length used in log output.
	shortHashLen = 8
)

// ErrInvalidHash is returned when a string is not a 40-character hex object id.
var ErrInvalidHash = errors.New("invalid object hash")

// Hash represents a git object hash (SHA-1).
type Hash [HashSize]byte

// ParseHash decodes a 40-character hex string.
func ParseHash(hexStr string) (Hash, error) {
	var h Hash

	raw, err := hex.DecodeString(hexStr)
	if err != nil || len(raw) != HashSize {
		return h, fmt.Errorf("%w: %q", ErrInvalidHash, hexStr)
	}

	copy(h[:], raw)

	return h, nil
}

// HashFromOid converts a libgit2 Oid to Hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var h Hash
	if oid != nil {
		copy(h[:], oid[:])
	}

	return h
}

// String returns the full hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the abbreviated hex form.
func (h Hash) Short() string {
	return h.String()[:shortHashLen]
}

// IsZero reports whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ToOid converts Hash back to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}
