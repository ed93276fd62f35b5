// Package objhash defines the ObjectId type shared by every content-addressed
// value in geovcs (commits, trees, features, feature types, tags) and the
// canonical hashing used to derive one from an object's encoded bytes.
//
// ObjectId is a strongly-typed 20-byte identifier, mirroring the teacher's
// use of distinct string-based ID types (storage.NodeID, storage.EdgeID) to
// keep identifiers from different domains from being interchanged by
// accident.
package objhash

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// Size is the length in bytes of an ObjectId.
const Size = 20

// ObjectId is an opaque content-addressed identifier. The zero value is
// Null, meaning "absent" or "no mapping" per the data model.
type ObjectId [Size]byte

// Null is the distinguished all-zero ObjectId meaning "absent".
var Null ObjectId

// ErrInvalidHex is returned when parsing a malformed hex string.
var ErrInvalidHex = errors.New("objhash: invalid hex object id")

// IsNull reports whether id is the distinguished absent value.
func (id ObjectId) IsNull() bool {
	return id == Null
}

// String returns the 40-character lowercase hex encoding of id.
func (id ObjectId) String() string {
	return hex.EncodeToString(id[:])
}

// Compare returns -1, 0, or 1 as id is less than, equal to, or greater
// than other, using byte-lexicographic ordering per the data model.
func (id ObjectId) Compare(other ObjectId) int {
	for i := range id {
		if id[i] != other[i] {
			if id[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Parse decodes a 40-character hex string into an ObjectId.
func Parse(s string) (ObjectId, error) {
	var id ObjectId
	if len(s) != Size*2 {
		return id, ErrInvalidHex
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, ErrInvalidHex
	}
	copy(id[:], b)
	return id, nil
}

// MustParse is like Parse but panics on error; intended for constants
// and test fixtures only.
func MustParse(s string) ObjectId {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Sum computes the canonical ObjectId of an object's encoded bytes. Two
// calls with identical input always yield identical output, and changing
// any byte of the encoding changes the resulting id — this is what makes
// rewriting any field of a Commit or Tree yield a different id.
func Sum(encoded []byte) ObjectId {
	full := blake2b.Sum256(encoded)
	var id ObjectId
	copy(id[:], full[:Size])
	return id
}
