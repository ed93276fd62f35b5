// Package model defines the data-model types shared by every component:
// references, commits, and trees. These are plain value types; persistence
// and content-addressing live in the objectstore, refdb, and objhash
// packages respectively.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/geovcs/geovcs/internal/objhash"
)

// Well-known ref names, bit-exact with the external contract.
const (
	HEAD      = "HEAD"
	WorkHead  = "WORK_HEAD"
	StageHead = "STAGE_HEAD"

	// UserRefPrefix marks the "user refs" namespace.
	UserRefPrefix = "refs/"
)

// IsUserRef reports whether name falls in the refs/ namespace.
func IsUserRef(name string) bool {
	return strings.HasPrefix(name, UserRefPrefix)
}

// SymRefValuePrefix is the literal prefix a symbolic ref's stored value
// carries ahead of its target name.
const SymRefValuePrefix = "ref: "

// Reference is a named pointer: either direct (an ObjectId) or symbolic
// (the name of another reference).
type Reference struct {
	Name  string
	Value objhash.ObjectId // valid only when !Symbolic
	// Target is the referenced name, valid only when Symbolic.
	Target   string
	Symbolic bool
}

// Encode renders a Reference's value in RefDb's flat string form: the
// 40-hex ObjectId for a direct ref, or "ref: <target>" for a symbolic one.
func (r Reference) Encode() string {
	if r.Symbolic {
		return SymRefValuePrefix + r.Target
	}
	return r.Value.String()
}

// Decode parses a RefDb-stored string value into a Reference's value
// fields (name is left to the caller, since RefDb itself is keyed by name).
func Decode(raw string) (value objhash.ObjectId, target string, symbolic bool, err error) {
	if strings.HasPrefix(raw, SymRefValuePrefix) {
		return objhash.Null, strings.TrimPrefix(raw, SymRefValuePrefix), true, nil
	}
	id, err := objhash.Parse(raw)
	if err != nil {
		return objhash.Null, "", false, err
	}
	return id, "", false, nil
}

// Signature captures author/committer identity and timestamp metadata.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is a node in the version graph: an id, parent ids (first parent
// is the mainline), a tree root, identity metadata, and a message.
type Commit struct {
	ID        objhash.ObjectId
	Parents   []objhash.ObjectId
	TreeID    objhash.ObjectId
	Author    Signature
	Committer Signature
	Message   string
}

// MainlineParent returns the first parent, or Null if the commit is a root.
func (c Commit) MainlineParent() objhash.ObjectId {
	if len(c.Parents) == 0 {
		return objhash.Null
	}
	return c.Parents[0]
}

// encodedCommit is the canonical on-disk encoding of a Commit, independent
// of its ID field (which is derived from this encoding, not embedded in
// it). json.Marshal over a struct with fixed field order is deterministic,
// which is what makes the resulting hash reproducible.
type encodedCommit struct {
	Parents        []objhash.ObjectId `json:"parents"`
	TreeID         objhash.ObjectId   `json:"tree"`
	AuthorName     string             `json:"author_name"`
	AuthorEmail    string             `json:"author_email"`
	AuthorWhen     int64              `json:"author_when"`
	CommitterName  string             `json:"committer_name"`
	CommitterEmail string             `json:"committer_email"`
	CommitterWhen  int64              `json:"committer_when"`
	Message        string             `json:"message"`
}

// Encode returns the canonical byte encoding of c. c.ID plays no part in
// the encoding: it is derived FROM this encoding via objhash.Sum, never
// embedded in it, since rewriting any other field must change the id.
func (c Commit) Encode() []byte {
	enc := encodedCommit{
		Parents:        c.Parents,
		TreeID:         c.TreeID,
		AuthorName:     c.Author.Name,
		AuthorEmail:    c.Author.Email,
		AuthorWhen:     c.Author.When.Unix(),
		CommitterName:  c.Committer.Name,
		CommitterEmail: c.Committer.Email,
		CommitterWhen:  c.Committer.When.Unix(),
		Message:        c.Message,
	}
	data, err := json.Marshal(enc)
	if err != nil {
		// encodedCommit contains no types json can fail to marshal.
		panic(fmt.Sprintf("model: encode commit: %v", err))
	}
	return data
}

// HashID derives c's ObjectId from its canonical encoding.
func (c Commit) HashID() objhash.ObjectId {
	return objhash.Sum(c.Encode())
}

// DecodeCommit parses a stored commit encoding back into a Commit,
// stamping the given id.
func DecodeCommit(id objhash.ObjectId, data []byte) (Commit, error) {
	var enc encodedCommit
	if err := json.Unmarshal(data, &enc); err != nil {
		return Commit{}, fmt.Errorf("model: decode commit %s: %w", id, err)
	}
	return Commit{
		ID:      id,
		Parents: enc.Parents,
		TreeID:  enc.TreeID,
		Author: Signature{
			Name:  enc.AuthorName,
			Email: enc.AuthorEmail,
			When:  time.Unix(enc.AuthorWhen, 0).UTC(),
		},
		Committer: Signature{
			Name:  enc.CommitterName,
			Email: enc.CommitterEmail,
			When:  time.Unix(enc.CommitterWhen, 0).UTC(),
		},
		Message: enc.Message,
	}, nil
}

// EntryType enumerates the kinds of entries a Tree may contain.
type EntryType string

const (
	EntryTree        EntryType = "TREE"
	EntryFeature     EntryType = "FEATURE"
	EntryFeatureType EntryType = "FEATURETYPE"
)

// TreeEntry is one named member of a Tree.
type TreeEntry struct {
	Name       string
	Type       EntryType
	ObjectID   objhash.ObjectId
	MetadataID objhash.ObjectId
}

// Tree is a content-addressed, ordered set of named entries.
type Tree struct {
	ID      objhash.ObjectId
	Entries []TreeEntry
}

type encodedTree struct {
	Entries []TreeEntry `json:"entries"`
}

// Encode returns the canonical byte encoding of t, independent of t.ID.
func (t Tree) Encode() []byte {
	entries := t.Entries
	if len(entries) == 0 {
		entries = nil
	}
	data, err := json.Marshal(encodedTree{Entries: entries})
	if err != nil {
		panic(fmt.Sprintf("model: encode tree: %v", err))
	}
	return data
}

// HashID derives t's ObjectId from its canonical encoding. An empty tree
// always hashes to EmptyTreeID, since both are the same zero-entries
// encoding.
func (t Tree) HashID() objhash.ObjectId {
	return objhash.Sum(t.Encode())
}

// DecodeTree parses a stored tree encoding back into a Tree.
func DecodeTree(id objhash.ObjectId, data []byte) (Tree, error) {
	var enc encodedTree
	if err := json.Unmarshal(data, &enc); err != nil {
		return Tree{}, fmt.Errorf("model: decode tree %s: %w", id, err)
	}
	return Tree{ID: id, Entries: enc.Entries}, nil
}

// EmptyTreeID is the distinguished fixed ObjectId of the empty tree.
var EmptyTreeID = Tree{}.HashID()

// EmptyTree returns the canonical empty tree value.
func EmptyTree() Tree {
	return Tree{ID: EmptyTreeID}
}

// ByName returns the entry named n, or false if absent.
func (t Tree) ByName(n string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == n {
			return e, true
		}
	}
	return TreeEntry{}, false
}
