// Package artifact builds task traceability reports from a stream of commits.
//
// Each file modification found in a commit becomes a Record carrying the task
// id parsed from the commit message and a link to the file blob on the hosted
// remote. A Deduplicator optionally folds records per (path, task) pair.
package artifact

import "time"

// ChangeType classifies a single file modification.
type ChangeType int

const (
	// Unknown is used for change codes that cannot be classified.
	Unknown ChangeType = iota
	// Add indicates a new file was introduced.
	Add
	// Modify indicates the file content changed in place.
	Modify
	// Delete indicates the file was removed.
	Delete
	// Rename indicates the file was moved to a new path.
	Rename
	// Copy indicates the file was copied from another path.
	Copy
)

var changeTypeNames = map[ChangeType]string{
	Unknown: "UNKNOWN",
	Add:     "ADD",
	Modify:  "MODIFY",
	Delete:  "DELETE",
	Rename:  "RENAME",
	Copy:    "COPY",
}

// String returns the plain upper-case name of the change type.
func (c ChangeType) String() string {
	name, ok := changeTypeNames[c]
	if !ok {
		return changeTypeNames[Unknown]
	}

	return name
}

// ParseChangeType maps a change name back to its ChangeType.
// Unrecognized names yield Unknown.
func ParseChangeType(name string) ChangeType {
	for ct, n := range changeTypeNames {
		if n == name {
			return ct
		}
	}

	return Unknown
}

// MarshalText renders the change type by name in JSON and YAML output.
func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a change type name.
func (c *ChangeType) UnmarshalText(text []byte) error {
	*c = ParseChangeType(string(text))

	return nil
}

// Modification is one file's change within a commit.
type Modification struct {
	OldPath string
	NewPath string
	Change  ChangeType
}

// Path returns the post-change path, or the last known path for deletions.
func (m Modification) Path() string {
	if m.Change == Delete || m.NewPath == "" {
		return m.OldPath
	}

	return m.NewPath
}

// Commit is the slice of commit data the report needs.
type Commit struct {
	Hash          string
	Message       string
	CommittedAt   time.Time
	Modifications []Modification
}
