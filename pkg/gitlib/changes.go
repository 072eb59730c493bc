package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangeAction represents the type of change in a diff.
type ChangeAction int

const (
	// Unknown marks deltas that carry no content change (e.g. mode-only).
	Unknown ChangeAction = iota
	// Insert indicates a new file was added.
	Insert
	// Delete indicates a file was removed.
	Delete
	// Modify indicates a file was modified in place.
	Modify
	// Rename indicates a file was moved, possibly with edits.
	Rename
	// Copy indicates a file was copied from another path.
	Copy
)

// Change represents a single file change between two trees.
type Change struct {
	Action ChangeAction
	From   ChangeEntry
	To     ChangeEntry
}

// ChangeEntry represents one side of a change (old or new file).
type ChangeEntry struct {
	Name string
	Hash Hash
	Mode uint16
}

// Changes is a collection of Change objects.
type Changes []*Change

// DiffOptions controls similarity detection when diffing trees.
type DiffOptions struct {
	DetectRenames bool
	DetectCopies  bool
}

// CommitChanges returns the file changes a commit introduces relative to its
// first parent. Root commits diff against the empty tree. Merge commits yield
// no changes.
func (r *Repository) CommitChanges(commit *Commit, opts DiffOptions) (Changes, error) {
	if commit.NumParents() > 1 {
		return Changes{}, nil
	}

	newTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	defer newTree.Free()

	var oldTree *Tree

	if commit.NumParents() == 1 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return nil, parentErr
		}
		defer parent.Free()

		oldTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
		defer oldTree.Free()
	}

	return r.TreeDiff(oldTree, newTree, opts)
}

// TreeDiff computes the changes between two trees using libgit2.
// Skips diff when both tree OIDs are equal (e.g. metadata-only commits).
func (r *Repository) TreeDiff(oldTree, newTree *Tree, opts DiffOptions) (Changes, error) {
	if oldTree != nil && newTree != nil && oldTree.Hash() == newTree.Hash() {
		return Changes{}, nil
	}

	diffOpts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	var oldT, newT *git2go.Tree
	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, &diffOpts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	defer func() {
		// Free errors are not actionable once the deltas are copied out.
		_ = diff.Free()
	}()

	err = findSimilar(diff, opts)
	if err != nil {
		return nil, err
	}

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("get num deltas: %w", err)
	}

	changes := make(Changes, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return nil, fmt.Errorf("get delta %d: %w", i, deltaErr)
		}

		change, ok := classifyDelta(delta)
		if !ok {
			continue
		}

		changes = append(changes, change)
	}

	return changes, nil
}

func findSimilar(diff *git2go.Diff, opts DiffOptions) error {
	if !opts.DetectRenames && !opts.DetectCopies {
		return nil
	}

	findOpts, err := git2go.DefaultDiffFindOptions()
	if err != nil {
		return fmt.Errorf("get diff find options: %w", err)
	}

	findOpts.Flags = 0

	if opts.DetectRenames {
		findOpts.Flags |= git2go.DiffFindRenames
	}

	if opts.DetectCopies {
		findOpts.Flags |= git2go.DiffFindCopies
	}

	err = diff.FindSimilar(&findOpts)
	if err != nil {
		return fmt.Errorf("find similar: %w", err)
	}

	return nil
}

func entryFrom(file git2go.DiffFile) ChangeEntry {
	return ChangeEntry{Name: file.Path, Hash: HashFromOid(file.Oid), Mode: file.Mode}
}

// classifyDelta maps a libgit2 delta to a Change. The second result is false
// for deltas that are not part of a commit's content (ignored, untracked, ...).
func classifyDelta(delta git2go.DiffDelta) (*Change, bool) {
	from := entryFrom(delta.OldFile)
	to := entryFrom(delta.NewFile)

	switch delta.Status {
	case git2go.DeltaAdded:
		return &Change{Action: Insert, To: to}, true
	case git2go.DeltaDeleted:
		return &Change{Action: Delete, From: from}, true
	case git2go.DeltaRenamed:
		return &Change{Action: Rename, From: from, To: to}, true
	case git2go.DeltaCopied:
		return &Change{Action: Copy, From: from, To: to}, true
	case git2go.DeltaTypeChange:
		return &Change{Action: Modify, From: from, To: to}, true
	case git2go.DeltaModified:
		action := Modify
		if from.Hash == to.Hash {
			action = Unknown
		}

		return &Change{Action: action, From: from, To: to}, true
	case git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
		git2go.DeltaUnreadable, git2go.DeltaConflicted:
		return nil, false
	default:
		return &Change{Action: Unknown, From: from, To: to}, true
	}
}
