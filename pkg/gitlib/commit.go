package gitlib

import (
	"errors"
	"fmt"
	"io"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrParentNotFound is returned when the requested parent commit is not found.
var ErrParentNotFound = errors.New("parent commit not found")

// Signature represents a git signature (author/committer).
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

func signatureFrom(sig *git2go.Signature) Signature {
	if sig == nil {
		return Signature{}
	}

	return Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}

// Commit wraps a libgit2 commit.
type Commit struct {
	commit *git2go.Commit
	repo   *Repository
}

// Hash returns the commit hash.
func (c *Commit) Hash() Hash {
	return HashFromOid(c.commit.Id())
}

// Author returns the commit author.
func (c *Commit) Author() Signature {
	return signatureFrom(c.commit.Author())
}

// Committer returns the commit committer. Its When keeps the committer's
// original time zone offset.
func (c *Commit) Committer() Signature {
	return signatureFrom(c.commit.Committer())
}

// Message returns the full commit message.
func (c *Commit) Message() string {
	return c.commit.Message()
}

// NumParents returns the number of parent commits.
func (c *Commit) NumParents() int {
	return int(c.commit.ParentCount())
}

// Parent returns the nth parent commit.
func (c *Commit) Parent(n int) (*Commit, error) {
	if n < 0 || n >= c.NumParents() {
		return nil, ErrParentNotFound
	}

	parent := c.commit.Parent(uint(n))
	if parent == nil {
		return nil, ErrParentNotFound
	}

	return &Commit{commit: parent, repo: c.repo}, nil
}

// Tree returns the tree associated with this commit.
func (c *Commit) Tree() (*Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get commit tree: %w", err)
	}

	return &Tree{tree: tree}, nil
}

// Free releases the commit resources.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
}

// Hash returns the tree hash.
func (t *Tree) Hash() Hash {
	return HashFromOid(t.tree.Id())
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}

// LogOptions configures the commit log iteration.
type LogOptions struct {
	Branch      string     // Walk from this local branch instead of HEAD.
	Since       *time.Time // Only commits committed at or after this time.
	Until       *time.Time // Only commits committed strictly before this time.
	Author      string     // Only commits whose author name matches exactly.
	Reverse     bool       // Oldest commits first.
}

func (o *LogOptions) matches(commit *git2go.Commit) bool {
	when := commit.Committer().When

	if o.Since != nil && when.Before(*o.Since) {
		return false
	}

	if o.Until != nil && !when.Before(*o.Until) {
		return false
	}

	if o.Author != "" && commit.Author().Name != o.Author {
		return false
	}

	return true
}

// Log returns a commit iterator starting from HEAD, or from opts.Branch when set.
func (r *Repository) Log(opts *LogOptions) (*CommitIter, error) {
	if opts == nil {
		opts = &LogOptions{}
	}

	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	err = r.pushStart(walk, opts.Branch)
	if err != nil {
		walk.Free()

		return nil, err
	}

	// Topological order ensures a parent is never yielded before its children
	// (or after them when reversed), even with skewed commit timestamps.
	sorting := git2go.SortTime | git2go.SortTopological
	if opts.Reverse {
		sorting |= git2go.SortReverse
	}

	walk.Sorting(sorting)

	return &CommitIter{walk: walk, repo: r, opts: *opts}, nil
}

func (r *Repository) pushStart(walk *git2go.RevWalk, branch string) error {
	if branch == "" {
		err := walk.PushHead()
		if err != nil {
			return fmt.Errorf("push HEAD to revwalk: %w", err)
		}

		return nil
	}

	tip, err := r.branchTip(branch)
	if err != nil {
		return err
	}

	err = walk.Push(tip)
	if err != nil {
		return fmt.Errorf("push %s to revwalk: %w", branch, err)
	}

	return nil
}

// CommitIter iterates over commits matching LogOptions.
type CommitIter struct {
	walk *git2go.RevWalk
	repo *Repository
	opts LogOptions
}

// Next returns the next matching commit, or io.EOF when the walk is exhausted.
func (ci *CommitIter) Next() (*Commit, error) {
	if ci.walk == nil {
		return nil, io.EOF
	}

	for {
		oid := new(git2go.Oid)

		err := ci.walk.Next(oid)
		if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
			ci.Close()

			return nil, io.EOF
		}

		if err != nil {
			ci.Close()

			return nil, fmt.Errorf("revwalk next: %w", err)
		}

		commit, err := ci.repo.repo.LookupCommit(oid)
		if err != nil {
			ci.Close()

			return nil, fmt.Errorf("lookup commit %s: %w", oid, err)
		}

		// Timestamps may be skewed against topology, so Since filters every
		// commit instead of ending the walk.

		if !ci.opts.matches(commit) {
			commit.Free()

			continue
		}

		return &Commit{commit: commit, repo: ci.repo}, nil
	}
}

// ForEach calls the callback for each commit. The commit is freed after cb returns.
func (ci *CommitIter) ForEach(cb func(*Commit) error) error {
	for {
		commit, err := ci.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		cbErr := cb(commit)
		commit.Free()

		if cbErr != nil {
			ci.Close()

			return cbErr
		}
	}
}

// Close releases resources. It is safe to call more than once.
func (ci *CommitIter) Close() {
	if ci.walk != nil {
		ci.walk.Free()
		ci.walk = nil
	}
}
