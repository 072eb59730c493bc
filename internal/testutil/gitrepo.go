// Package testutil builds throwaway libgit2 repositories for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

const (
	// DefaultAuthor is the author name used when CommitOptions.Author is empty.
	DefaultAuthor = "Test User"

	defaultEmail = "test@example.com"
)

// Epoch is the committer time of the first commit made without an explicit time.
// Each following commit is one hour later.
var Epoch = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// CommitOptions overrides the signature of a single commit.
type CommitOptions struct {
	Author string
	When   time.Time
}

// Repo is a temporary non-bare repository with a working directory.
type Repo struct {
	t      testing.TB
	path   string
	native *git2go.Repository
	clock  time.Time
}

// NewRepo initializes an empty repository in a temp dir. It is freed on cleanup.
func NewRepo(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()

	native, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(native.Free)

	return &Repo{t: t, path: dir, native: native, clock: Epoch}
}

// Path returns the working directory.
func (r *Repo) Path() string {
	return r.path
}

// RemoveObject deletes the loose object with the given hex id, leaving the
// repository corrupt.
func (r *Repo) RemoveObject(hash string) {
	r.t.Helper()

	require.NoError(r.t, os.Remove(filepath.Join(r.path, ".git", "objects", hash[:2], hash[2:])))
}

// CorruptHead overwrites HEAD with content libgit2 cannot parse.
func (r *Repo) CorruptHead() {
	r.t.Helper()

	require.NoError(r.t, os.WriteFile(filepath.Join(r.path, ".git", "HEAD"), []byte("garbage\n"), 0o644))
}

// WriteFile creates or overwrites a file in the working directory.
func (r *Repo) WriteFile(name, content string) {
	r.t.Helper()

	path := filepath.Join(r.path, name)

	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

// Remove deletes a file from the working directory.
func (r *Repo) Remove(name string) {
	r.t.Helper()

	require.NoError(r.t, os.Remove(filepath.Join(r.path, name)))
}

// Move renames a file in the working directory.
func (r *Repo) Move(from, to string) {
	r.t.Helper()

	target := filepath.Join(r.path, to)

	require.NoError(r.t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(r.t, os.Rename(filepath.Join(r.path, from), target))
}

// Chmod changes the file mode of a working directory file.
func (r *Repo) Chmod(name string, mode os.FileMode) {
	r.t.Helper()

	require.NoError(r.t, os.Chmod(filepath.Join(r.path, name), mode))
}

// Commit stages every change in the working directory and commits it as
// DefaultAuthor at the next clock tick. It returns the commit hash.
func (r *Repo) Commit(message string) string {
	r.t.Helper()

	return r.CommitWith(message, CommitOptions{})
}

// CommitWith commits like Commit with an overridden author or time.
func (r *Repo) CommitWith(message string, opts CommitOptions) string {
	r.t.Helper()

	var parents []*git2go.Commit

	head, err := r.native.Head()
	if err == nil {
		parent, lookupErr := r.native.LookupCommit(head.Target())
		require.NoError(r.t, lookupErr)

		head.Free()

		parents = append(parents, parent)
	}

	return r.createCommit(message, opts, parents)
}

// Merge records a merge commit on HEAD whose second parent is the tip of branch.
// The merged tree is the current working directory.
func (r *Repo) Merge(message, branch string) string {
	r.t.Helper()

	head, err := r.native.Head()
	require.NoError(r.t, err)

	defer head.Free()

	first, err := r.native.LookupCommit(head.Target())
	require.NoError(r.t, err)

	ref, err := r.native.References.Lookup("refs/heads/" + branch)
	require.NoError(r.t, err)

	defer ref.Free()

	second, err := r.native.LookupCommit(ref.Target())
	require.NoError(r.t, err)

	return r.createCommit(message, CommitOptions{}, []*git2go.Commit{first, second})
}

func (r *Repo) createCommit(message string, opts CommitOptions, parents []*git2go.Commit) string {
	r.t.Helper()

	defer func() {
		for _, parent := range parents {
			parent.Free()
		}
	}()

	tree := r.stageAll()
	defer tree.Free()

	sig := r.signature(opts)

	oid, err := r.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(r.t, err)

	return oid.String()
}

func (r *Repo) stageAll() *git2go.Tree {
	r.t.Helper()

	index, err := r.native.Index()
	require.NoError(r.t, err)

	defer index.Free()

	require.NoError(r.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(r.t, index.UpdateAll([]string{"*"}, nil))
	require.NoError(r.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(r.t, err)

	tree, err := r.native.LookupTree(treeID)
	require.NoError(r.t, err)

	return tree
}

func (r *Repo) signature(opts CommitOptions) *git2go.Signature {
	name := opts.Author
	if name == "" {
		name = DefaultAuthor
	}

	when := opts.When
	if when.IsZero() {
		when = r.clock
		r.clock = r.clock.Add(time.Hour)
	}

	return &git2go.Signature{Name: name, Email: defaultEmail, When: when}
}

// AddRemote registers a remote with the given fetch URL.
func (r *Repo) AddRemote(name, url string) {
	r.t.Helper()

	remote, err := r.native.Remotes.Create(name, url)
	require.NoError(r.t, err)

	remote.Free()
}

// CreateBranch creates a local branch at HEAD without switching to it.
func (r *Repo) CreateBranch(name string) {
	r.t.Helper()

	head, err := r.native.Head()
	require.NoError(r.t, err)

	defer head.Free()

	commit, err := r.native.LookupCommit(head.Target())
	require.NoError(r.t, err)

	defer commit.Free()

	branch, err := r.native.CreateBranch(name, commit, false)
	require.NoError(r.t, err)

	branch.Free()
}

// Checkout points HEAD at a local branch and updates the working directory.
func (r *Repo) Checkout(name string) {
	r.t.Helper()

	require.NoError(r.t, r.native.SetHead("refs/heads/"+name))
	require.NoError(r.t, r.native.CheckoutHead(&git2go.CheckoutOptions{Strategy: git2go.CheckoutForce}))
}

// SetUserName writes user.name into the repository config.
func (r *Repo) SetUserName(name string) {
	r.t.Helper()

	cfg, err := r.native.Config()
	require.NoError(r.t, err)

	defer cfg.Free()

	require.NoError(r.t, cfg.SetString("user.name", name))
}
