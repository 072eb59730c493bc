package gitlib

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	git2go "github.com/libgit2/git2go/v34"
)

// Sentinel repository errors.
var (
	// ErrNotRepository is returned when the path does not hold a git repository.
	ErrNotRepository = errors.New("not a git repository")
	// ErrRemoteNotFound is returned when a named remote does not exist.
	ErrRemoteNotFound = errors.New("remote not found")
	// ErrBranchNotFound is returned when a named local branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")
)

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}

		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the HEAD reference target.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// Branches returns the short names of all local branches, sorted.
func (r *Repository) Branches() ([]string, error) {
	iter, err := r.repo.NewBranchIterator(git2go.BranchLocal)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer iter.Free()

	var names []string

	err = iter.ForEach(func(branch *git2go.Branch, _ git2go.BranchType) error {
		name, nameErr := branch.Name()
		if nameErr != nil {
			return fmt.Errorf("branch name: %w", nameErr)
		}

		names = append(names, name)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	sort.Strings(names)

	return names, nil
}

// CurrentBranch returns the short name of the branch HEAD points to.
// It returns an empty string for a detached or unborn HEAD.
func (r *Repository) CurrentBranch() string {
	ref, err := r.repo.Head()
	if err != nil {
		return ""
	}
	defer ref.Free()

	if !ref.IsBranch() {
		return ""
	}

	return ref.Shorthand()
}

// branchTip resolves a local branch name to the commit it points to.
func (r *Repository) branchTip(name string) (*git2go.Oid, error) {
	branch, err := r.repo.LookupBranch(name, git2go.BranchLocal)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	defer branch.Free()

	resolved, err := branch.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", name, err)
	}
	defer resolved.Free()

	return resolved.Target(), nil
}

// Remotes returns the configured remote names, sorted.
func (r *Repository) Remotes() ([]string, error) {
	names, err := r.repo.Remotes.List()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}

	sort.Strings(names)

	return names, nil
}

// RemoteURL returns the fetch URL configured for the named remote.
func (r *Repository) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remotes.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrRemoteNotFound, name)
	}
	defer remote.Free()

	return remote.Url(), nil
}

// ConfigUserName returns user.name as seen from this repository, or an empty
// string when it is not set.
func (r *Repository) ConfigUserName() string {
	cfg, err := r.repo.Config()
	if err != nil {
		return ""
	}
	defer cfg.Free()

	name, err := cfg.LookupString("user.name")
	if err != nil {
		return ""
	}

	return name
}

// Authors returns the distinct author names of every commit reachable from
// HEAD, sorted by name. An unborn HEAD yields no authors.
func (r *Repository) Authors() ([]string, error) {
	unborn, err := r.repo.IsHeadUnborn()
	if err != nil {
		return nil, fmt.Errorf("get HEAD: %w", err)
	}

	if unborn {
		return nil, nil
	}

	iter, err := r.Log(&LogOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	seen := make(map[string]struct{})

	err = iter.ForEach(func(commit *Commit) error {
		seen[commit.Author().Name] = struct{}{}

		return nil
	})
	if err != nil {
		return nil, err
	}

	authors := make([]string, 0, len(seen))
	for name := range seen {
		authors = append(authors, name)
	}

	slices.Sort(authors)

	return authors, nil
}
