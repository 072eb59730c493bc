// Package history feeds commits read through libgit2 into the artifact pipeline.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vook/artifact-gen/internal/artifact"
	"github.com/vook/artifact-gen/pkg/gitlib"
)

// Query selects the commits a report covers.
type Query struct {
	// Branch is the local branch to walk; empty walks HEAD.
	Branch string
	// Author keeps only commits whose author name matches exactly; empty keeps all.
	Author string
	// Since is the inclusive lower bound on committer time.
	Since *time.Time
	// Until is the exclusive upper bound on committer time.
	Until *time.Time
}

// DayRange turns calendar dates into a Since/Until pair: since starts at
// 00:00 of its day and until covers its whole day. A zero until leaves the
// window open-ended.
func DayRange(since, until time.Time) (*time.Time, *time.Time) {
	var from, to *time.Time

	if !since.IsZero() {
		start := startOfDay(since)
		from = &start
	}

	if !until.IsZero() {
		end := startOfDay(until).AddDate(0, 0, 1)
		to = &end
	}

	return from, to
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Source adapts a repository to artifact.CommitSource.
type Source struct {
	Repo   *gitlib.Repository
	Query  Query
	Diff   gitlib.DiffOptions
	Logger *slog.Logger
}

// ForEachCommit walks the matching commits oldest first and hands each, with
// its classified modifications, to fn.
func (s *Source) ForEachCommit(ctx context.Context, fn func(artifact.Commit) error) error {
	iter, err := s.Repo.Log(&gitlib.LogOptions{
		Branch:  s.Query.Branch,
		Since:   s.Query.Since,
		Until:   s.Query.Until,
		Author:  s.Query.Author,
		Reverse: true,
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	return iter.ForEach(func(commit *gitlib.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		converted, convErr := s.convert(commit)
		if convErr != nil {
			return convErr
		}

		return fn(converted)
	})
}

func (s *Source) convert(commit *gitlib.Commit) (artifact.Commit, error) {
	changes, err := s.Repo.CommitChanges(commit, s.Diff)
	if err != nil {
		return artifact.Commit{}, fmt.Errorf("changes of %s: %w", commit.Hash().Short(), err)
	}

	if s.Logger != nil && commit.NumParents() > 1 {
		s.Logger.Debug("skipping merge commit changes", slog.String("hash", commit.Hash().Short()))
	}

	mods := make([]artifact.Modification, 0, len(changes))
	for _, change := range changes {
		mods = append(mods, Modification(change))
	}

	return artifact.Commit{
		Hash:          commit.Hash().String(),
		Message:       commit.Message(),
		CommittedAt:   commit.Committer().When,
		Modifications: mods,
	}, nil
}

// Modification converts a classified tree change.
func Modification(change *gitlib.Change) artifact.Modification {
	return artifact.Modification{
		OldPath: change.From.Name,
		NewPath: change.To.Name,
		Change:  ChangeType(change.Action),
	}
}

// ChangeType maps a libgit2 change action onto the report's change types.
func ChangeType(action gitlib.ChangeAction) artifact.ChangeType {
	switch action {
	case gitlib.Insert:
		return artifact.Add
	case gitlib.Delete:
		return artifact.Delete
	case gitlib.Modify:
		return artifact.Modify
	case gitlib.Rename:
		return artifact.Rename
	case gitlib.Copy:
		return artifact.Copy
	case gitlib.Unknown:
		return artifact.Unknown
	default:
		return artifact.Unknown
	}
}
