package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vook/artifact-gen/internal/artifact"
	"github.com/vook/artifact-gen/internal/history"
	"github.com/vook/artifact-gen/internal/testutil"
	"github.com/vook/artifact-gen/pkg/gitlib"
)

func newSource(t *testing.T, tr *testutil.Repo, q history.Query) *history.Source {
	t.Helper()

	repo, err := gitlib.OpenRepository(tr.Path())
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &history.Source{Repo: repo, Query: q, Diff: gitlib.DiffOptions{DetectRenames: true}}
}

func drain(t *testing.T, src artifact.CommitSource) []artifact.Commit {
	t.Helper()

	var commits []artifact.Commit

	err := src.ForEachCommit(context.Background(), func(c artifact.Commit) error {
		commits = append(commits, c)

		return nil
	})
	require.NoError(t, err)

	return commits
}

func TestSource_OldestFirstWithModifications(t *testing.T) {
	t.Parallel()

	tr := testutil.NewRepo(t)
	tr.WriteFile("x.py", "print('hello')\nprint('world')\n")
	first := tr.Commit("[42] add x.py")
	tr.Move("x.py", "y.py")
	tr.WriteFile("gone.txt", "tmp")
	second := tr.Commit("[42] rename")
	tr.Remove("gone.txt")
	third := tr.Commit("cleanup")

	commits := drain(t, newSource(t, tr, history.Query{}))
	require.Len(t, commits, 3)

	assert.Equal(t, first, commits[0].Hash)
	assert.Equal(t, "[42] add x.py", commits[0].Message)
	assert.True(t, testutil.Epoch.Equal(commits[0].CommittedAt))
	assert.Equal(t, []artifact.Modification{{NewPath: "x.py", Change: artifact.Add}}, commits[0].Modifications)

	assert.Equal(t, second, commits[1].Hash)
	assert.ElementsMatch(t, []artifact.Modification{
		{NewPath: "gone.txt", Change: artifact.Add},
		{OldPath: "x.py", NewPath: "y.py", Change: artifact.Rename},
	}, commits[1].Modifications)

	assert.Equal(t, third, commits[2].Hash)
	require.Len(t, commits[2].Modifications, 1)
	assert.Equal(t, "gone.txt", commits[2].Modifications[0].Path())
	assert.Equal(t, artifact.Delete, commits[2].Modifications[0].Change)
}

func TestSource_FeedsPipeline(t *testing.T) {
	t.Parallel()

	tr := testutil.NewRepo(t)
	tr.WriteFile("a.go", "package a\n")
	tr.Commit("[7] add a")
	tr.WriteFile("a.go", "package a\n\nfunc A() {}\n")
	last := tr.Commit("[7] implement a")

	p := &artifact.Pipeline{RemoteURL: "git@gitlab.com:group/project.git", OnlyLast: true}

	report, err := p.Run(context.Background(), newSource(t, tr, history.Query{}))
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	assert.Equal(t, "7", row.Task)
	assert.Equal(t, artifact.Add, row.Change)
	assert.Equal(t, last, row.CommitHash)
	assert.Equal(t, "https://gitlab.com/group/project/-/blob/"+last+"/a.go", row.BlobURL)
}

func TestSource_QueryFilters(t *testing.T) {
	t.Parallel()

	tr := testutil.NewRepo(t)
	day := func(d int) time.Time { return time.Date(2024, 5, d, 15, 0, 0, 0, time.UTC) }

	tr.WriteFile("a.txt", "1")
	tr.CommitWith("amy day1", testutil.CommitOptions{Author: "Amy", When: day(1)})
	tr.WriteFile("a.txt", "2")
	tr.CommitWith("bob day2", testutil.CommitOptions{Author: "Bob", When: day(2)})
	tr.WriteFile("a.txt", "3")
	tr.CommitWith("amy day3", testutil.CommitOptions{Author: "Amy", When: day(3)})
	tr.WriteFile("a.txt", "4")
	tr.CommitWith("amy day4", testutil.CommitOptions{Author: "Amy", When: day(4)})

	since, until := history.DayRange(day(2), day(3))

	commits := drain(t, newSource(t, tr, history.Query{Author: "Amy", Since: since, Until: until}))
	require.Len(t, commits, 1)
	assert.Equal(t, "amy day3", commits[0].Message)
}

func TestSource_CanceledContext(t *testing.T) {
	t.Parallel()

	tr := testutil.NewRepo(t)
	tr.WriteFile("a.txt", "1")
	tr.Commit("one")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newSource(t, tr, history.Query{}).ForEachCommit(ctx, func(artifact.Commit) error {
		t.Fatal("callback must not run")

		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSource_UnknownBranch(t *testing.T) {
	t.Parallel()

	tr := testutil.NewRepo(t)
	tr.WriteFile("a.txt", "1")
	tr.Commit("one")

	err := newSource(t, tr, history.Query{Branch: "nope"}).ForEachCommit(context.Background(),
		func(artifact.Commit) error { return nil })
	require.ErrorIs(t, err, gitlib.ErrBranchNotFound)
}

func TestDayRange(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("X", 2*3600)
	since, until := history.DayRange(
		time.Date(2024, 5, 2, 13, 45, 0, 0, loc),
		time.Date(2024, 5, 3, 9, 0, 0, 0, loc),
	)

	require.NotNil(t, since)
	require.NotNil(t, until)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, loc), *since)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, loc), *until)

	since, until = history.DayRange(time.Time{}, time.Time{})
	assert.Nil(t, since)
	assert.Nil(t, until)
}

func TestChangeTypeMapping(t *testing.T) {
	t.Parallel()

	cases := map[gitlib.ChangeAction]artifact.ChangeType{
		gitlib.Insert:  artifact.Add,
		gitlib.Delete:  artifact.Delete,
		gitlib.Modify:  artifact.Modify,
		gitlib.Rename:  artifact.Rename,
		gitlib.Copy:    artifact.Copy,
		gitlib.Unknown: artifact.Unknown,
	}

	for action, want := range cases {
		assert.Equal(t, want, history.ChangeType(action))
	}
}

func TestSource_BrokenHistoryAbortsRun(t *testing.T) {
	t.Parallel()

	tr := testutil.NewRepo(t)
	tr.WriteFile("a.go", "a")
	tr.Commit("[1] a")
	tr.WriteFile("a.go", "b")
	middle := tr.Commit("[2] b")
	tr.WriteFile("a.go", "c")
	tr.Commit("[3] c")

	tr.RemoveObject(middle)

	pipeline := &artifact.Pipeline{RemoteURL: "git@gitlab.com:group/project.git"}

	rep, err := pipeline.Run(context.Background(), newSource(t, tr, history.Query{}))
	require.Error(t, err)
	assert.Nil(t, rep, "no partial report")
}
