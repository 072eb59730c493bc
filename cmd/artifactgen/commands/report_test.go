package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vook/artifact-gen/internal/config"
	"github.com/vook/artifact-gen/internal/observability"
	"github.com/vook/artifact-gen/internal/prompt"
	"github.com/vook/artifact-gen/internal/testutil"
	"github.com/vook/artifact-gen/pkg/gitlib"
)

const testRemoteURL = "git@gitlab.com:group/project.git"

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)

// fakePrompter replays answers. An empty select answer accepts the default.
type fakePrompter struct {
	inputs   []string
	selects  []string
	confirms []bool

	titles []string
}

func (f *fakePrompter) Input(_ context.Context, title, _ string) (string, error) {
	f.titles = append(f.titles, title)

	if len(f.inputs) == 0 {
		return "", prompt.ErrInterrupted
	}

	answer := f.inputs[0]
	f.inputs = f.inputs[1:]

	return answer, nil
}

func (f *fakePrompter) Select(_ context.Context, title string, _ []string, def string) (string, error) {
	f.titles = append(f.titles, title)

	if len(f.selects) == 0 {
		return "", prompt.ErrInterrupted
	}

	answer := f.selects[0]
	f.selects = f.selects[1:]

	if answer == "" {
		return def, nil
	}

	return answer, nil
}

func (f *fakePrompter) Confirm(_ context.Context, title string, _ bool) (bool, error) {
	f.titles = append(f.titles, title)

	if len(f.confirms) == 0 {
		return false, prompt.ErrInterrupted
	}

	answer := f.confirms[0]
	f.confirms = f.confirms[1:]

	return answer, nil
}

func (f *fakePrompter) Notify(string) {}

type runResult struct {
	stdout string
	stderr string
	err    error
}

// executeReport runs the report command against a config file in a temp dir.
func executeReport(t *testing.T, p prompt.Prompter, args ...string) runResult {
	t.Helper()

	return executeReportContext(t, context.Background(), p, args...)
}

func executeReportContext(t *testing.T, ctx context.Context, p prompt.Prompter, args ...string) runResult {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "artifactgen.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("prompt:\n  default_directory: "+dir+"\n"), 0o600))

	cmd := newReportCommandWithDeps(
		gitlib.OpenRepository,
		config.LoadConfig,
		observability.Init,
		func(io.Writer, bool) prompt.Prompter { return p },
		func() time.Time { return testNow },
	)

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := cmd.ExecuteContext(ctx)

	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// sampleRepo has three commits: two under task 101 and a delete under 102.
func sampleRepo(t *testing.T) *testutil.Repo {
	t.Helper()

	repo := testutil.NewRepo(t)
	repo.AddRemote("origin", testRemoteURL)

	repo.WriteFile("src/parser.go", "package src\n")
	repo.WriteFile("README.md", "# project\n")
	repo.Commit("[101] add parser")

	repo.WriteFile("src/parser.go", "package src\n\nfunc Parse() {}\n")
	repo.Commit("[101] implement parser")

	repo.Remove("README.md")
	repo.Commit("[102] drop readme")

	return repo
}

type jsonRow struct {
	Task       string `json:"task"`
	Type       string `json:"type"`
	File       string `json:"file"`
	BlobURL    string `json:"blob_url"`
	CommitHash string `json:"commit_hash"`
}

func decodeRows(t *testing.T, out string) []jsonRow {
	t.Helper()

	var rows []jsonRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))

	return rows
}

func TestReport_NonInteractiveJSON(t *testing.T) {
	t.Parallel()

	repo := sampleRepo(t)

	res := executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path(), "--format", "json")
	require.NoError(t, res.err)

	rows := decodeRows(t, res.stdout)
	require.Len(t, rows, 4)

	// Diff entries come in path order, so README.md precedes src/parser.go.
	assert.Equal(t, jsonRow{
		Task: "101", Type: "ADD", File: "src/parser.go",
		BlobURL:    "https://gitlab.com/group/project/-/blob/" + rows[1].CommitHash + "/src/parser.go",
		CommitHash: rows[1].CommitHash,
	}, rows[1])
	assert.Equal(t, "README.md", rows[0].File)
	assert.Equal(t, rows[0].CommitHash, rows[1].CommitHash)
	assert.Equal(t, "MODIFY", rows[2].Type)
	assert.Equal(t, "src/parser.go", rows[2].File)
	assert.NotEqual(t, rows[1].CommitHash, rows[2].CommitHash)
	assert.Equal(t, "DELETE", rows[3].Type)
	assert.Equal(t, "102", rows[3].Task)
	assert.Equal(t, "README.md", rows[3].File)

	assert.Contains(t, res.stderr, "3 commits, 4 file changes, 4 rows")
	assert.NotContains(t, res.stderr, msgWelcome)
}

func TestReport_OnlyLastFlag(t *testing.T) {
	t.Parallel()

	repo := sampleRepo(t)

	res := executeReport(t, &fakePrompter{},
		"--no-input", "--path", repo.Path(), "--format", "json", "--only-last")
	require.NoError(t, res.err)

	rows := decodeRows(t, res.stdout)
	require.Len(t, rows, 3)

	assert.Equal(t, "README.md", rows[0].File)
	assert.Equal(t, "101", rows[0].Task)
	assert.Equal(t, "src/parser.go", rows[1].File)
	assert.Equal(t, "ADD", rows[1].Type, "added file stays ADD after later edits")
	assert.Equal(t, "README.md", rows[2].File)
	assert.Equal(t, "DELETE", rows[2].Type)
	assert.Equal(t, "102", rows[2].Task)
}

func TestReport_AuthorAndDateFilters(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepo(t)
	repo.AddRemote("origin", "https://gitlab.com/group/project.git")

	repo.WriteFile("a.go", "a\n")
	repo.CommitWith("[1] a", testutil.CommitOptions{
		Author: "Alice", When: time.Date(2024, 5, 2, 12, 0, 0, 0, time.Local),
	})

	repo.WriteFile("b.go", "b\n")
	repo.CommitWith("[2] b", testutil.CommitOptions{
		Author: "Bob", When: time.Date(2024, 5, 3, 12, 0, 0, 0, time.Local),
	})

	repo.WriteFile("c.go", "c\n")
	repo.CommitWith("[3] c", testutil.CommitOptions{
		Author: "Alice", When: time.Date(2024, 5, 6, 12, 0, 0, 0, time.Local),
	})

	res := executeReport(t, &fakePrompter{},
		"--no-input", "--path", repo.Path(), "--format", "json",
		"--author", "Alice", "--since", "01-05-2024", "--until", "03-05-2024")
	require.NoError(t, res.err)

	rows := decodeRows(t, res.stdout)
	require.Len(t, rows, 1)
	assert.Equal(t, "a.go", rows[0].File)
	assert.Equal(t, "1", rows[0].Task)
	assert.True(t, strings.HasPrefix(rows[0].BlobURL, "https://gitlab.com/group/project/-/blob/"))
}

func TestReport_CSVFlag(t *testing.T) {
	t.Parallel()

	repo := sampleRepo(t)
	csvPath := filepath.Join(t.TempDir(), "out.csv")

	res := executeReport(t, &fakePrompter{},
		"--no-input", "--path", repo.Path(), "--format", "csv", "--csv", csvPath)
	require.NoError(t, res.err)

	assert.True(t, strings.HasPrefix(res.stdout, "Task,Type,File,Date,Blob URL,Commit hash\n"))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, res.stdout, string(data))
	assert.Contains(t, res.stderr, "Saved "+csvPath)
}

func TestReport_TextTable(t *testing.T) {
	t.Parallel()

	repo := sampleRepo(t)

	res := executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path(), "--no-color")
	require.NoError(t, res.err)

	assert.Contains(t, strings.ToUpper(res.stdout), "BLOB URL")
	assert.Contains(t, res.stdout, "src/parser.go")
	assert.NotContains(t, res.stdout, "\x1b[")
}

func TestReport_Interactive(t *testing.T) {
	t.Parallel()

	repo := sampleRepo(t)
	csvPath := filepath.Join(t.TempDir(), "answers.csv")

	p := &fakePrompter{
		inputs:   []string{repo.Path(), "30-04-2024", "", csvPath},
		selects:  []string{"", testutil.DefaultAuthor},
		confirms: []bool{true, true},
	}

	res := executeReport(t, p, "--format", "json")
	require.NoError(t, res.err)

	assert.Equal(t, []string{
		titleDirectory, titleBranch, titleAuthor, titleSince, titleUntil,
		titleOnlyLast, titleSaveCSV, titleCSVPath,
	}, p.titles, "single remote is chosen without asking")

	assert.Len(t, decodeRows(t, res.stdout), 3)
	assert.FileExists(t, csvPath)
	assert.Contains(t, res.stderr, msgWelcome)
	assert.Contains(t, res.stderr, msgDone)
}

func TestReport_InteractiveSkipsFlaggedQuestions(t *testing.T) {
	t.Parallel()

	repo := sampleRepo(t)

	p := &fakePrompter{
		inputs:   []string{"01-05-2024", ""},
		selects:  []string{""},
		confirms: []bool{false},
	}

	res := executeReport(t, p,
		"--path", repo.Path(), "--author", testutil.DefaultAuthor, "--only-last", "--format", "json")
	require.NoError(t, res.err)

	assert.Equal(t, []string{titleBranch, titleSince, titleUntil, titleSaveCSV}, p.titles)
}

func TestReport_InterruptedPrompt(t *testing.T) {
	t.Parallel()

	res := executeReport(t, &fakePrompter{})
	require.Error(t, res.err)
	assert.True(t, IsInterrupt(res.err))
	assert.Empty(t, res.stdout)
}

func TestReport_CanceledContextStopsQuestions(t *testing.T) {
	t.Parallel()

	repo := sampleRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakePrompter{inputs: []string{repo.Path(), "01-05-2024", ""}, selects: []string{"", ""}}

	res := executeReportContext(t, ctx, p, "--format", "json")
	require.Error(t, res.err)
	assert.True(t, IsInterrupt(res.err))
	assert.Empty(t, p.titles)
	assert.Empty(t, res.stdout)
}

func TestReport_RemoteSelection(t *testing.T) {
	t.Parallel()

	t.Run("unknown remote", func(t *testing.T) {
		t.Parallel()

		repo := sampleRepo(t)

		res := executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path(), "--remote", "nope")
		require.ErrorIs(t, res.err, ErrUnknownRemote)
	})

	t.Run("ambiguous without origin", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		repo.AddRemote("upstream", testRemoteURL)
		repo.AddRemote("fork", "https://github.com/me/project.git")
		repo.WriteFile("a.go", "a\n")
		repo.Commit("[1] a")

		res := executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path())
		require.ErrorIs(t, res.err, ErrAmbiguousRemote)
	})

	t.Run("origin preferred", func(t *testing.T) {
		t.Parallel()

		repo := sampleRepo(t)
		repo.AddRemote("fork", "https://github.com/me/project.git")

		res := executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path(), "--format", "json")
		require.NoError(t, res.err)
		assert.True(t, strings.HasPrefix(decodeRows(t, res.stdout)[0].BlobURL, "https://gitlab.com/group/project/"))
	})

	t.Run("explicit remote", func(t *testing.T) {
		t.Parallel()

		repo := sampleRepo(t)
		repo.AddRemote("fork", "https://github.com/me/project.git")

		res := executeReport(t, &fakePrompter{},
			"--no-input", "--path", repo.Path(), "--format", "json", "--remote", "fork")
		require.NoError(t, res.err)
		assert.True(t, strings.HasPrefix(decodeRows(t, res.stdout)[0].BlobURL, "https://github.com/me/project/-/blob/"))
	})

	t.Run("no remotes", func(t *testing.T) {
		t.Parallel()

		repo := testutil.NewRepo(t)
		repo.WriteFile("a.go", "a\n")
		repo.Commit("[1] a")

		res := executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path())
		require.ErrorIs(t, res.err, prompt.ErrNoRemotes)
	})
}

func TestReport_InvalidInputs(t *testing.T) {
	t.Parallel()

	repo := sampleRepo(t)

	res := executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path(), "--since", "2024-05-01")
	require.ErrorIs(t, res.err, prompt.ErrInvalidDate)

	res = executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path(), "--until", "01-01-2030")
	require.ErrorIs(t, res.err, prompt.ErrFutureDate)

	res = executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path(), "--format", "xml")
	require.ErrorIs(t, res.err, config.ErrInvalidFormat)

	res = executeReport(t, &fakePrompter{}, "--no-input", "--path", t.TempDir())
	require.ErrorIs(t, res.err, gitlib.ErrNotRepository)

	res = executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path(), "--branch", "missing")
	require.ErrorIs(t, res.err, gitlib.ErrBranchNotFound)
}

func TestReport_MalformedRemote(t *testing.T) {
	t.Parallel()

	repo := testutil.NewRepo(t)
	repo.AddRemote("origin", "/srv/git/project")
	repo.WriteFile("a.go", "a\n")
	repo.Commit("[1] a")

	res := executeReport(t, &fakePrompter{}, "--no-input", "--path", repo.Path())
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "malformed remote URL")
}

func TestIsInterrupt(t *testing.T) {
	t.Parallel()

	assert.True(t, IsInterrupt(prompt.ErrInterrupted))
	assert.True(t, IsInterrupt(context.Canceled))
	assert.False(t, IsInterrupt(ErrAmbiguousRemote))
	assert.False(t, IsInterrupt(nil))
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCommand()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "artifactgen "))
}
