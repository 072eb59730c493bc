package prompt_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vook/artifact-gen/internal/prompt"
)

func accessiblePrompter(in io.Reader) *prompt.HuhPrompter {
	return &prompt.HuhPrompter{Out: &bytes.Buffer{}, In: in, Accessible: true}
}

func TestHuhPrompter_AccessibleAnswers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	value, err := accessiblePrompter(strings.NewReader("/work/app\n")).Input(ctx, "Project directory", "/home")
	require.NoError(t, err)
	assert.Equal(t, "/work/app", value)

	choice, err := accessiblePrompter(strings.NewReader("2\n")).Select(ctx, "Branch", []string{"dev", "main"}, "")
	require.NoError(t, err)
	assert.Equal(t, "main", choice)

	yes, err := accessiblePrompter(strings.NewReader("y\n")).Confirm(ctx, "Save?", false)
	require.NoError(t, err)
	assert.True(t, yes)
}

func TestHuhPrompter_ClosedInputInterrupts(t *testing.T) {
	t.Parallel()

	_, err := accessiblePrompter(strings.NewReader("")).Input(context.Background(), "Project directory", "/home")
	require.ErrorIs(t, err, prompt.ErrInterrupted)

	_, err = accessiblePrompter(strings.NewReader("")).Confirm(context.Background(), "Save?", true)
	require.ErrorIs(t, err, prompt.ErrInterrupted)
}

func TestHuhPrompter_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := accessiblePrompter(strings.NewReader("ignored\n")).Input(ctx, "Project directory", "")
	require.ErrorIs(t, err, prompt.ErrInterrupted)
}

func TestHuhPrompter_CancelWhileWaiting(t *testing.T) {
	t.Parallel()

	reader, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := accessiblePrompter(reader).Input(ctx, "Project directory", "")
	require.ErrorIs(t, err, prompt.ErrInterrupted)
}
