// Package prompt collects report parameters interactively. Terminal widgets
// sit behind the Prompter interface; Session adds the validate-or-retry loops.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted is returned when the user aborts a prompt (Ctrl+C, Esc), the
// context is canceled, or input ends before an answer is given.
var ErrInterrupted = errors.New("interrupted")

// Prompter asks single questions. A canceled ctx aborts the pending question
// with ErrInterrupted.
type Prompter interface {
	Input(ctx context.Context, title, def string) (string, error)
	Select(ctx context.Context, title string, options []string, def string) (string, error)
	Confirm(ctx context.Context, title string, def bool) (bool, error)
	// Notify shows a validation message before the question is asked again.
	Notify(msg string)
}

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
)

// Banner writes a bold heading line.
func Banner(w io.Writer, msg string) {
	fmt.Fprintln(w, bannerStyle.Render(msg))
}

// Success writes a green confirmation line.
func Success(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

// HuhPrompter renders questions with charmbracelet/huh forms.
type HuhPrompter struct {
	// Out receives notices and the rendered forms.
	Out io.Writer
	// In is read in accessible mode; nil means os.Stdin.
	In io.Reader
	// Accessible switches huh to plain line-based prompts (no TUI).
	Accessible bool
}

// NewHuhPrompter returns a prompter writing notices to out.
func NewHuhPrompter(out io.Writer, accessible bool) *HuhPrompter {
	return &HuhPrompter{Out: out, Accessible: accessible}
}

func (p *HuhPrompter) run(ctx context.Context, field huh.Field) error {
	if ctx.Err() != nil {
		return ErrInterrupted
	}

	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(p.Accessible).
		WithOutput(p.Out).
		WithShowHelp(false)

	if p.Accessible {
		return p.runAccessible(ctx, form)
	}

	err := form.RunWithContext(ctx)

	switch {
	case ctx.Err() != nil, errors.Is(err, huh.ErrUserAborted):
		return ErrInterrupted
	case err != nil:
		return fmt.Errorf("prompt: %w", err)
	}

	return nil
}

// runAccessible reads answers line by line. huh neither watches ctx nor
// reports end of input in this mode, so the form runs in its own goroutine and
// an exhausted reader counts as an interrupt. A read still blocked after
// cancellation is abandoned; the process exits right after.
func (p *HuhPrompter) runAccessible(ctx context.Context, form *huh.Form) error {
	in := &eofReader{r: p.In}
	if in.r == nil {
		in.r = os.Stdin
	}

	form = form.WithInput(in)

	done := make(chan error, 1)

	go func() {
		done <- form.RunWithContext(ctx)
	}()

	select {
	case <-ctx.Done():
		return ErrInterrupted
	case err := <-done:
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}

		if in.closed() {
			return ErrInterrupted
		}

		return nil
	}
}

// eofReader records whether input ended before any byte was read.
type eofReader struct {
	r    io.Reader
	read int
	eof  bool
}

func (e *eofReader) Read(b []byte) (int, error) {
	n, err := e.r.Read(b)
	e.read += n

	if errors.Is(err, io.EOF) {
		e.eof = true
	}

	return n, err //nolint:wrapcheck // io.EOF must reach the scanner unwrapped.
}

func (e *eofReader) closed() bool {
	return e.eof && e.read == 0
}

// Input asks for free text pre-filled with def.
func (p *HuhPrompter) Input(ctx context.Context, title, def string) (string, error) {
	value := def

	err := p.run(ctx, huh.NewInput().Title(title).Value(&value))
	if err != nil {
		return "", err
	}

	return value, nil
}

// Select asks for one of options with def highlighted.
func (p *HuhPrompter) Select(ctx context.Context, title string, options []string, def string) (string, error) {
	value := def

	err := p.run(ctx, huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&value))
	if err != nil {
		return "", err
	}

	return value, nil
}

// Confirm asks a yes/no question.
func (p *HuhPrompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	value := def

	err := p.run(ctx, huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&value))
	if err != nil {
		return false, err
	}

	return value, nil
}

// Notify writes msg in the notice style.
func (p *HuhPrompter) Notify(msg string) {
	fmt.Fprintln(p.Out, noticeStyle.Render(msg))
}
