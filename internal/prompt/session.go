package prompt

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/vook/artifact-gen/pkg/gitlib"
)

// DateLayout is the accepted date format (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// preferredRemote is pre-selected when present and no other default is configured.
const preferredRemote = "origin"

// Session errors.
var (
	// ErrInvalidDate is returned for input that does not match DateLayout.
	ErrInvalidDate = errors.New("invalid date")
	// ErrFutureDate is returned for a date after the current time.
	ErrFutureDate = errors.New("date is in the future")
	// ErrNoRemotes is returned when the repository has no remote to build links from.
	ErrNoRemotes = errors.New("repository has no remotes")
	// ErrNoBranches is returned when the repository has no local branch.
	ErrNoBranches = errors.New("repository has no branches")
	// ErrNoAuthors is returned when no commit is reachable from HEAD.
	ErrNoAuthors = errors.New("repository has no commits")
)

// User-facing retry messages.
const (
	msgNotRepository = "The given directory is not a git repository"
	msgInvalidDate   = "The given date is invalid"
	msgFutureDate    = "The date must not be after today"
)

// ParseDate parses a DD-MM-YYYY date at local midnight and rejects dates after now.
func ParseDate(raw string, now time.Time) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	if date.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrFutureDate, raw)
	}

	return date, nil
}

// Session asks the report questions through a Prompter, re-asking while the
// answer is invalid.
type Session struct {
	Prompter Prompter
	// DefaultDirectory pre-fills the repository and CSV path questions.
	DefaultDirectory string
	// DefaultRemote is pre-selected when present among the remotes.
	DefaultRemote string
	// Now is the clock used for date validation; defaults to time.Now.
	Now func() time.Time
}

func (s *Session) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}

	return s.Now()
}

// AskRepository asks for a directory until open succeeds. Only
// gitlib.ErrNotRepository is retried; other open errors are returned. Accepting
// a directory that was just rejected returns its error instead of asking again.
func (s *Session) AskRepository(
	ctx context.Context, title string, open func(path string) (*gitlib.Repository, error),
) (*gitlib.Repository, error) {
	def := s.DefaultDirectory

	var rejected error

	for {
		if ctx.Err() != nil {
			return nil, ErrInterrupted
		}

		raw, err := s.Prompter.Input(ctx, title, def)
		if err != nil {
			return nil, err
		}

		if rejected != nil && raw == def {
			return nil, rejected
		}

		path, err := homedir.Expand(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", raw, err)
		}

		repo, err := open(path)
		if errors.Is(err, gitlib.ErrNotRepository) {
			s.Prompter.Notify(msgNotRepository)

			def = raw
			rejected = err

			continue
		}

		if err != nil {
			return nil, err
		}

		return repo, nil
	}
}

// AskRemote picks the remote links are built from. A single remote is chosen
// without asking.
func (s *Session) AskRemote(ctx context.Context, title string, remotes []string) (string, error) {
	switch len(remotes) {
	case 0:
		return "", ErrNoRemotes
	case 1:
		return remotes[0], nil
	}

	def := ""

	switch {
	case s.DefaultRemote != "" && slices.Contains(remotes, s.DefaultRemote):
		def = s.DefaultRemote
	case slices.Contains(remotes, preferredRemote):
		def = preferredRemote
	}

	return s.Prompter.Select(ctx, title, remotes, def)
}

// AskBranch picks a local branch, defaulting to current.
func (s *Session) AskBranch(ctx context.Context, title string, branches []string, current string) (string, error) {
	if len(branches) == 0 {
		return "", ErrNoBranches
	}

	return s.Prompter.Select(ctx, title, branches, pick(branches, current))
}

// AskAuthor picks an author, defaulting to current when it is among authors.
func (s *Session) AskAuthor(ctx context.Context, title string, authors []string, current string) (string, error) {
	if len(authors) == 0 {
		return "", ErrNoAuthors
	}

	return s.Prompter.Select(ctx, title, authors, pick(authors, current))
}

func pick(options []string, preferred string) string {
	if slices.Contains(options, preferred) {
		return preferred
	}

	return ""
}

// AskDate asks for a DD-MM-YYYY date until it parses and is not in the future.
// When optional is set, empty input returns ok=false.
func (s *Session) AskDate(ctx context.Context, title string, def time.Time, optional bool) (time.Time, bool, error) {
	defText := ""
	if !def.IsZero() {
		defText = def.Format(DateLayout)
	}

	for {
		if ctx.Err() != nil {
			return time.Time{}, false, ErrInterrupted
		}

		raw, err := s.Prompter.Input(ctx, title, defText)
		if err != nil {
			return time.Time{}, false, err
		}

		if optional && strings.TrimSpace(raw) == "" {
			return time.Time{}, false, nil
		}

		date, err := ParseDate(raw, s.now())

		switch {
		case errors.Is(err, ErrInvalidDate):
			s.Prompter.Notify(msgInvalidDate)
		case errors.Is(err, ErrFutureDate):
			s.Prompter.Notify(msgFutureDate)
		case err != nil:
			return time.Time{}, false, err
		default:
			return date, true, nil
		}
	}
}

// AskConfirm asks a yes/no question.
func (s *Session) AskConfirm(ctx context.Context, title string, def bool) (bool, error) {
	return s.Prompter.Confirm(ctx, title, def)
}

// AskPath asks for a file path pre-filled with def, expanding a leading ~.
// Empty input keeps def.
func (s *Session) AskPath(ctx context.Context, title, def string) (string, error) {
	raw, err := s.Prompter.Input(ctx, title, def)
	if err != nil {
		return "", err
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = def
	}

	path, err := homedir.Expand(raw)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", raw, err)
	}

	return path, nil
}
