// Package commands implements the artifactgen CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vook/artifact-gen/internal/artifact"
	"github.com/vook/artifact-gen/internal/config"
	"github.com/vook/artifact-gen/internal/history"
	"github.com/vook/artifact-gen/internal/observability"
	"github.com/vook/artifact-gen/internal/prompt"
	"github.com/vook/artifact-gen/internal/report"
	"github.com/vook/artifact-gen/pkg/gitlib"
	"github.com/vook/artifact-gen/pkg/version"
)

// Question titles.
const (
	titleDirectory = "Project directory"
	titleRemote    = "Select the remote"
	titleBranch    = "Select the branch"
	titleAuthor    = "Select the author"
	titleSince     = "Start date (DD-MM-YYYY)"
	titleUntil     = "End date (DD-MM-YYYY) *optional"
	titleOnlyLast  = "Only the most recent state of each file?"
	titleSaveCSV   = "Save report as CSV?"
	titleCSVPath   = "Where?"

	msgWelcome = "Welcome to the artifact generator!"
	msgDone    = "Done!"
)

var (
	// ErrAmbiguousRemote is returned without prompts when several remotes exist
	// and none is named by --remote, the config, or "origin".
	ErrAmbiguousRemote = errors.New("several remotes configured; pick one with --remote")
	// ErrUnknownRemote is returned when --remote names a missing remote.
	ErrUnknownRemote = errors.New("unknown remote")
)

// IsInterrupt reports whether err means the user aborted the run.
func IsInterrupt(err error) bool {
	return errors.Is(err, prompt.ErrInterrupted) || errors.Is(err, context.Canceled)
}

type (
	repoOpener       func(path string) (*gitlib.Repository, error)
	configLoader     func(path string) (*config.Config, error)
	telemetryStarter func(cfg observability.Config) (observability.Providers, error)
	prompterFactory  func(out io.Writer, accessible bool) prompt.Prompter
)

// ReportCommand holds flags and dependencies of the report command.
type ReportCommand struct {
	configPath string
	path       string
	remote     string
	branch     string
	author     string
	since      string
	until      string
	csvPath    string
	format     string
	onlyLast   bool
	noInput    bool
	noColor    bool
	accessible bool

	open          repoOpener
	loadConfig    configLoader
	initTelemetry telemetryStarter
	newPrompter   prompterFactory
	now           func() time.Time
}

// reportParams are the resolved answers driving one run.
type reportParams struct {
	repo     *gitlib.Repository
	remote   string
	branch   string
	author   string
	since    time.Time
	until    time.Time
	onlyLast bool
}

// NewReportCommand creates the report command. It is the root command of the binary.
func NewReportCommand() *cobra.Command {
	return newReportCommandWithDeps(
		gitlib.OpenRepository,
		config.LoadConfig,
		observability.Init,
		func(out io.Writer, accessible bool) prompt.Prompter {
			return prompt.NewHuhPrompter(out, accessible)
		},
		time.Now,
	)
}

func newReportCommandWithDeps(
	open repoOpener,
	loadConfig configLoader,
	initTelemetry telemetryStarter,
	newPrompter prompterFactory,
	now func() time.Time,
) *cobra.Command {
	rc := &ReportCommand{
		open:          open,
		loadConfig:    loadConfig,
		initTelemetry: initTelemetry,
		newPrompter:   newPrompter,
		now:           now,
	}

	cmd := &cobra.Command{
		Use:   "artifactgen",
		Short: "Link file changes to task ids from git history",
		Long: `artifactgen walks the commits of one author on one branch, reads the
task id from each commit message ("[123] ...") and reports every file the
commit touched with a link to the file at that commit on the hosting server.

Without flags every parameter is asked interactively.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.run,
	}

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Config file (default: ./.artifactgen.yaml or ~/.artifactgen.yaml)")
	cmd.Flags().StringVarP(&rc.path, "path", "p", "", "Repository directory")
	cmd.Flags().StringVar(&rc.remote, "remote", "", "Remote used to build blob links")
	cmd.Flags().StringVarP(&rc.branch, "branch", "b", "", "Local branch to walk (default: current branch)")
	cmd.Flags().StringVarP(&rc.author, "author", "a", "", "Author name, exact match (default: all authors without prompts)")
	cmd.Flags().StringVar(&rc.since, "since", "", "First day, DD-MM-YYYY, inclusive")
	cmd.Flags().StringVar(&rc.until, "until", "", "Last day, DD-MM-YYYY, inclusive")
	cmd.Flags().BoolVar(&rc.onlyLast, "only-last", false, "Keep only the latest row per file and task")
	cmd.Flags().StringVar(&rc.csvPath, "csv", "", "Also write the report as CSV to this path")
	cmd.Flags().StringVarP(&rc.format, "format", "f", config.DefaultReportFormat, "Output format: text, csv, json, yaml")
	cmd.Flags().BoolVar(&rc.noInput, "no-input", false, "Never prompt; use flags and config only")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&rc.accessible, "accessible", false, "Use plain line-based prompts")

	return cmd
}

func (rc *ReportCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := rc.loadConfig(rc.configPath)
	if err != nil {
		return err
	}

	err = rc.applyFlags(cmd, cfg)
	if err != nil {
		return err
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.MetricsTextfile = cfg.Telemetry.MetricsTextfile
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogOutput = errOut

	providers, err := rc.initTelemetry(obsCfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown", slog.Any("error", shutdownErr))
		}
	}()

	metrics, err := observability.NewReportMetrics(providers.Meter)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := providers.Tracer.Start(ctx, "artifactgen.report")
	defer span.End()

	interactive := !rc.noInput

	var session *prompt.Session
	if interactive {
		prompt.Banner(errOut, msgWelcome)

		session = &prompt.Session{
			Prompter:         rc.newPrompter(errOut, rc.accessible),
			DefaultDirectory: cfg.Prompt.DefaultDirectory,
			DefaultRemote:    cfg.Prompt.DefaultRemote,
			Now:              rc.now,
		}
	}

	params, err := rc.collect(ctx, cmd, cfg, session)
	if err != nil {
		return err
	}
	defer params.repo.Free()

	rep, err := rc.build(ctx, cfg, params, providers)

	stats := observability.RunStats{Status: observability.StatusOK, OnlyLast: params.onlyLast}
	if err != nil {
		stats.Status = observability.StatusError
		metrics.RecordRun(ctx, stats)
		span.RecordError(err)

		return err
	}

	stats.Commits = rep.Stats.Commits
	stats.Modifications = rep.Stats.Modifications
	stats.Rows = rep.Stats.Rows
	stats.Duration = rep.Stats.Duration
	metrics.RecordRun(ctx, stats)

	noColor := cfg.Report.NoColor || color.NoColor

	err = report.Write(cmd.OutOrStdout(), rep.Rows, cfg.Report.Format, report.Options{NoColor: noColor})
	if err != nil {
		return err
	}

	fmt.Fprintln(errOut, report.Summary(rep.Stats))

	err = rc.export(ctx, cmd, cfg, session, rep.Rows)
	if err != nil {
		return err
	}

	if interactive {
		prompt.Success(errOut, msgDone)
	}

	return nil
}

// applyFlags lets explicitly set flags override config values.
func (rc *ReportCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("format") {
		cfg.Report.Format = rc.format
	}

	if flags.Changed("no-color") {
		cfg.Report.NoColor = rc.noColor
	}

	if flags.Changed("only-last") {
		cfg.Report.OnlyLast = rc.onlyLast
	}

	if flags.Changed("remote") {
		cfg.Prompt.DefaultRemote = rc.remote
	}

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("validate flags: %w", err)
	}

	return nil
}

func (rc *ReportCommand) collect(
	ctx context.Context, cmd *cobra.Command, cfg *config.Config, session *prompt.Session,
) (*reportParams, error) {
	repo, err := rc.openRepository(ctx, session)
	if err != nil {
		return nil, err
	}

	params, err := rc.collectFrom(ctx, cmd, cfg, session, repo)
	if err != nil {
		repo.Free()

		return nil, err
	}

	return params, nil
}

func (rc *ReportCommand) openRepository(ctx context.Context, session *prompt.Session) (*gitlib.Repository, error) {
	if rc.path != "" || session == nil {
		path := rc.path
		if path == "" {
			path = "."
		}

		return rc.open(path)
	}

	return session.AskRepository(ctx, titleDirectory, rc.open)
}

func (rc *ReportCommand) collectFrom(
	ctx context.Context, cmd *cobra.Command, cfg *config.Config, session *prompt.Session, repo *gitlib.Repository,
) (*reportParams, error) {
	params := &reportParams{repo: repo, onlyLast: cfg.Report.OnlyLast}

	var err error

	params.remote, err = rc.pickRemote(ctx, cfg, session, repo)
	if err != nil {
		return nil, err
	}

	params.branch, err = rc.pickBranch(ctx, session, repo)
	if err != nil {
		return nil, err
	}

	params.author, err = rc.pickAuthor(ctx, session, repo)
	if err != nil {
		return nil, err
	}

	params.since, params.until, err = rc.pickDates(ctx, session)
	if err != nil {
		return nil, err
	}

	if session != nil && !cmd.Flags().Changed("only-last") {
		params.onlyLast, err = session.AskConfirm(ctx, titleOnlyLast, cfg.Report.OnlyLast)
		if err != nil {
			return nil, err
		}
	}

	return params, nil
}

func (rc *ReportCommand) pickRemote(
	ctx context.Context, cfg *config.Config, session *prompt.Session, repo *gitlib.Repository,
) (string, error) {
	remotes, err := repo.Remotes()
	if err != nil {
		return "", err
	}

	if rc.remote != "" {
		if !slices.Contains(remotes, rc.remote) {
			return "", fmt.Errorf("%w: %s", ErrUnknownRemote, rc.remote)
		}

		return rc.remote, nil
	}

	if session != nil {
		return session.AskRemote(ctx, titleRemote, remotes)
	}

	switch {
	case len(remotes) == 0:
		return "", prompt.ErrNoRemotes
	case len(remotes) == 1:
		return remotes[0], nil
	case slices.Contains(remotes, cfg.Prompt.DefaultRemote):
		return cfg.Prompt.DefaultRemote, nil
	case slices.Contains(remotes, "origin"):
		return "origin", nil
	default:
		return "", ErrAmbiguousRemote
	}
}

func (rc *ReportCommand) pickBranch(ctx context.Context, session *prompt.Session, repo *gitlib.Repository) (string, error) {
	if rc.branch != "" || session == nil {
		return rc.branch, nil
	}

	branches, err := repo.Branches()
	if err != nil {
		return "", err
	}

	return session.AskBranch(ctx, titleBranch, branches, repo.CurrentBranch())
}

func (rc *ReportCommand) pickAuthor(ctx context.Context, session *prompt.Session, repo *gitlib.Repository) (string, error) {
	if rc.author != "" || session == nil {
		return rc.author, nil
	}

	authors, err := repo.Authors()
	if err != nil {
		return "", err
	}

	return session.AskAuthor(ctx, titleAuthor, authors, repo.ConfigUserName())
}

func (rc *ReportCommand) pickDates(ctx context.Context, session *prompt.Session) (since, until time.Time, err error) {
	now := rc.now()

	if rc.since != "" {
		since, err = prompt.ParseDate(rc.since, now)
		if err != nil {
			return since, until, fmt.Errorf("--since: %w", err)
		}
	} else if session != nil {
		since, _, err = session.AskDate(ctx, titleSince, now, false)
		if err != nil {
			return since, until, err
		}
	}

	if rc.until != "" {
		until, err = prompt.ParseDate(rc.until, now)
		if err != nil {
			return since, until, fmt.Errorf("--until: %w", err)
		}
	} else if session != nil {
		until, _, err = session.AskDate(ctx, titleUntil, time.Time{}, true)
		if err != nil {
			return since, until, err
		}
	}

	return since, until, nil
}

func (rc *ReportCommand) build(
	ctx context.Context, cfg *config.Config, params *reportParams, providers observability.Providers,
) (*artifact.Report, error) {
	remoteURL, err := params.repo.RemoteURL(params.remote)
	if err != nil {
		return nil, err
	}

	sinceBound, untilBound := history.DayRange(params.since, params.until)

	src := &history.Source{
		Repo: params.repo,
		Query: history.Query{
			Branch: params.branch,
			Author: params.author,
			Since:  sinceBound,
			Until:  untilBound,
		},
		Diff: gitlib.DiffOptions{
			DetectRenames: cfg.Git.DetectRenames,
			DetectCopies:  cfg.Git.DetectCopies,
		},
		Logger: providers.Logger,
	}

	pipeline := &artifact.Pipeline{
		RemoteURL:   remoteURL,
		BlobSegment: cfg.Report.BlobSegment,
		OnlyLast:    params.onlyLast,
		Logger:      providers.Logger,
		Tracer:      providers.Tracer,
	}

	return pipeline.Run(ctx, src)
}

// export writes the CSV file when requested by flag, config, or answer.
func (rc *ReportCommand) export(
	ctx context.Context, cmd *cobra.Command, cfg *config.Config, session *prompt.Session, rows []artifact.Record,
) error {
	path := rc.csvPath

	if path == "" {
		save := cfg.Report.SaveCSV

		if session != nil {
			var err error

			save, err = session.AskConfirm(ctx, titleSaveCSV, cfg.Report.SaveCSV)
			if err != nil {
				return err
			}
		}

		if !save {
			return nil
		}

		path = report.DefaultCSVPath(cfg.Prompt.DefaultDirectory, rc.now())
		if cfg.Report.CSVName != "" {
			path = cfg.Report.CSVName
		}

		if session != nil {
			var err error

			path, err = session.AskPath(ctx, titleCSVPath, path)
			if err != nil {
				return err
			}
		}
	}

	err := report.SaveCSV(path, rows)
	if err != nil {
		return err
	}

	var size int64
	if info, statErr := os.Stat(path); statErr == nil {
		size = info.Size()
	}

	fmt.Fprintln(cmd.ErrOrStderr(), report.Saved(path, size))

	return nil
}
