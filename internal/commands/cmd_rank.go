package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/blamerank/blamerank/internal/core/gitrepo"
	"github.com/blamerank/blamerank/internal/core/rank"
	"github.com/blamerank/blamerank/internal/tui"
)

type RankCmd struct {
	flags *Flags

	// flags
	contextLines   int
	maxConcurrency int
	maxFileSize    int64
	stopAt         string
	noProgress     bool
	detectRenames  bool
	exclude        []string
}

// NewRankCmd creates a new rank command
func NewRankCmd(flags *Flags) *RankCmd {
	return &RankCmd{flags: flags}
}

// Flags returns the rank command's flags, for registration on the root
// command as well.
func (cmd *RankCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "context",
			Usage:       "how many lines around each modification to count",
			Value:       1,
			Destination: &cmd.contextLines,
		},
		&cli.IntFlag{
			Name:        "max-concurrency",
			Aliases:     []string{"j"},
			Usage:       "maximum number of concurrent attribution tasks (0 = auto)",
			Destination: &cmd.maxConcurrency,
		},
		&cli.Int64Flag{
			Name:        "max-file-size",
			Usage:       "skip files larger than this (in bytes) to make things faster",
			Destination: &cmd.maxFileSize,
		},
		&cli.StringFlag{
			Name:        "stop-at",
			Aliases:     []string{"first-commit"},
			Usage:       "don't look further back than this revision when blaming files",
			Destination: &cmd.stopAt,
		},
		&cli.BoolFlag{
			Name:        "no-progress",
			Usage:       "don't display a progress bar",
			Destination: &cmd.noProgress,
		},
		&cli.BoolFlag{
			Name:        "detect-renames",
			Usage:       "track renamed files before attributing line ranges",
			Value:       true,
			Destination: &cmd.detectRenames,
		},
		&cli.StringSliceFlag{
			Name:        "exclude",
			Usage:       "glob pattern of files to skip (repeatable)",
			Destination: &cmd.exclude,
		},
	}
}

// Register adds the rank command to the application
func (cmd *RankCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "rank",
		Usage:     "Rank reviewers for a change by prior line authorship",
		UsageText: "blamerank rank [options] <base> <compare>",
		Description: `Lists authors of lines changed between <base> and <compare>, including a few
lines around the changed ones, ranked by how many of those lines each author
last touched. The diff is taken between the merge base of the two revisions
and <compare>; attribution runs against the merge-base state of each file.`,
		Flags:  cmd.Flags(),
		Action: cmd.Run,
	})

	return app
}

func (cmd *RankCmd) Run(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <base> and <compare> arguments, got %d", c.Args().Len())
	}
	base, compare := c.Args().Get(0), c.Args().Get(1)

	logger := log.With().Str("cmp", "rank").Logger()
	opts := cmd.effectiveOptions(c)

	repo, err := gitrepo.Discover(cmd.flags.RepoPath)
	if err != nil {
		return err
	}

	boundary, err := repo.ResolveBoundary(base, compare, cmd.stopAt, logger)
	if err != nil {
		return err
	}

	src := gitrepo.NewSource(repo, boundary, gitrepo.SourceOptions{
		DetectRenames: cmd.renamesEnabled(c),
		Exclude:       cmd.excludePatterns(),
	}, logger)

	reporter, closeReporter := cmd.reporter()
	defer closeReporter()

	result, err := rank.Run(ctx, src, opts, reporter, logger)
	closeReporter()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("cancelled")
		}
		return err
	}

	writeRanked(c.Root().Writer, result.Ranked)

	if n := len(result.Failures); n > 0 {
		fmt.Fprintf(os.Stderr, "%d file(s) could not be fully attributed\n", n)
		for _, f := range result.Failures {
			logger.Warn().Err(f.Err).Str("path", f.Path).Msg("attribution failed")
		}
	}

	return nil
}

// effectiveOptions merges config file values with command-line flags; a flag
// set on the command line wins over the config file.
func (cmd *RankCmd) effectiveOptions(c *cli.Command) rank.Options {
	cfg := cmd.flags.Config
	opts := rank.Options{
		Context:        cfg.ContextLines(),
		MaxConcurrency: cfg.MaxConcurrency,
		MaxFileSize:    cfg.MaxFileSize,
	}
	if c.IsSet("context") {
		opts.Context = cmd.contextLines
	}
	if c.IsSet("max-concurrency") {
		opts.MaxConcurrency = cmd.maxConcurrency
	}
	if c.IsSet("max-file-size") {
		opts.MaxFileSize = cmd.maxFileSize
	}
	return opts
}

func (cmd *RankCmd) renamesEnabled(c *cli.Command) bool {
	if c.IsSet("detect-renames") {
		return cmd.detectRenames
	}
	return cmd.flags.Config.RenamesEnabled()
}

func (cmd *RankCmd) excludePatterns() []string {
	patterns := append([]string{}, cmd.flags.Config.Exclude...)
	return append(patterns, cmd.exclude...)
}

// reporter picks the progress renderer: a live bar when stderr is a terminal
// and progress is not disabled, otherwise a no-op.
func (cmd *RankCmd) reporter() (rank.Reporter, func()) {
	noProgress := cmd.noProgress || cmd.flags.Config.NoProgress
	if noProgress || !term.IsTerminal(int(os.Stderr.Fd())) {
		return rank.NopReporter{}, func() {}
	}

	p := tui.NewProgress(os.Stderr)
	var once bool
	return p, func() {
		if !once {
			once = true
			p.Close()
		}
	}
}

// writeRanked prints the final table, one author per line, highest line count
// first.
func writeRanked(w io.Writer, ranked []rank.AuthorLines) {
	for _, row := range ranked {
		fmt.Fprintf(w, "%d\t%s <%s>\n", row.Lines, row.Author.Name, row.Author.Email)
	}
}
