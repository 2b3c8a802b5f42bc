package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Triage/internal/config"
	"github.com/MikeSquared-Agency/Triage/internal/triage"
)

var version = "dev"

type rankOptions struct {
	configPath string
	now        string
	pretty     bool
	strict     bool
}

func newRootCommand() *cobra.Command {
	opts := &rankOptions{}

	cmd := &cobra.Command{
		Use:   "triage-rank [file]",
		Short: "Score and rank a batch of tasks",
		Long: `Score and rank a batch of tasks.

Reads a JSON array of task records from the given file, or from stdin when no
file (or "-") is given, and writes the ranked result as JSON to stdout.
Records with a malformed created_at are listed under "rejected" and left out
of the ranking.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (weights, urgent labels, parallelism)")
	cmd.Flags().StringVar(&opts.now, "now", "", "Score as of this RFC 3339 time instead of the current clock")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any record is rejected")

	return cmd
}

func runRank(cmd *cobra.Command, args []string, opts *rankOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if opts.now != "" {
		now, err = time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("parsing --now: %w", err)
		}
		now = now.UTC()
	}

	records, err := readRecords(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	scorer, err := cfg.NewScorer()
	if err != nil {
		return fmt.Errorf("scoring config: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Logging.SlogLevel()}))
	engine := triage.NewEngine(scorer, cfg.Scoring.Parallelism, logger)

	// Rejections are reported in the output; only --strict turns them into
	// a failure.
	res, _ := engine.ScoreAndRankAt(records, now)

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.strict && len(res.Rejected) > 0 {
		return &RejectedError{Count: len(res.Rejected)}
	}
	return nil
}

func readRecords(stdin io.Reader, args []string) ([]triage.RawTask, error) {
	in := stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close() //nolint:errcheck
		in = f
	}

	var records []triage.RawTask
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	return records, nil
}
