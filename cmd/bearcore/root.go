package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/relex-dev/bearcore/internal/bears"
	"github.com/relex-dev/bearcore/internal/events"
	"github.com/relex-dev/bearcore/internal/sched"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	flagConcurrency int
	flagVerbose     bool
	flagScopes      []string
)

// buildLogger returns a logger writing to stderr, at debug level when
// --verbose is set.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// newRootCmd builds the bearcore command tree.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bearcore",
		Short:         "Runs a dependency-ordered unit graph through the scheduler",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newRunCmd())
	return cmd
}

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the built-in demo unit graph and prints every result",
		RunE:  runDemo,
	}
	runCmd.Flags().IntVar(&flagConcurrency, "concurrency", 4, "maximum units with tasks in flight at once")
	runCmd.Flags().StringSliceVar(&flagScopes, "scope", []string{"alpha", "beta"}, "scope names to analyze, one seed unit per scope")
	return runCmd
}

func runDemo(cmd *cobra.Command, _ []string) error {
	logger := buildLogger()
	rec := events.NewRecorder()

	driver := sched.New(sched.Config{
		Concurrency: flagConcurrency,
		Logger:      logger,
		Events:      rec,
	})

	seeds := demoSeeds(flagScopes)

	var results []bears.Result
	sink := func(r bears.Result) {
		results = append(results, r)
	}

	if err := driver.Run(cmd.Context(), seeds, sink); err != nil {
		return fmt.Errorf("bearcore: run failed: %w", err)
	}

	for _, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), r)
	}
	logger.Debug("session finished", slog.Int("events", len(rec.Snapshot())))
	return nil
}
