package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/catshift/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs and their failures",
		Long: `List recorded runs, newest first. With a run id, show that run's
failures instead.

Example:
  catshift history --db ./catshift.db
  catshift history --db ./catshift.db 01923f1e-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run history database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := history.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer store.Close()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		failures, err := store.RunFailures(ctx, args[0])
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read failures", err)
		}
		if opts.Format == "json" {
			return formatter.Success(failures)
		}
		if len(failures) == 0 {
			fmt.Fprintln(out, "no recorded failures")
			return nil
		}
		for _, f := range failures {
			line := fmt.Sprintf("%s/%s", f.Collection, f.Identifier)
			if f.Status != 0 {
				line += fmt.Sprintf(" [%d]", f.Status)
			}
			if f.Body != "" {
				line += ": " + f.Body
			}
			fmt.Fprintln(out, line)
		}
		return nil
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if opts.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}
	for _, rec := range runs {
		fmt.Fprintf(out, "%s  %-10s  %s  %d attempted, %d failed\n",
			rec.ID, rec.Command, rec.StartedAt.Format("2006-01-02 15:04:05"), rec.Attempted, rec.Failed)
	}
	return nil
}
