package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/catshift/internal/catalog"
	"github.com/roach88/catshift/internal/engine"
)

// RunActionOptions holds flags for the run-action command.
type RunActionOptions struct {
	*RootOptions
	APIURL       string
	ClientID     string
	ClientSecret string
	Blueprint    string
	Action       string
	Reason       string
	Interval     time.Duration
	Timeout      time.Duration
	Database     string
}

// NewRunActionCommand creates the run-action command.
func NewRunActionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunActionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run-action <entity...>",
		Short: "Invoke a blueprint action on entities and wait for the runs",
		Long: `Invoke an action on each named entity and poll every run to a terminal
status. Polling is a bounded wait: it checks every --interval and gives
up after --timeout, reporting the run as failed locally while it keeps
executing remotely.

Example:
  catshift run-action --api-url https://api.example.com/v1 \
    --blueprint organization --action delete_org org-1 org-2`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunAction(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "catalog API base URL (required)")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "tenant client id")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", "", "tenant client secret")
	cmd.Flags().StringVar(&opts.Blueprint, "blueprint", "", "blueprint of the target entities (required)")
	cmd.Flags().StringVar(&opts.Action, "action", "", "action identifier to invoke (required)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "invoked by catshift", "reason recorded on each run")
	cmd.Flags().DurationVar(&opts.Interval, "interval", time.Second, "poll interval")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "max wait per run")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run history database (empty disables history)")
	_ = cmd.MarkFlagRequired("api-url")
	_ = cmd.MarkFlagRequired("blueprint")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func runRunAction(cmd *cobra.Command, opts *RunActionOptions, entities []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	creds, err := resolveCredentials(opts.ClientID, opts.ClientSecret, EnvClientID, EnvClientSecret, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "bad configuration", err)
	}
	c, err := connect(ctx, opts.APIURL, creds)
	if err != nil {
		return WrapExitError(ExitCommandError, "authentication failed", err)
	}

	report := engine.NewReport("run-action")
	report.Attempt(engine.CollectionRuns, len(entities))
	properties := map[string]any{"reason": opts.Reason}

	for _, entity := range entities {
		log := slog.Default().With("entity", entity, "action", opts.Action)
		run, err := c.CreateActionRun(ctx, opts.Blueprint, entity, opts.Action, properties)
		if err != nil {
			log.Warn("run invocation failed", "error", err)
			report.Fail(engine.ItemFailure{
				Identifier: entity,
				Collection: engine.CollectionRuns,
				Body:       err.Error(),
			})
			continue
		}
		log.Info("run started", "run", run.ID)

		final, err := c.WaitForActionRun(ctx, run.ID, opts.Interval, opts.Timeout)
		switch {
		case err != nil:
			report.Fail(engine.ItemFailure{
				Identifier: entity,
				Collection: engine.CollectionRuns,
				Body:       err.Error(),
			})
		case final.Status != catalog.RunStatusSuccess:
			report.Fail(engine.ItemFailure{
				Identifier: entity,
				Collection: engine.CollectionRuns,
				Body:       fmt.Sprintf("run %s finished with status %s", final.ID, final.Status),
			})
		default:
			log.Info("run finished", "run", final.ID, "status", final.Status)
		}
	}

	report.Finish()
	if err := persistReport(ctx, opts.Database, report); err != nil {
		slog.Error("failed to persist run history", "error", err)
	}
	return emitReport(cmd, opts.RootOptions, report)
}
