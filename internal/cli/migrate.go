package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/catshift/internal/engine"
	"github.com/roach88/catshift/internal/history"
	"github.com/roach88/catshift/internal/plan"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	APIURL       string
	SourceID     string
	SourceSecret string
	DestID       string
	DestSecret   string
	PlanPath     string
	Bound        int
	SkipEntities bool
	SkipAux      bool
	Database     string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy a catalog from one tenant to another",
		Long: `Copy blueprints, entities, scorecards, actions, and teams from a source
tenant to a destination tenant.

Blueprints are written in two passes so cyclic relation graphs migrate
cleanly; entities are upserted with auto-creation of missing related
stubs, so re-running a migration is safe and convergent.

Example:
  catshift migrate --api-url https://api.example.com/v1 \
    --source-client-id ... --source-client-secret ... \
    --dest-client-id ... --dest-client-secret ... \
    --plan ./plan.cue --db ./catshift.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "catalog API base URL (required)")
	cmd.Flags().StringVar(&opts.SourceID, "source-client-id", "", "source tenant client id")
	cmd.Flags().StringVar(&opts.SourceSecret, "source-client-secret", "", "source tenant client secret")
	cmd.Flags().StringVar(&opts.DestID, "dest-client-id", "", "destination tenant client id")
	cmd.Flags().StringVar(&opts.DestSecret, "dest-client-secret", "", "destination tenant client secret")
	cmd.Flags().StringVar(&opts.PlanPath, "plan", "", "path to a CUE migration plan")
	cmd.Flags().IntVar(&opts.Bound, "bound", 0, "max concurrent entity writes (overrides plan)")
	cmd.Flags().BoolVar(&opts.SkipEntities, "skip-entities", false, "migrate schema and auxiliary objects only")
	cmd.Flags().BoolVar(&opts.SkipAux, "skip-auxiliary", false, "skip scorecards, actions, and teams")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run history database (empty disables history)")
	_ = cmd.MarkFlagRequired("api-url")

	return cmd
}

func runMigrate(cmd *cobra.Command, opts *MigrateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p := plan.Default()
	if opts.PlanPath != "" {
		loaded, err := plan.Load(opts.PlanPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid migration plan", err)
		}
		p = loaded
	}
	if cmd.Flags().Changed("bound") {
		p.Bound = opts.Bound
	}
	if opts.SkipEntities {
		p.SkipEntities = true
	}
	if opts.SkipAux {
		p.SkipAuxiliary = true
	}

	srcCreds, err := resolveCredentials(opts.SourceID, opts.SourceSecret, EnvSourceClientID, EnvSourceClientSecret, "source")
	if err != nil {
		return WrapExitError(ExitCommandError, "bad configuration", err)
	}
	dstCreds, err := resolveCredentials(opts.DestID, opts.DestSecret, EnvDestClientID, EnvDestClientSecret, "destination")
	if err != nil {
		return WrapExitError(ExitCommandError, "bad configuration", err)
	}

	source, err := connect(ctx, opts.APIURL, srcCreds)
	if err != nil {
		return WrapExitError(ExitCommandError, "source authentication failed", err)
	}
	dest, err := connect(ctx, opts.APIURL, dstCreds)
	if err != nil {
		return WrapExitError(ExitCommandError, "destination authentication failed", err)
	}

	coordinator := &engine.Coordinator{
		Source:        source,
		Dest:          dest,
		Bound:         p.Bound,
		Filter:        p.Selects,
		SkipEntities:  p.SkipEntities,
		SkipAuxiliary: p.SkipAuxiliary,
		Logger:        slog.Default(),
	}
	report, err := coordinator.Run(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "migration aborted", err)
	}

	if err := persistReport(ctx, opts.Database, report); err != nil {
		slog.Error("failed to persist run history", "error", err)
	}
	return emitReport(cmd, opts.RootOptions, report)
}

// persistReport appends a finished report to the history database, when
// one is configured.
func persistReport(ctx context.Context, path string, report *engine.Report) error {
	if path == "" {
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.WriteReport(ctx, report)
}

// emitReport renders the report and converts a degraded run into exit
// code 1, after the report has been written out.
func emitReport(cmd *cobra.Command, opts *RootOptions, report *engine.Report) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else if err := report.WriteText(cmd.OutOrStdout()); err != nil {
		return err
	}

	if report.Degraded() {
		noun := "failures"
		if len(report.Failures) == 1 {
			noun = "failure"
		}
		return NewExitError(ExitDegraded, fmt.Sprintf("completed with %d %s", len(report.Failures), noun))
	}
	return nil
}
