package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/catshift/internal/engine"
)

// WipeOptions holds flags for the wipe command.
type WipeOptions struct {
	*RootOptions
	APIURL           string
	ClientID         string
	ClientSecret     string
	All              bool
	Bound            int
	DeleteDependents bool
	Database         string
}

// NewWipeCommand creates the wipe command.
func NewWipeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WipeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "wipe [blueprint...]",
		Short: "Delete all entities of the given blueprints",
		Long: `Delete every entity of the named blueprints (or of all blueprints with
--all). Deletes run concurrently up to --bound, and by default ask the
service to cascade to dependent entities, so no ordering between
blueprints is needed. Each entity's outcome is reported individually.

Example:
  catshift wipe --api-url https://api.example.com/v1 pod workload
  catshift wipe --api-url https://api.example.com/v1 --all`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWipe(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "catalog API base URL (required)")
	cmd.Flags().StringVar(&opts.ClientID, "client-id", "", "tenant client id")
	cmd.Flags().StringVar(&opts.ClientSecret, "client-secret", "", "tenant client secret")
	cmd.Flags().BoolVar(&opts.All, "all", false, "wipe every blueprint in the tenant")
	cmd.Flags().IntVar(&opts.Bound, "bound", engine.DefaultBound, "max concurrent deletes")
	cmd.Flags().BoolVar(&opts.DeleteDependents, "delete-dependents", true, "cascade deletes to dependent entities")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the run history database (empty disables history)")
	_ = cmd.MarkFlagRequired("api-url")

	return cmd
}

func runWipe(cmd *cobra.Command, opts *WipeOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !opts.All && len(args) == 0 {
		return NewExitError(ExitCommandError, "nothing to wipe: name blueprints or pass --all")
	}

	creds, err := resolveCredentials(opts.ClientID, opts.ClientSecret, EnvClientID, EnvClientSecret, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "bad configuration", err)
	}
	c, err := connect(ctx, opts.APIURL, creds)
	if err != nil {
		return WrapExitError(ExitCommandError, "authentication failed", err)
	}

	blueprints := args
	if opts.All {
		all, err := c.ListBlueprints(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "list blueprints", err)
		}
		blueprints = make([]string, len(all))
		for i, bp := range all {
			blueprints[i] = bp.Identifier
		}
	}

	wiper := &engine.Wiper{
		Client:           c,
		Exec:             &engine.Executor{Bound: opts.Bound},
		DeleteDependents: opts.DeleteDependents,
		Logger:           slog.Default(),
	}
	report := wiper.Wipe(ctx, blueprints)

	if err := persistReport(ctx, opts.Database, report); err != nil {
		slog.Error("failed to persist run history", "error", err)
	}
	return emitReport(cmd, opts.RootOptions, report)
}
