package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/catshift/internal/catalog"
	"github.com/roach88/catshift/internal/client"
)

// Phase names the stages of a migration run.
type Phase string

const (
	PhaseFetchSchema        Phase = "FETCH_SCHEMA"
	PhasePropagateSchema    Phase = "PROPAGATE_SCHEMA"
	PhaseReplicateEntities  Phase = "REPLICATE_ENTITIES"
	PhaseReplicateAuxiliary Phase = "REPLICATE_AUXILIARY"
	PhaseReport             Phase = "REPORT"
)

// Coordinator orchestrates a whole-catalog migration. It is the only
// component that knows the ordering rules: schema before entities,
// blueprints before their auxiliary objects. Phases run strictly forward
// and each runs to completion over its whole input; item failures degrade
// the run, they never abort it. Only two things are fatal: a rejected
// authentication (checked before Run is called) and an unlistable source
// blueprint set, because nothing downstream can proceed without it.
type Coordinator struct {
	Source *client.Client
	Dest   *client.Client

	// Bound caps concurrent entity writes. Zero means DefaultBound.
	Bound int

	// Filter limits which blueprints (and their entities and auxiliary
	// objects) are migrated. Nil migrates everything.
	Filter func(blueprint string) bool

	// SkipEntities and SkipAuxiliary drop the corresponding phases. The
	// phases still appear in the report with zero attempts.
	SkipEntities  bool
	SkipAuxiliary bool

	Logger *slog.Logger
}

// Run executes FETCH_SCHEMA through REPORT and returns the aggregate. The
// returned error is non-nil only for fatal conditions; a degraded run
// returns a report with failures and a nil error.
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	report := NewReport("migrate")

	log.Info("phase", "phase", PhaseFetchSchema)
	blueprints, err := c.Source.ListBlueprints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source blueprints: %w", err)
	}
	blueprints = c.selectBlueprints(blueprints)
	log.Info("fetched schema", "blueprints", len(blueprints))

	log.Info("phase", "phase", PhasePropagateSchema)
	propagator := &Propagator{Dest: c.Dest, Logger: log}
	schema := propagator.Propagate(ctx, blueprints)
	report.Attempt(CollectionBlueprints, len(blueprints))
	for _, f := range schema.Failures {
		report.Fail(f)
	}

	log.Info("phase", "phase", PhaseReplicateEntities, "skip", c.SkipEntities)
	if !c.SkipEntities {
		replicator := &Replicator{
			Source: c.Source,
			Dest:   c.Dest,
			Exec:   &Executor{Bound: c.Bound},
			Logger: log,
		}
		entities := replicator.Replicate(ctx, schema.Completed)
		report.Attempt(CollectionEntities, entities.Attempted)
		for _, f := range entities.Failures {
			report.Fail(f)
		}
	}

	log.Info("phase", "phase", PhaseReplicateAuxiliary, "skip", c.SkipAuxiliary)
	if !c.SkipAuxiliary {
		aux := &AuxReplicator{Source: c.Source, Dest: c.Dest, Logger: log}
		auxResult := aux.Replicate(ctx, c.Filter)
		report.Attempt(CollectionScorecards, auxResult.Scorecards)
		report.Attempt(CollectionActions, auxResult.Actions)
		report.Attempt(CollectionTeams, auxResult.Teams)
		for _, f := range auxResult.Failures {
			report.Fail(f)
		}
	}

	log.Info("phase", "phase", PhaseReport,
		"attempted", report.TotalAttempted(), "failed", len(report.Failures))
	report.Finish()
	return report, nil
}

// selectBlueprints applies the filter under identifier normalization.
func (c *Coordinator) selectBlueprints(blueprints []catalog.Blueprint) []catalog.Blueprint {
	if c.Filter == nil {
		return blueprints
	}
	selected := make([]catalog.Blueprint, 0, len(blueprints))
	for _, bp := range blueprints {
		if c.Filter(catalog.NormalizeIdentifier(bp.Identifier)) {
			selected = append(selected, bp)
		}
	}
	return selected
}
