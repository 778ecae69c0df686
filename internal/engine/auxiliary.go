package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/catshift/internal/client"
)

// AuxReplicator copies the objects that hang off blueprints (scorecards
// and actions) plus teams, which depend on nothing.
//
// All writes are plain creates, not upserts: re-running against a
// destination that already has an identifier is rejected remotely and
// reported, never silently skipped. Likewise, an object whose owning
// blueprint failed to migrate is still attempted; its rejection shows up
// in the report as its own failure, distinct from the blueprint's.
type AuxReplicator struct {
	Source *client.Client
	Dest   *client.Client
	Logger *slog.Logger
}

// AuxResult counts attempted writes per collection and lists failures.
type AuxResult struct {
	Scorecards int
	Actions    int
	Teams      int
	Failures   []ItemFailure
}

// Replicate copies scorecards, actions, and teams whose owning blueprint
// passes the filter (teams always pass; they have no owner). A nil filter
// admits everything.
func (a *AuxReplicator) Replicate(ctx context.Context, filter func(blueprint string) bool) AuxResult {
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}
	if filter == nil {
		filter = func(string) bool { return true }
	}

	var result AuxResult

	scorecards, err := a.Source.ListScorecards(ctx)
	if err != nil {
		log.Warn("listing scorecards failed", "error", err)
		result.Failures = append(result.Failures, failure(CollectionScorecards, "*", err))
	}
	for _, sc := range scorecards {
		if !filter(sc.Blueprint) {
			continue
		}
		result.Scorecards++
		a.create(&result, CollectionScorecards, sc.Identifier, func() (client.Result, error) {
			return a.Dest.CreateScorecard(ctx, sc.Blueprint, sc)
		})
	}

	actions, err := a.Source.ListActions(ctx)
	if err != nil {
		log.Warn("listing actions failed", "error", err)
		result.Failures = append(result.Failures, failure(CollectionActions, "*", err))
	}
	for _, act := range actions {
		if !filter(act.Blueprint) {
			continue
		}
		result.Actions++
		a.create(&result, CollectionActions, act.Identifier, func() (client.Result, error) {
			return a.Dest.CreateAction(ctx, act.Blueprint, act)
		})
	}

	teams, err := a.Source.ListTeams(ctx)
	if err != nil {
		log.Warn("listing teams failed", "error", err)
		result.Failures = append(result.Failures, failure(CollectionTeams, "*", err))
	}
	for _, team := range teams {
		result.Teams++
		a.create(&result, CollectionTeams, team.Name, func() (client.Result, error) {
			return a.Dest.CreateTeam(ctx, team)
		})
	}

	return result
}

func (a *AuxReplicator) create(result *AuxResult, collection, identifier string, write func() (client.Result, error)) {
	res, err := write()
	if err != nil {
		result.Failures = append(result.Failures, failure(collection, identifier, err))
		return
	}
	if !res.OK {
		result.Failures = append(result.Failures, ItemFailure{
			Identifier: identifier,
			Collection: collection,
			Status:     res.Status,
			Body:       res.Body,
		})
	}
}

