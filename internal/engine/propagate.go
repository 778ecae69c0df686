package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/catshift/internal/catalog"
	"github.com/roach88/catshift/internal/client"
)

// Propagator copies blueprint definitions into a destination tenant so the
// destination's relation graph ends up isomorphic to the source's,
// regardless of cycles or self-loops in that graph.
//
// A single-pass create cannot work: if blueprint A's relations reference
// blueprint B and B does not exist yet, the create is rejected, and for a
// cyclic pair there is no order that avoids this. The propagator therefore
// writes in two phases:
//
//  1. Shell pass: every blueprint is created with relations and mirror
//     properties stripped. No shell references another blueprint, so order
//     within the pass is irrelevant.
//  2. Link pass: every blueprint is patched with its full original
//     definition. Every identifier now exists at the destination, so all
//     relation targets resolve.
//
// Failures are per-blueprint and non-fatal, with one dependency between
// the passes: a blueprint whose shell create failed is skipped in the link
// pass, because patching it would target a shell that does not exist.
type Propagator struct {
	Dest   *client.Client
	Logger *slog.Logger
}

// PropagationResult lists which blueprints completed the shell pass (and
// therefore exist at the destination) and every recorded failure.
type PropagationResult struct {
	Completed []string
	Failures  []ItemFailure
}

// Propagate runs both passes over the given source blueprints.
func (p *Propagator) Propagate(ctx context.Context, blueprints []catalog.Blueprint) PropagationResult {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	var result PropagationResult
	created := make(map[string]bool, len(blueprints))

	for _, bp := range blueprints {
		log.Debug("creating blueprint shell", "blueprint", bp.Identifier)
		res, err := p.Dest.CreateBlueprint(ctx, bp.Shell())
		if err != nil {
			result.Failures = append(result.Failures, failure(CollectionBlueprints, bp.Identifier, err))
			continue
		}
		if !res.OK {
			log.Warn("blueprint shell rejected", "blueprint", bp.Identifier, "status", res.Status)
			result.Failures = append(result.Failures, ItemFailure{
				Identifier: bp.Identifier,
				Collection: CollectionBlueprints,
				Status:     res.Status,
				Body:       res.Body,
			})
			continue
		}
		created[bp.Identifier] = true
		result.Completed = append(result.Completed, bp.Identifier)
	}

	for _, bp := range blueprints {
		if !created[bp.Identifier] {
			log.Debug("skipping link pass for failed shell", "blueprint", bp.Identifier)
			continue
		}
		log.Debug("linking blueprint relations", "blueprint", bp.Identifier,
			"relations", len(bp.Relations), "mirrors", len(bp.MirrorProperties))
		res, err := p.Dest.PatchBlueprint(ctx, bp.Identifier, bp)
		if err != nil {
			result.Failures = append(result.Failures, failure(CollectionBlueprints, bp.Identifier, err))
			continue
		}
		if !res.OK {
			log.Warn("blueprint link rejected", "blueprint", bp.Identifier, "status", res.Status)
			result.Failures = append(result.Failures, ItemFailure{
				Identifier: bp.Identifier,
				Collection: CollectionBlueprints,
				Status:     res.Status,
				Body:       res.Body,
			})
		}
	}

	return result
}
