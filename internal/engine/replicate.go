package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/catshift/internal/catalog"
	"github.com/roach88/catshift/internal/client"
)

// Replicator copies entity instances from source to destination, one
// blueprint at a time. It never sorts instances topologically: each write
// is an upsert with merge disabled and with auto-creation of missing
// related stubs, so cross-entity ordering is the destination's problem.
// Re-running against the same snapshot is convergent.
type Replicator struct {
	Source *client.Client
	Dest   *client.Client
	Exec   *Executor
	Logger *slog.Logger
}

// ReplicationResult counts attempted entity writes and lists failures.
// Listing failures for a whole blueprint count as one failure against that
// blueprint's identifier.
type ReplicationResult struct {
	Attempted int
	Failures  []ItemFailure
}

// Replicate copies all entities of the given blueprints. Blueprints that
// never got a shell at the destination are expected to be excluded by the
// caller; their entity collections do not exist there.
func (r *Replicator) Replicate(ctx context.Context, blueprints []string) ReplicationResult {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	exec := r.Exec
	if exec == nil {
		exec = &Executor{}
	}

	var result ReplicationResult
	for _, bp := range blueprints {
		entities, err := r.Source.ListEntities(ctx, bp)
		if err != nil {
			log.Warn("listing source entities failed", "blueprint", bp, "error", err)
			result.Failures = append(result.Failures, failure(CollectionEntities, bp, err))
			continue
		}
		if len(entities) == 0 {
			continue
		}
		log.Info("replicating entities", "blueprint", bp, "count", len(entities))

		byIdentifier := make(map[string]catalog.Entity, len(entities))
		items := make([]Item, len(entities))
		for i, e := range entities {
			id := catalog.NormalizeIdentifier(e.Identifier)
			byIdentifier[id] = e
			items[i] = Item{Blueprint: bp, Identifier: id}
		}

		outcomes := exec.Run(ctx, items, func(ctx context.Context, item Item) error {
			res, err := r.Dest.UpsertEntity(ctx, item.Blueprint, byIdentifier[item.Identifier])
			if err != nil {
				return err
			}
			if !res.OK {
				return &WriteError{
					Collection: CollectionEntities,
					Identifier: item.Identifier,
					Status:     res.Status,
					Body:       res.Body,
				}
			}
			return nil
		})

		result.Attempted += len(items)
		for _, out := range outcomes {
			if out.Err != nil {
				result.Failures = append(result.Failures, failure(CollectionEntities, out.Item.Identifier, out.Err))
			}
		}
	}
	return result
}
