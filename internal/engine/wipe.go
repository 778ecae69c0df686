package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/catshift/internal/catalog"
	"github.com/roach88/catshift/internal/client"
)

// Wiper bulk-deletes every entity of a set of blueprints. Matching
// entities are found through the search endpoint and deleted through the
// bulk executor with bounded concurrency.
//
// With DeleteDependents the service cascades each delete to entities that
// reference the deleted one, which removes any need for instance-level
// topological ordering. Without it, deleting a referenced entity is
// rejected remotely and lands in the report; callers that cannot cascade
// must order blueprints leaves-first themselves.
type Wiper struct {
	Client           *client.Client
	Exec             *Executor
	DeleteDependents bool
	Logger           *slog.Logger
}

// Wipe deletes all entities of the given blueprints and reports every
// per-entity outcome. A failed search for one blueprint is recorded
// against that blueprint and does not stop the others.
func (w *Wiper) Wipe(ctx context.Context, blueprints []string) *Report {
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}
	exec := w.Exec
	if exec == nil {
		exec = &Executor{}
	}
	report := NewReport("wipe")

	var items []Item
	for _, bp := range blueprints {
		entities, err := w.Client.SearchEntities(ctx, catalog.BlueprintSearch(bp))
		if err != nil {
			log.Warn("entity search failed", "blueprint", bp, "error", err)
			report.Fail(failure(CollectionEntities, bp, err))
			continue
		}
		log.Info("deleting entities", "blueprint", bp, "count", len(entities))
		for _, e := range entities {
			items = append(items, Item{Blueprint: bp, Identifier: e.Identifier})
		}
	}

	outcomes := exec.Run(ctx, items, func(ctx context.Context, item Item) error {
		res, err := w.Client.DeleteEntity(ctx, item.Blueprint, item.Identifier, w.DeleteDependents)
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

	report.Attempt(CollectionEntities, len(items))
	for _, out := range outcomes {
		if out.Err != nil {
			report.Fail(failure(CollectionEntities, out.Item.Identifier, out.Err))
		}
	}
	report.Finish()
	return report
}
