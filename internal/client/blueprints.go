package client

import (
	"context"
	"net/url"

	"github.com/roach88/catshift/internal/catalog"
)

// ListBlueprints fetches every blueprint definition of the tenant.
func (c *Client) ListBlueprints(ctx context.Context) ([]catalog.Blueprint, error) {
	var payload struct {
		Blueprints []catalog.Blueprint `json:"blueprints"`
	}
	if err := c.get(ctx, "GET", "/blueprints", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Blueprints, nil
}

// CreateBlueprint creates a blueprint. Creating an identifier that already
// exists is rejected by the service; the rejection comes back in the Result.
func (c *Client) CreateBlueprint(ctx context.Context, bp catalog.Blueprint) (Result, error) {
	return c.write(ctx, "POST", "/blueprints", nil, bp)
}

// PatchBlueprint overwrites parts of an existing blueprint, including its
// relations and mirror properties.
func (c *Client) PatchBlueprint(ctx context.Context, identifier string, bp catalog.Blueprint) (Result, error) {
	return c.write(ctx, "PATCH", "/blueprints/"+url.PathEscape(identifier), nil, bp)
}

// ListEntities fetches every entity of one blueprint.
func (c *Client) ListEntities(ctx context.Context, blueprint string) ([]catalog.Entity, error) {
	var payload struct {
		Entities []catalog.Entity `json:"entities"`
	}
	path := "/blueprints/" + url.PathEscape(blueprint) + "/entities"
	if err := c.get(ctx, "GET", path, nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Entities, nil
}

// UpsertEntity writes an entity with create-or-overwrite semantics:
// merge is disabled so an existing record is fully replaced, and the
// destination is instructed to auto-create minimal stubs for related
// entities that do not exist yet. Delegating stub creation to the service
// is what frees callers from topologically sorting entity instances.
func (c *Client) UpsertEntity(ctx context.Context, blueprint string, e catalog.Entity) (Result, error) {
	query := url.Values{
		"upsert":                          {"true"},
		"merge":                           {"false"},
		"validation_only":                 {"false"},
		"create_missing_related_entities": {"true"},
	}
	path := "/blueprints/" + url.PathEscape(blueprint) + "/entities"
	return c.write(ctx, "POST", path, query, e)
}

// DeleteEntity deletes one entity. With deleteDependents the service
// cascades to entities that reference the deleted one; without it, deleting
// a referenced entity is rejected and the rejection is reported in the
// Result.
func (c *Client) DeleteEntity(ctx context.Context, blueprint, entity string, deleteDependents bool) (Result, error) {
	var query url.Values
	if deleteDependents {
		query = url.Values{"delete_dependents": {"true"}}
	}
	path := "/blueprints/" + url.PathEscape(blueprint) + "/entities/" + url.PathEscape(entity)
	return c.write(ctx, "DELETE", path, query, nil)
}

// SearchEntities runs a search query across the tenant's entities.
func (c *Client) SearchEntities(ctx context.Context, q catalog.SearchQuery) ([]catalog.Entity, error) {
	var payload struct {
		Entities []catalog.Entity `json:"entities"`
	}
	if err := c.get(ctx, "POST", "/entities/search", nil, q, &payload); err != nil {
		return nil, err
	}
	return payload.Entities, nil
}
