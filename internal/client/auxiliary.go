package client

import (
	"context"
	"net/url"

	"github.com/roach88/catshift/internal/catalog"
)

// ListScorecards fetches every scorecard in the tenant, across all
// blueprints. Each scorecard carries its owning blueprint identifier.
func (c *Client) ListScorecards(ctx context.Context) ([]catalog.Scorecard, error) {
	var payload struct {
		Scorecards []catalog.Scorecard `json:"scorecards"`
	}
	if err := c.get(ctx, "GET", "/scorecards", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Scorecards, nil
}

// CreateScorecard creates a scorecard under its owning blueprint. This is a
// plain create: a duplicate identifier is rejected by the service.
func (c *Client) CreateScorecard(ctx context.Context, blueprint string, sc catalog.Scorecard) (Result, error) {
	path := "/blueprints/" + url.PathEscape(blueprint) + "/scorecards"
	return c.write(ctx, "POST", path, nil, sc)
}

// ListActions fetches every action definition in the tenant.
func (c *Client) ListActions(ctx context.Context) ([]catalog.Action, error) {
	var payload struct {
		Actions []catalog.Action `json:"actions"`
	}
	if err := c.get(ctx, "GET", "/actions", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Actions, nil
}

// CreateAction creates an action under its owning blueprint.
func (c *Client) CreateAction(ctx context.Context, blueprint string, a catalog.Action) (Result, error) {
	path := "/blueprints/" + url.PathEscape(blueprint) + "/actions"
	return c.write(ctx, "POST", path, nil, a)
}

// ListTeams fetches every team in the tenant.
func (c *Client) ListTeams(ctx context.Context) ([]catalog.Team, error) {
	var payload struct {
		Teams []catalog.Team `json:"teams"`
	}
	if err := c.get(ctx, "GET", "/teams", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Teams, nil
}

// CreateTeam creates a team. Teams have no blueprint dependency and may be
// written at any point in a run.
func (c *Client) CreateTeam(ctx context.Context, team catalog.Team) (Result, error) {
	return c.write(ctx, "POST", "/teams", nil, team)
}
