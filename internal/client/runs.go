package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/roach88/catshift/internal/catalog"
)

// RunTimeoutError is returned by WaitForActionRun when a run is still
// IN_PROGRESS after the configured wait budget. The run keeps executing
// remotely; only the local wait gives up.
type RunTimeoutError struct {
	RunID  string
	Waited time.Duration
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("action run %s not finished after %s", e.RunID, e.Waited)
}

// CreateActionRun invokes a blueprint action against one entity and returns
// the created run. Invocation failure is an error, not a Result: a caller
// that cannot start a run has nothing to poll.
func (c *Client) CreateActionRun(ctx context.Context, blueprint, entity, action string, properties map[string]any) (catalog.ActionRun, error) {
	var payload struct {
		Run catalog.ActionRun `json:"run"`
	}
	path := "/blueprints/" + url.PathEscape(blueprint) +
		"/entities/" + url.PathEscape(entity) +
		"/actions/" + url.PathEscape(action) + "/runs"
	body := map[string]any{"properties": properties}
	if err := c.get(ctx, "POST", path, nil, body, &payload); err != nil {
		return catalog.ActionRun{}, err
	}
	if payload.Run.ID == "" {
		return catalog.ActionRun{}, fmt.Errorf("action run response contained no run id")
	}
	return payload.Run, nil
}

// GetActionRun fetches the current status of a run.
func (c *Client) GetActionRun(ctx context.Context, runID string) (catalog.ActionRun, error) {
	var payload struct {
		Run catalog.ActionRun `json:"run"`
	}
	if err := c.get(ctx, "GET", "/actions/runs/"+url.PathEscape(runID), nil, nil, &payload); err != nil {
		return catalog.ActionRun{}, err
	}
	return payload.Run, nil
}

// WaitForActionRun polls a run until it reaches a terminal status, checking
// every interval and giving up after timeout with *RunTimeoutError.
//
// This is a flat loop on purpose: the wait budget bounds both the number of
// polls and the total time, regardless of how long the remote run takes.
func (c *Client) WaitForActionRun(ctx context.Context, runID string, interval, timeout time.Duration) (catalog.ActionRun, error) {
	deadline := time.Now().Add(timeout)
	for {
		run, err := c.GetActionRun(ctx, runID)
		if err != nil {
			return catalog.ActionRun{}, err
		}
		if run.Terminal() {
			return run, nil
		}
		if time.Now().After(deadline) {
			return run, &RunTimeoutError{RunID: runID, Waited: timeout}
		}
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-time.After(interval):
		}
	}
}
