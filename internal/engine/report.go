package engine

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection names used in reports and the run history store.
const (
	CollectionBlueprints = "blueprints"
	CollectionEntities   = "entities"
	CollectionScorecards = "scorecards"
	CollectionActions    = "actions"
	CollectionTeams      = "teams"
	CollectionRuns       = "runs"
)

// ItemFailure is one recorded non-fatal failure: a single blueprint,
// entity, scorecard, action, team, or action run that the remote side
// rejected or that could not be reached.
type ItemFailure struct {
	Identifier string `json:"identifier"`
	Collection string `json:"collection"`
	Status     int    `json:"status,omitempty"`
	Body       string `json:"body,omitempty"`
}

// Report aggregates the outcome of one run. A run with failures is
// degraded, never aborted: all phases complete over their whole input and
// every failure is listed here.
//
// Report is filled by the strictly sequential phases of a run and is not
// safe for concurrent mutation; executor outcomes are folded in after the
// pool has joined.
type Report struct {
	RunID      string         `json:"runId"`
	Command    string         `json:"command"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt,omitzero"`
	Attempted  map[string]int `json:"attempted"`
	Failures   []ItemFailure  `json:"failures,omitempty"`
}

// NewReport creates a report for one run. Run IDs are UUIDv7 so the local
// history store lists runs in creation order.
func NewReport(command string) *Report {
	return &Report{
		RunID:     uuid.Must(uuid.NewV7()).String(),
		Command:   command,
		StartedAt: time.Now().UTC(),
		Attempted: make(map[string]int),
	}
}

// Attempt records that n items of a collection were submitted.
func (r *Report) Attempt(collection string, n int) {
	r.Attempted[collection] += n
}

// Fail records one item-level failure.
func (r *Report) Fail(f ItemFailure) {
	r.Failures = append(r.Failures, f)
}

// FailedIn counts recorded failures for one collection.
func (r *Report) FailedIn(collection string) int {
	n := 0
	for _, f := range r.Failures {
		if f.Collection == collection {
			n++
		}
	}
	return n
}

// TotalAttempted sums attempts across all collections.
func (r *Report) TotalAttempted() int {
	total := 0
	for _, n := range r.Attempted {
		total += n
	}
	return total
}

// Degraded reports whether any item failed.
func (r *Report) Degraded() bool { return len(r.Failures) > 0 }

// Finish stamps the completion time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// WriteText renders the human-readable summary: per-collection counts in
// name order, then every failure in the order it was recorded. Timestamps
// are deliberately left out so the rendering is stable for golden tests
// and diff-friendly between runs.
func (r *Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "run %s (%s)\n", r.RunID, r.Command); err != nil {
		return err
	}

	collections := make([]string, 0, len(r.Attempted))
	for name := range r.Attempted {
		collections = append(collections, name)
	}
	sort.Strings(collections)
	for _, name := range collections {
		if _, err := fmt.Fprintf(w, "  %s: %d attempted, %d failed\n", name, r.Attempted[name], r.FailedIn(name)); err != nil {
			return err
		}
	}

	if !r.Degraded() {
		_, err := fmt.Fprintln(w, "completed with no failures")
		return err
	}

	if _, err := fmt.Fprintln(w, "failures:"); err != nil {
		return err
	}
	for _, f := range r.Failures {
		line := fmt.Sprintf("  %s/%s", f.Collection, f.Identifier)
		if f.Status != 0 {
			line += fmt.Sprintf(" [%d]", f.Status)
		}
		if body := strings.TrimSpace(f.Body); body != "" {
			line += ": " + body
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	noun := "failures"
	if len(r.Failures) == 1 {
		noun = "failure"
	}
	_, err := fmt.Fprintf(w, "completed with %d %s\n", len(r.Failures), noun)
	return err
}
