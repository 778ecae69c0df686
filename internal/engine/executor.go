package engine

import (
	"context"
	"sync"
)

// DefaultBound is the concurrency limit used when an Executor is created
// without one. Small on purpose: the remote API rate-limits aggressively.
const DefaultBound = 5

// Item names one entity within one blueprint, the unit of a bulk mutation.
type Item struct {
	Blueprint  string
	Identifier string
}

// Op applies one mutating operation (delete, create, upsert) to one item.
// A nil return is a terminal success; any error is that item's terminal
// failure. Ops must be safe for concurrent use.
type Op func(ctx context.Context, item Item) error

// Outcome is the terminal result of one item.
type Outcome struct {
	Item Item
	Err  error
}

// Executor applies one operation across a set of items with bounded
// concurrency and per-item error isolation.
//
// At most Bound operations are in flight at once; when the bound is
// reached, the next item waits for a slot. One item's failure never
// cancels or blocks its siblings, and Run returns only after every
// submitted item has reached a terminal outcome.
type Executor struct {
	// Bound limits concurrent in-flight operations. Zero or negative
	// means DefaultBound.
	Bound int

	// InFlight, when set, is called with +1 as an operation starts and -1
	// as it finishes. Tests use it to observe the concurrency bound; it
	// must be safe for concurrent use.
	InFlight func(delta int)
}

// Run applies op to every item and returns one outcome per item, in input
// order. There is no mid-run cancellation of the set itself: a cancelled
// context makes the remaining ops fail fast individually, and those
// failures are recorded like any other.
func (x *Executor) Run(ctx context.Context, items []Item, op Op) []Outcome {
	outcomes := make([]Outcome, len(items))
	if len(items) == 0 {
		return outcomes
	}

	bound := x.Bound
	if bound <= 0 {
		bound = DefaultBound
	}
	if bound > len(items) {
		bound = len(items)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(bound)
	for w := 0; w < bound; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if x.InFlight != nil {
					x.InFlight(1)
				}
				err := op(ctx, items[i])
				if x.InFlight != nil {
					x.InFlight(-1)
				}
				outcomes[i] = Outcome{Item: items[i], Err: err}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}
