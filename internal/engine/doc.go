// Package engine contains the graph-aware bulk transfer core: the schema
// propagator that tolerates cyclic blueprint relations, the entity and
// auxiliary replicators, the bounded-concurrency bulk executor, and the
// coordinator that sequences them and aggregates per-item failures into a
// final report.
//
// The engine performs no local retries and draws a hard line through its
// error handling: authentication and schema listing failures are fatal and
// abort a run; everything else is an item-level failure that is recorded
// and skipped past. State already applied to the destination is never
// rolled back; correctness over re-runs comes from the destination's
// upsert semantics, not from transactionality here.
package engine
