// Package catalog defines the typed records exchanged with the remote
// catalog management API: blueprints (schema layer), entities (instance
// layer), and the auxiliary objects attached to blueprints.
//
// The API's payloads are open-ended in places (property schemas, scorecard
// rules, action invocation methods); those fields are carried as raw JSON so
// a record fetched from one tenant can be written to another without this
// tool needing to understand every sub-shape.
package catalog

import (
	"encoding/json"
	"fmt"
)

// Blueprint is a typed record definition. Blueprints form a directed graph
// via Relations; the graph may contain cycles and self-loops.
type Blueprint struct {
	Identifier            string                     `json:"identifier"`
	Title                 string                     `json:"title,omitempty"`
	Icon                  *string                    `json:"icon,omitempty"`
	Description           *string                    `json:"description,omitempty"`
	Schema                json.RawMessage            `json:"schema,omitempty"`
	Relations             map[string]Relation        `json:"relations,omitempty"`
	MirrorProperties      map[string]MirrorProperty  `json:"mirrorProperties,omitempty"`
	CalculationProperties map[string]json.RawMessage `json:"calculationProperties,omitempty"`
}

// Relation is a typed, directed reference from one blueprint to another.
type Relation struct {
	Title    string `json:"title,omitempty"`
	Target   string `json:"target"`
	Many     bool   `json:"many,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// MirrorProperty surfaces a property of a related entity locally by
// following a relation path.
type MirrorProperty struct {
	Title string `json:"title,omitempty"`
	Path  string `json:"path"`
}

// Shell returns a copy of the blueprint with relations and mirror
// properties stripped. A shell never references another blueprint, so it
// can be created at a destination in any order, before its relation
// targets exist there.
func (b Blueprint) Shell() Blueprint {
	shell := b
	shell.Relations = nil
	shell.MirrorProperties = nil
	return shell
}

// RelationTargets returns the identifiers of every blueprint this
// blueprint's relations point at. Order is not guaranteed.
func (b Blueprint) RelationTargets() []string {
	targets := make([]string, 0, len(b.Relations))
	for _, rel := range b.Relations {
		targets = append(targets, rel.Target)
	}
	return targets
}

// Entity is a data instance conforming to a blueprint. Identifier is unique
// within the blueprint. Icon is a pointer so that a null icon in a source
// record is dropped entirely on re-marshal; some destinations reject an
// explicit null there.
type Entity struct {
	Identifier string                   `json:"identifier"`
	Title      string                   `json:"title,omitempty"`
	Icon       *string                  `json:"icon,omitempty"`
	Blueprint  string                   `json:"blueprint,omitempty"`
	Team       json.RawMessage          `json:"team,omitempty"`
	Properties map[string]any           `json:"properties,omitempty"`
	Relations  map[string]RelationValue `json:"relations,omitempty"`
}

// RelationValue holds the identifiers an entity relation points at.
//
// On the wire a single-cardinality relation is a bare string (or null) and
// a many-cardinality relation is an array of strings. Both decode into the
// same value and re-encode in their original shape.
type RelationValue struct {
	Identifiers []string
	Many        bool
}

// UnmarshalJSON accepts null, a single identifier string, or an array of
// identifier strings.
func (v *RelationValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = RelationValue{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("relation value: %w", err)
		}
		*v = RelationValue{Identifiers: ids, Many: true}
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("relation value: %w", err)
	}
	*v = RelationValue{Identifiers: []string{id}}
	return nil
}

// MarshalJSON re-encodes in the original wire shape: array for many,
// bare string for single, null for an empty single value.
func (v RelationValue) MarshalJSON() ([]byte, error) {
	if v.Many {
		if v.Identifiers == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.Identifiers)
	}
	if len(v.Identifiers) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(v.Identifiers[0])
}

// Scorecard is a rule-based check attached to a blueprint. Rules are
// carried opaquely; only the owning blueprint matters for replication
// ordering.
type Scorecard struct {
	Identifier string          `json:"identifier"`
	Title      string          `json:"title,omitempty"`
	Blueprint  string          `json:"blueprint,omitempty"`
	Levels     json.RawMessage `json:"levels,omitempty"`
	Rules      json.RawMessage `json:"rules,omitempty"`
}

// Action is an invocable operation attached to a blueprint. The trigger and
// invocation method shapes vary per backend and are carried opaquely.
type Action struct {
	Identifier       string          `json:"identifier"`
	Title            string          `json:"title,omitempty"`
	Blueprint        string          `json:"blueprint,omitempty"`
	Trigger          json.RawMessage `json:"trigger,omitempty"`
	InvocationMethod json.RawMessage `json:"invocationMethod,omitempty"`
	UserInputs       json.RawMessage `json:"userInputs,omitempty"`
}

// Team is a named group of users, independent of blueprints.
type Team struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Users       []string `json:"users,omitempty"`
}

// Run statuses reported by the actions API. A run starts IN_PROGRESS and
// transitions monotonically to a terminal status.
const (
	RunStatusInProgress = "IN_PROGRESS"
	RunStatusSuccess    = "SUCCESS"
	RunStatusFailure    = "FAILURE"
)

// ActionRun is the ephemeral record created when an action is invoked.
type ActionRun struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Terminal reports whether the run has reached a final status.
func (r ActionRun) Terminal() bool {
	return r.Status != "" && r.Status != RunStatusInProgress
}

// SearchQuery is the body of an entity search request.
type SearchQuery struct {
	Combinator string       `json:"combinator"`
	Rules      []SearchRule `json:"rules"`
}

// SearchRule is a single predicate within a search query.
type SearchRule struct {
	Property string `json:"property"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// BlueprintSearch builds the query that matches every entity of a single
// blueprint, using the service's virtual $blueprint property.
func BlueprintSearch(blueprint string) SearchQuery {
	return SearchQuery{
		Combinator: "and",
		Rules: []SearchRule{
			{Property: "$blueprint", Operator: "=", Value: blueprint},
		},
	}
}
