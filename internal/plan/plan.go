// Package plan loads optional migration plan files written in CUE.
//
// A plan shapes a run without touching code: which blueprints to include
// or exclude, the concurrency bound, and whether to skip the entity or
// auxiliary phases. CUE gives the plan file real validation: typos in
// field names and out-of-range bounds are rejected with file positions,
// not discovered mid-migration.
//
// A minimal plan file:
//
//	include: ["service", "deployment"]
//	bound:   10
package plan

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/catshift/internal/catalog"
)

// schema constrains plan files. Definitions are closed, so unknown fields
// are load errors rather than silently ignored knobs.
const schema = `
#Plan: {
	include?: [...string]
	exclude?: [...string]
	bound:            int & >=1 & <=50 | *5
	skipEntities:     bool | *false
	skipAuxiliary:    bool | *false
	deleteDependents: bool | *true
}
`

// Plan is a decoded, validated migration plan.
type Plan struct {
	Include          []string `json:"include,omitempty"`
	Exclude          []string `json:"exclude,omitempty"`
	Bound            int      `json:"bound"`
	SkipEntities     bool     `json:"skipEntities"`
	SkipAuxiliary    bool     `json:"skipAuxiliary"`
	DeleteDependents bool     `json:"deleteDependents"`
}

// Default is the plan used when no plan file is given: migrate everything
// with the default concurrency bound.
func Default() *Plan {
	return &Plan{Bound: 5, DeleteDependents: true}
}

// LoadError is a plan file problem, with the CUE source position when one
// is available.
type LoadError struct {
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string { return e.Message }

// Load reads, validates, and decodes a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Plan"))
	if err := schemaVal.Err(); err != nil {
		return nil, fmt.Errorf("internal plan schema: %w", err)
	}

	fileVal := ctx.CompileBytes(data, cue.Filename(path))
	if err := fileVal.Err(); err != nil {
		return nil, convertCUEError(err)
	}

	unified := schemaVal.Unify(fileVal)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, convertCUEError(err)
	}

	var p Plan
	if err := unified.Decode(&p); err != nil {
		return nil, convertCUEError(err)
	}
	return &p, nil
}

// Selects reports whether a blueprint identifier is admitted by the plan's
// include/exclude filters, under Unicode normalization.
func (p *Plan) Selects(blueprint string) bool {
	id := catalog.NormalizeIdentifier(blueprint)
	if len(p.Include) > 0 {
		found := false
		for _, inc := range p.Include {
			if catalog.SameIdentifier(inc, id) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, exc := range p.Exclude {
		if catalog.SameIdentifier(exc, id) {
			return false
		}
	}
	return true
}

func convertCUEError(err error) *LoadError {
	le := &LoadError{Message: strings.TrimSpace(cueerrors.Details(err, &cueerrors.Config{}))}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
