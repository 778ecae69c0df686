package engine

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catshift/internal/catalog"
	"github.com/roach88/catshift/internal/catalogtest"
)

func TestPropagateCyclicPair(t *testing.T) {
	dest := catalogtest.New()
	p := &Propagator{Dest: testClient(t, dest)}

	// service and team reference each other; no single-pass order works.
	blueprints := []catalog.Blueprint{
		{
			Identifier: "service",
			Relations:  map[string]catalog.Relation{"owner": {Target: "team"}},
		},
		{
			Identifier: "team",
			Relations:  map[string]catalog.Relation{"services": {Target: "service", Many: true}},
		},
	}

	result := p.Propagate(context.Background(), blueprints)
	assert.Empty(t, result.Failures)
	assert.Equal(t, []string{"service", "team"}, result.Completed)

	svc, ok := dest.Blueprint("service")
	require.True(t, ok)
	assert.Equal(t, "team", svc.Relations["owner"].Target)
	team, ok := dest.Blueprint("team")
	require.True(t, ok)
	assert.True(t, team.Relations["services"].Many)
}

func TestPropagateSelfLoop(t *testing.T) {
	dest := catalogtest.New()
	p := &Propagator{Dest: testClient(t, dest)}

	result := p.Propagate(context.Background(), []catalog.Blueprint{{
		Identifier: "service",
		Relations:  map[string]catalog.Relation{"parent": {Target: "service"}},
	}})

	assert.Empty(t, result.Failures)
	bp, ok := dest.Blueprint("service")
	require.True(t, ok)
	assert.Equal(t, "service", bp.Relations["parent"].Target)
}

func TestPropagateFailureIsolation(t *testing.T) {
	dest := catalogtest.New()
	dest.FailWrites("broken", http.StatusInternalServerError)
	p := &Propagator{Dest: testClient(t, dest)}

	blueprints := []catalog.Blueprint{
		{Identifier: "a"},
		{Identifier: "broken"},
		{Identifier: "b", Relations: map[string]catalog.Relation{"peer": {Target: "a"}}},
	}

	result := p.Propagate(context.Background(), blueprints)
	assert.Equal(t, []string{"a", "b"}, result.Completed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "broken", result.Failures[0].Identifier)
	assert.Equal(t, CollectionBlueprints, result.Failures[0].Collection)
	assert.Equal(t, http.StatusInternalServerError, result.Failures[0].Status)

	// The healthy blueprints completed both passes.
	b, ok := dest.Blueprint("b")
	require.True(t, ok)
	assert.Equal(t, "a", b.Relations["peer"].Target)
}

func TestPropagateLinkFailureKeepsShellCompleted(t *testing.T) {
	dest := catalogtest.New()
	p := &Propagator{Dest: testClient(t, dest)}

	// The link pass fails because "elsewhere" is not part of this run, but
	// the shell exists, so the blueprint still counts as completed.
	result := p.Propagate(context.Background(), []catalog.Blueprint{{
		Identifier: "service",
		Relations:  map[string]catalog.Relation{"peer": {Target: "elsewhere"}},
	}})

	assert.Equal(t, []string{"service"}, result.Completed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, http.StatusUnprocessableEntity, result.Failures[0].Status)
}
