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

func seedAuxTenant(t *testing.T, src *catalogtest.Server) {
	t.Helper()
	f := &catalogtest.Fixture{
		Blueprints: []catalogtest.FixtureBlueprint{
			{Identifier: "service"},
			{Identifier: "team"},
		},
		Scorecards: []catalogtest.FixtureScorecard{
			{Blueprint: "service", Identifier: "ownership"},
			{Blueprint: "team", Identifier: "staffing"},
		},
		Actions: []catalogtest.FixtureAction{
			{Blueprint: "service", Identifier: "restart"},
		},
		Teams: []catalogtest.FixtureTeam{
			{Name: "platform", Users: []string{"alice@example.com"}},
			{Name: "data"},
		},
	}
	f.Seed(src)
}

func TestAuxReplicateAll(t *testing.T) {
	src, dst := catalogtest.New(), catalogtest.New()
	seedAuxTenant(t, src)

	source, dest := testClient(t, src), testClient(t, dst)
	schema := (&Propagator{Dest: dest}).Propagate(context.Background(), mustListBlueprints(t, source))
	require.Empty(t, schema.Failures)

	a := &AuxReplicator{Source: source, Dest: dest}
	result := a.Replicate(context.Background(), nil)

	assert.Empty(t, result.Failures)
	assert.Equal(t, 2, result.Scorecards)
	assert.Equal(t, 1, result.Actions)
	assert.Equal(t, 2, result.Teams)
	assert.Equal(t, 2, dst.ScorecardCount())
	assert.Equal(t, 1, dst.ActionCount())
	assert.Equal(t, 2, dst.TeamCount())
}

func TestAuxReplicateFilterSkipsBlueprintObjectsNotTeams(t *testing.T) {
	src, dst := catalogtest.New(), catalogtest.New()
	seedAuxTenant(t, src)

	source, dest := testClient(t, src), testClient(t, dst)
	schema := (&Propagator{Dest: dest}).Propagate(context.Background(), mustListBlueprints(t, source))
	require.Empty(t, schema.Failures)

	a := &AuxReplicator{Source: source, Dest: dest}
	result := a.Replicate(context.Background(), func(bp string) bool { return bp == "service" })

	assert.Empty(t, result.Failures)
	assert.Equal(t, 1, result.Scorecards)
	assert.Equal(t, 1, result.Actions)
	assert.Equal(t, 2, result.Teams, "teams have no owning blueprint and always replicate")
}

func TestAuxReplicateAttemptsObjectsOfMissingBlueprint(t *testing.T) {
	src, dst := catalogtest.New(), catalogtest.New()
	seedAuxTenant(t, src)

	// Only "team" exists at the destination; the service scorecard and
	// action are still attempted and their rejections reported.
	source, dest := testClient(t, src), testClient(t, dst)
	schema := (&Propagator{Dest: dest}).Propagate(context.Background(), []catalog.Blueprint{{Identifier: "team"}})
	require.Empty(t, schema.Failures)

	a := &AuxReplicator{Source: source, Dest: dest}
	result := a.Replicate(context.Background(), nil)

	require.Len(t, result.Failures, 2)
	for _, f := range result.Failures {
		assert.Equal(t, http.StatusNotFound, f.Status)
	}
	assert.Equal(t, 2, result.Scorecards)
	assert.Equal(t, 1, dst.ScorecardCount(), "the team scorecard still landed")
}

func TestAuxReplicateDuplicatesReported(t *testing.T) {
	src, dst := catalogtest.New(), catalogtest.New()
	seedAuxTenant(t, src)

	source, dest := testClient(t, src), testClient(t, dst)
	schema := (&Propagator{Dest: dest}).Propagate(context.Background(), mustListBlueprints(t, source))
	require.Empty(t, schema.Failures)

	a := &AuxReplicator{Source: source, Dest: dest}
	first := a.Replicate(context.Background(), nil)
	require.Empty(t, first.Failures)

	// Creates are not upserts: the second pass reports every duplicate.
	second := a.Replicate(context.Background(), nil)
	assert.Len(t, second.Failures, 5)
	for _, f := range second.Failures {
		assert.Equal(t, http.StatusConflict, f.Status)
	}
}
