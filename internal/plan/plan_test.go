package plan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	p, err := Load(writePlan(t, `include: ["service"]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"service"}, p.Include)
	assert.Equal(t, 5, p.Bound)
	assert.False(t, p.SkipEntities)
	assert.False(t, p.SkipAuxiliary)
	assert.True(t, p.DeleteDependents)
}

func TestLoadFullPlan(t *testing.T) {
	p, err := Load(writePlan(t, `
include: ["service", "deployment"]
exclude: ["deployment"]
bound:            20
skipEntities:     true
skipAuxiliary:    true
deleteDependents: false
`))
	require.NoError(t, err)

	assert.Equal(t, 20, p.Bound)
	assert.True(t, p.SkipEntities)
	assert.True(t, p.SkipAuxiliary)
	assert.False(t, p.DeleteDependents)
}

func TestLoadEmptyPlanIsAllDefaults(t *testing.T) {
	p, err := Load(writePlan(t, ``))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoadRejectsBoundOutOfRange(t *testing.T) {
	for _, content := range []string{`bound: 0`, `bound: 51`, `bound: -3`} {
		_, err := Load(writePlan(t, content))
		require.Error(t, err, content)

		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.NotEmpty(t, loadErr.Message)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	_, err := Load(writePlan(t, `includes: ["service"]`))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
}

func TestLoadRejectsWrongType(t *testing.T) {
	_, err := Load(writePlan(t, `bound: "five"`))
	require.Error(t, err)
}

func TestLoadSyntaxErrorHasPosition(t *testing.T) {
	_, err := Load(writePlan(t, `include: [`))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.True(t, loadErr.Pos.IsValid(), "syntax errors should carry a file position")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read plan file")
}

func TestSelects(t *testing.T) {
	everything := Default()
	assert.True(t, everything.Selects("anything"))

	included := &Plan{Include: []string{"service", "team"}}
	assert.True(t, included.Selects("service"))
	assert.False(t, included.Selects("deployment"))

	excluded := &Plan{Exclude: []string{"team"}}
	assert.True(t, excluded.Selects("service"))
	assert.False(t, excluded.Selects("team"))

	both := &Plan{Include: []string{"service", "team"}, Exclude: []string{"team"}}
	assert.True(t, both.Selects("service"))
	assert.False(t, both.Selects("team"), "exclude wins over include")
}

func TestSelectsNormalizesIdentifiers(t *testing.T) {
	p := &Plan{Include: []string{"caf\u00e9"}}
	assert.True(t, p.Selects("cafe\u0301"))
}
