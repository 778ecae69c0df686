package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitDegraded, GetExitCode(NewExitError(ExitDegraded, "completed with 2 failures")))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("unclassified")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitDegraded, "inner", nil))
	assert.Equal(t, ExitDegraded, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	plain := NewExitError(ExitCommandError, "bad configuration")
	assert.Equal(t, "bad configuration", plain.Error())

	cause := errors.New("missing credentials")
	wrapped := WrapExitError(ExitCommandError, "bad configuration", cause)
	assert.Equal(t, "bad configuration: missing credentials", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestOutputFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]int{"attempted": 3}))
	assert.JSONEq(t, `{"status":"ok","data":{"attempted":3}}`, buf.String())

	buf.Reset()
	require.NoError(t, f.Error("boom"))
	assert.JSONEq(t, `{"status":"error","error":"boom"}`, buf.String())
}

func TestOutputFormatterText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success(nil))
	assert.Empty(t, buf.String())

	require.NoError(t, f.Error("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}
