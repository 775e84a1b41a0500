package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fixpoint "github.com/njchilds90/gofixpoint"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "fixpoint dev\n", out)
}

func TestSolve_Text(t *testing.T) {
	out, err := run(t, "solve", "x**2 - 2")
	require.NoError(t, err)
	assert.Contains(t, out, "1.41 (2 iterations)")
	assert.Contains(t, out, "-1.41 (2 iterations)")
}

func TestSolve_JSON(t *testing.T) {
	out, err := run(t, "solve", "x**2 - 2", "--json", "--max-iter", "50")
	require.NoError(t, err)

	var body struct {
		Result []fixpoint.Root `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Len(t, body.Result, 4)
}

func TestSolve_DedupeFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixpoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  dedupe: true\n"), 0o644))

	out, err := run(t, "solve", "x**2 - 2", "--json", "--config", path)
	require.NoError(t, err)
	var body struct {
		Result []fixpoint.Root `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Len(t, body.Result, 2)
}

func TestSolve_Errors(t *testing.T) {
	_, err := run(t, "solve", "x**")
	assert.ErrorIs(t, err, fixpoint.ErrParse)

	_, err = run(t, "solve", "x**2 - 2", "--tolerance=-1")
	assert.ErrorIs(t, err, fixpoint.ErrInvalidArgument)

	_, err = run(t, "solve")
	assert.Error(t, err)
}

func TestAnalyze_Text(t *testing.T) {
	out, err := run(t, "analyze", "x**2 - 2")
	require.NoError(t, err)
	assert.Contains(t, out, "f'(x)   = 2*x")
	assert.Contains(t, out, "signs: [- -]")
	assert.Contains(t, out, "(raw fallback)")
}

func TestAnalyze_JSON(t *testing.T) {
	out, err := run(t, "analyze", "x**2 - 2", "--json")
	require.NoError(t, err)
	var rep fixpoint.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "x^2 - 2", rep.Function)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixpoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracing:\n  exporter: jaeger\n"), 0o644))
	_, err := run(t, "solve", "x**2 - 2", "--config", path)
	assert.Error(t, err)
}
