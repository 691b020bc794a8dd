package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const published = `[.##.] (3) (1,3) (2) (2,3) (0,2) (0,1) {3,5,4,7}
[...#.] (0,2,3,4) (2,3) (0,4) (0,1,2) (1,2,3,4) {7,5,12,7,2}
[.###.#] (0,1,2,3,4) (0,3,4) (0,1,2,4,5) (1,2) {10,11,11,5,10,5}
`

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSolve_BothDomainsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(published), 0o600))

	out, _, err := run(t, "", "solve", path, "--verify-toggle", "--workers", "2")
	require.NoError(t, err)
	assert.Equal(t, "toggle: 7\ncounter: 33\n", out)
}

func TestSolve_StdinSingleDomainWithMetrics(t *testing.T) {
	out, errOut, err := run(t, published, "solve", "-", "--domain", "counter", "--metrics")
	require.NoError(t, err)
	assert.Equal(t, "counter: 33\n", out)
	assert.Contains(t, errOut, "presskit_solves_total")
	assert.Contains(t, errOut, "presskit_optimizer_nodes_total")
}

func TestSolve_OptimizerBackends(t *testing.T) {
	for _, b := range []string{"lp", "fd", "pb"} {
		out, _, err := run(t, published, "solve", "-", "--domain", "counter", "--optimizer", b)
		require.NoError(t, err, b)
		assert.Equal(t, "counter: 33\n", out, b)
	}

	_, _, err := run(t, published, "solve", "-", "--optimizer", "simplex")
	assert.ErrorContains(t, err, "optimizer.backend")
}

func TestSolve_Errors(t *testing.T) {
	_, _, err := run(t, "[.] (0) {x}", "solve", "-")
	assert.ErrorContains(t, err, "line 1")

	_, _, err = run(t, published, "solve", "-", "--domain", "sideways")
	assert.ErrorContains(t, err, "unknown domain")

	_, _, err = run(t, published, "solve", "-", "--workers", "-1")
	assert.ErrorContains(t, err, "workers")

	_, _, err = run(t, "[##] (0) (1)", "solve", "-", "--domain", "toggle", "--bound", "1")
	assert.ErrorContains(t, err, "machine 0")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "presskit version "+version+"\n", out)
}
