package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/presskit/pkg/fd"
	"github.com/gitrdm/presskit/pkg/ilp"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presskit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 3
search:
  scale_limit: 500
  verify_toggle: true
optimizer:
  backend: fd
  press_limit: 12
  time_limit: 2s
observability:
  log_level: debug
`), 0o600))
	t.Setenv("PRESSKIT_WORKERS", "8")
	t.Setenv("PRESSKIT_METRICS", "1")
	t.Setenv("PRESSKIT_OPTIMIZER", "pb")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 500, cfg.Search.ScaleLimit)
	assert.True(t, cfg.Search.VerifyToggle)
	assert.Equal(t, "pb", cfg.Optimizer.Backend)
	assert.Equal(t, 12, cfg.Optimizer.PressLimit)
	assert.Equal(t, 2*time.Second, cfg.Optimizer.TimeLimit)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.Metrics)
}

func TestLoad_BadInputs(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("workers: [1"), 0o600))
	_, err := Load(bad)
	assert.Error(t, err)

	neg := filepath.Join(dir, "neg.yaml")
	require.NoError(t, os.WriteFile(neg, []byte("search:\n  counter_bound: -1\n"), 0o600))
	_, err = Load(neg)
	assert.ErrorContains(t, err, "search.counter_bound")

	backend := filepath.Join(dir, "backend.yaml")
	require.NoError(t, os.WriteFile(backend, []byte("optimizer:\n  backend: simplex\n"), 0o600))
	_, err = Load(backend)
	assert.ErrorContains(t, err, "optimizer.backend")

	t.Setenv("PRESSKIT_NODE_LIMIT", "lots")
	_, err = Load("")
	assert.ErrorContains(t, err, "PRESSKIT_NODE_LIMIT")
}

func TestOrchestrator(t *testing.T) {
	cfg := Default()
	cfg.Workers = 2
	cfg.Search.VerifyToggle = true
	cfg.Optimizer.PressLimit = 9

	oc, err := cfg.Orchestrator()
	require.NoError(t, err)
	assert.Equal(t, 2, oc.Workers)
	assert.True(t, oc.VerifyToggle)
	assert.Equal(t, 9, oc.PressLimit)
	assert.Equal(t, DefaultScaleLimit, oc.ScaleLimit)
	assert.NotNil(t, oc.Optimizer)
}

func TestOrchestrator_Backends(t *testing.T) {
	for _, b := range []string{"", "lp", "fd", "pb"} {
		cfg := Default()
		cfg.Optimizer.Backend = b
		oc, err := cfg.Orchestrator(ilp.WithMonitor(fd.NewMonitor()))
		require.NoError(t, err, b)
		assert.NotNil(t, oc.Optimizer, b)
	}

	cfg := Default()
	cfg.Optimizer.Backend = "simplex"
	_, err := cfg.Orchestrator()
	assert.Error(t, err)
}
