package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMergesFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bondlib.yaml")
	content := []byte(`
solver:
  max_iterations: 250
  tolerance: 1.0e-12
logging:
  level: debug
  format: text
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("BONDLIB_SOLVER_MAX_ITERATIONS", "400")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Solver.MaxIterations)
	assert.Equal(t, 1e-12, cfg.Solver.Tolerance)
	assert.Equal(t, DefaultSolver.YieldTolerance, cfg.Solver.YieldTolerance)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solver:\n  rate_floor: -2\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_floor")
}

func TestLoadRequiresFilePathForFileOutput(t *testing.T) {
	t.Setenv("BONDLIB_LOGGING_OUTPUT", "file")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file_path")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from file")
}

func TestSetSolverAndClamp(t *testing.T) {
	prev := GetSolver()
	t.Cleanup(func() { SetSolver(prev) })

	s := DefaultSolver
	s.MaxIterations = 7
	SetSolver(s)
	assert.Equal(t, 7, GetSolver().MaxIterations)

	assert.Equal(t, s.RateFloor, s.Clamp(-5))
	assert.Equal(t, s.RateCeiling, s.Clamp(50))
	assert.Equal(t, 0.03, s.Clamp(0.03))
}
