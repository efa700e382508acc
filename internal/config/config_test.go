package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// chdir moves into a fresh directory so no stray crimescope.yaml or .env is
// picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("test_size: 0.3\ncv_folds: 3\nlisten_addr: \":9000\"\n"), 0o644))
	t.Setenv("CRIMESCOPE_CV_FOLDS", "4")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.3, c.TestSize)
	assert.Equal(t, 4, c.CVFolds, "env overrides file")
	assert.Equal(t, ":9000", c.ListenAddr)
	assert.Equal(t, int64(42), c.RandomState)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CRIMESCOPE_RANDOM_STATE=7\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CRIMESCOPE_RANDOM_STATE") })

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.RandomState)
}

func TestLoad_Invalid(t *testing.T) {
	chdir(t)
	t.Setenv("CRIMESCOPE_TEST_SIZE", "1.5")

	_, err := Load("")
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "conf", DefaultFile)

	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))
	require.NoError(t, WriteDefault(path, true))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestRunConfig(t *testing.T) {
	c := Default()
	c.Workers = 3
	rc := c.RunConfig()
	assert.Equal(t, c.DataPath, rc.DataPath)
	assert.Equal(t, 0.44, rc.TestSize)
	assert.Equal(t, 3, rc.Workers)
}
