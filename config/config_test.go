package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsora/sqltpl/config"
)

func TestLoadMissingFileYieldsZeroValue(t *testing.T) {
	f, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "", f.DefaultURI)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqltpl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_uri: postgres://localhost/test\nmock_path: ./mocks\n"), 0o644))

	f, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/test", f.DefaultURI)
	assert.Equal(t, "./mocks", f.MockPath)
}
