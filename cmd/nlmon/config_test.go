package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Family)
	assert.Equal(t, 1<<16, cfg.BufferSize)
	assert.True(t, cfg.ParseAttrs)
	assert.Empty(t, cfg.Groups)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nlmon.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
family = 16
groups = [1, 3]
buffer_size = 8192
parse_attrs = false
attrs_offset = 4
pretty = true
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Family)
	assert.Equal(t, []uint32{1, 3}, cfg.Groups)
	assert.Equal(t, 8192, cfg.BufferSize)
	assert.False(t, cfg.ParseAttrs)
	assert.Equal(t, 4, cfg.AttrsOffset)
	assert.True(t, cfg.Pretty)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nlmon.toml")
	require.NoError(t, os.WriteFile(path, []byte("buffer_size = -1\n"), 0o644))
	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestParseGroups(t *testing.T) {
	groups, err := parseGroups("1, 3,5")
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 5}, groups)

	_, err = parseGroups("1,x")
	assert.Error(t, err)
}
