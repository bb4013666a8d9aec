package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountEntityMappings(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"users.go", "orders.sql", "users_test.go", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.go"), 0o755))

	n, err := countEntityMappings(dir)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountEntityMappings_MissingDir(t *testing.T) {
	n, err := countEntityMappings(filepath.Join(t.TempDir(), "absent"))

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"serve", "precheck"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
