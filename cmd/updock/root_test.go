package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(rootCmd, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "updock")
}

func TestCheckInvalidComposeYAMLIsNonFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	restore := SetFs(fs)
	defer restore()

	broken := "services:\n\t\tbad: [unclosed\n"
	require.NoError(t, afero.WriteFile(fs, "docker-compose.yml", []byte(broken), 0o644))

	srv := newRegistryServer(t, nil)

	args := append([]string{"check", "--dockerfile-check=false"}, registryFlags(srv)...)
	output, err := executeCommand(newTestRoot(), args...)
	require.NoError(t, err)
	assert.Contains(t, output, "Total updates: 0")

	content, err := afero.ReadFile(fs, "docker-compose.yml")
	require.NoError(t, err)
	assert.Equal(t, broken, string(content))
}
