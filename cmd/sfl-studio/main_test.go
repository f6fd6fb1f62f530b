package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := make(map[string]bool)
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["catalog"])
	assert.True(t, names["version"])
}

func TestCatalogModelsUnknownProvider(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"catalog", "models", "skynet"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestCatalogProvidersRuns(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"catalog", "providers"})
	require.NoError(t, root.Execute())
}
