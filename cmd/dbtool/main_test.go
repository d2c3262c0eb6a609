package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"init"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestSeedFlags(t *testing.T) {
	t.Setenv("SEED_PATH", "custom/seed.json")

	cmd := newRootCmd()
	seed, _, err := cmd.Find([]string{"seed"})
	require.NoError(t, err)

	f := seed.Flags().Lookup("file")
	require.NotNil(t, f)
	assert.Equal(t, "custom/seed.json", f.DefValue)
	assert.Equal(t, "f", f.Shorthand)
}
