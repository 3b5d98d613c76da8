package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestDefault(t *testing.T) {
	config, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 30, config.Server.Room.TickRate)
	assert.Equal(t, 20, config.Server.Room.SnapshotRate)
	assert.Equal(t, 1200, config.Server.Matchmaking.DefaultRating)
	assert.NotEmpty(t, config.Server.Matchmaking.Regions)
}

func TestOverride(t *testing.T) {
	path := writeFile(t, "override.yaml", `
server:
  room:
    maxClients: 32
`)

	config, err := Process([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 32, config.Server.Room.MaxClients)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30, config.Server.Room.TickRate)
}

func TestJSON(t *testing.T) {
	path := writeFile(t, "override.json", `{"server": {"redis": {"enabled": true, "address": "redis:6379"}}}`)

	config, err := Process([]string{path})
	require.NoError(t, err)
	assert.True(t, config.Server.Redis.Enabled)
	assert.Equal(t, "redis:6379", config.Server.Redis.Address)
}

func TestLaterFileWins(t *testing.T) {
	a := writeFile(t, "a.yaml", `
server:
  serverDescription: "first"
`)
	b := writeFile(t, "b.yaml", `
server:
  serverDescription: "second"
`)

	config, err := Process([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, "second", config.Server.ServerDescription)
}

func TestInvalid(t *testing.T) {
	path := writeFile(t, "bad.yaml", `
server:
  room:
    tickRate: 0
`)

	_, err := Process([]string{path})
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := Process([]string{"does-not-exist.yaml"})
	assert.Error(t, err)
}
