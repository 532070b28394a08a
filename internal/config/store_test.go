package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore_SetGetRemoveField_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "config.json"))

	require.False(t, HasField(store, "hill_climber.auto_routing_every_n"))

	require.NoError(t, SetField(store, "hill_climber.auto_routing_every_n", 7.0))
	require.True(t, HasField(store, "hill_climber.auto_routing_every_n"))

	data, err := store.Read()
	require.NoError(t, err)
	require.JSONEq(t, `{"hill_climber":{"auto_routing_every_n":7}}`, string(data))

	require.NoError(t, RemoveField(store, "hill_climber.auto_routing_every_n"))
	require.False(t, HasField(store, "hill_climber.auto_routing_every_n"))
}

func TestFileStore_Read_MissingFileYieldsEmptyObject(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	data, err := store.Read()
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
}
