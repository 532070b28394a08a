package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFilesPresent(t *testing.T) {
	t.Parallel()

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, ".openagents", cfg.Options.DataDirectory)
	require.Contains(t, cfg.Providers, "local")
	require.Equal(t, 10, cfg.HillClimber.AutoRoutingEveryN)
}

func TestLoad_ProjectFileMergesOntoDefaults(t *testing.T) {
	t.Parallel()

	cwd := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cwd, ".openagents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ProjectConfigPath), []byte(`{
		"providers": {"claude": {"kind": "anthropic", "model": "claude-sonnet"}},
		"archivist": {"min_confidence": 0.8}
	}`), 0o644))

	cfg, err := Load(cwd)
	require.NoError(t, err)

	require.Contains(t, cfg.Providers, "local", "default provider survives an additive overlay")
	require.Contains(t, cfg.Providers, "claude")
	require.Equal(t, ProviderKindAnthropic, cfg.Providers["claude"].Kind)
	require.Equal(t, 0.8, cfg.Archivist.MinConfidence)
	require.Equal(t, 2, cfg.Archivist.MinOccurrences, "fields the overlay doesn't mention keep their default")
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	t.Parallel()

	cwd := t.TempDir()
	cfg := Default()
	cfg.Options.Debug = true
	require.NoError(t, Save(cwd, cfg))

	reloaded, err := Load(cwd)
	require.NoError(t, err)
	require.True(t, reloaded.Options.Debug)
}

func TestLoad_ExportsConfiguredEnvironmentVariables(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cwd, ".openagents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ProjectConfigPath), []byte(`{
		"options": {"env": {"env": {"OPENAGENTS_TEST_VAR": "patched"}}}
	}`), 0o644))
	t.Cleanup(func() { os.Unsetenv("OPENAGENTS_TEST_VAR") })

	_, err := Load(cwd)
	require.NoError(t, err)
	require.Equal(t, "patched", os.Getenv("OPENAGENTS_TEST_VAR"))
}

func TestLoad_RejectsInvalidEnvironmentVariableName(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cwd, ".openagents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ProjectConfigPath), []byte(`{
		"options": {"env": {"env": {"1BAD": "x"}}}
	}`), 0o644))

	_, err := Load(cwd)
	require.Error(t, err)
}

func TestFlexibleAPIKey_UnmarshalsStringOrObject(t *testing.T) {
	t.Parallel()

	var pc ProviderConfig
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"openai_shape","api_key":"sk-test"}`), &pc))
	require.Equal(t, "sk-test", pc.APIKey.String())

	var pc2 ProviderConfig
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"openai_shape","api_key":{"vault_ref":"secret/x"}}`), &pc2))
	require.Contains(t, pc2.APIKey.String(), "vault_ref")
}
