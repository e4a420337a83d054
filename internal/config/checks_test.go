package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndLoadChecksTOMLRoundTrip(t *testing.T) {
	cc := CustomChecks{
		Cdps:         1000,
		TriggersPht:  42,
		RdhVersion:   7,
		ChipOrdersOb: [][]uint8{{0, 1, 2}, {3, 4, 5}},
		ChipCountOb:  7,
	}

	data, err := GenerateChecksTOML(cc)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	dir := t.TempDir()
	path := filepath.Join(dir, "checks.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadChecksTOML(path)
	require.NoError(t, err)
	require.Equal(t, cc, got)
}

func TestLoadChecksTOMLMissingFile(t *testing.T) {
	_, err := LoadChecksTOML(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoadChecksTOMLMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not [ valid toml"), 0o644))

	_, err := LoadChecksTOML(path)
	require.Error(t, err)
}

func TestLoadChecksTOMLPartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.toml")
	require.NoError(t, os.WriteFile(path, []byte("cdps = 500\n"), 0o644))

	cc, err := LoadChecksTOML(path)
	require.NoError(t, err)
	require.Equal(t, uint32(500), cc.Cdps)
	require.Zero(t, cc.TriggersPht)
}
