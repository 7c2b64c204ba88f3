package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "config.json"))
	s, err := m.Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, s.Server.Port)
	assert.Equal(t, "public", s.Server.PublicDir)
	assert.Equal(t, "pt-BR", s.TMDB.Language)
	assert.Equal(t, "filmes.m3u", s.Playlist.Path)
	assert.Equal(t, 20, s.Catalog.DefaultLimit)
	assert.Equal(t, 8, s.Enrichment.MaxConcurrent)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": 8080},
		"tmdb": {"apiKey": "file-key"},
		"playlist": {"path": "lista.m3u"}
	}`), 0o644))

	s, err := NewManager(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, "file-key", s.TMDB.APIKey)
	assert.Equal(t, "lista.m3u", s.Playlist.Path)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, 20, s.Catalog.DefaultLimit)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewManager(path).Load()
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("PORT", "9090")
	t.Setenv("CATALOG_DEFAULT_LIMIT", "50")
	t.Setenv("ENRICH_MAX_CONCURRENT", "not-a-number")

	s, err := NewManager(filepath.Join(t.TempDir(), "config.json")).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", s.TMDB.APIKey)
	assert.Equal(t, 9090, s.Server.Port)
	assert.Equal(t, 50, s.Catalog.DefaultLimit)
	// A non-numeric override is ignored, not fatal.
	assert.Equal(t, 8, s.Enrichment.MaxConcurrent)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m := NewManager(path)

	s := Defaults()
	s.Server.Port = 4000
	s.TMDB.APIKey = "saved-key"
	require.NoError(t, m.Save(s))

	// A fresh manager reads back what was saved.
	got, err := NewManager(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, got.Server.Port)
	assert.Equal(t, "saved-key", got.TMDB.APIKey)
}

func TestLoadCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	m := NewManager(path)

	first, err := m.Load()
	require.NoError(t, err)

	// Writing the file behind the manager's back does not change the cached
	// settings until Save refreshes them.
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"port":1}}`), 0o644))
	second, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, first.Server.Port, second.Server.Port)
}
