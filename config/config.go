package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Settings is the full process configuration. Values come from the JSON
// settings file when present, with environment variables taking precedence.
type Settings struct {
	Server     ServerSettings     `json:"server"`
	TMDB       TMDBSettings       `json:"tmdb"`
	Playlist   PlaylistSettings   `json:"playlist"`
	Catalog    CatalogSettings    `json:"catalog"`
	Enrichment EnrichmentSettings `json:"enrichment"`
}

type ServerSettings struct {
	Port      int    `json:"port"`
	PublicDir string `json:"publicDir"`
	LogFile   string `json:"logFile"`
}

type TMDBSettings struct {
	APIKey   string `json:"apiKey"`
	Language string `json:"language"`
}

type PlaylistSettings struct {
	Path string `json:"path"`
}

type CatalogSettings struct {
	// DefaultLimit caps featured/random/search result sizes when the caller
	// does not supply a usable count.
	DefaultLimit int `json:"defaultLimit"`
}

type EnrichmentSettings struct {
	// MaxConcurrent bounds simultaneous outbound metadata calls per batch.
	MaxConcurrent int    `json:"maxConcurrent"`
	CacheDir      string `json:"cacheDir"`
	CacheTTLHours int    `json:"cacheTtlHours"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		Server:     ServerSettings{Port: 3000, PublicDir: "public"},
		TMDB:       TMDBSettings{Language: "pt-BR"},
		Playlist:   PlaylistSettings{Path: "filmes.m3u"},
		Catalog:    CatalogSettings{DefaultLimit: 20},
		Enrichment: EnrichmentSettings{MaxConcurrent: 8, CacheDir: "cache", CacheTTLHours: 24},
	}
}

// Manager loads and saves the settings file.
type Manager struct {
	path string

	mu     sync.Mutex
	cached *Settings
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads the settings file, falling back to defaults when it does not
// exist, and applies environment overrides. The result is cached until Save.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil {
		return *m.cached, nil
	}

	s := Defaults()
	data, err := os.ReadFile(m.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse settings file %q: %w", m.path, err)
		}
	case os.IsNotExist(err):
		// First run: defaults + env only.
	default:
		return Settings{}, fmt.Errorf("read settings file %q: %w", m.path, err)
	}

	applyEnv(&s)
	m.cached = &s
	return s, nil
}

// Save persists the settings and refreshes the cache.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings file %q: %w", m.path, err)
	}
	m.cached = &s
	return nil
}

func applyEnv(s *Settings) {
	setString(&s.TMDB.APIKey, "TMDB_API_KEY")
	setString(&s.TMDB.Language, "TMDB_LANGUAGE")
	setString(&s.Playlist.Path, "PLAYLIST_PATH")
	setString(&s.Server.PublicDir, "PUBLIC_DIR")
	setString(&s.Server.LogFile, "LOG_FILE")
	setInt(&s.Server.Port, "PORT")
	setInt(&s.Catalog.DefaultLimit, "CATALOG_DEFAULT_LIMIT")
	setInt(&s.Enrichment.MaxConcurrent, "ENRICH_MAX_CONCURRENT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
