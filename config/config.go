// Package config owns the settings file and its environment overrides. API
// keys are configuration inputs only; nothing in the codebase carries a
// literal credential.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cinedeck/models"
)

type ServerSettings struct {
	ListenAddr string `json:"listenAddr"`
}

type TMDBSettings struct {
	APIKey       string `json:"apiKey"`
	Language     string `json:"language"`
	Region       string `json:"region"`
	ImageBaseURL string `json:"imageBaseUrl"`
}

type OMDBSettings struct {
	APIKey string `json:"apiKey"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

type CacheSettings struct {
	Dir string `json:"dir"`
}

type LoggingSettings struct {
	File       string `json:"file,omitempty"` // empty = stderr only
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
}

// CollectionSettings holds the watched-source mapping: which collection the
// watch-status filter treats as "seen". The source data was inconsistent
// about this, so it is an explicit choice here rather than a baked-in guess.
type CollectionSettings struct {
	WatchedSource string `json:"watchedSource"` // favorites | watchlist
}

type Settings struct {
	Server      ServerSettings     `json:"server"`
	TMDB        TMDBSettings       `json:"tmdb"`
	OMDB        OMDBSettings       `json:"omdb"`
	Database    DatabaseSettings   `json:"database"`
	Cache       CacheSettings      `json:"cache"`
	Logging     LoggingSettings    `json:"logging"`
	Collections CollectionSettings `json:"collections"`
}

func defaultSettings() *Settings {
	return &Settings{
		Server:      ServerSettings{ListenAddr: ":8484"},
		TMDB:        TMDBSettings{Language: "en-US", Region: "US", ImageBaseURL: "https://image.tmdb.org/t/p/w500"},
		Database:    DatabaseSettings{Path: "data/cinedeck.db"},
		Cache:       CacheSettings{Dir: "data/cache"},
		Logging:     LoggingSettings{MaxSizeMB: 20, MaxBackups: 3},
		Collections: CollectionSettings{WatchedSource: models.CollectionFavorites},
	}
}

// Manager loads and persists the settings file. Reads are cheap and cached;
// Save rewrites the whole file.
type Manager struct {
	path string

	mu       sync.RWMutex
	settings *Settings
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load returns the current settings, reading the file on first use and
// creating it with defaults when missing. Environment variables override the
// secrets and the listen address.
func (m *Manager) Load() (*Settings, error) {
	m.mu.RLock()
	if m.settings != nil {
		s := *m.settings
		m.mu.RUnlock()
		return &s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings != nil {
		s := *m.settings
		return &s, nil
	}

	settings := defaultSettings()
	buf, err := os.ReadFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := m.write(settings); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		if err := json.Unmarshal(buf, settings); err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}
	}

	applyEnvOverrides(settings)
	if settings.Collections.WatchedSource != models.CollectionFavorites &&
		settings.Collections.WatchedSource != models.CollectionWatchlist {
		settings.Collections.WatchedSource = models.CollectionFavorites
	}

	m.settings = settings
	s := *settings
	return &s, nil
}

// Save persists updated settings and refreshes the cached copy.
func (m *Manager) Save(settings *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.write(settings); err != nil {
		return err
	}
	copied := *settings
	m.settings = &copied
	return nil
}

func (m *Manager) write(settings *Settings) error {
	dir := filepath.Dir(m.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	buf, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(m.path, buf, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func applyEnvOverrides(settings *Settings) {
	if v := os.Getenv("CINEDECK_TMDB_API_KEY"); v != "" {
		settings.TMDB.APIKey = v
	}
	if v := os.Getenv("CINEDECK_OMDB_API_KEY"); v != "" {
		settings.OMDB.APIKey = v
	}
	if v := os.Getenv("CINEDECK_LISTEN_ADDR"); v != "" {
		settings.Server.ListenAddr = v
	}
	if v := os.Getenv("CINEDECK_DB_PATH"); v != "" {
		settings.Database.Path = v
	}
}
