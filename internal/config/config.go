// Package config holds the persisted plugin settings: ingestion filter
// toggles and the storage budget. Settings are read on every ingestion
// and eviction decision and mutated only through explicit setters.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Defaults.
const (
	DefaultFilterOngoing   = true
	DefaultFilterTransport = true
	DefaultLogProgress     = true
	DefaultWorkers         = 4
	DefaultQueueSize       = 256
	DefaultLogLevel        = "info"
)

// Config is one coherent snapshot of the plugin settings.
type Config struct {
	// FilterOngoing drops ongoing (non-dismissible) notifications
	// before normalization.
	FilterOngoing bool `json:"filter_ongoing"`

	// FilterTransport drops media transport notifications before
	// normalization.
	FilterTransport bool `json:"filter_transport"`

	// LogProgress controls whether progress-bearing notifications are
	// ingested at all. When false, records carrying progress extras
	// are dropped the same way filtered categories are.
	LogProgress bool `json:"log_progress"`

	// StorageLimitMB caps the aggregate stored text size. Zero or
	// negative means unlimited.
	StorageLimitMB float64 `json:"storage_limit_mb"`

	// Workers bounds the ingestion worker pool.
	Workers int `json:"workers,omitempty"`

	// QueueSize bounds the ingestion queue. Events arriving while the
	// queue is full are dropped and logged.
	QueueSize int `json:"queue_size,omitempty"`

	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`

	// DisabledTools lists bridge tool names to exclude from
	// registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// Default returns the hardcoded default configuration.
func Default() Config {
	return Config{
		FilterOngoing:   DefaultFilterOngoing,
		FilterTransport: DefaultFilterTransport,
		LogProgress:     DefaultLogProgress,
		StorageLimitMB:  -1,
		Workers:         DefaultWorkers,
		QueueSize:       DefaultQueueSize,
		LogLevel:        DefaultLogLevel,
	}
}

// StorageLimitBytes converts the configured limit to bytes. Returns -1
// when no limit is configured.
func (c Config) StorageLimitBytes() int64 {
	if c.StorageLimitMB <= 0 {
		return -1
	}
	return int64(c.StorageLimitMB * 1024 * 1024)
}

// HasStorageLimit reports whether a storage budget is configured.
func (c Config) HasStorageLimit() bool {
	return c.StorageLimitMB > 0
}

// fileConfig mirrors Config with pointer fields so an absent key can be
// told apart from an explicit false/zero when merging over defaults.
type fileConfig struct {
	FilterOngoing   *bool    `json:"filter_ongoing,omitempty"`
	FilterTransport *bool    `json:"filter_transport,omitempty"`
	LogProgress     *bool    `json:"log_progress,omitempty"`
	StorageLimitMB  *float64 `json:"storage_limit_mb,omitempty"`
	Workers         *int     `json:"workers,omitempty"`
	QueueSize       *int     `json:"queue_size,omitempty"`
	LogLevel        *string  `json:"log_level,omitempty"`
	DisabledTools   []string `json:"disabled_tools,omitempty"`
}

// merge applies file values over defaults.
func merge(base Config, overlay fileConfig) Config {
	if overlay.FilterOngoing != nil {
		base.FilterOngoing = *overlay.FilterOngoing
	}
	if overlay.FilterTransport != nil {
		base.FilterTransport = *overlay.FilterTransport
	}
	if overlay.LogProgress != nil {
		base.LogProgress = *overlay.LogProgress
	}
	if overlay.StorageLimitMB != nil {
		base.StorageLimitMB = *overlay.StorageLimitMB
	}
	if overlay.Workers != nil && *overlay.Workers > 0 {
		base.Workers = *overlay.Workers
	}
	if overlay.QueueSize != nil && *overlay.QueueSize > 0 {
		base.QueueSize = *overlay.QueueSize
	}
	if overlay.LogLevel != nil && *overlay.LogLevel != "" {
		base.LogLevel = *overlay.LogLevel
	}
	if len(overlay.DisabledTools) > 0 {
		base.DisabledTools = overlay.DisabledTools
	}
	return base
}

// Manager owns the settings file for a base directory. It is created
// lazily on first access per process and safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	path    string
	cfg     Config
	loadErr error
}

// NewManager loads baseDir/config.json. A missing file yields defaults;
// a corrupt or unreadable file also yields defaults, with the failure
// retained for the caller to log (settings must never fail the caller).
func NewManager(baseDir string) *Manager {
	m := &Manager{
		path: filepath.Join(baseDir, "config.json"),
		cfg:  Default(),
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.loadErr = err
		}
		return m
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		m.loadErr = err
		return m
	}

	m.cfg = merge(Default(), fc)
	return m
}

// LoadErr returns the swallowed load failure, if any.
func (m *Manager) LoadErr() error {
	return m.loadErr
}

// Get returns the current settings snapshot.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Update mutates the settings through fn and persists the result. The
// in-memory snapshot is updated even when persisting fails, so the
// running process honors the change either way.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.cfg)

	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o600)
}
