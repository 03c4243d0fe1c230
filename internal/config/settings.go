package config

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/toolgate-ai/toolgate/internal/logging"
)

// Settings are host-owned, read-only knobs consulted by the policy
// core. The engine never writes this file.
type Settings struct {
	// AutoApproveWriteGlobs lists glob patterns for files the host
	// configuration pre-approves for writing, checked before any
	// stored write rule.
	AutoApproveWriteGlobs []string `json:"autoApproveWriteGlobs,omitempty"`
	// LogLevel tunes the core's logger.
	LogLevel string `json:"logLevel,omitempty"`
}

// SettingsSource loads host settings once and serves them to callers.
type SettingsSource struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

// NewSettingsSource reads settings from path. A missing or malformed
// file yields empty settings; user files may carry comments and
// trailing commas (JSONC).
func NewSettingsSource(path string) *SettingsSource {
	s := &SettingsSource{path: path}
	s.Reload()
	return s
}

// Reload re-reads the settings file.
func (s *SettingsSource) Reload() {
	var loaded Settings

	data, err := os.ReadFile(s.path)
	if err == nil {
		if err := json.Unmarshal(jsonc.ToJSON(data), &loaded); err != nil {
			logging.Warn().Str("path", s.path).Err(err).Msg("settings file is not valid JSON, using defaults")
			loaded = Settings{}
		}
	}

	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
}

// WriteGlobs returns the host-configured auto-approve glob list.
func (s *SettingsSource) WriteGlobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.settings.AutoApproveWriteGlobs...)
}

// LogLevel returns the configured log level name.
func (s *SettingsSource) LogLevel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.LogLevel
}
