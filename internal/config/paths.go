// Package config resolves on-disk locations for persisted approval
// state and exposes read-only host settings.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ApprovalsFileName is the file name of an approvals document, global
// and per-project alike.
const ApprovalsFileName = "approvals.json"

// ProjectConfigDir is the directory, relative to a project root, that
// holds the project's approvals document.
const ProjectConfigDir = ".toolgate"

// Paths contains the standard per-user paths.
type Paths struct {
	Config string // ~/.config/toolgate
	State  string // ~/.local/state/toolgate
}

// GetPaths resolves the standard paths, honoring XDG overrides.
func GetPaths() *Paths {
	return &Paths{
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), "toolgate"),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", defaultStateHome()), "toolgate"),
	}
}

// GlobalApprovalsPath is the location of the global approvals document.
func (p *Paths) GlobalApprovalsPath() string {
	return filepath.Join(p.Config, ApprovalsFileName)
}

// SettingsPath is the location of the host settings file.
func (p *Paths) SettingsPath() string {
	return filepath.Join(p.Config, "settings.json")
}

// LegacyStatePath is the location of the legacy flat key-value store
// read by the one-time migration.
func (p *Paths) LegacyStatePath() string {
	return filepath.Join(p.State, "state.json")
}

// ProjectApprovalsPath is the location of a project's approvals
// document under its root.
func ProjectApprovalsPath(root string) string {
	return filepath.Join(root, ProjectConfigDir, ApprovalsFileName)
}

// ProjectApprovalsRelPattern is the glob, relative to any project
// root, matching that project's approvals document.
func ProjectApprovalsRelPattern() string {
	return filepath.ToSlash(filepath.Join(ProjectConfigDir, ApprovalsFileName))
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("LOCALAPPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}
