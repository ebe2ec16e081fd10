// Package config resolves arb's filesystem paths and update settings.
package config

import (
	"os"
	"path/filepath"
)

// DataDir returns the arb data directory, honoring XDG_DATA_HOME.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "arb"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "arb"), nil
}

// ConfigHome returns the arb config directory, honoring XDG_CONFIG_HOME.
func ConfigHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "arb"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "arb"), nil
}

// ZshrcPath returns the path to the user's .zshrc, respecting ZDOTDIR.
func ZshrcPath() (string, error) {
	if zdotdir := os.Getenv("ZDOTDIR"); zdotdir != "" {
		return filepath.Join(zdotdir, ".zshrc"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".zshrc"), nil
}

// UpdatesRoot returns the root directory holding staged updates.
func UpdatesRoot(dataDir string) string {
	return filepath.Join(dataDir, "updates")
}

// PendingDir returns the directory holding the current staged update.
func PendingDir(dataDir string) string {
	return filepath.Join(UpdatesRoot(dataDir), "pending")
}

// PendingMarkerPath returns the path of the pending-update marker file.
func PendingMarkerPath(dataDir string) string {
	return filepath.Join(PendingDir(dataDir), "pending-update.json")
}

// CheckRecordPath returns the path of the last-update-check record.
func CheckRecordPath(dataDir string) string {
	return filepath.Join(dataDir, "check_update")
}
