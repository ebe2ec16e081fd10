package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Provider selects how updates are delivered.
type Provider string

const (
	// ProviderAuto lets the updater detect whether the installation is
	// Homebrew-managed and route accordingly.
	ProviderAuto Provider = ""
	// ProviderBrew forces delegation to Homebrew.
	ProviderBrew Provider = "brew"
	// ProviderDirect forces the direct GitHub download path.
	ProviderDirect Provider = "direct"
)

// DefaultCheckIntervalSeconds is how often background update checks
// consider the last recorded check stale (24 hours).
const DefaultCheckIntervalSeconds = int64(24 * 60 * 60)

// ErrInvalidProvider indicates an unrecognized update provider value.
var ErrInvalidProvider = errors.New("invalid update provider")

// BuildInfo carries the build-time identity of the running binary.
// It is constructed once in main and passed down; nothing reads it
// from globals.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Settings is the fully resolved update configuration. Values are
// resolved once at command entry with a fixed precedence: environment
// override, then the arb.toml settings file, then the default.
type Settings struct {
	Provider             Provider
	TargetApp            string // ARB_UPDATE_TARGET_APP; empty means auto-resolve
	BinOverride          string // ARB_BIN; preferred CLI binary for the shell wrapper
	CheckIntervalSeconds int64
	DataDir              string
}

// fileSettings is the on-disk arb.toml shape. Only the update-related
// keys are modeled here; the emulator reads its own configuration.
type fileSettings struct {
	Update struct {
		Provider             string `toml:"provider"`
		CheckIntervalSeconds int64  `toml:"check_interval_seconds"`
	} `toml:"update"`
}

// ResolveSettings builds a Settings value from the environment and the
// optional settings file. Invalid explicit overrides are reported as
// errors rather than silently ignored.
func ResolveSettings() (*Settings, error) {
	dataDir, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}

	s := &Settings{
		CheckIntervalSeconds: DefaultCheckIntervalSeconds,
		DataDir:              dataDir,
	}

	if configHome, err := ConfigHome(); err == nil {
		if fs, err := loadFileSettings(filepath.Join(configHome, "arb.toml")); err == nil && fs != nil {
			if fs.Update.Provider != "" {
				p, err := parseProvider(fs.Update.Provider)
				if err != nil {
					return nil, fmt.Errorf("arb.toml: %w", err)
				}
				s.Provider = p
			}
			if fs.Update.CheckIntervalSeconds > 0 {
				s.CheckIntervalSeconds = fs.Update.CheckIntervalSeconds
			}
		}
	}

	if v := os.Getenv("ARB_UPDATE_PROVIDER"); v != "" {
		p, err := parseProvider(v)
		if err != nil {
			return nil, fmt.Errorf("ARB_UPDATE_PROVIDER: %w", err)
		}
		s.Provider = p
	}
	s.TargetApp = os.Getenv("ARB_UPDATE_TARGET_APP")
	s.BinOverride = os.Getenv("ARB_BIN")

	return s, nil
}

// loadFileSettings parses the settings file at path. A missing file is
// not an error; the zero settings apply.
func loadFileSettings(path string) (*fileSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var fs fileSettings
	if err := toml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &fs, nil
}

func parseProvider(v string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "brew":
		return ProviderBrew, nil
	case "direct":
		return ProviderDirect, nil
	default:
		return ProviderAuto, fmt.Errorf("%w: %q (expected \"brew\" or \"direct\")", ErrInvalidProvider, v)
	}
}
