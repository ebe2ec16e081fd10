// Package doctor runs read-only diagnostics over an Arb installation:
// shell integration, bundled tools, the app bundle, and versions.
// Checks report findings and suggested fixes; they never mutate state.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/update"
)

// CheckStatus classifies a diagnostic outcome.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// CheckResult is one diagnostic finding.
type CheckResult struct {
	Name    string      `json:"name" yaml:"name"`
	Status  CheckStatus `json:"status" yaml:"status"`
	Message string      `json:"message" yaml:"message"`
	Fix     string      `json:"fix,omitempty" yaml:"fix,omitempty"`
}

// expectedZshPlugins are the plugins shell integration installs.
var expectedZshPlugins = []string{
	"zsh-z",
	"zsh-autosuggestions",
	"zsh-syntax-highlighting",
	"zsh-completions",
}

// Doctor holds the resolved environment the checks inspect. Tests point
// the paths at fixtures.
type Doctor struct {
	ConfigHome string
	Zshrc      string
	HomeDir    string
	Version    string
	Runner     update.Runner
}

// New resolves a Doctor for the current environment.
func New(build config.BuildInfo) (*Doctor, error) {
	configHome, err := config.ConfigHome()
	if err != nil {
		return nil, fmt.Errorf("resolve config home: %w", err)
	}
	zshrc, err := config.ZshrcPath()
	if err != nil {
		return nil, fmt.Errorf("resolve .zshrc path: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Doctor{
		ConfigHome: configHome,
		Zshrc:      zshrc,
		HomeDir:    home,
		Version:    build.Version,
		Runner:     update.ExecRunner{},
	}, nil
}

// RunAll executes every check in a stable order.
func (d *Doctor) RunAll() []CheckResult {
	results := []CheckResult{
		d.CheckShellIntegration(),
		d.CheckStarship(),
		d.CheckDelta(),
		d.CheckSettingsFile(),
		d.CheckAppBundle(),
		d.CheckVersion(),
	}
	results = append(results, d.CheckZshPlugins()...)
	return results
}

// AnyFailed reports whether any check failed outright.
func AnyFailed(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// CheckShellIntegration verifies arb.zsh is installed and sourced from
// the user's .zshrc.
func (d *Doctor) CheckShellIntegration() CheckResult {
	arbZsh := filepath.Join(d.ConfigHome, "zsh", "arb.zsh")
	if _, err := os.Stat(arbZsh); err != nil {
		return CheckResult{
			Name:    "Shell integration",
			Status:  StatusFail,
			Message: fmt.Sprintf("%s not found", arbZsh),
			Fix:     "Run `arb init` to install shell integration",
		}
	}

	if _, err := os.Stat(d.Zshrc); err != nil {
		return CheckResult{
			Name:    "Shell integration",
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s exists but %s not found", arbZsh, d.Zshrc),
			Fix:     fmt.Sprintf("Create %s and source arb.zsh from it", d.Zshrc),
		}
	}

	content, err := os.ReadFile(d.Zshrc)
	if err != nil {
		return CheckResult{
			Name:    "Shell integration",
			Status:  StatusWarn,
			Message: fmt.Sprintf("Could not read %s", d.Zshrc),
			Fix:     "Check file permissions on your .zshrc",
		}
	}
	if !strings.Contains(string(content), "arb/zsh/arb.zsh") {
		return CheckResult{
			Name:    "Shell integration",
			Status:  StatusFail,
			Message: fmt.Sprintf("%s exists but not sourced in %s", arbZsh, d.Zshrc),
			Fix:     "Run `arb init` to restore shell integration",
		}
	}
	return CheckResult{
		Name:    "Shell integration",
		Status:  StatusPass,
		Message: "arb.zsh exists and is sourced in .zshrc",
	}
}

// CheckStarship verifies the bundled starship binary is present and
// executable.
func (d *Doctor) CheckStarship() CheckResult {
	starship := filepath.Join(d.ConfigHome, "zsh", "bin", "starship")
	info, err := os.Stat(starship)
	if err != nil {
		return CheckResult{
			Name:    "Starship",
			Status:  StatusFail,
			Message: fmt.Sprintf("%s not found", starship),
			Fix:     "Run `arb init` to install the bundled starship binary",
		}
	}
	if info.Mode().Perm()&0o111 == 0 {
		return CheckResult{
			Name:    "Starship",
			Status:  StatusFail,
			Message: fmt.Sprintf("%s exists but is not executable", starship),
			Fix:     fmt.Sprintf("Run: chmod +x %s", starship),
		}
	}
	return CheckResult{
		Name:    "Starship",
		Status:  StatusPass,
		Message: "Bundled starship binary is present and executable",
	}
}

// CheckDelta verifies delta is available and wired as git's pager.
func (d *Doctor) CheckDelta() CheckResult {
	inPath := d.Runner.Run("delta", "--version") == nil

	gitPager := ""
	if out, err := d.Runner.Output("git", "config", "--global", "--get", "core.pager"); err == nil {
		gitPager = strings.TrimSpace(string(out))
	}

	switch {
	case inPath && gitPager == "delta":
		return CheckResult{
			Name:    "Delta",
			Status:  StatusPass,
			Message: "delta is in PATH and configured as git pager",
		}
	case inPath:
		return CheckResult{
			Name:    "Delta",
			Status:  StatusWarn,
			Message: "delta is in PATH but not set as git core.pager",
			Fix:     "Run `arb init` to configure delta as git pager",
		}
	default:
		return CheckResult{
			Name:    "Delta",
			Status:  StatusWarn,
			Message: "delta not found in PATH",
			Fix:     "Run `arb init` to install delta via shell integration",
		}
	}
}

// CheckSettingsFile verifies the update settings resolve, surfacing
// invalid provider overrides.
func (d *Doctor) CheckSettingsFile() CheckResult {
	settings, err := config.ResolveSettings()
	if err != nil {
		return CheckResult{
			Name:    "Update settings",
			Status:  StatusFail,
			Message: fmt.Sprintf("settings failed to resolve: %v", err),
			Fix:     "Fix ARB_UPDATE_PROVIDER or the [update] section of arb.toml",
		}
	}
	provider := string(settings.Provider)
	if provider == "" {
		provider = "auto"
	}
	return CheckResult{
		Name:    "Update settings",
		Status:  StatusPass,
		Message: fmt.Sprintf("update provider: %s", provider),
	}
}

// CheckAppBundle verifies Arb.app is installed in a standard location.
func (d *Doctor) CheckAppBundle() CheckResult {
	candidates := []string{
		filepath.Join("/Applications", update.AppBundleName),
		filepath.Join(d.HomeDir, "Applications", update.AppBundleName),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return CheckResult{
				Name:    "App bundle",
				Status:  StatusPass,
				Message: fmt.Sprintf("Found %s", candidate),
			}
		}
	}
	return CheckResult{
		Name:    "App bundle",
		Status:  StatusFail,
		Message: fmt.Sprintf("%s not found in /Applications or ~/Applications", update.AppBundleName),
		Fix:     fmt.Sprintf("Install %s to /Applications", update.AppBundleName),
	}
}

// CheckVersion reports the CLI version alongside the installed config
// version marker.
func (d *Doctor) CheckVersion() CheckResult {
	configVersion := "not found"
	if data, err := os.ReadFile(filepath.Join(d.ConfigHome, ".arb_config_version")); err == nil {
		configVersion = strings.TrimSpace(string(data))
	}
	return CheckResult{
		Name:    "Version",
		Status:  StatusPass,
		Message: fmt.Sprintf("arb %s, config version: %s", d.Version, configVersion),
	}
}

// CheckZshPlugins reports one result per expected plugin.
func (d *Doctor) CheckZshPlugins() []CheckResult {
	pluginsDir := filepath.Join(d.ConfigHome, "zsh", "plugins")
	results := make([]CheckResult, 0, len(expectedZshPlugins))
	for _, plugin := range expectedZshPlugins {
		path := filepath.Join(pluginsDir, plugin)
		if _, err := os.Stat(path); err == nil {
			results = append(results, CheckResult{
				Name:    "Zsh plugin: " + plugin,
				Status:  StatusPass,
				Message: "installed",
			})
			continue
		}
		results = append(results, CheckResult{
			Name:    "Zsh plugin: " + plugin,
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s not found", path),
			Fix:     "Run `arb init` to install zsh plugins",
		})
	}
	return results
}
