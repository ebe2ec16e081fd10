package update

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/szj2ys/arb/internal/config"
)

const (
	// BrewCaskName is the current Homebrew cask for Arb, fully
	// qualified because the short name "arb" collides with another
	// project in homebrew/cask.
	BrewCaskName = "szj2ys/arb/arb"
	// legacyCaskName is the conflicting old cask users must migrate off.
	legacyCaskName = "arb"
)

// BrewInfo describes a Homebrew-managed Arb installation.
type BrewInfo struct {
	BrewBin  string
	CaskName string
}

// ProviderDecision is the routing outcome for an update run: delegate
// to Homebrew or stage directly from GitHub releases.
type ProviderDecision struct {
	Brew *BrewInfo // nil means direct
}

// ResolveProviderDecision picks the update path. An explicit provider
// from settings wins; otherwise a brew-managed installation is
// detected and preferred, falling back to direct.
func ResolveProviderDecision(settings *config.Settings, r Runner, out io.Writer) (*ProviderDecision, error) {
	switch settings.Provider {
	case config.ProviderBrew:
		info, err := ResolveBrewInfo(r, out)
		if err != nil {
			return nil, err
		}
		if info == nil {
			return nil, errors.New("ARB_UPDATE_PROVIDER=brew but brew-managed Arb installation was not found")
		}
		return &ProviderDecision{Brew: info}, nil
	case config.ProviderDirect:
		return &ProviderDecision{}, nil
	}

	info, err := ResolveBrewInfo(r, out)
	if err != nil {
		return nil, err
	}
	if info != nil {
		return &ProviderDecision{Brew: info}, nil
	}

	// A Caskroom-resident install without a usable brew is a broken
	// environment we refuse to paper over with a direct update.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve current executable path: %w", err)
	}
	if target := settings.TargetApp; target != "" {
		if PathContainsCaskroom(exe) || PathContainsCaskroom(target) {
			if _, ok := FindBrewBinary(); !ok {
				return nil, errors.New("Arb appears to be Homebrew-managed but `brew` was not found in PATH or standard locations")
			}
		}
	}

	return &ProviderDecision{}, nil
}

// ResolveBrewInfo detects a brew-managed installation. A legacy "arb"
// cask produces a migration warning and a nil result so the caller
// falls back to the direct provider.
func ResolveBrewInfo(r Runner, out io.Writer) (*BrewInfo, error) {
	brewBin, ok := FindBrewBinary()
	if !ok {
		return nil, nil
	}

	installed, err := isBrewCaskInstalled(r, brewBin, BrewCaskName)
	if err != nil {
		return nil, err
	}
	if installed {
		return &BrewInfo{BrewBin: brewBin, CaskName: BrewCaskName}, nil
	}

	legacy, err := isBrewCaskInstalled(r, brewBin, legacyCaskName)
	if err != nil {
		return nil, err
	}
	if legacy && out != nil {
		_, _ = fmt.Fprintln(out, "WARNING: Detected old Homebrew cask 'arb' which conflicts with another software.")
		_, _ = fmt.Fprintln(out, "Please migrate to the new cask name manually:")
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "  brew uninstall --cask arb")
		_, _ = fmt.Fprintf(out, "  brew install --cask %s\n", BrewCaskName)
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "After migration, run 'arb update' again.")
	}
	return nil, nil
}

// FindBrewBinary locates brew in its standard install locations, then
// on PATH.
func FindBrewBinary() (string, bool) {
	for _, candidate := range []string{"/opt/homebrew/bin/brew", "/usr/local/bin/brew"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	if path, err := exec.LookPath("brew"); err == nil {
		return path, true
	}
	return "", false
}

// PathContainsCaskroom reports whether any path component is Homebrew's
// Caskroom directory.
func PathContainsCaskroom(path string) bool {
	for _, part := range strings.Split(filepath.Clean(path), string(os.PathSeparator)) {
		if part == "Caskroom" {
			return true
		}
	}
	return false
}

func isBrewCaskInstalled(r Runner, brewBin, caskName string) (bool, error) {
	out, err := r.Output(brewBin, "list", "--cask", "--versions", caskName)
	if err == nil {
		return len(strings.TrimSpace(string(out))) > 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.ToLower(string(exitErr.Stderr))
		if strings.Contains(stderr, "no such cask") ||
			strings.Contains(stderr, "not installed") ||
			exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, fmt.Errorf("query brew cask installation for %s failed: %s",
			caskName, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return false, fmt.Errorf("query brew cask installation for %s: %w", caskName, err)
}

// IsBrewCaskOutdated reports whether brew has a newer cask version
// available.
func IsBrewCaskOutdated(r Runner, brewBin, caskName string) (bool, error) {
	out, err := r.Output(brewBin, "outdated", "--cask", "--quiet", caskName)
	if err != nil {
		return false, fmt.Errorf("query brew cask outdated status for %s: %w", caskName, err)
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}

// RunBrewUpgrade delegates the update to Homebrew. If the primary cask
// name fails to upgrade, the alternate name is tried before giving up.
func RunBrewUpgrade(r Runner, info *BrewInfo, out io.Writer) error {
	outdated, err := IsBrewCaskOutdated(r, info.BrewBin, info.CaskName)
	switch {
	case err != nil:
		if out != nil {
			_, _ = fmt.Fprintf(out, "Unable to pre-check brew outdated status (%v). Trying upgrade directly.\n", err)
		}
	case !outdated:
		if out != nil {
			_, _ = fmt.Fprintf(out, "Already up to date (brew cask `%s` has no available update).\n", info.CaskName)
		}
		return nil
	}

	if err := r.Run(info.BrewBin, "upgrade", "--cask", info.CaskName); err == nil {
		return nil
	}

	fallbackName := legacyCaskName
	if info.CaskName == legacyCaskName {
		fallbackName = BrewCaskName
	}
	if err := r.Run(info.BrewBin, "upgrade", "--cask", fallbackName); err == nil {
		return nil
	}

	return fmt.Errorf("brew update failed (tried `brew upgrade --cask %s` and `brew upgrade --cask %s`)",
		info.CaskName, fallbackName)
}
