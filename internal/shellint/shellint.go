// Package shellint installs and refreshes arb's zsh shell integration:
// the wrapper script the user's shell invokes, and the bundled
// setup_zsh.sh that wires .zshrc.
package shellint

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/logging"
)

// defaultCLIBin is where the CLI binary lives in a standard install.
const defaultCLIBin = "/Applications/Arb.app/Contents/MacOS/arb"

// WrapperPath returns where the arb wrapper script is installed.
func WrapperPath() (string, error) {
	configHome, err := config.ConfigHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(configHome, "zsh", "bin", "arb"), nil
}

// InstallWrapper writes the wrapper script that dispatches `arb` to the
// installed CLI binary. An ARB_BIN set at wrapper run time always wins;
// otherwise the wrapper falls through a candidate list baked in at
// install time.
func InstallWrapper(settings *config.Settings) error {
	wrapperPath, err := WrapperPath()
	if err != nil {
		return fmt.Errorf("resolve wrapper path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(wrapperPath), 0o755); err != nil {
		return fmt.Errorf("create wrapper directory: %w", err)
	}

	// Earlier releases installed the wrapper as a symlink to the bundle
	// binary, which broke on every update.
	if info, err := os.Lstat(wrapperPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(wrapperPath); err != nil {
			return fmt.Errorf("remove legacy symlink wrapper %s: %w", wrapperPath, err)
		}
	}

	preferred := resolvePreferredBin(settings)
	script := renderWrapperScript(preferred)

	if err := os.WriteFile(wrapperPath, []byte(script), 0o755); err != nil {
		return fmt.Errorf("write wrapper %s: %w", wrapperPath, err)
	}
	return nil
}

// resolvePreferredBin picks the CLI binary the wrapper should prefer:
// the ARB_BIN override when it exists, the running executable when it
// is the arb CLI, then the standard install locations.
func resolvePreferredBin(settings *config.Settings) string {
	if settings != nil && settings.BinOverride != "" {
		if _, err := os.Stat(settings.BinOverride); err == nil {
			return settings.BinOverride
		}
	}

	if exe, err := os.Executable(); err == nil {
		if strings.EqualFold(filepath.Base(exe), "arb") {
			if _, err := os.Stat(exe); err == nil {
				return exe
			}
		}
	}

	candidates := []string{defaultCLIBin}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, "Applications", "Arb.app", "Contents", "MacOS", "arb"))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultCLIBin
}

func renderWrapperScript(preferredBin string) string {
	preferred := escapeForDoubleQuotes(preferredBin)
	return fmt.Sprintf(`#!/bin/bash
set -euo pipefail

if [[ -n "${ARB_BIN:-}" && -x "${ARB_BIN}" ]]; then
	exec "${ARB_BIN}" "$@"
fi

for candidate in \
	"%s" \
	"/Applications/Arb.app/Contents/MacOS/arb" \
	"$HOME/Applications/Arb.app/Contents/MacOS/arb"; do
	if [[ -n "$candidate" && -x "$candidate" ]]; then
		exec "$candidate" "$@"
	fi
done

echo "arb: Arb.app not found. Expected /Applications/Arb.app." >&2
exit 127
`, preferred)
}

// escapeForDoubleQuotes escapes a value for safe interpolation inside a
// double-quoted bash string.
func escapeForDoubleQuotes(value string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		`$`, `\$`,
		"`", "\\`",
	)
	return r.Replace(value)
}

// SetupScriptCandidates lists where the bundled setup_zsh.sh may live,
// in preference order: a development checkout, the bundle containing
// the running executable, then the standard install locations.
func SetupScriptCandidates() []string {
	var candidates []string

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates,
			filepath.Join(cwd, "assets", "shell-integration", "setup_zsh.sh"))
	}

	if exe, err := os.Executable(); err == nil {
		contentsDir := filepath.Dir(filepath.Dir(exe))
		candidates = append(candidates,
			filepath.Join(contentsDir, "Resources", "setup_zsh.sh"))
	}

	candidates = append(candidates, "/Applications/Arb.app/Contents/Resources/setup_zsh.sh")
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, "Applications", "Arb.app", "Contents", "Resources", "setup_zsh.sh"))
	}
	return candidates
}

// findSetupScript returns the first existing candidate.
func findSetupScript(candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// Init installs the wrapper and runs the bundled setup script. With
// updateOnly the script refreshes existing integration without
// interactive prompts, which is how the update helper re-syncs after a
// version swap.
func Init(settings *config.Settings, updateOnly bool) error {
	log := logging.L("init")

	if err := InstallWrapper(settings); err != nil {
		return fmt.Errorf("install arb wrapper: %w", err)
	}

	candidates := SetupScriptCandidates()
	script, ok := findSetupScript(candidates)
	if !ok {
		var searched strings.Builder
		for _, c := range candidates {
			fmt.Fprintf(&searched, "  - %s\n", c)
		}
		return fmt.Errorf("failed to locate setup_zsh.sh for Arb initialization.\nSearched paths:\n%s\nTry reinstalling Arb.app or run `arb doctor` for more details", searched.String())
	}

	log.Debug("running setup script", "script", script, "update_only", updateOnly)
	args := []string{script}
	if updateOnly {
		args = append(args, "--update-only")
	}
	cmd := exec.Command("/bin/bash", args...)
	cmd.Env = append(os.Environ(), "ARB_INIT_INTERNAL=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("arb init failed (script: %s): %w\n\nSuggested next steps:\n1. Review the diagnostic output above\n2. Run `arb doctor` for detailed checks\n3. Run `arb init` again after fixing the issues", script, err)
	}
	return nil
}
