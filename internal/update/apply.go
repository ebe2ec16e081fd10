package update

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/szj2ys/arb/internal/logging"
)

// envTargetApp overrides where the installed bundle lives; it must point
// at an Arb.app directory.
const envTargetApp = "ARB_UPDATE_TARGET_APP"

// ErrNoPendingUpdate indicates apply was requested with nothing staged.
var ErrNoPendingUpdate = errors.New("no pending update is staged")

// ApplyPendingUpdate hands a staged update over to the detached helper
// process and returns immediately. The helper, launched from the staged
// bundle so the old installation can be replaced underneath it, performs
// the actual swap.
func ApplyPendingUpdate(markerPath string, out io.Writer) error {
	log := logging.L("update")

	marker, err := ReadPendingMarker(markerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoPendingUpdate
		}
		return fmt.Errorf("read pending update marker: %w", err)
	}

	if _, err := os.Stat(marker.NewAppPath); err != nil {
		CleanupPendingUpdate(markerPath)
		return fmt.Errorf("pending update is missing staged app at %s", marker.NewAppPath)
	}

	targetApp, err := ResolveTargetAppPath()
	if err != nil {
		return fmt.Errorf("resolve installed %s path: %w", AppBundleName, err)
	}
	if err := EnsureCanWriteTarget(targetApp); err != nil {
		return err
	}

	helperBin := stagedHelperBinary(marker.NewAppPath)
	if _, err := os.Stat(helperBin); err != nil {
		return fmt.Errorf("staged bundle has no CLI binary at %s: %w", helperBin, err)
	}

	log.Debug("dispatching update helper",
		"helper", helperBin, "target", targetApp, "workdir", marker.StagingDir)
	if err := spawnDetached(helperBin, "update-helper", targetApp, marker.NewAppPath, marker.StagingDir); err != nil {
		return fmt.Errorf("spawn update helper: %w", err)
	}

	if out != nil {
		_, _ = fmt.Fprintf(out, "Applying staged update v%s in background...\n",
			FormatVersionForDisplay(marker.Tag))
	}

	// Drop the marker now so a concurrent `arb update` does not treat the
	// in-flight apply as still pending. The helper removes the staging
	// directory when it finishes.
	_ = os.Remove(markerPath)
	return nil
}

// ResolveTargetAppPath locates the installed bundle to replace:
// the ARB_UPDATE_TARGET_APP override first, then the running
// executable's ancestry, then /Applications.
func ResolveTargetAppPath() (string, error) {
	if override := os.Getenv(envTargetApp); override != "" {
		if filepath.Base(override) == AppBundleName {
			return override, nil
		}
		return "", fmt.Errorf("%s must point to %s", envTargetApp, AppBundleName)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve current executable: %w", err)
	}
	for dir := exe; ; {
		if strings.EqualFold(filepath.Base(dir), AppBundleName) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	defaultApp := filepath.Join("/Applications", AppBundleName)
	if _, err := os.Stat(defaultApp); err == nil {
		return defaultApp, nil
	}

	return "", fmt.Errorf("cannot locate installed %s; run this from installed Arb", AppBundleName)
}

// EnsureCanWriteTarget probes for write permission next to the target
// bundle by creating and deleting a scratch file.
func EnsureCanWriteTarget(targetApp string) error {
	parent := filepath.Dir(targetApp)
	if _, err := os.Stat(parent); err != nil {
		return fmt.Errorf("install location does not exist: %s", parent)
	}

	probe := filepath.Join(parent, fmt.Sprintf(".arb-update-write-test-%d", time.Now().Unix()))
	f, err := os.OpenFile(probe, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("no write permission in %s (%v)", parent, err)
	}
	_, _ = f.WriteString("ok")
	_ = f.Close()
	_ = os.Remove(probe)
	return nil
}

// stagedHelperBinary is the CLI binary inside the staged bundle, which
// runs the helper so the installation being replaced holds no open
// executables of its own.
func stagedHelperBinary(newAppPath string) string {
	return filepath.Join(newAppPath, "Contents", "MacOS", "arb")
}
