package update

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// AppBundleName is the application bundle shipped inside the update
// archive and installed under /Applications.
const AppBundleName = "Arb.app"

// ErrNoBundle indicates the extracted archive did not contain Arb.app.
var ErrNoBundle = errors.New("update package does not contain " + AppBundleName)

// maxExtractBytes bounds a single extracted file (500 MB) to protect
// against decompression bombs.
const maxExtractBytes = 500 << 20

// ExtractZip unpacks the archive at zipPath into destDir. Entry paths
// are validated to stay inside destDir.
func ExtractZip(zipPath, destDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open update archive %s: %w", zipPath, err)
	}
	defer func() { _ = zr.Close() }()

	for _, entry := range zr.File {
		target, err := safeJoin(destDir, entry.Name)
		if err != nil {
			return err
		}

		mode := entry.Mode()
		switch {
		case entry.FileInfo().IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case mode&os.ModeSymlink != 0:
			link, err := readZipEntry(entry)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(string(link), target); err != nil {
				return fmt.Errorf("extract symlink %s: %w", entry.Name, err)
			}
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := extractZipFile(entry, target, mode); err != nil {
				return err
			}
		}
	}
	return nil
}

func extractZipFile(entry *zip.File, target string, mode os.FileMode) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", entry.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(rc, maxExtractBytes)); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	return out.Close()
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(io.LimitReader(rc, 4096))
}

func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}

// FindAppBundle locates Arb.app inside extractedDir, preferring an exact
// name match and falling back to a case-insensitive scan.
func FindAppBundle(extractedDir string) (string, bool) {
	direct := filepath.Join(extractedDir, AppBundleName)
	if _, err := os.Stat(direct); err == nil {
		return direct, true
	}

	entries, err := os.ReadDir(extractedDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), AppBundleName) {
			return filepath.Join(extractedDir, entry.Name()), true
		}
	}
	return "", false
}

// ReadBundleVersion extracts CFBundleShortVersionString from the
// bundle's Info.plist. The plist is the XML flavor produced by the
// release pipeline; a minimal key scan avoids a macOS-only helper
// process for one string value.
func ReadBundleVersion(appPath string) (string, error) {
	plistPath := filepath.Join(appPath, "Contents", "Info.plist")
	data, err := os.ReadFile(plistPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", plistPath, err)
	}

	version, ok := plistStringValue(string(data), "CFBundleShortVersionString")
	if !ok || version == "" {
		return "", fmt.Errorf("no CFBundleShortVersionString in %s", plistPath)
	}
	return version, nil
}

// plistStringValue finds the <string> following the named <key> in an
// XML plist document.
func plistStringValue(doc, key string) (string, bool) {
	marker := "<key>" + key + "</key>"
	idx := strings.Index(doc, marker)
	if idx < 0 {
		return "", false
	}
	rest := doc[idx+len(marker):]

	open := strings.Index(rest, "<string>")
	if open < 0 {
		return "", false
	}
	rest = rest[open+len("<string>"):]

	closeIdx := strings.Index(rest, "</string>")
	if closeIdx < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:closeIdx]), true
}

// CopyDir recursively copies src into dst, preserving file modes and
// symlinks. Used by the update helper to install the staged bundle.
func CopyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
