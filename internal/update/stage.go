package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/logging"
)

// oldUpdateTTL is how long finished staging directories are retained
// before garbage collection.
const oldUpdateTTL = 7 * 24 * time.Hour

// StageStatus is the terminal outcome of a staging run.
type StageStatus int

const (
	// StatusStaged means a new update was downloaded, verified,
	// extracted, and recorded in the pending marker.
	StatusStaged StageStatus = iota
	// StatusUpToDate means no newer version is available.
	StatusUpToDate
	// StatusAlreadyStaged means the resolved version is already staged.
	StatusAlreadyStaged
)

// StageResult reports what a staging run concluded.
type StageResult struct {
	Status        StageStatus
	Tag           string // sanitized release tag
	LatestVersion string // display form of the resolved version
	NewAppPath    string // staged bundle path, when staged or already staged
	Unverified    bool   // checksum sidecar was unavailable
}

// Stager downloads, verifies, and extracts an update into a durable
// staging directory, then records it in the pending marker. It never
// applies the update.
type Stager struct {
	CurrentVersion string
	DataDir        string
	Resolver       *Resolver
	Progress       *ProgressPrinter
	Out            io.Writer
}

// NewStager builds a Stager for the running version.
func NewStager(currentVersion string, settings *config.Settings, out io.Writer) *Stager {
	return &Stager{
		CurrentVersion: currentVersion,
		DataDir:        settings.DataDir,
		Resolver:       NewResolver(currentVersion),
		Progress:       NewProgressPrinter(out),
		Out:            out,
	}
}

func (s *Stager) printf(format string, args ...any) {
	if s.Out != nil {
		_, _ = fmt.Fprintf(s.Out, format+"\n", args...)
	}
}

// Stage runs the full staging flow: cleanup, resolve, pending check,
// download, verify, extract, post-extraction version check, marker write.
func (s *Stager) Stage(ctx context.Context) (*StageResult, error) {
	log := logging.L("update")

	updateRoot := config.UpdatesRoot(s.DataDir)
	if err := CleanupOldUpdateDirs(updateRoot); err != nil {
		return nil, fmt.Errorf("cleanup old update directories: %w", err)
	}

	pendingDir := config.PendingDir(s.DataDir)
	if err := os.MkdirAll(pendingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pending updates directory: %w", err)
	}
	markerPath := config.PendingMarkerPath(s.DataDir)

	currentDisplay := FormatVersionForDisplay(s.CurrentVersion)
	s.printf("Current version: %s", currentDisplay)
	s.printf("Checking latest release...")

	release, err := s.Resolver.FetchLatest(ctx)
	if err != nil {
		log.Warn("release API unavailable, falling back to latest asset URL", "err", err)
		s.printf("Release API unavailable (%v). Falling back to latest asset URL.", err)
		release = nil
	}

	// Pre-download up-to-date short circuit; re-checked authoritatively
	// after extraction against the bundle's own version.
	if release != nil {
		if !IsNewerVersion(release.TagName, s.CurrentVersion) {
			s.printf("Already up to date. Current=%s Latest=%s",
				currentDisplay, FormatVersionForDisplay(release.TagName))
			return &StageResult{Status: StatusUpToDate, LatestVersion: FormatVersionForDisplay(release.TagName)}, nil
		}
	} else if tag, err := s.Resolver.ResolveLatestTagFromRedirect(ctx); err == nil && tag != "" {
		if !IsNewerVersion(tag, s.CurrentVersion) {
			s.printf("Already up to date. Current=%s Latest=%s",
				currentDisplay, FormatVersionForDisplay(tag))
			return &StageResult{Status: StatusUpToDate, LatestVersion: FormatVersionForDisplay(tag)}, nil
		}
	}

	zipURL := s.Resolver.FallbackZipURL
	shaURL := s.Resolver.FallbackShaURL
	updateLabel := "latest"
	if release != nil {
		updateLabel = release.TagName
		if asset, ok := FindAsset(release.Assets, UpdateZipName); ok {
			zipURL = asset.BrowserDownloadURL
		}
		if asset, ok := FindAsset(release.Assets, UpdateShaName); ok {
			shaURL = asset.BrowserDownloadURL
		}
	}
	tag := SanitizeTag(updateLabel)

	if existing, err := ReadPendingMarker(markerPath); err == nil {
		if existing.Tag == tag {
			s.printf("Update v%s is already staged. Restart Arb or run `arb update --apply` to upgrade.",
				FormatVersionForDisplay(existing.Tag))
			s.printf("Staged at: %s", existing.NewAppPath)
			return &StageResult{
				Status:     StatusAlreadyStaged,
				Tag:        existing.Tag,
				NewAppPath: existing.NewAppPath,
			}, nil
		}
		s.printf("Found staged update v%s. Replacing with v%s...",
			FormatVersionForDisplay(existing.Tag), FormatVersionForDisplay(tag))
		CleanupPendingUpdate(markerPath)
	}

	stagingDir := filepath.Join(pendingDir, tag)
	if err := os.RemoveAll(stagingDir); err != nil {
		return nil, fmt.Errorf("clear stale staging directory: %w", err)
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create update staging directory: %w", err)
	}

	zipPath := filepath.Join(stagingDir, UpdateZipName)
	s.printf("Downloading %s ...", UpdateZipName)
	if err := s.download(ctx, zipURL, zipPath); err != nil {
		return nil, fmt.Errorf("download update package: %w", err)
	}

	result := &StageResult{Tag: tag, LatestVersion: FormatVersionForDisplay(updateLabel)}

	checksumText, err := s.Resolver.FetchText(ctx, shaURL)
	if err != nil {
		log.Warn("checksum unavailable, continuing without verification", "err", err)
		s.printf("Checksum unavailable (%v). Continuing without checksum.", err)
		result.Unverified = true
	} else {
		s.printf("Verifying package checksum...")
		if err := VerifySHA256(zipPath, checksumText); err != nil {
			return nil, fmt.Errorf("checksum verification failed: %w", err)
		}
	}

	extractedDir := filepath.Join(stagingDir, "extracted")
	if err := os.MkdirAll(extractedDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction directory: %w", err)
	}
	if err := ExtractZip(zipPath, extractedDir); err != nil {
		return nil, fmt.Errorf("extract update package: %w", err)
	}

	newAppPath, ok := FindAppBundle(extractedDir)
	if !ok {
		return nil, fmt.Errorf("%w (archive %s)", ErrNoBundle, UpdateZipName)
	}

	// The bundle's own version is authoritative over the tag the remote
	// metadata advertised.
	if newVersion, err := ReadBundleVersion(newAppPath); err == nil {
		if !IsNewerVersion(newVersion, s.CurrentVersion) {
			s.printf("Already up to date after download. Current=%s Package=%s",
				currentDisplay, FormatVersionForDisplay(newVersion))
			_ = os.RemoveAll(stagingDir)
			result.Status = StatusUpToDate
			result.LatestVersion = FormatVersionForDisplay(newVersion)
			return result, nil
		}
	}

	marker := &PendingUpdateMarker{
		Tag:        tag,
		StagingDir: stagingDir,
		NewAppPath: newAppPath,
		CreatedAt:  time.Now().Unix(),
	}
	if err := WritePendingMarker(markerPath, marker); err != nil {
		return nil, fmt.Errorf("write pending update marker: %w", err)
	}

	s.printf("")
	s.printf("New version v%s is ready. Restart Arb or run `arb update --apply` to upgrade.",
		FormatVersionForDisplay(updateLabel))
	s.printf("Staged at: %s", marker.NewAppPath)

	result.Status = StatusStaged
	result.NewAppPath = newAppPath
	return result, nil
}

// download streams the asset at url to dest, reporting byte progress.
func (s *Stager) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.Resolver.UserAgent)

	client := s.Resolver.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("start download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}
	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create output file for download: %w", err)
	}

	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				_ = out.Close()
				return fmt.Errorf("write download data: %w", err)
			}
			downloaded += int64(n)
			if s.Progress != nil {
				s.Progress.Update(downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = out.Close()
			return fmt.Errorf("read download stream: %w", readErr)
		}
	}
	if s.Progress != nil {
		s.Progress.Done(downloaded, total)
	}
	return out.Close()
}

// SanitizeTag maps a release tag to a filesystem-safe directory name:
// alphanumerics, '.', '-', and '_' pass through, everything else
// becomes '_'.
func SanitizeTag(tag string) string {
	var b strings.Builder
	b.Grow(len(tag))
	for _, c := range tag {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// CleanupOldUpdateDirs garbage-collects staging directories older than
// the retention window. Age comes from a trailing "-<unix_seconds>"
// name suffix when present, else the directory's mtime. The "pending"
// directory and non-directory entries are never touched.
func CleanupOldUpdateDirs(updateRoot string) error {
	entries, err := os.ReadDir(updateRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read updates directory %s: %w", updateRoot, err)
	}

	now := time.Now()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() == "pending" {
			continue
		}
		path := filepath.Join(updateRoot, entry.Name())

		if age, ok := updateDirAge(entry.Name(), now); ok {
			if age > oldUpdateTTL {
				_ = os.RemoveAll(path)
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > oldUpdateTTL {
			_ = os.RemoveAll(path)
		}
	}
	return nil
}

// updateDirAge derives a directory's age from its "-<unix_seconds>"
// name suffix.
func updateDirAge(name string, now time.Time) (time.Duration, bool) {
	idx := strings.LastIndex(name, "-")
	if idx < 0 || idx == len(name)-1 {
		return 0, false
	}
	ts, err := strconv.ParseInt(name[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	age := now.Unix() - ts
	if age < 0 {
		return 0, true
	}
	return time.Duration(age) * time.Second, true
}
