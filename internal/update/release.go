package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultReleaseAPIURL    = "https://api.github.com/repos/szj2ys/arb/releases/latest"
	defaultReleaseLatestURL = "https://github.com/szj2ys/arb/releases/latest"

	// Static fallback asset URLs, used when release metadata is
	// unavailable or lacks a matching asset.
	defaultLatestZipURL = "https://github.com/szj2ys/arb/releases/latest/download/arb_for_update.zip"
	defaultLatestShaURL = "https://github.com/szj2ys/arb/releases/latest/download/arb_for_update.zip.sha256"

	// UpdateZipName is the release asset holding the update archive.
	UpdateZipName = "arb_for_update.zip"
	// UpdateShaName is the checksum sidecar for the update archive.
	UpdateShaName = "arb_for_update.zip.sha256"
)

// Release is the subset of the GitHub release metadata the updater uses.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Resolver queries release metadata for the latest available version.
// Zero-value URLs fall back to the szj2ys/arb GitHub release endpoints;
// tests override them with httptest servers.
type Resolver struct {
	APIURL         string
	LatestURL      string
	FallbackZipURL string
	FallbackShaURL string
	UserAgent      string
	Client         *http.Client
}

// NewResolver creates a Resolver for the given running version, which
// is reported in the User-Agent header.
func NewResolver(currentVersion string) *Resolver {
	return &Resolver{
		APIURL:         defaultReleaseAPIURL,
		LatestURL:      defaultReleaseLatestURL,
		FallbackZipURL: defaultLatestZipURL,
		FallbackShaURL: defaultLatestShaURL,
		UserAgent:      "arb/" + currentVersion,
		Client:         &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchLatest retrieves and parses the latest release metadata.
// Failures here are non-fatal to the update flow; callers fall back to
// ResolveLatestTagFromRedirect or the static asset URLs.
func (r *Resolver) FetchLatest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.APIURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request release metadata: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release metadata request returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("parse release metadata: %w", err)
	}
	return &release, nil
}

// ResolveLatestTagFromRedirect follows the releases/latest redirect and
// extracts the tag from the final URL's last path segment. Returns an
// empty tag when the redirect does not reveal one.
func (r *Resolver) ResolveLatestTagFromRedirect(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.LatestURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve latest release tag via redirect: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("latest release redirect returned status %d", resp.StatusCode)
	}

	// resp.Request reflects the final request after redirects.
	path := strings.TrimRight(resp.Request.URL.Path, "/")
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		path = path[idx+1:]
	}
	return strings.TrimSpace(path), nil
}

// FetchText retrieves a small text artifact such as the checksum sidecar.
func (r *Resolver) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request %s returned status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FindAsset returns the release asset matching name, case-insensitively.
func FindAsset(assets []Asset, name string) (*Asset, bool) {
	for i := range assets {
		if strings.EqualFold(assets[i].Name, name) {
			return &assets[i], true
		}
	}
	return nil, false
}
