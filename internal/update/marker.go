package update

import (
	"encoding/json"
	"fmt"
	"os"
)

// PendingUpdateMarker records a staged-but-not-yet-applied update. It is
// the only durable state the updater owns: written once staging
// succeeds, read by apply, deleted when apply is dispatched or the stage
// is superseded.
type PendingUpdateMarker struct {
	Tag        string `json:"tag"`
	StagingDir string `json:"staging_dir"`
	NewAppPath string `json:"new_app_path"`
	CreatedAt  int64  `json:"created_at"`
}

// ReadPendingMarker loads and parses the marker at path.
func ReadPendingMarker(path string) (*PendingUpdateMarker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pending update marker %s: %w", path, err)
	}
	var marker PendingUpdateMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, fmt.Errorf("parse pending update marker: %w", err)
	}
	return &marker, nil
}

// WritePendingMarker persists the marker atomically via temp-file +
// rename, so a reader never observes a partial marker.
func WritePendingMarker(path string, marker *PendingUpdateMarker) error {
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize pending update marker: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write pending update marker temp file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit pending update marker %s: %w", path, err)
	}
	return nil
}

// CleanupPendingUpdate removes the marker and the staging directory it
// references. A corrupt marker is removed without touching anything else.
func CleanupPendingUpdate(markerPath string) {
	marker, err := ReadPendingMarker(markerPath)
	_ = os.Remove(markerPath)
	if err != nil {
		return
	}
	_ = os.RemoveAll(marker.StagingDir)
}
