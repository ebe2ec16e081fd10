package config

import (
	"path/filepath"
	"testing"
)

func TestDataDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/share")

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if dir != filepath.Join("/custom/share", "arb") {
		t.Errorf("DataDir = %q", dir)
	}
}

func TestDataDirDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/tester")

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if dir != filepath.Join("/home/tester", ".local", "share", "arb") {
		t.Errorf("DataDir = %q", dir)
	}
}

func TestZshrcPathHonorsZDOTDIR(t *testing.T) {
	t.Setenv("ZDOTDIR", "/custom/zdot")

	path, err := ZshrcPath()
	if err != nil {
		t.Fatalf("ZshrcPath: %v", err)
	}
	if path != filepath.Join("/custom/zdot", ".zshrc") {
		t.Errorf("ZshrcPath = %q", path)
	}
}

func TestUpdatePathLayout(t *testing.T) {
	dataDir := "/data/arb"

	if got := UpdatesRoot(dataDir); got != "/data/arb/updates" {
		t.Errorf("UpdatesRoot = %q", got)
	}
	if got := PendingDir(dataDir); got != "/data/arb/updates/pending" {
		t.Errorf("PendingDir = %q", got)
	}
	if got := PendingMarkerPath(dataDir); got != "/data/arb/updates/pending/pending-update.json" {
		t.Errorf("PendingMarkerPath = %q", got)
	}
	if got := CheckRecordPath(dataDir); got != "/data/arb/check_update" {
		t.Errorf("CheckRecordPath = %q", got)
	}
}
