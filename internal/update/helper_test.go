package update

import (
	"os"
	"path/filepath"
	"testing"
)

func makeBundle(t *testing.T, root, version string) string {
	t.Helper()
	app := filepath.Join(root, "Arb.app")
	macos := filepath.Join(app, "Contents", "MacOS")
	if err := os.MkdirAll(macos, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(macos, "arb"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(app, "Contents", "version.txt"), []byte(version), 0o644); err != nil {
		t.Fatal(err)
	}
	return app
}

func TestRunHelperSwapsBundle(t *testing.T) {
	targetApp := makeBundle(t, t.TempDir(), "old")
	newApp := makeBundle(t, t.TempDir(), "new")
	workDir := t.TempDir()

	if err := RunHelper(targetApp, newApp, workDir); err != nil {
		t.Fatalf("RunHelper: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(targetApp, "Contents", "version.txt"))
	if err != nil {
		t.Fatalf("installed bundle missing: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("installed version = %q, want new", data)
	}

	// Backup and work directory are cleaned up on success.
	siblings, err := os.ReadDir(filepath.Dir(targetApp))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range siblings {
		if e.Name() != "Arb.app" {
			t.Errorf("leftover sibling %q after swap", e.Name())
		}
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Error("work dir should be removed")
	}
}

func TestRunHelperFreshInstall(t *testing.T) {
	targetApp := filepath.Join(t.TempDir(), "Arb.app")
	newApp := makeBundle(t, t.TempDir(), "new")
	workDir := t.TempDir()

	if err := RunHelper(targetApp, newApp, workDir); err != nil {
		t.Fatalf("RunHelper: %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetApp, "Contents", "version.txt")); err != nil {
		t.Errorf("bundle not installed: %v", err)
	}
}

func TestRunHelperRollsBackOnCopyFailure(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("unreadable files do not fail as root")
	}

	targetApp := makeBundle(t, t.TempDir(), "old")
	newApp := makeBundle(t, t.TempDir(), "new")
	workDir := t.TempDir()

	// An unreadable file makes the install copy fail partway.
	blocked := filepath.Join(newApp, "Contents", "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o644) })

	if err := RunHelper(targetApp, newApp, workDir); err == nil {
		t.Fatal("copy failure must be reported")
	}

	data, err := os.ReadFile(filepath.Join(targetApp, "Contents", "version.txt"))
	if err != nil {
		t.Fatalf("previous install not restored: %v", err)
	}
	if string(data) != "old" {
		t.Errorf("restored version = %q, want old", data)
	}
}
