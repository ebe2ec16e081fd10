package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearUpdateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ARB_UPDATE_PROVIDER", "")
	t.Setenv("ARB_UPDATE_TARGET_APP", "")
	t.Setenv("ARB_BIN", "")
	// os.Setenv with "" still counts as set for os.Getenv == "" checks,
	// which is what ResolveSettings tests for.
}

func TestResolveSettingsDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearUpdateEnv(t)

	s, err := ResolveSettings()
	if err != nil {
		t.Fatalf("ResolveSettings: %v", err)
	}
	if s.Provider != ProviderAuto {
		t.Errorf("Provider = %q, want auto", s.Provider)
	}
	if s.CheckIntervalSeconds != DefaultCheckIntervalSeconds {
		t.Errorf("CheckIntervalSeconds = %d, want %d", s.CheckIntervalSeconds, DefaultCheckIntervalSeconds)
	}
	if s.DataDir == "" {
		t.Error("DataDir should be resolved")
	}
}

func TestResolveSettingsFromFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	clearUpdateEnv(t)

	arbDir := filepath.Join(configHome, "arb")
	if err := os.MkdirAll(arbDir, 0o755); err != nil {
		t.Fatal(err)
	}
	toml := "[update]\nprovider = \"direct\"\ncheck_interval_seconds = 3600\n"
	if err := os.WriteFile(filepath.Join(arbDir, "arb.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := ResolveSettings()
	if err != nil {
		t.Fatalf("ResolveSettings: %v", err)
	}
	if s.Provider != ProviderDirect {
		t.Errorf("Provider = %q, want direct", s.Provider)
	}
	if s.CheckIntervalSeconds != 3600 {
		t.Errorf("CheckIntervalSeconds = %d, want 3600", s.CheckIntervalSeconds)
	}
}

func TestResolveSettingsEnvBeatsFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	clearUpdateEnv(t)

	arbDir := filepath.Join(configHome, "arb")
	if err := os.MkdirAll(arbDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(arbDir, "arb.toml"),
		[]byte("[update]\nprovider = \"direct\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ARB_UPDATE_PROVIDER", "brew")
	t.Setenv("ARB_UPDATE_TARGET_APP", "/tmp/Arb.app")
	t.Setenv("ARB_BIN", "/tmp/arb")

	s, err := ResolveSettings()
	if err != nil {
		t.Fatalf("ResolveSettings: %v", err)
	}
	if s.Provider != ProviderBrew {
		t.Errorf("Provider = %q, env should beat file", s.Provider)
	}
	if s.TargetApp != "/tmp/Arb.app" {
		t.Errorf("TargetApp = %q", s.TargetApp)
	}
	if s.BinOverride != "/tmp/arb" {
		t.Errorf("BinOverride = %q", s.BinOverride)
	}
}

func TestResolveSettingsInvalidProvider(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearUpdateEnv(t)
	t.Setenv("ARB_UPDATE_PROVIDER", "npm")

	_, err := ResolveSettings()
	if !errors.Is(err, ErrInvalidProvider) {
		t.Errorf("error = %v, want ErrInvalidProvider", err)
	}
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{input: "brew", want: ProviderBrew},
		{input: "BREW", want: ProviderBrew},
		{input: " direct ", want: ProviderDirect},
		{input: "cargo", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseProvider(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseProvider(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseProvider(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
