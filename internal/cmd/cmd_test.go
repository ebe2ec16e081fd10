package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/update"
)

func TestStageStatusLabel(t *testing.T) {
	tests := []struct {
		status update.StageStatus
		want   string
	}{
		{status: update.StatusStaged, want: "staged"},
		{status: update.StatusAlreadyStaged, want: "already-staged"},
		{status: update.StatusUpToDate, want: "up-to-date"},
		{status: update.StageStatus(99), want: "unknown"},
	}
	for _, tt := range tests {
		if got := stageStatusLabel(tt.status); got != tt.want {
			t.Errorf("stageStatusLabel(%v) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	build := config.BuildInfo{Version: "0.1.9", Commit: "abc1234", Date: "2026-08-24"}
	cmd := newVersionCmd(build)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command: %v", err)
	}
	for _, want := range []string{"0.1.9", "abc1234", "2026-08-24"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %s", want, out.String())
		}
	}
}

func TestVersionCommandJSON(t *testing.T) {
	outputFormat = "json"
	t.Cleanup(func() { outputFormat = "text" })

	cmd := newVersionCmd(config.BuildInfo{Version: "0.1.9"})
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command: %v", err)
	}
	if !strings.Contains(out.String(), `"version": "0.1.9"`) {
		t.Errorf("json output = %s", out.String())
	}
}

func TestUpdateHelperRequiresThreeArgs(t *testing.T) {
	cmd := newUpdateHelperCmd()

	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Error("two args should be rejected")
	}
	if err := cmd.Args(cmd, []string{"a", "b", "c", "d"}); err == nil {
		t.Error("four args should be rejected")
	}
	if err := cmd.Args(cmd, []string{"a", "b", "c"}); err != nil {
		t.Errorf("three args should be accepted: %v", err)
	}
	if !cmd.Hidden {
		t.Error("update-helper must stay hidden from help output")
	}
}

func TestUpdateCommandFlagConflicts(t *testing.T) {
	cmd := newUpdateCmd(config.BuildInfo{Version: "0.1.9"})

	for _, flag := range []string{"check", "apply", "yes"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("update command missing --%s flag", flag)
		}
	}
}
