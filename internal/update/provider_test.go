package update

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// fakeRunner scripts command results keyed by the joined argument list.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) key(name string, args ...string) string {
	return name + " " + strings.Join(args, " ")
}

func (f *fakeRunner) Output(name string, args ...string) ([]byte, error) {
	k := f.key(name, args...)
	f.calls = append(f.calls, k)
	if err, ok := f.errs[k]; ok {
		return nil, err
	}
	return []byte(f.outputs[k]), nil
}

func (f *fakeRunner) Run(name string, args ...string) error {
	k := f.key(name, args...)
	f.calls = append(f.calls, k)
	return f.errs[k]
}

func TestPathContainsCaskroom(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/opt/homebrew/Caskroom/arb/0.1.9/Arb.app", want: true},
		{path: "/usr/local/Caskroom/arb", want: true},
		{path: "/Applications/Arb.app", want: false},
		{path: "/home/user/caskroom/x", want: false},
	}
	for _, tt := range tests {
		if got := PathContainsCaskroom(tt.path); got != tt.want {
			t.Errorf("PathContainsCaskroom(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsBrewCaskOutdated(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"brew outdated --cask --quiet szj2ys/arb/arb": "arb 0.1.9\n",
	}}
	outdated, err := IsBrewCaskOutdated(r, "brew", BrewCaskName)
	if err != nil {
		t.Fatalf("IsBrewCaskOutdated: %v", err)
	}
	if !outdated {
		t.Error("non-empty output means outdated")
	}

	r = &fakeRunner{outputs: map[string]string{
		"brew outdated --cask --quiet szj2ys/arb/arb": "  \n",
	}}
	outdated, err = IsBrewCaskOutdated(r, "brew", BrewCaskName)
	if err != nil {
		t.Fatalf("IsBrewCaskOutdated: %v", err)
	}
	if outdated {
		t.Error("blank output means up to date")
	}
}

func TestRunBrewUpgradeUpToDate(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"brew outdated --cask --quiet szj2ys/arb/arb": "",
	}}
	info := &BrewInfo{BrewBin: "brew", CaskName: BrewCaskName}

	var out bytes.Buffer
	if err := RunBrewUpgrade(r, info, &out); err != nil {
		t.Fatalf("RunBrewUpgrade: %v", err)
	}
	if !strings.Contains(out.String(), "Already up to date") {
		t.Errorf("output = %q", out.String())
	}
	for _, call := range r.calls {
		if strings.Contains(call, "upgrade") {
			t.Errorf("upgrade should not run when cask is current: %s", call)
		}
	}
}

func TestRunBrewUpgradePrimarySucceeds(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"brew outdated --cask --quiet szj2ys/arb/arb": "arb 0.1.9\n",
	}}
	info := &BrewInfo{BrewBin: "brew", CaskName: BrewCaskName}

	if err := RunBrewUpgrade(r, info, nil); err != nil {
		t.Fatalf("RunBrewUpgrade: %v", err)
	}
	want := "brew upgrade --cask szj2ys/arb/arb"
	found := false
	for _, call := range r.calls {
		if call == want {
			found = true
		}
	}
	if !found {
		t.Errorf("expected call %q, got %v", want, r.calls)
	}
}

func TestRunBrewUpgradeFallsBackToAlternateName(t *testing.T) {
	r := &fakeRunner{
		outputs: map[string]string{
			"brew outdated --cask --quiet szj2ys/arb/arb": "arb 0.1.9\n",
		},
		errs: map[string]error{
			"brew upgrade --cask szj2ys/arb/arb": errors.New("exit status 1"),
		},
	}
	info := &BrewInfo{BrewBin: "brew", CaskName: BrewCaskName}

	if err := RunBrewUpgrade(r, info, nil); err != nil {
		t.Fatalf("RunBrewUpgrade: %v", err)
	}
	want := "brew upgrade --cask arb"
	found := false
	for _, call := range r.calls {
		if call == want {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fallback call %q, got %v", want, r.calls)
	}
}

func TestRunBrewUpgradeBothNamesFail(t *testing.T) {
	r := &fakeRunner{
		outputs: map[string]string{
			"brew outdated --cask --quiet szj2ys/arb/arb": "arb 0.1.9\n",
		},
		errs: map[string]error{
			"brew upgrade --cask szj2ys/arb/arb": errors.New("exit status 1"),
			"brew upgrade --cask arb":            errors.New("exit status 1"),
		},
	}
	info := &BrewInfo{BrewBin: "brew", CaskName: BrewCaskName}

	err := RunBrewUpgrade(r, info, nil)
	if err == nil {
		t.Fatal("both upgrade attempts failing must surface an error")
	}
	if !strings.Contains(err.Error(), "brew update failed") {
		t.Errorf("error = %v", err)
	}
}

func TestRunBrewUpgradePrecheckFailureTriesUpgrade(t *testing.T) {
	r := &fakeRunner{
		errs: map[string]error{
			"brew outdated --cask --quiet szj2ys/arb/arb": errors.New("network down"),
		},
	}
	info := &BrewInfo{BrewBin: "brew", CaskName: BrewCaskName}

	var out bytes.Buffer
	if err := RunBrewUpgrade(r, info, &out); err != nil {
		t.Fatalf("RunBrewUpgrade: %v", err)
	}
	if !strings.Contains(out.String(), "Trying upgrade directly") {
		t.Errorf("output = %q", out.String())
	}
}
