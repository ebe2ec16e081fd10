// Package notify decides which of several running Arb processes owns
// user-facing update notifications, and records when the last update
// check happened.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// IsLeader reports whether the process identified by self should emit
// update notifications. When several GUI processes run at once, only
// the one whose identity sorts first announces updates so the user is
// not spammed with duplicates. With no peers at all, self leads.
func IsLeader(self string, peers []string) bool {
	if len(peers) == 0 {
		return true
	}
	sorted := append([]string(nil), peers...)
	sort.Strings(sorted)
	return sorted[0] == self
}

// Recorder persists the timestamp and payload of the most recent update
// check. The file's mtime is the check time; its content is the release
// metadata observed.
type Recorder struct {
	Path string
}

// NewRecorder creates a Recorder for the check record at path.
func NewRecorder(path string) *Recorder {
	return &Recorder{Path: path}
}

// Record overwrites the check record with the given release payload and
// bumps the check timestamp.
func (r *Recorder) Record(payload any) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return fmt.Errorf("create check record directory: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize check record: %w", err)
	}
	if err := os.WriteFile(r.Path, data, 0o644); err != nil {
		return fmt.Errorf("write check record %s: %w", r.Path, err)
	}
	return nil
}

// LastCheck returns when the last check was recorded. ok is false when
// no check has ever been recorded.
func (r *Recorder) LastCheck() (time.Time, bool) {
	info, err := os.Stat(r.Path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// NextCheckDelay computes how long to wait before the next periodic
// check. A process that has never checked waits only initialDelay; one
// that checked recently waits out the remainder of the interval.
func (r *Recorder) NextCheckDelay(interval, initialDelay time.Duration) time.Duration {
	last, ok := r.LastCheck()
	if !ok {
		return initialDelay
	}
	elapsed := time.Since(last)
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

// Due reports whether a new check should run now.
func (r *Recorder) Due(interval time.Duration) bool {
	last, ok := r.LastCheck()
	if !ok {
		return true
	}
	return time.Since(last) >= interval
}

// ReadPayload loads the recorded release metadata into out.
func (r *Recorder) ReadPayload(out any) error {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return fmt.Errorf("read check record %s: %w", r.Path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse check record: %w", err)
	}
	return nil
}
