package update

import "testing"

func TestParseVersionNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []uint64
		ok    bool
	}{
		{name: "plain semver", input: "0.1.9", want: []uint64{0, 1, 9}, ok: true},
		{name: "v prefix", input: "v0.1.10", want: []uint64{0, 1, 10}, ok: true},
		{name: "capital V prefix", input: "V1.2.3", want: []uint64{1, 2, 3}, ok: true},
		{name: "two segments", input: "1.2", want: []uint64{1, 2}, ok: true},
		{name: "single segment", input: "7", want: []uint64{7}, ok: true},
		{name: "trailing suffix in segment", input: "1.0.0-beta", want: []uint64{1, 0, 0}, ok: true},
		{name: "rc suffix", input: "v2.3.4rc1", want: []uint64{2, 3, 4}, ok: true},
		{name: "empty", input: "", ok: false},
		{name: "only prefix", input: "v", ok: false},
		{name: "non-numeric segment", input: "1.x.2", ok: false},
		{name: "words", input: "latest", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseVersionNumbers(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseVersionNumbers(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !ok {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseVersionNumbers(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseVersionNumbers(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
		want  int
		ok    bool
	}{
		{name: "equal", left: "0.1.9", right: "0.1.9", want: 0, ok: true},
		{name: "equal with prefix", left: "v0.1.9", right: "0.1.9", want: 0, ok: true},
		{name: "numeric not lexicographic", left: "0.3.10", right: "0.3.9", want: 1, ok: true},
		{name: "major wins", left: "2.0.0", right: "1.9.9", want: 1, ok: true},
		{name: "shorter padded with zeros", left: "1.2", right: "1.2.0", want: 0, ok: true},
		{name: "shorter less", left: "1.2", right: "1.2.1", want: -1, ok: true},
		{name: "left unparseable", left: "abc", right: "1.0", ok: false},
		{name: "right unparseable", right: "abc", left: "1.0", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CompareVersions(tt.left, tt.right)
			if ok != tt.ok {
				t.Fatalf("CompareVersions(%q, %q) ok = %v, want %v", tt.left, tt.right, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.left, tt.right, got, tt.want)
			}
		})
	}
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		name    string
		latest  string
		current string
		want    bool
	}{
		{name: "newer patch", latest: "0.1.10", current: "0.1.9", want: true},
		{name: "same version", latest: "0.1.9", current: "0.1.9", want: false},
		{name: "older", latest: "0.1.8", current: "0.1.9", want: false},
		{name: "v prefixes ignored", latest: "v0.2.0", current: "0.1.9", want: true},
		{name: "numeric compare beats lexicographic", latest: "0.10.0", current: "0.9.0", want: true},

		// WezTerm-style date builds never upgrade a semver install.
		{name: "date build vs semver", latest: "20240203-110000-5046fc22", current: "0.1.9", want: false},
		{name: "date build vs date build", latest: "20240203-110000-abc", current: "20240101-090000-def", want: true},

		// Unparseable pairs fall back to raw inequality.
		{name: "unparseable unequal", latest: "nightly", current: "stable", want: true},
		{name: "unparseable equal", latest: "nightly", current: "nightly", want: false},
		{name: "unparseable equal after prefix strip", latest: "vnightly", current: "nightly", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNewerVersion(tt.latest, tt.current); got != tt.want {
				t.Errorf("IsNewerVersion(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
			}
		})
	}
}

func TestFormatVersionForDisplay(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "v0.1.9", want: "0.1.9"},
		{input: "V0.1.9", want: "0.1.9"},
		{input: "  v0.1.9 ", want: "0.1.9"},
		{input: "0.1.9", want: "0.1.9"},
	}

	for _, tt := range tests {
		if got := FormatVersionForDisplay(tt.input); got != tt.want {
			t.Errorf("FormatVersionForDisplay(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
