package interactive

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "yes word", input: "yes\n", want: true},
		{name: "uppercase yes", input: "YES\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "garbage defaults to no", input: "maybe\n", want: false},
		{name: "eof defaults to no", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompterWithIO(strings.NewReader(tt.input), &out)

			got := p.Confirm("Apply staged update v%s now?", "0.2.0")
			if got != tt.want {
				t.Errorf("Confirm = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Apply staged update v0.2.0 now?") {
				t.Errorf("prompt text missing: %q", out.String())
			}
			if !strings.Contains(out.String(), "[y/N]") {
				t.Errorf("prompt should show default-no hint: %q", out.String())
			}
		})
	}
}
