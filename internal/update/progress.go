package update

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ProgressFunc receives byte-level download progress. total is zero when
// the server did not report a content length.
type ProgressFunc func(downloaded, total int64)

var (
	progressBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	progressCountStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const progressBarWidth = 30

// ProgressPrinter renders download progress on a single terminal line:
// a bar when the total size is known, a byte counter otherwise.
type ProgressPrinter struct {
	w        io.Writer
	last     time.Time
	rendered bool
}

// NewProgressPrinter creates a printer writing to w.
func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{w: w}
}

// Update renders the current progress, throttled to avoid flooding the
// terminal on fast downloads.
func (p *ProgressPrinter) Update(downloaded, total int64) {
	if time.Since(p.last) < 100*time.Millisecond {
		return
	}
	p.last = time.Now()
	p.render(downloaded, total)
}

// Done renders the final state and terminates the progress line.
func (p *ProgressPrinter) Done(downloaded, total int64) {
	p.render(downloaded, total)
	if p.rendered {
		_, _ = fmt.Fprintln(p.w)
	}
}

func (p *ProgressPrinter) render(downloaded, total int64) {
	p.rendered = true
	if total > 0 {
		filled := int(int64(progressBarWidth) * downloaded / total)
		if filled > progressBarWidth {
			filled = progressBarWidth
		}
		bar := strings.Repeat("=", filled) + strings.Repeat("-", progressBarWidth-filled)
		_, _ = fmt.Fprintf(p.w, "\r[%s] %s",
			progressBarStyle.Render(bar),
			progressCountStyle.Render(fmt.Sprintf("%s / %s", formatBytes(downloaded), formatBytes(total))))
		return
	}
	_, _ = fmt.Fprintf(p.w, "\r%s downloaded", progressCountStyle.Render(formatBytes(downloaded)))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
