package doctor

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Report renders check results as a styled human-readable listing with
// a summary line.
func Report(w io.Writer, results []CheckResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Arb Doctor"))
	fmt.Fprintln(w, dimStyle.Render("Diagnosing your Arb setup..."))
	fmt.Fprintln(w)

	var pass, warn, fail int
	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusPass:
			icon = passStyle.Render("✔")
			pass++
		case StatusWarn:
			icon = warnStyle.Render("⚠")
			warn++
		case StatusFail:
			icon = failStyle.Render("✘")
			fail++
		}
		fmt.Fprintf(w, "  %s  %s: %s\n", icon, titleStyle.Render(r.Name), r.Message)
		if r.Fix != "" {
			fmt.Fprintf(w, "     %s\n", dimStyle.Render(r.Fix))
		}
	}

	fmt.Fprintln(w)
	if fail == 0 && warn == 0 {
		fmt.Fprintln(w, passStyle.Bold(true).Render(fmt.Sprintf("All %d checks passed.", pass)))
	} else {
		fmt.Fprintf(w, "%s, %s, %s\n",
			titleStyle.Render(fmt.Sprintf("%d passed", pass)),
			warnStyle.Render(fmt.Sprintf("%d warning(s)", warn)),
			failStyle.Render(fmt.Sprintf("%d failed", fail)))
	}
	fmt.Fprintln(w)
}
