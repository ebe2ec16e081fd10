package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/doctor"
	"github.com/szj2ys/arb/internal/shellint"
)

func newInitCmd() *cobra.Command {
	var updateOnly bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Install or refresh Arb shell integration",
		Long: `Install the arb wrapper script and run the bundled shell setup.

Examples:
  arb init                 # full interactive setup
  arb init --update-only   # refresh integration without prompts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.ResolveSettings()
			if err != nil {
				return err
			}

			if err := shellint.Init(settings, updateOnly); err != nil {
				if !updateOnly {
					runInitDiagnostics(cmd)
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&updateOnly, "update-only", false, "Refresh shell integration without interactive prompts")

	return cmd
}

// runInitDiagnostics surfaces doctor output when init fails, so the
// user sees what to fix without a second command.
func runInitDiagnostics(cmd *cobra.Command) {
	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(errOut)
	fmt.Fprintln(errOut, "Init failed. Running diagnostics...")

	d, err := doctor.New(config.BuildInfo{Version: cmd.Root().Version})
	if err != nil {
		return
	}
	doctor.Report(errOut, d.RunAll())
	fmt.Fprintln(errOut, "Fix the issues above and retry with `arb init`")
}
