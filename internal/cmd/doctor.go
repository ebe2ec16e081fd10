package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/doctor"
	"github.com/szj2ys/arb/internal/output"
)

func newDoctorCmd(build config.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the Arb installation",
		Long: `Run read-only checks over the Arb installation: shell integration,
bundled tools, the app bundle, and version information.

Exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			writer := output.NewWriter(cmd.OutOrStdout(), format)

			d, err := doctor.New(build)
			if err != nil {
				return err
			}
			results := d.RunAll()

			if writer.IsText() {
				doctor.Report(writer.Raw(), results)
			} else if err := writer.Write(results); err != nil {
				return err
			}

			if doctor.AnyFailed(results) {
				return fmt.Errorf("doctor found failing checks")
			}
			return nil
		},
	}
}
