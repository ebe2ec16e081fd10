package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/output"
)

type versionInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func newVersionCmd(build config.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			writer := output.NewWriter(cmd.OutOrStdout(), format)

			info := versionInfo{Version: build.Version, Commit: build.Commit, Date: build.Date}
			if !writer.IsText() {
				return writer.Write(info)
			}

			fmt.Fprintf(writer.Raw(), "arb version %s (commit %s, built %s)\n",
				info.Version, info.Commit, info.Date)
			return nil
		},
	}
}
