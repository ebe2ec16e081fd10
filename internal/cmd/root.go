// Package cmd wires the arb CLI: update staging and apply, diagnostics,
// and shell integration setup.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/logging"
)

var (
	// Global flags
	outputFormat string
	verbose      bool
	quiet        bool
)

// Execute builds the command tree and runs it. Build identity comes in
// from main's ldflags; nothing below reads it from globals.
func Execute(version, commit, date string) error {
	build := config.BuildInfo{Version: version, Commit: commit, Date: date}

	rootCmd := &cobra.Command{
		Use:   "arb",
		Short: "Arb terminal companion CLI",
		Long: `arb manages the Arb terminal's shell integration and self-updates.

Updates are staged in the background and applied on restart or with
` + "`arb update --apply`" + `.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetVerbosity(verbose, quiet)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	rootCmd.AddCommand(newUpdateCmd(build))
	rootCmd.AddCommand(newUpdateHelperCmd())
	rootCmd.AddCommand(newDoctorCmd(build))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd(build))
	rootCmd.AddCommand(newCompletionCmd())

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd.Execute()
}
