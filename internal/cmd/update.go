package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/szj2ys/arb/internal/config"
	"github.com/szj2ys/arb/internal/interactive"
	"github.com/szj2ys/arb/internal/notify"
	"github.com/szj2ys/arb/internal/output"
	"github.com/szj2ys/arb/internal/update"
)

// updateResult is the structured form of an update run for json/yaml
// output.
type updateResult struct {
	Status          string `json:"status" yaml:"status"`
	CurrentVersion  string `json:"current_version" yaml:"current_version"`
	LatestVersion   string `json:"latest_version,omitempty" yaml:"latest_version,omitempty"`
	StagedAppPath   string `json:"staged_app_path,omitempty" yaml:"staged_app_path,omitempty"`
	UpdateAvailable bool   `json:"update_available" yaml:"update_available"`
}

func newUpdateCmd(build config.BuildInfo) *cobra.Command {
	var (
		checkOnly bool
		applyNow  bool
		assumeYes bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Stage or apply Arb updates",
		Long: `Download and stage the latest Arb release, or apply a staged update.

Staging never touches the running installation: the new version waits
under the data directory until the app restarts or --apply is given.
Homebrew-managed installations are delegated to brew.

Examples:
  arb update            # stage the latest release
  arb update --check    # report whether an update is available
  arb update --apply    # apply a previously staged update now`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			writer := output.NewWriter(cmd.OutOrStdout(), format)

			settings, err := config.ResolveSettings()
			if err != nil {
				return err
			}

			switch {
			case applyNow:
				return runApply(settings, writer, cmd.InOrStdin(), assumeYes)
			case checkOnly:
				return runCheck(cmd, build, settings, writer)
			default:
				return runStage(cmd, build, settings, writer)
			}
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Check for updates without downloading")
	cmd.Flags().BoolVar(&applyNow, "apply", false, "Apply a staged update now")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt for --apply")

	return cmd
}

func runCheck(cmd *cobra.Command, build config.BuildInfo, settings *config.Settings, writer *output.Writer) error {
	resolver := update.NewResolver(build.Version)

	latest := ""
	if release, err := resolver.FetchLatest(cmd.Context()); err == nil {
		latest = release.TagName
	} else if tag, err := resolver.ResolveLatestTagFromRedirect(cmd.Context()); err == nil {
		latest = tag
	} else {
		return fmt.Errorf("check for updates: %w", err)
	}

	result := updateResult{
		Status:          "checked",
		CurrentVersion:  update.FormatVersionForDisplay(build.Version),
		LatestVersion:   update.FormatVersionForDisplay(latest),
		UpdateAvailable: update.IsNewerVersion(latest, build.Version),
	}

	recorder := notify.NewRecorder(config.CheckRecordPath(settings.DataDir))
	if err := recorder.Record(result); err != nil {
		return err
	}

	if !writer.IsText() {
		return writer.Write(result)
	}
	out := writer.Raw()
	fmt.Fprintf(out, "Current version: %s\n", result.CurrentVersion)
	fmt.Fprintf(out, "Latest version:  %s\n", result.LatestVersion)
	if result.UpdateAvailable {
		fmt.Fprintln(out, "An update is available. Run `arb update` to stage it.")
	} else {
		fmt.Fprintln(out, "Already up to date.")
	}
	return nil
}

func runStage(cmd *cobra.Command, build config.BuildInfo, settings *config.Settings, writer *output.Writer) error {
	textOut := io.Writer(io.Discard)
	if writer.IsText() {
		textOut = writer.Raw()
	}

	runner := update.ExecRunner{}
	decision, err := update.ResolveProviderDecision(settings, runner, textOut)
	if err != nil {
		return err
	}
	if decision.Brew != nil {
		return update.RunBrewUpgrade(runner, decision.Brew, textOut)
	}

	stager := update.NewStager(build.Version, settings, textOut)
	result, err := stager.Stage(cmd.Context())
	if err != nil {
		return err
	}

	recorder := notify.NewRecorder(config.CheckRecordPath(settings.DataDir))
	_ = recorder.Record(map[string]string{"tag_name": result.Tag})

	if writer.IsText() {
		return nil
	}
	return writer.Write(updateResult{
		Status:          stageStatusLabel(result.Status),
		CurrentVersion:  update.FormatVersionForDisplay(build.Version),
		LatestVersion:   result.LatestVersion,
		StagedAppPath:   result.NewAppPath,
		UpdateAvailable: result.Status != update.StatusUpToDate,
	})
}

func runApply(settings *config.Settings, writer *output.Writer, stdin io.Reader, assumeYes bool) error {
	markerPath := config.PendingMarkerPath(settings.DataDir)

	marker, err := update.ReadPendingMarker(markerPath)
	if err != nil {
		return update.ErrNoPendingUpdate
	}

	if !assumeYes && interactive.IsTerminal() {
		prompter := interactive.NewPrompterWithIO(stdin, writer.Raw())
		if !prompter.Confirm("Apply staged update v%s now? Arb will restart.",
			update.FormatVersionForDisplay(marker.Tag)) {
			fmt.Fprintln(writer.Raw(), "Aborted.")
			return nil
		}
	}

	if err := update.ApplyPendingUpdate(markerPath, writer.Raw()); err != nil {
		if errors.Is(err, update.ErrNoPendingUpdate) {
			return fmt.Errorf("no pending update is staged; run `arb update` first")
		}
		return err
	}
	return nil
}

func stageStatusLabel(status update.StageStatus) string {
	switch status {
	case update.StatusStaged:
		return "staged"
	case update.StatusAlreadyStaged:
		return "already-staged"
	case update.StatusUpToDate:
		return "up-to-date"
	default:
		return "unknown"
	}
}
