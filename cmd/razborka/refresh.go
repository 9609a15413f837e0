package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mkarpov/razborka/internal/cli"
)

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the ledger from the data directory",
		Long: `Scans the data directory, classifies and extracts every export,
rebuilds the flow tables and the ledger, and journals the run.`,
		RunE: runRefresh,
	}
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	var bar *progressbar.ProgressBar
	a.engine.Progress = func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("processing exports"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}

	run, err := a.engine.Refresh(cmd.Context(), "cli")
	if err != nil {
		fmt.Println(cli.FormatError("refresh failed: " + err.Error()))
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"refresh complete: %d files (%d loaded, %d skipped), %d records over %d dates",
		run.FilesFound, run.FilesLoaded, run.FilesSkipped, run.Records, run.Dates)))

	snap := a.engine.Store().Current()
	for _, d := range snap.Diagnostics {
		if d.Err != "" {
			fmt.Println(cli.FormatWarning(fmt.Sprintf("skipped %s: %s", d.Path, d.Err)))
			continue
		}
		if len(d.PositionalColumns) > 0 {
			fmt.Println(cli.FormatWarning(fmt.Sprintf(
				"%s: header match failed, used positional columns %v", d.Path, d.PositionalColumns)))
		}
	}
	return nil
}
