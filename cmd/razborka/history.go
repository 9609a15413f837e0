package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarpov/razborka/internal/cli"
	"github.com/mkarpov/razborka/internal/common"
	"github.com/mkarpov/razborka/internal/storage"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent refresh runs",
		RunE:  runHistory,
	}
	cmd.Flags().IntP("limit", "n", 20, "how many runs to show")
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.journal == nil {
		return common.NewUserError("refresh journal is unavailable", nil)
	}

	runs, err := a.journal.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if format == "json" {
		return printJSON(map[string]any{"runs": runs})
	}

	fmt.Println(cli.FormatTitle("Refresh history"))
	if len(runs) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no runs journaled yet"))
		return nil
	}
	fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf(
		"%-20s %-10s %-8s %6s %6s %6s %8s %6s",
		"started", "trigger", "status", "files", "loaded", "skip", "records", "dates")))
	for _, r := range runs {
		line := fmt.Sprintf("%-20s %-10s %-8s %6d %6d %6d %8d %6d",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Trigger, r.Status,
			r.FilesFound, r.FilesLoaded, r.FilesSkipped, r.Records, r.Dates)
		if r.Status == storage.StatusError {
			fmt.Println(cli.ErrorStyle.Render(line + "  " + r.Error))
			continue
		}
		fmt.Println(line)
	}
	return nil
}
