package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkarpov/razborka/internal/cli"
	"github.com/mkarpov/razborka/internal/ledger"
	"github.com/mkarpov/razborka/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the grouped movement report",
		Long: `Shows per-period flow quantities, costs, running balances and the
balance check, grouped by day, ISO week or month.`,
		RunE: runReport,
	}
	cmd.Flags().StringP("group-by", "g", "day", "grouping (day, week, month)")
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	groupFlag, _ := cmd.Flags().GetString("group-by")
	format, _ := cmd.Flags().GetString("format")

	group, err := ledger.ParseGrouping(groupFlag)
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.loadSnapshot(cmd.Context(), "cli")
	if err != nil {
		return err
	}
	stats := report.BuildStats(snap.Ledger, snap.Catalog, group)

	if format == "json" {
		return printJSON(stats)
	}

	fmt.Println(cli.FormatTitle("Movement report, grouped by " + stats.GroupBy))
	if len(stats.Rows) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no data loaded"))
		return nil
	}

	header := fmt.Sprintf("%-12s %12s %12s %12s %12s %12s  %s",
		"period", "ingredients", "internal", "out", "start", "end", "check")
	fmt.Println(cli.TableHeaderStyle.Render(header))
	for _, r := range stats.Rows {
		fmt.Println(statsLine(r))
	}
	fmt.Println(cli.TableHeaderStyle.Render(strings.Repeat("-", len(header))))
	fmt.Println(statsLine(stats.Totals))
	return nil
}

func statsLine(r report.Row) string {
	period := r.Date
	if period == "" {
		period = "total"
	}
	line := fmt.Sprintf("%-12s %12.3f %12.3f %12.3f %12.3f %12.3f  %s",
		period, r.IngredientsQty, r.InternalQty, r.OutQty,
		r.BalanceStart, r.BalanceEnd, r.CheckMessage)
	switch r.CheckStatus {
	case report.CheckShortage:
		return cli.ErrorStyle.Render(line)
	case report.CheckSurplus:
		return cli.WarningStyle.Render(line)
	default:
		return line
	}
}
