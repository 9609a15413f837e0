package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarpov/razborka/internal/cli"
	"github.com/mkarpov/razborka/internal/report"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the top movers for a period",
		RunE:  runSummary,
	}
	cmd.Flags().StringP("period", "p", "week", "period (week, month, all)")
	cmd.Flags().Int("top-in", 10, "how many receipt items to show")
	cmd.Flags().Int("top-internal", 10, "how many write-off items to show")
	cmd.Flags().Int("top-out", 10, "how many shipment items to show")
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	period, _ := cmd.Flags().GetString("period")
	topIn, _ := cmd.Flags().GetInt("top-in")
	topInternal, _ := cmd.Flags().GetInt("top-internal")
	topOut, _ := cmd.Flags().GetInt("top-out")
	format, _ := cmd.Flags().GetString("format")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.loadSnapshot(cmd.Context(), "cli")
	if err != nil {
		return err
	}
	summary, err := report.BuildSummary(snap.Ledger, snap.Catalog, period, topIn, topInternal, topOut)
	if err != nil {
		return err
	}

	if format == "json" {
		return printJSON(summary)
	}

	fmt.Println(cli.FormatTitle("Top movers, period: " + summary.Period))
	printItemSection("Receipts to holding", summary.In)
	printItemSection("Disassembly output", summary.Ingredients)
	printItemSection("Internal write-offs", summary.Internal)
	printItemSection("Shipments", summary.Out)
	return nil
}

func printItemSection(title string, list []report.Item) {
	fmt.Println(cli.TableHeaderStyle.Render(title))
	if len(list) == 0 {
		fmt.Println(cli.SubtleStyle.Render("  none"))
		return
	}
	for _, it := range list {
		fmt.Printf("  %-50s %12.3f %12.2f\n", it.Name, it.Quantity, it.Cost)
	}
}
