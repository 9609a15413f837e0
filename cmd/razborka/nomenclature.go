package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarpov/razborka/internal/cli"
	"github.com/mkarpov/razborka/internal/report"
)

func nomenclatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nomenclature",
		Short: "List every item seen across all movement files",
		RunE:  runNomenclature,
	}
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func runNomenclature(cmd *cobra.Command, _ []string) error {
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
	items := report.Nomenclature(snap.Tables)

	if format == "json" {
		return printJSON(map[string]any{"items": items})
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Nomenclature (%d items)", len(items))))
	for _, item := range items {
		fmt.Println("  " + item)
	}
	return nil
}

func missingPricesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missing-prices",
		Short: "List items that have movements but no catalog price",
		RunE:  runMissingPrices,
	}
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func runMissingPrices(cmd *cobra.Command, _ []string) error {
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
	items := report.MissingPrices(snap.Tables, snap.Catalog)

	if format == "json" {
		return printJSON(map[string]any{"items": items})
	}

	if len(items) == 0 {
		fmt.Println(cli.FormatSuccess("every item has a price"))
		return nil
	}
	fmt.Println(cli.FormatWarning(fmt.Sprintf("%d items without a price:", len(items))))
	for _, item := range items {
		fmt.Println("  " + item)
	}
	return nil
}

func sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Show which files feed each flow table",
		RunE:  runSources,
	}
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func runSources(cmd *cobra.Command, _ []string) error {
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
	sources := report.Sources(snap.Tables)

	if format == "json" {
		return printJSON(map[string]any{"sources": sources})
	}

	fmt.Println(cli.FormatTitle("Source tables"))
	fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-30s %8s %8s %8s", "flow", "files", "rows", "dates")))
	for _, s := range sources {
		fmt.Printf("%-30s %8d %8d %8d\n", s.Label, s.Files, s.Rows, s.Dates)
	}
	return nil
}
