package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkarpov/razborka/internal/cli"
	"github.com/mkarpov/razborka/internal/model"
	"github.com/mkarpov/razborka/internal/report"
)

func detailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detail <date>",
		Short: "Show the per-item breakdown of one flow on one date",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetail,
	}
	cmd.Flags().StringP("flow", "f", "ingredients", "flow type (in, ingredients, internal, out)")
	cmd.Flags().String("order-by", "", "sort items by cost instead of quantity (cost)")
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func runDetail(cmd *cobra.Command, args []string) error {
	flowFlag, _ := cmd.Flags().GetString("flow")
	orderBy, _ := cmd.Flags().GetString("order-by")
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
	detail, err := report.FlowDetail(snap.Ledger, snap.Catalog, args[0], model.FlowType(flowFlag), orderBy)
	if err != nil {
		return err
	}

	if format == "json" {
		return printJSON(detail)
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%s on %s", detail.Flow.Label(), detail.Date)))
	if len(detail.Items) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no movements"))
		return nil
	}
	fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-50s %12s %12s", "item", "quantity", "cost")))
	for _, it := range detail.Items {
		fmt.Printf("%-50s %12.3f %12.2f\n", it.Name, it.Quantity, it.Cost)
	}
	return nil
}

func fullDetailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "full-detail <date>",
		Short: "Show every item's full position on one date",
		Args:  cobra.ExactArgs(1),
		RunE:  runFullDetail,
	}
	cmd.Flags().String("format", "table", "output format (table, json)")
	return cmd
}

func runFullDetail(cmd *cobra.Command, args []string) error {
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
	detail := report.BuildFullDetail(snap.Ledger, snap.Catalog, args[0])

	if format == "json" {
		return printJSON(detail)
	}

	fmt.Println(cli.FormatTitle("Full position on " + detail.Date))
	if len(detail.Items) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no data for this date"))
		return nil
	}
	fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-50s %10s %10s %10s %10s %10s %10s",
		"item", "start", "in", "ingr", "internal", "out", "end")))
	for _, it := range detail.Items {
		fmt.Printf("%-50s %10.3f %10.3f %10.3f %10.3f %10.3f %10.3f\n",
			it.Name, it.BalanceStart, it.InQty, it.IngredientsQty,
			it.InternalQty, it.OutQty, it.BalanceEnd)
	}
	return nil
}
