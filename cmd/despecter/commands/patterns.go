package commands

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/despecter/pkg/patterns"
)

// NewPatternsCommand lists the rewrite catalog in application order.
func NewPatternsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the rewrite pattern catalog",
		Run: func(_ *cobra.Command, _ []string) {
			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			tbl.Style().Options.SeparateRows = false
			tbl.Style().Options.SeparateColumns = false

			tbl.AppendHeader(table.Row{"#", "Pattern", "Description"})

			for idx, pattern := range patterns.Catalog() {
				tbl.AppendRow(table.Row{idx + 1, pattern.Name(), pattern.Description()})
			}

			fmt.Fprintln(os.Stdout, tbl.Render())
		},
	}
}
