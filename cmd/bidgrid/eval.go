package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gonmoyano/ff-bidding-app/grid"
	"github.com/gonmoyano/ff-bidding-app/workbook"
)

var evalCell string

var evalCmd = &cobra.Command{
	Use:   "eval <document.yaml>",
	Short: "Evaluate a grid document and print the computed cells",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := workbook.LoadDocument(args[0])
		if err != nil {
			return err
		}
		g, err := doc.Build()
		if err != nil {
			return err
		}

		if evalCell != "" {
			key, err := grid.ParseKey(evalCell)
			if err != nil {
				return fmt.Errorf("bad --cell address %q", evalCell)
			}
			fmt.Fprintln(cmd.OutOrStdout(), g.Display(key))
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CELL\tRAW\tVALUE")
		for key, raw := range g.RawCells() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", key, raw, g.Display(key))
		}
		return w.Flush()
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalCell, "cell", "", "print a single cell's computed value")
}
