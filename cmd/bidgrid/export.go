package main

import (
	"github.com/spf13/cobra"

	"github.com/gonmoyano/ff-bidding-app/workbook"
)

var exportCmd = &cobra.Command{
	Use:   "export <document.yaml> <out.xlsx>",
	Short: "Export a grid document to xlsx",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := workbook.LoadDocument(args[0])
		if err != nil {
			return err
		}
		g, err := doc.Build()
		if err != nil {
			return err
		}
		return workbook.ExportXLSX(g, doc.Columns, args[1])
	},
}
