package main

import (
	"github.com/spf13/cobra"

	"github.com/gonmoyano/ff-bidding-app/workbook"
)

var importHeaderRows int

var importCmd = &cobra.Command{
	Use:   "import <in.xlsx> <document.yaml>",
	Short: "Import an xlsx sheet into a grid document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := workbook.ImportXLSX(args[0], workbook.ImportOptions{HeaderRows: importHeaderRows})
		if err != nil {
			return err
		}
		return workbook.SaveDocument(g, nil, args[1])
	},
}

func init() {
	importCmd.Flags().IntVar(&importHeaderRows, "header-rows", 0, "number of leading rows to skip")
}
