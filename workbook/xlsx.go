package workbook

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gonmoyano/ff-bidding-app/grid"
	"github.com/gonmoyano/ff-bidding-app/ratecard"
)

const sheetName = "Bid"

// ExportXLSX writes a grid's raw inputs to an xlsx file. formulas are
// written as formulas so they stay live in external spreadsheet apps;
// literals are written as typed values. when columns are given, a header
// row of titles is written above the data.
func ExportXLSX(g *grid.Grid, columns []ratecard.Column, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("exporting xlsx: %w", err)
	}

	headerRows := 0
	if len(columns) > 0 {
		headerRows = 1
		for i, col := range columns {
			axis, err := excelize.CoordinatesToCellName(i+1, 1)
			if err != nil {
				return fmt.Errorf("exporting xlsx: %w", err)
			}
			title := col.Title
			if title == "" {
				title = col.ID
			}
			if err := f.SetCellValue(sheetName, axis, title); err != nil {
				return fmt.Errorf("exporting xlsx: %w", err)
			}
		}
	}

	for key, raw := range g.RawCells() {
		axis, err := excelize.CoordinatesToCellName(int(key.Col)+1, int(key.Row)+1+headerRows)
		if err != nil {
			return fmt.Errorf("exporting xlsx: %w", err)
		}
		if err := writeCell(f, axis, raw); err != nil {
			return fmt.Errorf("exporting xlsx: cell %s: %w", axis, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("exporting xlsx: %w", err)
	}
	slog.Debug("xlsx exported", "path", path, "cells", g.CellCount(), "header", headerRows > 0)
	return nil
}

// writeCell writes one raw input with the type an external spreadsheet
// expects
func writeCell(f *excelize.File, axis, raw string) error {
	if strings.HasPrefix(raw, "=") {
		return f.SetCellFormula(sheetName, axis, strings.TrimPrefix(raw, "="))
	}
	switch v := grid.ClassifyRaw(raw).(type) {
	case float64:
		return f.SetCellValue(sheetName, axis, v)
	case bool:
		return f.SetCellBool(sheetName, axis, v)
	default:
		return f.SetCellStr(sheetName, axis, raw)
	}
}

// ImportOptions controls xlsx import
type ImportOptions struct {
	// HeaderRows is the number of leading rows to skip
	HeaderRows int
	// Limits for the grid being built; zero values use the defaults
	Limits grid.Limits
}

// ImportXLSX reads the first sheet of an xlsx file into a grid by
// replaying its raw inputs, then evaluates once. formulas are read back
// as formula text, everything else as the displayed value.
func ImportXLSX(path string, opts ImportOptions) (*grid.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("importing xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("importing xlsx: workbook has no sheets")
	}
	sheet := sheets[0]

	rows, cols, err := sheetExtent(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("importing xlsx: %w", err)
	}

	g := grid.NewGrid(grid.WithLimits(opts.Limits))
	for r := opts.HeaderRows; r < rows; r++ {
		for c := 0; c < cols; c++ {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("importing xlsx: %w", err)
			}
			raw, err := readCell(f, sheet, axis)
			if err != nil {
				return nil, fmt.Errorf("importing xlsx: cell %s: %w", axis, err)
			}
			if raw == "" {
				continue
			}
			key := grid.Key{Row: uint32(r - opts.HeaderRows), Col: uint32(c)}
			if err := g.SetRaw(key, raw); err != nil {
				return nil, fmt.Errorf("importing xlsx: cell %s: %w", axis, err)
			}
		}
	}
	g.EvaluateDirty()
	slog.Debug("xlsx imported", "path", path, "sheet", sheet, "cells", g.CellCount())
	return g, nil
}

// readCell reads one cell's raw input, preferring formula text over the
// cached value so formulas recompute after import
func readCell(f *excelize.File, sheet, axis string) (string, error) {
	formula, err := f.GetCellFormula(sheet, axis)
	if err != nil {
		return "", err
	}
	if formula != "" {
		return "=" + formula, nil
	}
	return f.GetCellValue(sheet, axis)
}

// sheetExtent determines the rectangle to scan. the declared dimension
// can be stale in third-party files and cached row data omits cells with
// no value, so the extents are combined.
func sheetExtent(f *excelize.File, sheet string) (rows, cols int, err error) {
	rowData, err := f.GetRows(sheet)
	if err != nil {
		return 0, 0, err
	}
	rows = len(rowData)
	for _, row := range rowData {
		if len(row) > cols {
			cols = len(row)
		}
	}

	if dim, err := f.GetSheetDimension(sheet); err == nil && dim != "" {
		corner := dim
		if idx := strings.IndexByte(dim, ':'); idx >= 0 {
			corner = dim[idx+1:]
		}
		if col, row, err := excelize.CellNameToCoordinates(corner); err == nil {
			if row > rows {
				rows = row
			}
			if col > cols {
				cols = col
			}
		}
	}
	return rows, cols, nil
}
