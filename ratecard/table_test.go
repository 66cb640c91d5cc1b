package ratecard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonmoyano/ff-bidding-app/grid"
)

func breakdownColumns() []Column {
	return []Column{
		{ID: "shot", Title: "Shot", Type: "text"},
		{ID: "days", Title: "Days", Type: "number"},
		{ID: "rate", Title: "Rate", Type: "float"},
		{ID: "cost", Title: "Cost", Type: "float"},
		{ID: "approved", Title: "Approved", Type: "checkbox"},
	}
}

func TestLoadColumns(t *testing.T) {
	data := []byte(`
columns:
  - id: shot
    title: Shot
    type: text
  - id: days
    title: Days
    type: number
  - id: total
    title: Total
    type: float
    locked: true
`)
	columns, err := LoadColumns(data)
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, "days", columns[1].ID)
	assert.True(t, columns[2].Locked)

	out, err := MarshalColumns(columns)
	require.NoError(t, err)
	again, err := LoadColumns(out)
	require.NoError(t, err)
	assert.Equal(t, columns, again)
}

func TestLoadColumnsRejectsBadSchemas(t *testing.T) {
	cases := map[string]string{
		"no columns":   `columns: []`,
		"missing id":   "columns:\n  - title: Shot\n    type: text",
		"duplicate id": "columns:\n  - id: a\n    type: text\n  - id: a\n    type: text",
		"unknown type": "columns:\n  - id: a\n    type: currency",
		"not yaml":     `{{{`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadColumns([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestTableRowLifecycle(t *testing.T) {
	table, err := NewTable(breakdownColumns())
	require.NoError(t, err)

	first, err := table.AppendRow(map[string]string{"shot": "sh010", "days": "3", "rate": "850"})
	require.NoError(t, err)
	second, err := table.AppendRow(map[string]string{"shot": "sh020", "days": "5", "rate": "850"})
	require.NoError(t, err)
	require.Equal(t, 2, table.RowCount())

	// inserting between the two keeps both identities
	middle, err := table.InsertRow(1, map[string]string{"shot": "sh015", "days": "2", "rate": "900"})
	require.NoError(t, err)
	require.Equal(t, 3, table.RowCount())

	idx, ok := table.RowIndex(second)
	require.True(t, ok)
	assert.Equal(t, 2, idx, "second row shifted down")

	view, err := table.Cell(second, "shot")
	require.NoError(t, err)
	assert.Equal(t, "sh020", view.Value)

	view, err = table.Cell(middle, "days")
	require.NoError(t, err)
	assert.Equal(t, 2.0, view.Value)

	// removing the middle row shifts the last one back up
	idx, ok = table.RowIndex(middle)
	require.True(t, ok)
	require.NoError(t, table.RemoveRow(idx))
	require.Equal(t, 2, table.RowCount())

	_, ok = table.RowIndex(middle)
	assert.False(t, ok, "removed row keeps no identity")

	view, err = table.Cell(first, "shot")
	require.NoError(t, err)
	assert.Equal(t, "sh010", view.Value)
	view, err = table.Cell(second, "shot")
	require.NoError(t, err)
	assert.Equal(t, "sh020", view.Value)
}

func TestTableCellFormulas(t *testing.T) {
	table, err := NewTable(breakdownColumns())
	require.NoError(t, err)

	row, err := table.AppendRow(map[string]string{"shot": "sh010", "days": "3", "rate": "850"})
	require.NoError(t, err)

	// cost = days * rate, by grid address (row 1: B1 days, C1 rate)
	require.NoError(t, table.SetCell(row, "cost", "=B1*C1"))

	view, err := table.Cell(row, "cost")
	require.NoError(t, err)
	assert.Equal(t, 2550.0, view.Value)

	// typed columns still gate table-level edits
	err = table.SetCell(row, "days", "many")
	assert.Error(t, err)
}

func TestTableUndoKeepsRowIdentities(t *testing.T) {
	table, err := NewTable(breakdownColumns())
	require.NoError(t, err)

	first, err := table.AppendRow(map[string]string{"shot": "sh010", "days": "3"})
	require.NoError(t, err)
	_, err = table.AppendRow(map[string]string{"shot": "sh020", "days": "5"})
	require.NoError(t, err)

	// undo the second append: one row left, identity intact
	require.True(t, table.Undo())
	assert.Equal(t, 1, table.RowCount())
	_, ok := table.RowIndex(first)
	assert.True(t, ok)

	// redo brings it back with the same ID list shape
	require.True(t, table.Redo())
	assert.Equal(t, 2, table.RowCount())
	view, err := table.Cell(first, "shot")
	require.NoError(t, err)
	assert.Equal(t, "sh010", view.Value)

	// undoing a removal restores the row and its identity
	require.NoError(t, table.RemoveRow(0))
	assert.Equal(t, 1, table.RowCount())
	require.True(t, table.Undo())
	assert.Equal(t, 2, table.RowCount())
	idx, ok := table.RowIndex(first)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	view, err = table.Cell(first, "days")
	require.NoError(t, err)
	assert.Equal(t, 3.0, view.Value)

	require.True(t, table.Redo())
	assert.False(t, table.Redo(), "redo stack exhausted")
}

func TestTableTotals(t *testing.T) {
	table, err := NewTable(breakdownColumns())
	require.NoError(t, err)

	_, err = table.AppendRow(map[string]string{"shot": "sh010", "days": "3", "rate": "850", "cost": "=B1*C1"})
	require.NoError(t, err)
	_, err = table.AppendRow(map[string]string{"shot": "sh020", "days": "5", "rate": "900", "cost": "=B2*C2"})
	require.NoError(t, err)
	_, err = table.AppendRow(map[string]string{"shot": "sh030", "days": "2", "rate": "0", "cost": "=B3/C3"})
	require.NoError(t, err)

	totals := table.Totals()
	require.Contains(t, totals, "days")
	require.Contains(t, totals, "cost")
	assert.NotContains(t, totals, "shot", "text columns have no totals")
	assert.NotContains(t, totals, "approved", "checkbox columns have no totals")

	assert.Equal(t, 10.0, totals["days"].Sum)
	assert.Equal(t, 3, totals["days"].Count)
	assert.Equal(t, 0, totals["days"].Errors)

	// the division by zero is skipped from the sum but counted
	assert.Equal(t, 2550.0+4500.0, totals["cost"].Sum)
	assert.Equal(t, 2, totals["cost"].Count)
	assert.Equal(t, 1, totals["cost"].Errors)
}

func TestTableLockedColumns(t *testing.T) {
	columns := []Column{
		{ID: "shot", Title: "Shot", Type: "text"},
		{ID: "total", Title: "Total", Type: "float", Locked: true},
	}
	table, err := NewTable(columns)
	require.NoError(t, err)

	row, err := table.AppendRow(map[string]string{"shot": "sh010", "total": "100"})
	require.NoError(t, err)

	// row operations may seed locked columns, user edits may not
	err = table.SetCell(row, "total", "200")
	assert.Error(t, err)

	view, err := table.Cell(row, "total")
	require.NoError(t, err)
	assert.Equal(t, 100.0, view.Value)
}

func TestTableInsertShiftsFormulaInputs(t *testing.T) {
	table, err := NewTable(breakdownColumns(), WithLimits(grid.Limits{MaxRows: 50, MaxCols: 10}))
	require.NoError(t, err)

	rowA, err := table.AppendRow(map[string]string{"shot": "sh010", "days": "4", "rate": "100", "cost": "=B1*C1"})
	require.NoError(t, err)

	// shifting the row down moves its formula text as-is; it now reads
	// the new row's inputs, matching plain spreadsheet paste semantics
	_, err = table.InsertRow(0, map[string]string{"shot": "sh005", "days": "1", "rate": "10"})
	require.NoError(t, err)

	view, err := table.Cell(rowA, "cost")
	require.NoError(t, err)
	assert.Equal(t, "=B1*C1", view.Raw)
	assert.Equal(t, 10.0, view.Value)
}
