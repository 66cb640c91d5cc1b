package ratecard

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gonmoyano/ff-bidding-app/grid"
)

// Table binds a column schema to a grid and gives every data row a stable
// logical ID, so rows inserted or shifted mid-table keep their identity.
// all mutations must flow through the table; it mirrors the grid's
// command history to keep the row-ID list in step across undo and redo.
type Table struct {
	columns  []Column
	colIndex map[string]uint32
	grid     *grid.Grid
	rowIDs   []uuid.UUID
	logger   *slog.Logger

	// structural mirror of the grid's history. one entry per committed
	// command: nil for plain cell edits, a rowOp for row inserts and
	// removals. same push, eviction and redo-clearing discipline.
	undoOps []*rowOp
	redoOps []*rowOp
}

type rowOp struct {
	insert bool
	index  int
	id     uuid.UUID
}

// TableOption configures a Table at construction
type TableOption func(*Table)

// WithLogger attaches a logger for row-level operations
func WithLogger(logger *slog.Logger) TableOption {
	return func(t *Table) { t.logger = logger }
}

// WithLimits overrides the backing grid's limits
func WithLimits(l grid.Limits) TableOption {
	return func(t *Table) {
		t.grid = grid.NewGrid(grid.WithLimits(l), grid.WithSchema(gridSchema(t.columns)))
	}
}

// NewTable creates an empty table over a fresh grid constrained by the
// column schema
func NewTable(columns []Column, opts ...TableOption) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table needs at least one column")
	}
	t := &Table{
		columns:  columns,
		colIndex: make(map[string]uint32, len(columns)),
		logger:   slog.Default(),
	}
	for i, col := range columns {
		if col.ID == "" {
			return nil, fmt.Errorf("column %d has no id", i)
		}
		if _, dup := t.colIndex[col.ID]; dup {
			return nil, fmt.Errorf("duplicate column id %q", col.ID)
		}
		t.colIndex[col.ID] = uint32(i)
	}
	t.grid = grid.NewGrid(grid.WithSchema(gridSchema(columns)))
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Grid exposes the backing grid for read access and subscriptions.
// mutating it directly desynchronizes row identities.
func (t *Table) Grid() *grid.Grid {
	return t.grid
}

// Columns returns the column schema
func (t *Table) Columns() []Column {
	return t.columns
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.rowIDs)
}

// RowID returns the stable ID of the row at index
func (t *Table) RowID(index int) (uuid.UUID, bool) {
	if index < 0 || index >= len(t.rowIDs) {
		return uuid.UUID{}, false
	}
	return t.rowIDs[index], true
}

// RowIndex returns the current index of the row with the given ID
func (t *Table) RowIndex(id uuid.UUID) (int, bool) {
	for i, rid := range t.rowIDs {
		if rid == id {
			return i, true
		}
	}
	return 0, false
}

func (t *Table) column(columnID string) (uint32, error) {
	col, ok := t.colIndex[columnID]
	if !ok {
		return 0, fmt.Errorf("unknown column %q", columnID)
	}
	return col, nil
}

// SetCell edits one cell addressed by row ID and column ID, as one
// undoable command
func (t *Table) SetCell(rowID uuid.UUID, columnID, raw string) error {
	row, ok := t.RowIndex(rowID)
	if !ok {
		return fmt.Errorf("unknown row %s", rowID)
	}
	col, err := t.column(columnID)
	if err != nil {
		return err
	}
	if _, err := t.grid.Edit(grid.Key{Row: uint32(row), Col: col}, raw); err != nil {
		return err
	}
	t.pushOp(nil)
	return nil
}

// Cell reads one cell addressed by row ID and column ID
func (t *Table) Cell(rowID uuid.UUID, columnID string) (grid.CellView, error) {
	row, ok := t.RowIndex(rowID)
	if !ok {
		return grid.CellView{}, fmt.Errorf("unknown row %s", rowID)
	}
	col, err := t.column(columnID)
	if err != nil {
		return grid.CellView{}, err
	}
	return t.grid.Read(grid.Key{Row: uint32(row), Col: col}), nil
}

// AppendRow adds a row at the bottom
func (t *Table) AppendRow(values map[string]string) (uuid.UUID, error) {
	return t.InsertRow(len(t.rowIDs), values)
}

// InsertRow inserts a row at the given index, shifting the rows below it
// down, as one undoable command. values maps column IDs to raw inputs for
// the new row.
func (t *Table) InsertRow(at int, values map[string]string) (uuid.UUID, error) {
	if at < 0 || at > len(t.rowIDs) {
		return uuid.UUID{}, fmt.Errorf("insert index %d out of range [0, %d]", at, len(t.rowIDs))
	}
	for columnID := range values {
		if _, err := t.column(columnID); err != nil {
			return uuid.UUID{}, err
		}
	}

	edits := make(map[grid.Key]string)
	moved := t.cellsFromRow(uint32(at))
	for key, raw := range moved {
		edits[grid.Key{Row: key.Row + 1, Col: key.Col}] = raw
	}
	for key := range moved {
		if _, overwritten := edits[key]; !overwritten {
			edits[key] = ""
		}
	}
	// write every column of the new row so the batch is never empty and
	// the command stays in step with the row-ID mirror
	for i := range t.columns {
		edits[grid.Key{Row: uint32(at), Col: uint32(i)}] = values[t.columns[i].ID]
	}

	id := uuid.New()
	if _, err := t.grid.ApplyBatch(fmt.Sprintf("insert row %d", at+1), edits); err != nil {
		return uuid.UUID{}, err
	}
	t.rowIDs = insertID(t.rowIDs, at, id)
	t.pushOp(&rowOp{insert: true, index: at, id: id})
	t.logger.Debug("row inserted", "index", at, "row_id", id)
	return id, nil
}

// RemoveRow removes the row at the given index, shifting the rows below
// it up, as one undoable command
func (t *Table) RemoveRow(at int) error {
	if at < 0 || at >= len(t.rowIDs) {
		return fmt.Errorf("remove index %d out of range [0, %d)", at, len(t.rowIDs))
	}

	edits := make(map[grid.Key]string)
	affected := t.cellsFromRow(uint32(at))
	for key, raw := range affected {
		if key.Row > uint32(at) {
			edits[grid.Key{Row: key.Row - 1, Col: key.Col}] = raw
		}
	}
	for key := range affected {
		if _, overwritten := edits[key]; !overwritten {
			edits[key] = ""
		}
	}
	// clear the removed row's columns even when it held no cells, so a
	// command always commits and the row-ID mirror stays in step
	for i := range t.columns {
		key := grid.Key{Row: uint32(at), Col: uint32(i)}
		if _, overwritten := edits[key]; !overwritten {
			edits[key] = ""
		}
	}

	id := t.rowIDs[at]
	if _, err := t.grid.ApplyBatch(fmt.Sprintf("remove row %d", at+1), edits); err != nil {
		return err
	}
	t.pushOp(&rowOp{insert: false, index: at, id: id})
	t.rowIDs = removeID(t.rowIDs, at)
	t.logger.Debug("row removed", "index", at, "row_id", id)
	return nil
}

// cellsFromRow snapshots the raw inputs of every stored cell at or below
// the given row
func (t *Table) cellsFromRow(row uint32) map[grid.Key]string {
	cells := make(map[grid.Key]string)
	for key, raw := range t.grid.RawCells() {
		if key.Row >= row {
			cells[key] = raw
		}
	}
	return cells
}

// Undo reverts the most recent command, keeping row identities in step
func (t *Table) Undo() bool {
	if _, ok := t.grid.Undo(); !ok {
		return false
	}
	op := t.popUndoOp()
	if op != nil {
		if op.insert {
			t.rowIDs = removeID(t.rowIDs, op.index)
		} else {
			t.rowIDs = insertID(t.rowIDs, op.index, op.id)
		}
	}
	return true
}

// Redo reapplies the most recently undone command
func (t *Table) Redo() bool {
	if _, ok := t.grid.Redo(); !ok {
		return false
	}
	op := t.popRedoOp()
	if op != nil {
		if op.insert {
			t.rowIDs = insertID(t.rowIDs, op.index, op.id)
		} else {
			t.rowIDs = removeID(t.rowIDs, op.index)
		}
	}
	return true
}

func (t *Table) CanUndo() bool {
	return t.grid.CanUndo()
}

func (t *Table) CanRedo() bool {
	return t.grid.CanRedo()
}

// pushOp mirrors the grid history's push: clear redo, evict the oldest
// past the depth limit
func (t *Table) pushOp(op *rowOp) {
	t.undoOps = append(t.undoOps, op)
	t.redoOps = t.redoOps[:0]
	if depth := t.grid.Limits().MaxUndoDepth; depth > 0 && len(t.undoOps) > depth {
		copy(t.undoOps, t.undoOps[1:])
		t.undoOps = t.undoOps[:len(t.undoOps)-1]
	}
}

func (t *Table) popUndoOp() *rowOp {
	if len(t.undoOps) == 0 {
		return nil
	}
	op := t.undoOps[len(t.undoOps)-1]
	t.undoOps = t.undoOps[:len(t.undoOps)-1]
	t.redoOps = append(t.redoOps, op)
	return op
}

func (t *Table) popRedoOp() *rowOp {
	if len(t.redoOps) == 0 {
		return nil
	}
	op := t.redoOps[len(t.redoOps)-1]
	t.redoOps = t.redoOps[:len(t.redoOps)-1]
	t.undoOps = append(t.undoOps, op)
	return op
}

func insertID(ids []uuid.UUID, at int, id uuid.UUID) []uuid.UUID {
	ids = append(ids, uuid.UUID{})
	copy(ids[at+1:], ids[at:])
	ids[at] = id
	return ids
}

func removeID(ids []uuid.UUID, at int) []uuid.UUID {
	copy(ids[at:], ids[at+1:])
	return ids[:len(ids)-1]
}

// Total summarizes one numeric column for the totals bar
type Total struct {
	Sum    float64
	Count  int
	Errors int
}

// Totals sums every numeric column over the data rows. error cells are
// skipped but counted, so the bar can flag columns with broken formulas.
func (t *Table) Totals() map[string]Total {
	totals := make(map[string]Total)
	for i, col := range t.columns {
		colType, _ := grid.ParseColumnType(col.Type)
		if colType != grid.ColumnNumber && colType != grid.ColumnFloat {
			continue
		}
		total := Total{}
		for row := 0; row < len(t.rowIDs); row++ {
			view := t.grid.Read(grid.Key{Row: uint32(row), Col: uint32(i)})
			switch v := view.Value.(type) {
			case *grid.EvalError:
				total.Errors++
			case float64:
				total.Sum += v
				total.Count++
			}
		}
		totals[col.ID] = total
	}
	return totals
}
