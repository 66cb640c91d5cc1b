package grid

import (
	"fmt"
	"iter"
	"sort"
	"strconv"
	"strings"
)

// Limits bounds the grid's resource usage. zero values fall back to the
// defaults.
type Limits struct {
	MaxRows       uint32
	MaxCols       uint32
	MaxRangeCells int
	MaxUndoDepth  int
}

// DefaultLimits are sized for bidding tables, not general spreadsheets
func DefaultLimits() Limits {
	return Limits{
		MaxRows:       10000,
		MaxCols:       256,
		MaxRangeCells: 10000,
		MaxUndoDepth:  200,
	}
}

func (l Limits) normalized() Limits {
	def := DefaultLimits()
	if l.MaxRows == 0 {
		l.MaxRows = def.MaxRows
	}
	if l.MaxCols == 0 {
		l.MaxCols = def.MaxCols
	}
	if l.MaxRangeCells == 0 {
		l.MaxRangeCells = def.MaxRangeCells
	}
	if l.MaxUndoDepth == 0 {
		l.MaxUndoDepth = def.MaxUndoDepth
	}
	return l
}

// Grid is the formula-driven cell store. it is sparse: only cells that
// have been written exist. Grid is not safe for concurrent use; callers
// serialize access the way a single UI thread would.
type Grid struct {
	cells     map[Key]*Cell
	graph     *depGraph
	funcs     *FunctionTable
	schema    *Schema
	limits    Limits
	history   *History
	listeners []func(affected []Key)
	dirty     map[Key]struct{}
}

// Option configures a Grid at construction
type Option func(*Grid)

// WithLimits overrides the default limits
func WithLimits(l Limits) Option {
	return func(g *Grid) { g.limits = l.normalized() }
}

// WithSchema attaches column constraints used by Edit and paste validation
func WithSchema(s *Schema) Option {
	return func(g *Grid) { g.schema = s }
}

// WithFunctions replaces the builtin function table
func WithFunctions(t *FunctionTable) Option {
	return func(g *Grid) { g.funcs = t }
}

// NewGrid creates an empty grid
func NewGrid(opts ...Option) *Grid {
	g := &Grid{
		cells:  make(map[Key]*Cell),
		graph:  newDepGraph(),
		funcs:  NewFunctionTable(),
		limits: DefaultLimits(),
		dirty:  make(map[Key]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.history = newHistory(g.limits.MaxUndoDepth)
	return g
}

// Limits returns the grid's effective limits
func (g *Grid) Limits() Limits {
	return g.limits
}

// Schema returns the attached column schema, which may be nil
func (g *Grid) Schema() *Schema {
	return g.schema
}

// InBounds reports whether a key is inside the configured grid bounds
func (g *Grid) InBounds(key Key) bool {
	return key.Row < g.limits.MaxRows && key.Col < g.limits.MaxCols
}

// cell returns the stored cell or nil. evaluation reads values through
// this accessor, so empty cells read as nil values.
func (g *Grid) cell(key Key) *Cell {
	return g.cells[key]
}

// ClassifyRaw converts non-formula input to its stored value: numeric
// text parses to a number, TRUE/FALSE to a boolean, everything else
// stays text
func ClassifyRaw(raw string) Primitive {
	trimmed := strings.TrimSpace(raw)
	if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return num
	}
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return raw
}

// SetRaw stores raw input at a key without touching the command history.
// it never fails on content: malformed formulas are stored as typed with a
// parse error as the computed value. the only hard error is a key outside
// the grid bounds. callers that need undo go through Edit or ApplyBatch.
func (g *Grid) SetRaw(key Key, raw string) error {
	if !g.InBounds(key) {
		return fmt.Errorf("cell %s is outside the grid bounds (%dx%d)", key, g.limits.MaxRows, g.limits.MaxCols)
	}

	if raw == "" {
		g.deleteCell(key)
		return nil
	}

	cell := g.cells[key]
	if cell == nil {
		cell = &Cell{}
		g.cells[key] = cell
	}
	cell.Raw = raw
	cell.expr = nil

	if raw[0] == '=' {
		g.linkFormula(key, cell)
	} else {
		g.graph.clearPrecedents(key)
		cell.Value = ClassifyRaw(raw)
		cell.Type = valueTypeOf(cell.Value)
	}

	cell.dirty = true
	g.dirty[key] = struct{}{}
	return nil
}

// linkFormula compiles formula text and installs its dependency edges.
// formulas that cannot be compiled or linked keep their raw text and get
// an error value; they contribute no edges.
func (g *Grid) linkFormula(key Key, cell *Cell) {
	g.graph.clearPrecedents(key)

	expr, err := ParseFormula(cell.Raw)
	if err != nil {
		cell.Value = asEvalError(err)
		cell.Type = ValueTypeError
		return
	}

	if fanOut := maxRangeFanOut(expr); fanOut > g.limits.MaxRangeCells {
		cell.Value = NewEvalError(ErrorCodeLimit, fmt.Sprintf("range covers %d cells, limit is %d", fanOut, g.limits.MaxRangeCells))
		cell.Type = ValueTypeError
		return
	}

	precedents := make(map[Key]struct{})
	outOfBounds := false
	collectRefs(expr, func(ref Key) {
		if !g.InBounds(ref) {
			outOfBounds = true
			return
		}
		precedents[ref] = struct{}{}
	})
	if outOfBounds {
		cell.Value = NewEvalError(ErrorCodeRef, "reference outside the grid bounds")
		cell.Type = ValueTypeError
		return
	}

	cell.expr = expr
	g.graph.setPrecedents(key, precedents)
}

// deleteCell removes a cell and its outgoing edges. dependents are marked
// dirty so they recompute against the now-empty cell.
func (g *Grid) deleteCell(key Key) {
	if _, exists := g.cells[key]; !exists {
		return
	}
	g.graph.clearPrecedents(key)
	delete(g.cells, key)
	g.dirty[key] = struct{}{}
}

// EvaluateDirty recomputes every dirty cell and everything that
// transitively depends on one, in deterministic order (row, then column).
// cells on a reference cycle compute to #CIRC!; unrelated cells are
// unaffected. returns the sorted keys of every recomputed cell.
func (g *Grid) EvaluateDirty() []Key {
	if len(g.dirty) == 0 {
		return nil
	}

	seeds := make([]Key, 0, len(g.dirty))
	for k := range g.dirty {
		seeds = append(seeds, k)
	}

	affected := make(map[Key]struct{}, len(seeds))
	g.graph.transitiveDependents(seeds, affected)

	order := make([]Key, 0, len(affected))
	for k := range affected {
		order = append(order, k)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })

	processing := make(map[Key]struct{})
	completed := make(map[Key]struct{})
	for _, key := range order {
		g.evaluateCell(key, affected, processing, completed)
	}

	g.dirty = make(map[Key]struct{})
	return order
}

// evaluateCell computes one cell after recursively computing its
// precedents. a precedent found in the processing set closes a cycle; the
// current cell becomes #CIRC! and the error propagates to the rest of the
// cycle through ordinary value reads.
func (g *Grid) evaluateCell(key Key, affected, processing, completed map[Key]struct{}) {
	if _, done := completed[key]; done {
		return
	}
	processing[key] = struct{}{}

	cell := g.cells[key]
	if cell == nil || cell.expr == nil {
		// deleted cells, literals and unlinkable formulas already carry
		// their final value
		delete(processing, key)
		completed[key] = struct{}{}
		if cell != nil {
			cell.dirty = false
		}
		return
	}

	circular := false
	for p := range g.graph.precedentsOf(key) {
		if _, inCycle := processing[p]; inCycle {
			circular = true
			continue
		}
		if _, needsEval := affected[p]; needsEval {
			g.evaluateCell(p, affected, processing, completed)
		}
	}

	if circular {
		cell.Value = NewEvalError(ErrorCodeCircular, fmt.Sprintf("%s participates in a reference cycle", key))
	} else {
		value, err := cell.expr.Eval(g)
		if err != nil {
			value = asEvalError(err)
		}
		cell.Value = value
	}
	cell.Type = valueTypeOf(cell.Value)
	cell.dirty = false

	delete(processing, key)
	completed[key] = struct{}{}
}

// Read returns the cell's raw input, computed value and value type.
// missing cells read as empty.
func (g *Grid) Read(key Key) CellView {
	cell := g.cells[key]
	if cell == nil {
		return CellView{Type: ValueTypeEmpty}
	}
	return CellView{Raw: cell.Raw, Value: cell.Value, Type: cell.Type}
}

// Display renders the cell's computed value as the string a table cell
// would show
func (g *Grid) Display(key Key) string {
	return toString(g.Read(key).Value)
}

// snapshotOf captures one key's current state
func (g *Grid) snapshotOf(key Key) Snapshot {
	cell := g.cells[key]
	if cell == nil {
		return Snapshot{}
	}
	return Snapshot{Raw: cell.Raw, Value: cell.Value, Type: cell.Type, Exists: true}
}

// restoreSnapshot reinstates a captured state. the value and type come
// straight from the snapshot so the cell itself needs no re-evaluation;
// only the dependency edges are relinked and dependents marked dirty.
func (g *Grid) restoreSnapshot(key Key, snap Snapshot) {
	if !snap.Exists {
		g.deleteCell(key)
		return
	}
	cell := g.cells[key]
	if cell == nil {
		cell = &Cell{}
		g.cells[key] = cell
	}
	cell.Raw = snap.Raw
	cell.expr = nil
	if cell.IsFormula() {
		g.linkFormula(key, cell)
	} else {
		g.graph.clearPrecedents(key)
	}
	cell.Value = snap.Value
	cell.Type = snap.Type
	cell.dirty = false
	// dependents recompute against the restored value
	for dep := range g.graph.dependentsOf(key) {
		g.dirty[dep] = struct{}{}
	}
}

// Edit commits a single-cell edit as one undoable command. the edit is
// rejected when the key is out of bounds, the column is locked, or the
// input does not fit the column's declared type. returns every cell whose
// computed value may have changed.
func (g *Grid) Edit(key Key, raw string) ([]Key, error) {
	if !g.InBounds(key) {
		return nil, fmt.Errorf("cell %s is outside the grid bounds (%dx%d)", key, g.limits.MaxRows, g.limits.MaxCols)
	}
	if g.schema.IsLocked(key.Col) {
		return nil, fmt.Errorf("cell %s: column is locked", key)
	}
	if !g.schema.Accepts(key.Col, raw) {
		return nil, fmt.Errorf("cell %s: %q is not valid for a %s column", key, raw, g.schema.Spec(key.Col).Type)
	}
	return g.commit(fmt.Sprintf("edit %s", key), map[Key]string{key: raw})
}

// ApplyBatch commits several raw edits as one undoable command. inputs
// are applied unvalidated; callers (paste, row operations) validate
// before reaching here.
func (g *Grid) ApplyBatch(label string, edits map[Key]string) ([]Key, error) {
	if len(edits) == 0 {
		return nil, nil
	}
	for key := range edits {
		if !g.InBounds(key) {
			return nil, fmt.Errorf("cell %s is outside the grid bounds (%dx%d)", key, g.limits.MaxRows, g.limits.MaxCols)
		}
	}
	return g.commit(label, edits)
}

// commit applies raw edits, evaluates, records the command and notifies
// listeners
func (g *Grid) commit(label string, edits map[Key]string) ([]Key, error) {
	cmd := &Command{
		Label:  label,
		Before: make(map[Key]Snapshot, len(edits)),
		After:  make(map[Key]Snapshot, len(edits)),
	}
	for key := range edits {
		cmd.Before[key] = g.snapshotOf(key)
	}

	for key, raw := range edits {
		if err := g.SetRaw(key, raw); err != nil {
			// bounds were checked by the callers; restore and bail
			for k, snap := range cmd.Before {
				g.restoreSnapshot(k, snap)
			}
			g.EvaluateDirty()
			return nil, err
		}
	}

	affected := g.EvaluateDirty()

	// capture computed state so redo restores values without re-evaluating
	for key := range edits {
		cmd.After[key] = g.snapshotOf(key)
	}

	g.history.Push(cmd)
	g.notify(affected)
	return affected, nil
}

// Undo reverts the most recent command. returns the affected keys and
// whether anything was undone.
func (g *Grid) Undo() ([]Key, bool) {
	cmd := g.history.PopUndo()
	if cmd == nil {
		return nil, false
	}
	affected := g.applySnapshots(cmd.Before)
	g.notify(affected)
	return affected, true
}

// Redo reapplies the most recently undone command
func (g *Grid) Redo() ([]Key, bool) {
	cmd := g.history.PopRedo()
	if cmd == nil {
		return nil, false
	}
	affected := g.applySnapshots(cmd.After)
	g.notify(affected)
	return affected, true
}

// applySnapshots restores a command side and re-evaluates dependents. the
// restored cells themselves are part of the result even though their
// values came from the snapshots.
func (g *Grid) applySnapshots(side map[Key]Snapshot) []Key {
	restored := make(map[Key]struct{}, len(side))
	for key, snap := range side {
		g.restoreSnapshot(key, snap)
		restored[key] = struct{}{}
	}

	affected := g.EvaluateDirty()
	for _, k := range affected {
		restored[k] = struct{}{}
	}

	keys := make([]Key, 0, len(restored))
	for k := range restored {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

func (g *Grid) CanUndo() bool {
	return g.history.CanUndo()
}

func (g *Grid) CanRedo() bool {
	return g.history.CanRedo()
}

// UndoLabel names the command Undo would revert, for menu items
func (g *Grid) UndoLabel() string {
	return g.history.UndoLabel()
}

// RedoLabel names the command Redo would reapply
func (g *Grid) RedoLabel() string {
	return g.history.RedoLabel()
}

// Subscribe registers a listener called with the affected keys after
// every commit, undo and redo
func (g *Grid) Subscribe(fn func(affected []Key)) {
	g.listeners = append(g.listeners, fn)
}

func (g *Grid) notify(affected []Key) {
	if len(affected) == 0 {
		return
	}
	for _, fn := range g.listeners {
		fn(affected)
	}
}

// RawCells iterates every stored cell's raw input in row-major order.
// replaying SetRaw for each pair into an empty grid with the same limits,
// followed by one EvaluateDirty, reconstructs identical computed state.
func (g *Grid) RawCells() iter.Seq2[Key, string] {
	keys := make([]Key, 0, len(g.cells))
	for k := range g.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return func(yield func(Key, string) bool) {
		for _, k := range keys {
			if !yield(k, g.cells[k].Raw) {
				return
			}
		}
	}
}

// CellCount returns the number of stored cells
func (g *Grid) CellCount() int {
	return len(g.cells)
}

// Extent returns the smallest row and column counts covering every stored
// cell. an empty grid has extent (0, 0).
func (g *Grid) Extent() (rows, cols uint32) {
	for k := range g.cells {
		if k.Row+1 > rows {
			rows = k.Row + 1
		}
		if k.Col+1 > cols {
			cols = k.Col + 1
		}
	}
	return rows, cols
}
