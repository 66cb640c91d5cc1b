package grid

import (
	"fmt"
	"sort"
	"strings"
)

// PayloadCell is one copied cell: raw input only, never the computed
// value, so pasted formulas recompute in their new home
type PayloadCell struct {
	Raw string
}

// Payload is a rectangular clipboard block
type Payload struct {
	Rows  int
	Cols  int
	Cells [][]PayloadCell
}

// IsSingle reports whether the payload is exactly one cell
func (p *Payload) IsSingle() bool {
	return p.Rows == 1 && p.Cols == 1
}

// EncodeTSV renders the payload as tab-separated text, the interchange
// format shared with external spreadsheet apps
func (p *Payload) EncodeTSV() string {
	var b strings.Builder
	for r, row := range p.Cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c, cell := range row {
			if c > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(cell.Raw)
		}
	}
	return b.String()
}

// DecodeTSV parses tab-separated text into a payload. rows are padded to
// the widest row so the block is always rectangular.
func DecodeTSV(text string) *Payload {
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	cols := 0
	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.Split(strings.TrimSuffix(line, "\r"), "\t")
		if len(rows[i]) > cols {
			cols = len(rows[i])
		}
	}
	payload := &Payload{Rows: len(rows), Cols: cols}
	payload.Cells = make([][]PayloadCell, len(rows))
	for i, row := range rows {
		payload.Cells[i] = make([]PayloadCell, cols)
		for j, raw := range row {
			payload.Cells[i][j] = PayloadCell{Raw: raw}
		}
	}
	return payload
}

// Copy reads the bounding box of the selection into a payload. cells
// inside the box but outside the sparse store copy as empty.
func (g *Grid) Copy(selection []Key) *Payload {
	if len(selection) == 0 {
		return &Payload{}
	}

	minRow, maxRow := selection[0].Row, selection[0].Row
	minCol, maxCol := selection[0].Col, selection[0].Col
	for _, k := range selection[1:] {
		if k.Row < minRow {
			minRow = k.Row
		}
		if k.Row > maxRow {
			maxRow = k.Row
		}
		if k.Col < minCol {
			minCol = k.Col
		}
		if k.Col > maxCol {
			maxCol = k.Col
		}
	}

	payload := &Payload{
		Rows: int(maxRow-minRow) + 1,
		Cols: int(maxCol-minCol) + 1,
	}
	payload.Cells = make([][]PayloadCell, payload.Rows)
	for r := 0; r < payload.Rows; r++ {
		payload.Cells[r] = make([]PayloadCell, payload.Cols)
		for c := 0; c < payload.Cols; c++ {
			key := Key{Row: minRow + uint32(r), Col: minCol + uint32(c)}
			if cell := g.cells[key]; cell != nil {
				payload.Cells[r][c] = PayloadCell{Raw: cell.Raw}
			}
		}
	}
	return payload
}

// PasteMode selects how Paste handles validation failures
type PasteMode int

const (
	// PasteAllOrNothing applies nothing when any target cell fails
	// validation
	PasteAllOrNothing PasteMode = iota
	// PastePartial applies the valid subset and reports the rest
	PastePartial
)

// PasteReject explains why one target cell was not written
type PasteReject struct {
	Key    Key
	Reason string
}

// PasteResult reports what a paste did. Applied holds every cell whose
// value may have changed (targets plus recomputed dependents).
type PasteResult struct {
	Applied  []Key
	Rejected []PasteReject
}

// ValidateForPaste checks every target cell of pasting the payload at the
// anchor and returns all failures with reasons. an empty result means the
// whole payload is admissible.
func (g *Grid) ValidateForPaste(payload *Payload, anchor Key) []PasteReject {
	rejects := []PasteReject{}
	for r := 0; r < payload.Rows; r++ {
		for c := 0; c < payload.Cols; c++ {
			key := Key{Row: anchor.Row + uint32(r), Col: anchor.Col + uint32(c)}
			if reason := g.pasteReason(key, payload.Cells[r][c].Raw); reason != "" {
				rejects = append(rejects, PasteReject{Key: key, Reason: reason})
			}
		}
	}
	return rejects
}

// pasteReason returns the rejection reason for writing raw at key, or ""
// when admissible
func (g *Grid) pasteReason(key Key, raw string) string {
	if !g.InBounds(key) {
		return fmt.Sprintf("outside the grid bounds (%dx%d)", g.limits.MaxRows, g.limits.MaxCols)
	}
	if g.schema.IsLocked(key.Col) {
		return "column is locked"
	}
	if !g.schema.Accepts(key.Col, raw) {
		return fmt.Sprintf("%q is not valid for a %s column", raw, g.schema.Spec(key.Col).Type)
	}
	return ""
}

// Paste writes the payload with its top-left cell at the anchor, as one
// undoable command. in PasteAllOrNothing mode any rejection leaves the
// grid untouched; in PastePartial mode the valid subset is applied and
// the rejects reported.
func (g *Grid) Paste(payload *Payload, anchor Key, mode PasteMode) (PasteResult, error) {
	edits := make(map[Key]string)
	rejects := []PasteReject{}
	for r := 0; r < payload.Rows; r++ {
		for c := 0; c < payload.Cols; c++ {
			key := Key{Row: anchor.Row + uint32(r), Col: anchor.Col + uint32(c)}
			raw := payload.Cells[r][c].Raw
			if reason := g.pasteReason(key, raw); reason != "" {
				rejects = append(rejects, PasteReject{Key: key, Reason: reason})
				continue
			}
			edits[key] = raw
		}
	}
	return g.finishPaste(edits, rejects, mode)
}

// PasteFill fans a single-cell payload out to every cell of the selection,
// the way pasting one value onto a multi-cell selection fills it
func (g *Grid) PasteFill(payload *Payload, selection []Key, mode PasteMode) (PasteResult, error) {
	if !payload.IsSingle() {
		return PasteResult{}, fmt.Errorf("fill paste requires a single-cell payload, got %dx%d", payload.Rows, payload.Cols)
	}
	raw := payload.Cells[0][0].Raw

	edits := make(map[Key]string)
	rejects := []PasteReject{}
	for _, key := range selection {
		if reason := g.pasteReason(key, raw); reason != "" {
			rejects = append(rejects, PasteReject{Key: key, Reason: reason})
			continue
		}
		edits[key] = raw
	}
	return g.finishPaste(edits, rejects, mode)
}

func (g *Grid) finishPaste(edits map[Key]string, rejects []PasteReject, mode PasteMode) (PasteResult, error) {
	sort.Slice(rejects, func(i, j int) bool { return rejects[i].Key.Less(rejects[j].Key) })

	if mode == PasteAllOrNothing && len(rejects) > 0 {
		return PasteResult{Rejected: rejects}, fmt.Errorf("paste rejected: %d of %d cells failed validation", len(rejects), len(edits)+len(rejects))
	}
	if len(edits) == 0 {
		return PasteResult{Rejected: rejects}, nil
	}

	affected, err := g.ApplyBatch(fmt.Sprintf("paste %d cells", len(edits)), edits)
	if err != nil {
		return PasteResult{Rejected: rejects}, err
	}
	return PasteResult{Applied: affected, Rejected: rejects}, nil
}
