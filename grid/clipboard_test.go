package grid

import (
	"strings"
	"testing"
)

func TestCopyBoundingBox(t *testing.T) {
	g := NewGrid()
	for addr, raw := range map[string]string{
		"A1": "10",
		"B2": "=A1*2",
		"C1": "note",
	} {
		if err := g.SetRaw(mustKey(t, addr), raw); err != nil {
			t.Fatalf("SetRaw failed: %v", err)
		}
	}
	g.EvaluateDirty()

	// selecting two corners copies the whole box, raws only
	payload := g.Copy([]Key{mustKey(t, "A1"), mustKey(t, "C2")})
	if payload.Rows != 2 || payload.Cols != 3 {
		t.Fatalf("payload is %dx%d, want 2x3", payload.Rows, payload.Cols)
	}
	if got := payload.Cells[0][0].Raw; got != "10" {
		t.Errorf("A1 raw = %q, want %q", got, "10")
	}
	if got := payload.Cells[1][1].Raw; got != "=A1*2" {
		t.Errorf("B2 raw = %q, want formula text", got)
	}
	if got := payload.Cells[0][2].Raw; got != "note" {
		t.Errorf("C1 raw = %q, want %q", got, "note")
	}
	if got := payload.Cells[1][0].Raw; got != "" {
		t.Errorf("A2 raw = %q, want empty", got)
	}

	if empty := g.Copy(nil); empty.Rows != 0 || empty.Cols != 0 {
		t.Errorf("copying an empty selection gave %dx%d", empty.Rows, empty.Cols)
	}
}

func TestPasteRecomputesFormulas(t *testing.T) {
	g := NewGrid()
	for addr, raw := range map[string]string{
		"A1": "10",
		"A2": "20",
		"A3": "=SUM(A1:A2)",
	} {
		if err := g.SetRaw(mustKey(t, addr), raw); err != nil {
			t.Fatalf("SetRaw failed: %v", err)
		}
	}
	g.EvaluateDirty()

	payload := g.Copy([]Key{mustKey(t, "A3")})
	result, err := g.Paste(payload, mustKey(t, "B3"), PasteAllOrNothing)
	if err != nil {
		t.Fatalf("Paste failed: %v", err)
	}
	if len(result.Rejected) != 0 {
		t.Fatalf("unexpected rejects: %v", result.Rejected)
	}

	// the raw formula was pasted, so B3 recomputed in place rather than
	// carrying A3's value
	view := g.Read(mustKey(t, "B3"))
	if view.Raw != "=SUM(A1:A2)" {
		t.Errorf("B3 raw = %q, want the formula text", view.Raw)
	}
	if view.Value != 30.0 {
		t.Errorf("B3 = %v, want 30", view.Value)
	}
}

func TestPasteAllOrNothing(t *testing.T) {
	schema := NewSchema()
	schema.Columns[1] = ColumnSpec{Type: ColumnText, Locked: true}
	g := NewGrid(WithSchema(schema))

	payload := &Payload{
		Rows: 1,
		Cols: 2,
		Cells: [][]PayloadCell{
			{{Raw: "10"}, {Raw: "20"}},
		},
	}

	// column B is locked, so nothing lands
	result, err := g.Paste(payload, mustKey(t, "A1"), PasteAllOrNothing)
	if err == nil {
		t.Fatal("Paste into a locked column succeeded, want rejection")
	}
	if len(result.Applied) != 0 {
		t.Errorf("all-or-nothing paste applied %v", result.Applied)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Key != mustKey(t, "B1") {
		t.Errorf("rejects = %v, want just B1", result.Rejected)
	}
	if g.CellCount() != 0 {
		t.Errorf("grid has %d cells after a failed paste, want 0", g.CellCount())
	}
	if g.CanUndo() {
		t.Error("failed paste left a command on the undo stack")
	}
}

func TestPastePartial(t *testing.T) {
	schema := NewSchema()
	schema.Columns[1] = ColumnSpec{Type: ColumnText, Locked: true}
	g := NewGrid(WithSchema(schema))

	payload := &Payload{
		Rows: 1,
		Cols: 3,
		Cells: [][]PayloadCell{
			{{Raw: "10"}, {Raw: "20"}, {Raw: "30"}},
		},
	}

	result, err := g.Paste(payload, mustKey(t, "A1"), PastePartial)
	if err != nil {
		t.Fatalf("Paste failed: %v", err)
	}
	if len(result.Rejected) != 1 {
		t.Fatalf("rejects = %v, want just the locked column", result.Rejected)
	}
	if !strings.Contains(result.Rejected[0].Reason, "locked") {
		t.Errorf("reject reason = %q, want a locked-column reason", result.Rejected[0].Reason)
	}
	if g.Read(mustKey(t, "A1")).Value != 10.0 {
		t.Error("A1 not pasted")
	}
	if g.Read(mustKey(t, "C1")).Value != 30.0 {
		t.Error("C1 not pasted")
	}
	if g.Read(mustKey(t, "B1")).Raw != "" {
		t.Error("locked B1 was written")
	}

	// the valid subset is one undoable command
	g.Undo()
	if g.CellCount() != 0 {
		t.Errorf("undo left %d cells, want 0", g.CellCount())
	}
}

func TestPasteClippedAtBounds(t *testing.T) {
	g := NewGrid(WithLimits(Limits{MaxRows: 3, MaxCols: 3}))

	payload := &Payload{
		Rows: 2,
		Cols: 2,
		Cells: [][]PayloadCell{
			{{Raw: "1"}, {Raw: "2"}},
			{{Raw: "3"}, {Raw: "4"}},
		},
	}

	// anchored at C3, only the anchor cell is in bounds
	result, err := g.Paste(payload, Key{Row: 2, Col: 2}, PastePartial)
	if err != nil {
		t.Fatalf("Paste failed: %v", err)
	}
	if len(result.Rejected) != 3 {
		t.Fatalf("rejects = %v, want 3 out-of-bounds cells", result.Rejected)
	}
	for _, r := range result.Rejected {
		if !strings.Contains(r.Reason, "bounds") {
			t.Errorf("reject reason = %q, want an out-of-bounds reason", r.Reason)
		}
	}
	if g.Read(Key{Row: 2, Col: 2}).Value != 1.0 {
		t.Error("in-bounds anchor cell not pasted")
	}
}

func TestValidateForPaste(t *testing.T) {
	schema := NewSchema()
	schema.Columns[0] = ColumnSpec{Type: ColumnNumber}
	g := NewGrid(WithSchema(schema))

	payload := &Payload{
		Rows: 2,
		Cols: 1,
		Cells: [][]PayloadCell{
			{{Raw: "10"}},
			{{Raw: "words"}},
		},
	}

	rejects := g.ValidateForPaste(payload, mustKey(t, "A1"))
	if len(rejects) != 1 {
		t.Fatalf("rejects = %v, want just A2", rejects)
	}
	if rejects[0].Key != mustKey(t, "A2") {
		t.Errorf("rejected key = %v, want A2", rejects[0].Key)
	}
	// validation alone writes nothing
	if g.CellCount() != 0 {
		t.Errorf("ValidateForPaste wrote %d cells", g.CellCount())
	}
}

func TestPasteFillFanOut(t *testing.T) {
	g := NewGrid()
	payload := &Payload{Rows: 1, Cols: 1, Cells: [][]PayloadCell{{{Raw: "7"}}}}

	targets := []Key{
		mustKey(t, "A1"),
		mustKey(t, "B2"),
		mustKey(t, "C3"),
	}
	result, err := g.PasteFill(payload, targets, PasteAllOrNothing)
	if err != nil {
		t.Fatalf("PasteFill failed: %v", err)
	}
	if len(result.Rejected) != 0 {
		t.Fatalf("unexpected rejects: %v", result.Rejected)
	}
	for _, key := range targets {
		if g.Read(key).Value != 7.0 {
			t.Errorf("cell %s = %v, want 7", key, g.Read(key).Value)
		}
	}

	wide := &Payload{Rows: 1, Cols: 2, Cells: [][]PayloadCell{{{Raw: "1"}, {Raw: "2"}}}}
	if _, err := g.PasteFill(wide, targets, PasteAllOrNothing); err == nil {
		t.Error("PasteFill with a multi-cell payload succeeded, want error")
	}
}

func TestTSVRoundTrip(t *testing.T) {
	payload := &Payload{
		Rows: 2,
		Cols: 2,
		Cells: [][]PayloadCell{
			{{Raw: "10"}, {Raw: "=A1*2"}},
			{{Raw: "note"}, {Raw: ""}},
		},
	}

	tsv := payload.EncodeTSV()
	if tsv != "10\t=A1*2\nnote\t" {
		t.Errorf("EncodeTSV() = %q", tsv)
	}

	decoded := DecodeTSV(tsv)
	if decoded.Rows != payload.Rows || decoded.Cols != payload.Cols {
		t.Fatalf("decoded %dx%d, want %dx%d", decoded.Rows, decoded.Cols, payload.Rows, payload.Cols)
	}
	for r := range payload.Cells {
		for c := range payload.Cells[r] {
			if decoded.Cells[r][c] != payload.Cells[r][c] {
				t.Errorf("cell (%d,%d) = %+v, want %+v", r, c, decoded.Cells[r][c], payload.Cells[r][c])
			}
		}
	}

	ragged := DecodeTSV("a\tb\tc\nd")
	if ragged.Rows != 2 || ragged.Cols != 3 {
		t.Fatalf("ragged decode gave %dx%d, want 2x3", ragged.Rows, ragged.Cols)
	}
	if ragged.Cells[1][2].Raw != "" {
		t.Error("ragged row not padded")
	}
}
