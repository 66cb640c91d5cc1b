package grid

import (
	"testing"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	NewGridTestCase(t, "undo restores the previous value and dependents").
		Edit("A1", "10").
		Edit("B1", "=A1*2").
		Edit("A1", "50").
		AssertCellEq("A1", 50.0).
		AssertCellEq("B1", 100.0).
		Undo().
		AssertCellEq("A1", 10.0).
		AssertCellEq("B1", 20.0).
		Redo().
		AssertCellEq("A1", 50.0).
		AssertCellEq("B1", 100.0).
		End()

	NewGridTestCase(t, "undoing the first edit empties the cell").
		Edit("A1", "10").
		Undo().
		AssertCellEmpty("A1").
		AssertRaw("A1", "").
		Redo().
		AssertCellEq("A1", 10.0).
		End()

	NewGridTestCase(t, "undo across a formula replacement relinks edges").
		Edit("A1", "10").
		Edit("B1", "=A1+1").
		Edit("B1", "=A1*3").
		AssertCellEq("B1", 30.0).
		Undo().
		AssertCellEq("B1", 11.0).
		Edit("A1", "20").
		AssertCellEq("B1", 21.0).
		End()
}

func TestUndoStackDiscipline(t *testing.T) {
	NewGridTestCase(t, "a new edit clears the redo stack").
		Edit("A1", "1").
		Edit("A1", "2").
		Undo().
		AssertCanRedo(true).
		Edit("A1", "3").
		AssertCanRedo(false).
		AssertCellEq("A1", 3.0).
		End()

	g := NewGrid()
	if _, ok := g.Undo(); ok {
		t.Error("Undo() on an empty stack reported success")
	}
	if _, ok := g.Redo(); ok {
		t.Error("Redo() on an empty stack reported success")
	}
	if g.CanUndo() || g.CanRedo() {
		t.Error("empty grid reports undoable or redoable work")
	}
}

func TestUndoRedoBranchDiscard(t *testing.T) {
	NewGridTestCase(t, "stepping back through two edits and redoing one").
		Edit("A1", "1"). // X
		Edit("B1", "2"). // Y
		Undo().
		AssertCellEq("A1", 1.0).
		AssertCellEmpty("B1").
		Undo().
		AssertCellEmpty("A1").
		AssertCellEmpty("B1").
		Redo().
		AssertCellEq("A1", 1.0).
		AssertCellEmpty("B1").
		// a fresh edit discards the ability to redo into Y
		Edit("C1", "3").
		AssertCanRedo(false).
		End()
}

func TestUndoDepthEviction(t *testing.T) {
	g := NewGrid(WithLimits(Limits{MaxUndoDepth: 3}))
	key := Key{Row: 0, Col: 0}
	for _, raw := range []string{"1", "2", "3", "4", "5"} {
		if _, err := g.Edit(key, raw); err != nil {
			t.Fatalf("Edit failed: %v", err)
		}
	}

	// only the last three edits survive
	undone := 0
	for {
		if _, ok := g.Undo(); !ok {
			break
		}
		undone++
	}
	if undone != 3 {
		t.Fatalf("undid %d commands, want 3", undone)
	}
	// the oldest surviving Before snapshot holds the evicted edit's value
	if got := g.Read(key).Value; got != 2.0 {
		t.Errorf("after exhausting undo, A1 = %v, want 2", got)
	}
}

func TestBatchUndoneAsOneCommand(t *testing.T) {
	g := NewGrid()
	edits := map[Key]string{
		{Row: 0, Col: 0}: "10",
		{Row: 1, Col: 0}: "20",
		{Row: 2, Col: 0}: "=SUM(A1:A2)",
	}
	if _, err := g.ApplyBatch("paste 3 cells", edits); err != nil {
		t.Fatalf("ApplyBatch failed: %v", err)
	}
	if got := g.Read(Key{Row: 2, Col: 0}).Value; got != 30.0 {
		t.Fatalf("A3 = %v, want 30", got)
	}
	if got := g.UndoLabel(); got != "paste 3 cells" {
		t.Errorf("UndoLabel() = %q, want %q", got, "paste 3 cells")
	}

	if _, ok := g.Undo(); !ok {
		t.Fatal("Undo() failed")
	}
	for key := range edits {
		if view := g.Read(key); view.Raw != "" || view.Value != nil {
			t.Errorf("cell %s not cleared by batch undo: %+v", key, view)
		}
	}
	if got := g.RedoLabel(); got != "paste 3 cells" {
		t.Errorf("RedoLabel() = %q, want %q", got, "paste 3 cells")
	}

	if _, ok := g.Redo(); !ok {
		t.Fatal("Redo() failed")
	}
	if got := g.Read(Key{Row: 2, Col: 0}).Value; got != 30.0 {
		t.Errorf("A3 after redo = %v, want 30", got)
	}
}

func TestUndoLabels(t *testing.T) {
	g := NewGrid()
	if _, err := g.Edit(Key{Row: 0, Col: 0}, "1"); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if got := g.UndoLabel(); got != "edit A1" {
		t.Errorf("UndoLabel() = %q, want %q", got, "edit A1")
	}
	if got := g.RedoLabel(); got != "" {
		t.Errorf("RedoLabel() = %q, want empty", got)
	}
}

func TestUndoNotifiesListeners(t *testing.T) {
	g := NewGrid()
	notifications := 0
	g.Subscribe(func(affected []Key) { notifications++ })

	if _, err := g.Edit(Key{Row: 0, Col: 0}, "1"); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	g.Undo()
	g.Redo()
	if notifications != 3 {
		t.Errorf("got %d notifications, want 3 (edit, undo, redo)", notifications)
	}
}
