package grid

// Command is one undoable unit of work: the cell snapshots before and
// after the change. a single edit, a paste of fifty cells and a row
// insertion are all one command each.
type Command struct {
	Label  string
	Before map[Key]Snapshot
	After  map[Key]Snapshot
}

// Keys returns the set of keys the command touches
func (c *Command) Keys() []Key {
	keys := make([]Key, 0, len(c.Before))
	for k := range c.Before {
		keys = append(keys, k)
	}
	return keys
}

// History holds the undo and redo stacks. committing a new command clears
// redo; exceeding maxDepth evicts the oldest undo entry.
type History struct {
	undo     []*Command
	redo     []*Command
	maxDepth int
}

func newHistory(maxDepth int) *History {
	return &History{maxDepth: maxDepth}
}

// Push records a committed command and invalidates the redo stack
func (h *History) Push(cmd *Command) {
	h.undo = append(h.undo, cmd)
	h.redo = h.redo[:0]
	if h.maxDepth > 0 && len(h.undo) > h.maxDepth {
		// evict oldest
		copy(h.undo, h.undo[1:])
		h.undo = h.undo[:len(h.undo)-1]
	}
}

// PopUndo moves the most recent command to the redo stack and returns it
func (h *History) PopUndo() *Command {
	if len(h.undo) == 0 {
		return nil
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cmd)
	return cmd
}

// PopRedo moves the most recently undone command back to the undo stack
// and returns it
func (h *History) PopRedo() *Command {
	if len(h.redo) == 0 {
		return nil
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cmd)
	return cmd
}

func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// UndoLabel returns the label of the command Undo would revert
func (h *History) UndoLabel() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Label
}

// RedoLabel returns the label of the command Redo would reapply
func (h *History) RedoLabel() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].Label
}

// Clear drops both stacks
func (h *History) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
