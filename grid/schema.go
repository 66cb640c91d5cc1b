package grid

import (
	"strconv"
	"strings"
)

// ColumnType declares what raw input a column accepts. the grid itself
// stores anything; the type gates edits and paste validation the way the
// bidding tables gate their number, float and checkbox columns.
type ColumnType uint8

const (
	ColumnAny      ColumnType = 0
	ColumnNumber   ColumnType = 1
	ColumnFloat    ColumnType = 2
	ColumnText     ColumnType = 3
	ColumnCheckbox ColumnType = 4
)

// ParseColumnType maps the schema file's type names
func ParseColumnType(s string) (ColumnType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return ColumnAny, true
	case "number", "int":
		return ColumnNumber, true
	case "float":
		return ColumnFloat, true
	case "text", "string":
		return ColumnText, true
	case "checkbox", "bool":
		return ColumnCheckbox, true
	default:
		return ColumnAny, false
	}
}

func (t ColumnType) String() string {
	switch t {
	case ColumnNumber:
		return "number"
	case ColumnFloat:
		return "float"
	case ColumnText:
		return "text"
	case ColumnCheckbox:
		return "checkbox"
	default:
		return "any"
	}
}

// ColumnSpec constrains one grid column
type ColumnSpec struct {
	Type   ColumnType
	Locked bool
}

// Schema maps column indexes to their specs. columns without a spec are
// unconstrained and editable.
type Schema struct {
	Columns map[uint32]ColumnSpec
}

// NewSchema returns an empty schema
func NewSchema() *Schema {
	return &Schema{Columns: make(map[uint32]ColumnSpec)}
}

// Spec returns the spec for a column, defaulting to an open column
func (s *Schema) Spec(col uint32) ColumnSpec {
	if s == nil {
		return ColumnSpec{}
	}
	return s.Columns[col]
}

// IsLocked reports whether the column rejects all edits
func (s *Schema) IsLocked(col uint32) bool {
	return s.Spec(col).Locked
}

// Accepts reports whether raw input is admissible for the column's type.
// empty input and formulas are admissible everywhere; the formula's
// computed value is not type-checked, only the typed input is.
func (s *Schema) Accepts(col uint32, raw string) bool {
	spec := s.Spec(col)
	if raw == "" || (len(raw) > 0 && raw[0] == '=') {
		return true
	}
	switch spec.Type {
	case ColumnNumber, ColumnFloat:
		_, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		return err == nil
	case ColumnCheckbox:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "false", "1", "0":
			return true
		}
		return false
	default:
		return true
	}
}
