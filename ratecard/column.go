// Package ratecard layers typed, named columns and stable row identities
// over the raw grid, the shape the bidding tables (rate cards, VFX
// breakdowns) present to the UI.
package ratecard

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gonmoyano/ff-bidding-app/grid"
)

// Column describes one table column
type Column struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Type   string `yaml:"type"`
	Locked bool   `yaml:"locked,omitempty"`
}

// columnFile is the YAML schema document
type columnFile struct {
	Columns []Column `yaml:"columns"`
}

// LoadColumns parses a YAML column schema
func LoadColumns(data []byte) ([]Column, error) {
	var file columnFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing column schema: %w", err)
	}
	if len(file.Columns) == 0 {
		return nil, fmt.Errorf("column schema declares no columns")
	}
	seen := make(map[string]struct{}, len(file.Columns))
	for i, col := range file.Columns {
		if col.ID == "" {
			return nil, fmt.Errorf("column %d has no id", i)
		}
		if _, dup := seen[col.ID]; dup {
			return nil, fmt.Errorf("duplicate column id %q", col.ID)
		}
		seen[col.ID] = struct{}{}
		if _, ok := grid.ParseColumnType(col.Type); !ok {
			return nil, fmt.Errorf("column %q has unknown type %q", col.ID, col.Type)
		}
	}
	return file.Columns, nil
}

// MarshalColumns renders columns back to the YAML schema format
func MarshalColumns(columns []Column) ([]byte, error) {
	return yaml.Marshal(columnFile{Columns: columns})
}

// gridSchema converts the column list to the grid's per-index constraints
func gridSchema(columns []Column) *grid.Schema {
	schema := grid.NewSchema()
	for i, col := range columns {
		colType, _ := grid.ParseColumnType(col.Type)
		schema.Columns[uint32(i)] = grid.ColumnSpec{Type: colType, Locked: col.Locked}
	}
	return schema
}
