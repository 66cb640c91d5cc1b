// Package workbook moves grids in and out of files: a YAML document
// format for fixtures and CLI input, and xlsx import/export for
// interchange with producers' spreadsheets.
package workbook

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gonmoyano/ff-bidding-app/grid"
	"github.com/gonmoyano/ff-bidding-app/ratecard"
)

// Document is the YAML grid format: raw cell inputs keyed by address,
// optional limits and an optional column schema
type Document struct {
	Limits  *LimitsDoc        `yaml:"limits,omitempty"`
	Columns []ratecard.Column `yaml:"columns,omitempty"`
	Cells   map[string]string `yaml:"cells"`
}

// LimitsDoc overrides grid limits per document
type LimitsDoc struct {
	MaxRows       uint32 `yaml:"max_rows,omitempty"`
	MaxCols       uint32 `yaml:"max_cols,omitempty"`
	MaxRangeCells int    `yaml:"max_range_cells,omitempty"`
	MaxUndoDepth  int    `yaml:"max_undo_depth,omitempty"`
}

// ParseDocument parses a YAML grid document
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing grid document: %w", err)
	}
	for address := range doc.Cells {
		if _, err := grid.ParseKey(address); err != nil {
			return nil, fmt.Errorf("grid document: bad cell address %q", address)
		}
	}
	return &doc, nil
}

// LoadDocument reads and parses a YAML grid document from disk
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grid document: %w", err)
	}
	return ParseDocument(data)
}

// limits converts the document's overrides to grid limits, with defaults
// for anything unset
func (d *Document) limits() grid.Limits {
	if d.Limits == nil {
		return grid.DefaultLimits()
	}
	return grid.Limits{
		MaxRows:       d.Limits.MaxRows,
		MaxCols:       d.Limits.MaxCols,
		MaxRangeCells: d.Limits.MaxRangeCells,
		MaxUndoDepth:  d.Limits.MaxUndoDepth,
	}
}

// Build replays the document into a fresh grid and evaluates it once
func (d *Document) Build() (*grid.Grid, error) {
	opts := []grid.Option{grid.WithLimits(d.limits())}
	if len(d.Columns) > 0 {
		schema := grid.NewSchema()
		for i, col := range d.Columns {
			colType, ok := grid.ParseColumnType(col.Type)
			if !ok {
				return nil, fmt.Errorf("grid document: column %q has unknown type %q", col.ID, col.Type)
			}
			schema.Columns[uint32(i)] = grid.ColumnSpec{Type: colType, Locked: col.Locked}
		}
		opts = append(opts, grid.WithSchema(schema))
	}

	g := grid.NewGrid(opts...)
	for address, raw := range d.Cells {
		key, err := grid.ParseKey(address)
		if err != nil {
			return nil, fmt.Errorf("grid document: bad cell address %q", address)
		}
		if err := g.SetRaw(key, raw); err != nil {
			return nil, fmt.Errorf("grid document: cell %s: %w", address, err)
		}
	}
	g.EvaluateDirty()
	slog.Debug("grid document loaded", "cells", g.CellCount())
	return g, nil
}

// Snapshot captures a grid's raw inputs as a document
func Snapshot(g *grid.Grid, columns []ratecard.Column) *Document {
	limits := g.Limits()
	doc := &Document{
		Limits: &LimitsDoc{
			MaxRows:       limits.MaxRows,
			MaxCols:       limits.MaxCols,
			MaxRangeCells: limits.MaxRangeCells,
			MaxUndoDepth:  limits.MaxUndoDepth,
		},
		Columns: columns,
		Cells:   make(map[string]string),
	}
	for key, raw := range g.RawCells() {
		doc.Cells[key.String()] = raw
	}
	return doc
}

// Marshal renders the document as YAML
func (d *Document) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshaling grid document: %w", err)
	}
	return data, nil
}

// SaveDocument writes a grid to disk as a YAML document
func SaveDocument(g *grid.Grid, columns []ratecard.Column, path string) error {
	data, err := Snapshot(g, columns).Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing grid document: %w", err)
	}
	slog.Debug("grid document saved", "path", path, "cells", g.CellCount())
	return nil
}
