package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonmoyano/ff-bidding-app/grid"
	"github.com/gonmoyano/ff-bidding-app/ratecard"
)

const fixtureDoc = `
limits:
  max_rows: 100
  max_cols: 26
cells:
  A1: "10"
  A2: "20"
  A3: "=SUM(A1:A2)"
  B1: "=A3*2"
  C1: "shot note"
`

func TestParseAndBuildDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(fixtureDoc))
	require.NoError(t, err)
	require.Len(t, doc.Cells, 5)

	g, err := doc.Build()
	require.NoError(t, err)

	a3 := g.Read(grid.Key{Row: 2, Col: 0})
	assert.Equal(t, "=SUM(A1:A2)", a3.Raw)
	assert.Equal(t, 30.0, a3.Value)
	assert.Equal(t, 60.0, g.Read(grid.Key{Row: 0, Col: 1}).Value)
	assert.Equal(t, "shot note", g.Read(grid.Key{Row: 0, Col: 2}).Value)
	assert.Equal(t, uint32(100), g.Limits().MaxRows)
}

func TestParseDocumentRejectsBadAddresses(t *testing.T) {
	_, err := ParseDocument([]byte("cells:\n  XX: \"10\"\n"))
	assert.Error(t, err)

	_, err = ParseDocument([]byte("cells: [not, a, map]"))
	assert.Error(t, err)
}

func TestDocumentRoundTrip(t *testing.T) {
	doc, err := ParseDocument([]byte(fixtureDoc))
	require.NoError(t, err)
	g, err := doc.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bid.yaml")
	columns := []ratecard.Column{{ID: "days", Title: "Days", Type: "number"}}
	require.NoError(t, SaveDocument(g, columns, path))

	loaded, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Cells, loaded.Cells)
	require.Len(t, loaded.Columns, 1)
	assert.Equal(t, "days", loaded.Columns[0].ID)

	rebuilt, err := loaded.Build()
	require.NoError(t, err)
	assert.Equal(t, g.CellCount(), rebuilt.CellCount())
	assert.Equal(t, 30.0, rebuilt.Read(grid.Key{Row: 2, Col: 0}).Value)
}

func TestLoadDocumentMissingFile(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(errUnwrapAll(err)))
}

func errUnwrapAll(err error) error {
	for {
		unwrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		err = unwrapped.Unwrap()
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	doc, err := ParseDocument([]byte(fixtureDoc))
	require.NoError(t, err)
	g, err := doc.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bid.xlsx")
	require.NoError(t, ExportXLSX(g, nil, path))

	imported, err := ImportXLSX(path, ImportOptions{})
	require.NoError(t, err)

	// formulas survive as formulas and recompute on import
	a3 := imported.Read(grid.Key{Row: 2, Col: 0})
	assert.Equal(t, "=SUM(A1:A2)", a3.Raw)
	assert.Equal(t, 30.0, a3.Value)
	assert.Equal(t, 60.0, imported.Read(grid.Key{Row: 0, Col: 1}).Value)
	assert.Equal(t, "shot note", imported.Read(grid.Key{Row: 0, Col: 2}).Value)
}

func TestXLSXHeaderRow(t *testing.T) {
	g := grid.NewGrid()
	require.NoError(t, g.SetRaw(grid.Key{Row: 0, Col: 0}, "sh010"))
	require.NoError(t, g.SetRaw(grid.Key{Row: 0, Col: 1}, "3"))
	g.EvaluateDirty()

	columns := []ratecard.Column{
		{ID: "shot", Title: "Shot", Type: "text"},
		{ID: "days", Title: "Days", Type: "number"},
	}

	path := filepath.Join(t.TempDir(), "bid.xlsx")
	require.NoError(t, ExportXLSX(g, columns, path))

	// skipping the header restores the original layout
	imported, err := ImportXLSX(path, ImportOptions{HeaderRows: 1})
	require.NoError(t, err)
	assert.Equal(t, "sh010", imported.Read(grid.Key{Row: 0, Col: 0}).Value)
	assert.Equal(t, 3.0, imported.Read(grid.Key{Row: 0, Col: 1}).Value)

	// without skipping, the header titles come in as data
	withHeader, err := ImportXLSX(path, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Shot", withHeader.Read(grid.Key{Row: 0, Col: 0}).Value)
}

func TestImportXLSXMissingFile(t *testing.T) {
	_, err := ImportXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), ImportOptions{})
	assert.Error(t, err)
}
