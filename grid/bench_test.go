package grid

import (
	"fmt"
	"testing"
)

func BenchmarkLargeCellPopulation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		g := NewGrid()
		for row := uint32(0); row < 100; row++ {
			for col := uint32(0); col < 26; col++ {
				g.SetRaw(Key{Row: row, Col: col}, fmt.Sprintf("%d", (row+1)*(col+1)))
			}
		}
		g.EvaluateDirty()
	}
}

func BenchmarkFormulaDependencyChain(b *testing.B) {
	for i := 0; i < b.N; i++ {
		g := NewGrid()
		g.SetRaw(Key{Row: 0, Col: 0}, "1")
		for row := uint32(1); row < 100; row++ {
			g.SetRaw(Key{Row: row, Col: 0}, fmt.Sprintf("=A%d+1", row))
		}
		g.EvaluateDirty()
	}
}

func BenchmarkWideDependencyFanOut(b *testing.B) {
	for i := 0; i < b.N; i++ {
		g := NewGrid()
		g.SetRaw(Key{Row: 0, Col: 0}, "1")
		for row := uint32(1); row < 200; row++ {
			g.SetRaw(Key{Row: row, Col: 0}, "=A1*2")
		}
		// one edit at the fan-out root recomputes everything
		g.EvaluateDirty()
		g.SetRaw(Key{Row: 0, Col: 0}, "2")
		g.EvaluateDirty()
	}
}

func BenchmarkRangeAggregation(b *testing.B) {
	g := NewGrid()
	for row := uint32(0); row < 500; row++ {
		g.SetRaw(Key{Row: row, Col: 0}, fmt.Sprintf("%d", row))
	}
	g.SetRaw(Key{Row: 0, Col: 1}, "=SUM(A1:A500)")
	g.EvaluateDirty()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.SetRaw(Key{Row: 250, Col: 0}, fmt.Sprintf("%d", i))
		g.EvaluateDirty()
	}
}
