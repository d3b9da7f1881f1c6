package testutil

import (
	"testing"

	"github.com/udisondev/npcmind/internal/geo"
)

// LayoutGrid строит сетку из ASCII-строк ('#' — стена) с клетками размером 1.
// Клетка (x, y) имеет центр (x+0.5, 0, y+0.5).
func LayoutGrid(t testing.TB, rows ...string) *geo.Grid {
	t.Helper()

	if len(rows) == 0 {
		t.Fatal("LayoutGrid: no rows")
	}

	width, height := len(rows[0]), len(rows)
	origin := geo.Vec3{X: float64(width) / 2, Z: float64(height) / 2}

	mask := geo.NewCellMask(origin, width, height, 1)
	if err := mask.ParseLayout(rows); err != nil {
		t.Fatalf("LayoutGrid: %v", err)
	}

	g, err := geo.NewGrid(origin, width, height, 1, mask)
	if err != nil {
		t.Fatalf("LayoutGrid: %v", err)
	}
	return g
}

// CellCenter возвращает мировую позицию центра клетки (x, y) сетки LayoutGrid.
func CellCenter(x, y int) geo.Vec3 {
	return geo.Vec3{X: float64(x) + 0.5, Z: float64(y) + 0.5}
}

// VecNear сообщает, совпадают ли векторы с точностью eps по каждой оси.
func VecNear(a, b geo.Vec3, eps float64) bool {
	d := a.Sub(b)
	return abs(d.X) <= eps && abs(d.Y) <= eps && abs(d.Z) <= eps
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
