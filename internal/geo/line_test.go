package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type point struct{ x, y int }

func collectLine(sx, sy, ex, ey int) []point {
	var points []point
	it := NewLineIterator(sx, sy, ex, ey)
	for it.Next() {
		points = append(points, point{it.X(), it.Y()})
	}
	return points
}

func TestLineIteratorHorizontal(t *testing.T) {
	points := collectLine(0, 0, 5, 0)

	assert.Equal(t, 6, len(points), "should visit 6 points (0..5)")
	assert.Equal(t, point{0, 0}, points[0])
	assert.Equal(t, point{5, 0}, points[5])
	for _, p := range points {
		assert.Equal(t, 0, p.y)
	}
}

func TestLineIteratorVertical(t *testing.T) {
	points := collectLine(0, 3, 0, 0)

	assert.Equal(t, 4, len(points))
	assert.Equal(t, point{0, 3}, points[0])
	assert.Equal(t, point{0, 0}, points[3])
}

func TestLineIteratorDiagonal(t *testing.T) {
	points := collectLine(0, 0, 3, 3)

	assert.Equal(t, []point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, points)
}

func TestLineIteratorSinglePoint(t *testing.T) {
	points := collectLine(2, 2, 2, 2)

	assert.Equal(t, []point{{2, 2}}, points)
}

func TestLineIteratorSteepIsContiguous(t *testing.T) {
	points := collectLine(0, 0, 2, 7)

	assert.Equal(t, point{0, 0}, points[0])
	assert.Equal(t, point{2, 7}, points[len(points)-1])
	assert.Equal(t, 8, len(points), "one cell per step on the dominant axis")

	for i := 1; i < len(points); i++ {
		assert.LessOrEqual(t, absInt(points[i].x-points[i-1].x), 1)
		assert.Equal(t, 1, points[i].y-points[i-1].y)
	}
}
