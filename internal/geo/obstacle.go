package geo

import (
	"fmt"
	"math"
)

// ObstacleTest reports whether the square probe of the given half extent,
// centered at center on the X/Z plane, touches an obstacle.
type ObstacleTest interface {
	IsBlocked(center Vec3, halfExtent float64) bool
}

// ObstacleFunc adapts a plain function to ObstacleTest.
type ObstacleFunc func(center Vec3, halfExtent float64) bool

// IsBlocked implements ObstacleTest.
func (f ObstacleFunc) IsBlocked(center Vec3, halfExtent float64) bool {
	return f(center, halfExtent)
}

// Box is an axis-aligned obstacle on the X/Z plane.
type Box struct {
	Min, Max Vec3
}

// Overlaps reports whether the box intersects the square of half extent
// around center. Touching edges do not count as overlap.
func (b Box) Overlaps(center Vec3, halfExtent float64) bool {
	return center.X+halfExtent > b.Min.X && center.X-halfExtent < b.Max.X &&
		center.Z+halfExtent > b.Min.Z && center.Z-halfExtent < b.Max.Z
}

// Boxes is a list of box obstacles.
type Boxes []Box

// IsBlocked implements ObstacleTest.
func (bs Boxes) IsBlocked(center Vec3, halfExtent float64) bool {
	for _, b := range bs {
		if b.Overlaps(center, halfExtent) {
			return true
		}
	}
	return false
}

// AnyOf blocks a probe when any of the tests does.
type AnyOf []ObstacleTest

// IsBlocked implements ObstacleTest.
func (a AnyOf) IsBlocked(center Vec3, halfExtent float64) bool {
	for _, t := range a {
		if t != nil && t.IsBlocked(center, halfExtent) {
			return true
		}
	}
	return false
}

// CellMask marks individual cells of a grid layout as blocked.
// It shares geometry with the Grid it is meant to build, so a probe
// centered on a cell resolves to exactly that cell.
type CellMask struct {
	origin   Vec3
	width    int
	height   int
	cellSize float64
	blocked  []bool
}

// NewCellMask creates an empty mask for a width*height grid centered on origin.
func NewCellMask(origin Vec3, width, height int, cellSize float64) *CellMask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &CellMask{
		origin:   origin,
		width:    width,
		height:   height,
		cellSize: cellSize,
		blocked:  make([]bool, width*height),
	}
}

// ParseLayout fills the mask from ASCII rows: '#' or 'X' is blocked,
// anything else is open. Row 0 maps to grid Y 0.
func (m *CellMask) ParseLayout(rows []string) error {
	if len(rows) > m.height {
		return fmt.Errorf("layout has %d rows, grid height is %d", len(rows), m.height)
	}
	for y, row := range rows {
		if len(row) > m.width {
			return fmt.Errorf("layout row %d has %d columns, grid width is %d", y, len(row), m.width)
		}
		for x := range len(row) {
			if row[x] == '#' || row[x] == 'X' {
				m.Block(x, y)
			}
		}
	}
	return nil
}

// Block marks a single cell. Out-of-range indices are ignored.
func (m *CellMask) Block(x, y int) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.blocked[y*m.width+x] = true
}

// BlockLine rasterizes a wall segment between two cells.
func (m *CellMask) BlockLine(x0, y0, x1, y1 int) {
	it := NewLineIterator(x0, y0, x1, y1)
	for it.Next() {
		m.Block(it.X(), it.Y())
	}
}

// Blocked reports whether cell (x, y) is marked.
func (m *CellMask) Blocked(x, y int) bool {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return false
	}
	return m.blocked[y*m.width+x]
}

// IsBlocked implements ObstacleTest. The probe is resolved to the cell
// containing its center; the half extent is ignored.
func (m *CellMask) IsBlocked(center Vec3, _ float64) bool {
	if m.cellSize <= 0 {
		return false
	}
	minX := m.origin.X - float64(m.width)*m.cellSize/2
	minZ := m.origin.Z - float64(m.height)*m.cellSize/2
	x := int(math.Floor((center.X - minX) / m.cellSize))
	y := int(math.Floor((center.Z - minZ) / m.cellSize))
	return m.Blocked(x, y)
}
