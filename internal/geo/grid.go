package geo

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// ErrInvalidGrid is returned when grid dimensions or cell size are unusable.
var ErrInvalidGrid = errors.New("invalid grid")

// Cell is one walkability-tagged square of the grid.
// Cells never change after the grid is built.
type Cell struct {
	X, Y     int
	Walkable bool
	World    Vec3 // center of the cell

	index int
}

// Index returns the cell offset in the grid's flat storage.
func (c *Cell) Index() int {
	return c.index
}

// Grid is a static spatial index over the X/Z plane.
// Thread-safe: immutable after NewGrid returns.
type Grid struct {
	origin   Vec3
	width    int
	height   int
	cellSize float64
	cells    []Cell
	walkable int
}

// NewGrid builds width*height cells centered on origin.
// Each cell is walkable unless obstacles reports its probe box as blocked.
// A nil obstacle test marks every cell walkable.
func NewGrid(origin Vec3, width, height int, cellSize float64, obstacles ObstacleTest) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidGrid, width, height)
	}
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: cell size %v", ErrInvalidGrid, cellSize)
	}

	g := &Grid{
		origin:   origin,
		width:    width,
		height:   height,
		cellSize: cellSize,
		cells:    make([]Cell, width*height),
	}

	halfW := float64(width) * cellSize / 2
	halfH := float64(height) * cellSize / 2
	probe := cellSize * ProbeScale

	for y := range height {
		for x := range width {
			center := Vec3{
				X: origin.X - halfW + float64(x)*cellSize + cellSize/2,
				Y: origin.Y,
				Z: origin.Z - halfH + float64(y)*cellSize + cellSize/2,
			}
			walkable := obstacles == nil || !obstacles.IsBlocked(center, probe)

			idx := y*width + x
			g.cells[idx] = Cell{X: x, Y: y, Walkable: walkable, World: center, index: idx}
			if walkable {
				g.walkable++
			}
		}
	}

	slog.Debug("grid built",
		"width", width,
		"height", height,
		"cellSize", cellSize,
		"walkable", g.walkable)

	return g, nil
}

// Width returns the number of cells along X.
func (g *Grid) Width() int { return g.width }

// Height returns the number of cells along Z.
func (g *Grid) Height() int { return g.height }

// CellSize returns the edge length of a cell in world units.
func (g *Grid) CellSize() float64 { return g.cellSize }

// Origin returns the world position of the grid center.
func (g *Grid) Origin() Vec3 { return g.origin }

// Len returns the total number of cells.
func (g *Grid) Len() int { return len(g.cells) }

// WalkableCount returns the number of walkable cells.
func (g *Grid) WalkableCount() int { return g.walkable }

// Cell returns the cell at grid indices (x, y), or nil when out of bounds.
func (g *Grid) Cell(x, y int) *Cell {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.cells[y*g.width+x]
}

// InBounds reports whether (x, y) addresses a cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// WorldToCell projects a world position onto the grid.
// Positions outside the grid clamp to the nearest edge cell; never returns nil.
func (g *Grid) WorldToCell(pos Vec3) *Cell {
	w := float64(g.width) * g.cellSize
	h := float64(g.height) * g.cellSize

	fx := clamp01((pos.X - (g.origin.X - w/2)) / w)
	fy := clamp01((pos.Z - (g.origin.Z - h/2)) / h)

	x := clampInt(int(math.RoundToEven(float64(g.width-1)*fx)), 0, g.width-1)
	y := clampInt(int(math.RoundToEven(float64(g.height-1)*fy)), 0, g.height-1)

	return &g.cells[y*g.width+x]
}

// Neighbors calls fn for every in-bounds cell of the Moore neighborhood of c.
// Diagonals are yielded even when both adjacent orthogonal cells are blocked.
// Iteration stops early if fn returns false.
func (g *Grid) Neighbors(c *Cell, fn func(*Cell) bool) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := c.X+dx, c.Y+dy
			if !g.InBounds(nx, ny) {
				continue
			}
			if !fn(&g.cells[ny*g.width+nx]) {
				return
			}
		}
	}
}

// String renders the grid as rows of '.' (walkable) and '#' (blocked),
// row 0 first.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow((g.width + 1) * g.height)
	for y := range g.height {
		for x := range g.width {
			if g.cells[y*g.width+x].Walkable {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
