package geo

import (
	"container/heap"
	"sync"
)

// PathFinder runs A* searches over a Grid.
// Thread-safe: every search works on its own pooled scratch buffer,
// the Grid itself is never written.
type PathFinder struct {
	grid *Grid
	pool sync.Pool
}

// NewPathFinder creates a PathFinder bound to grid.
func NewPathFinder(grid *Grid) *PathFinder {
	p := &PathFinder{grid: grid}
	p.pool.New = func() any {
		return newScratch(grid.Len())
	}
	return p
}

// Grid returns the grid searched by p.
func (p *PathFinder) Grid() *Grid {
	return p.grid
}

// NextStep returns the world position of the first cell to move to on the
// way from "from" to "to". Returns from unchanged when no path exists.
// When both points fall into the same cell, that cell's center is returned.
func (p *PathFinder) NextStep(from, to Vec3) Vec3 {
	path := p.FindPath(from, to)
	switch len(path) {
	case 0:
		return from
	case 1:
		return path[0].World
	default:
		return path[1].World
	}
}

// FindPath returns the cells from the start cell to the goal cell inclusive,
// or nil if the goal is blocked or unreachable.
func (p *PathFinder) FindPath(from, to Vec3) []*Cell {
	start := p.grid.WorldToCell(from)
	goal := p.grid.WorldToCell(to)
	if !goal.Walkable {
		return nil
	}

	s := p.pool.Get().(*scratch)
	defer p.pool.Put(s)

	if !p.astar(s, start, goal) {
		return nil
	}
	return p.retrace(s, start, goal)
}

// astar fills s with search results. Returns true when goal was reached.
func (p *PathFinder) astar(s *scratch, start, goal *Cell) bool {
	s.reset()

	s.g[start.index] = 0
	s.h[start.index] = Heuristic(start, goal)
	s.push(start.index)

	for s.open.Len() > 0 {
		idx := heap.Pop(&s.open).(int)
		if idx == goal.index {
			return true
		}
		s.state[idx] = stateClosed

		current := &p.grid.cells[idx]
		p.grid.Neighbors(current, func(n *Cell) bool {
			if !n.Walkable || s.state[n.index] == stateClosed {
				return true
			}

			g := s.g[idx] + StepCost(current, n)
			if g >= s.g[n.index] {
				return true
			}

			s.g[n.index] = g
			s.h[n.index] = Heuristic(n, goal)
			s.parent[n.index] = idx

			if s.state[n.index] == stateOpen {
				heap.Fix(&s.open, s.pos[n.index])
			} else {
				s.push(n.index)
			}
			return true
		})
	}

	return false
}

// retrace walks predecessor links from goal back to start.
func (p *PathFinder) retrace(s *scratch, start, goal *Cell) []*Cell {
	path := make([]*Cell, 0, 16)
	for idx := goal.index; idx >= 0; idx = s.parent[idx] {
		path = append(path, &p.grid.cells[idx])
		if idx == start.index {
			break
		}
	}

	// Reverse (built backward)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Heuristic is the octile distance between two cells under the
// 10/14 cost model. Admissible and consistent.
func Heuristic(a, b *Cell) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	lo, hi := min(dx, dy), max(dx, dy)
	return CostDiagonal*lo + CostOrthogonal*(hi-lo)
}

// StepCost is the cost of moving between two adjacent cells.
func StepCost(a, b *Cell) int {
	if a.X != b.X && a.Y != b.Y {
		return CostDiagonal
	}
	return CostOrthogonal
}

// PathCost sums the step costs along a path.
func PathCost(path []*Cell) int {
	total := 0
	for i := 1; i < len(path); i++ {
		total += StepCost(path[i-1], path[i])
	}
	return total
}

const (
	stateUnseen uint8 = iota
	stateOpen
	stateClosed
)

// scratch holds the transient per-cell search fields of one search.
type scratch struct {
	g      []int
	h      []int
	parent []int
	state  []uint8
	pos    []int    // heap position of open cells
	seq    []uint64 // insertion order, last tie-break
	next   uint64
	open   openSet
}

func newScratch(n int) *scratch {
	s := &scratch{
		g:      make([]int, n),
		h:      make([]int, n),
		parent: make([]int, n),
		state:  make([]uint8, n),
		pos:    make([]int, n),
		seq:    make([]uint64, n),
	}
	s.open.s = s
	return s
}

func (s *scratch) reset() {
	for i := range s.g {
		s.g[i] = costInfinite
		s.h[i] = 0
		s.parent[i] = -1
		s.state[i] = stateUnseen
		s.pos[i] = -1
	}
	s.next = 0
	s.open.items = s.open.items[:0]
}

func (s *scratch) push(idx int) {
	s.state[idx] = stateOpen
	s.seq[idx] = s.next
	s.next++
	heap.Push(&s.open, idx)
}

// openSet is a min-heap of cell indices ordered by f, then h, then
// insertion order.
type openSet struct {
	items []int
	s     *scratch
}

func (o *openSet) Len() int { return len(o.items) }

func (o *openSet) Less(i, j int) bool {
	a, b := o.items[i], o.items[j]
	fa, fb := o.s.g[a]+o.s.h[a], o.s.g[b]+o.s.h[b]
	if fa != fb {
		return fa < fb
	}
	if o.s.h[a] != o.s.h[b] {
		return o.s.h[a] < o.s.h[b]
	}
	return o.s.seq[a] < o.s.seq[b]
}

func (o *openSet) Swap(i, j int) {
	o.items[i], o.items[j] = o.items[j], o.items[i]
	o.s.pos[o.items[i]] = i
	o.s.pos[o.items[j]] = j
}

func (o *openSet) Push(x any) {
	idx := x.(int)
	o.s.pos[idx] = len(o.items)
	o.items = append(o.items, idx)
}

func (o *openSet) Pop() any {
	n := len(o.items)
	idx := o.items[n-1]
	o.items = o.items[:n-1]
	o.s.pos[idx] = -1
	return idx
}
