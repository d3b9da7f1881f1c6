package geo

// A* step costs. Integer fixed-point approximation of 1 and sqrt(2).
const (
	CostOrthogonal = 10
	CostDiagonal   = 14
)

// ProbeScale is the fraction of the cell size used as the half extent
// of the obstacle probe when the grid is built.
const ProbeScale = 0.45

// costInfinite marks cells not yet reached in a search.
const costInfinite = int(^uint(0) >> 1)
