package world

import (
	"fmt"

	"github.com/udisondev/npcmind/internal/config"
	"github.com/udisondev/npcmind/internal/geo"
)

// BuildGrid creates the navigation grid of a scene.
// Layout rows, wall segments and box obstacles are combined; a cell is
// blocked if any of them blocks it.
func BuildGrid(cfg config.GridConfig, obstacles []config.BoxConfig) (*geo.Grid, error) {
	origin := toVec(cfg.Origin)

	mask := geo.NewCellMask(origin, cfg.Width, cfg.Height, cfg.CellSize)
	if err := mask.ParseLayout(cfg.Layout); err != nil {
		return nil, fmt.Errorf("parsing grid layout: %w", err)
	}
	for _, w := range cfg.Walls {
		mask.BlockLine(w.From[0], w.From[1], w.To[0], w.To[1])
	}

	boxes := make(geo.Boxes, 0, len(obstacles))
	for _, b := range obstacles {
		boxes = append(boxes, geo.Box{Min: toVec(b.Min), Max: toVec(b.Max)})
	}

	grid, err := geo.NewGrid(origin, cfg.Width, cfg.Height, cfg.CellSize, geo.AnyOf{mask, boxes})
	if err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}
	return grid, nil
}

func toVec(p config.Point) geo.Vec3 {
	return geo.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}

func toVecs(ps []config.Point) []geo.Vec3 {
	if len(ps) == 0 {
		return nil
	}
	out := make([]geo.Vec3, len(ps))
	for i, p := range ps {
		out[i] = toVec(p)
	}
	return out
}
