package rules

import (
	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

// originalGenerator implements spec.md §4.2.1's "Original (COM-deflection)"
// pressure system: every cell pushes its overflow into the neighbor its
// center of mass has deflected toward, proportional to how full it is.
type originalGenerator struct{}

func (originalGenerator) UpdatePressures(g Grid, dt float64, gravity float64) {
	w, h := g.Width(), g.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.At(x, y).Pressure.Clear()
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := g.At(x, y)
			m := c.PercentFull()
			if m < cell.MinDirtThreshold {
				continue
			}
			d := c.NormalizedDeflection()

			if d.X() != 0 {
				nx := x + sign(d.X())
				if g.InBounds(nx, y) {
					n := g.At(nx, y)
					n.Pressure.Gradient = n.Pressure.Gradient.Add(vec2.New(d.X()*m*dt, 0))
				}
			}
			if d.Y() != 0 {
				ny := y + sign(d.Y())
				if g.InBounds(x, ny) {
					n := g.At(x, ny)
					n.Pressure.Gradient = n.Pressure.Gradient.Add(vec2.New(0, d.Y()*m*dt))
				}
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := g.At(x, y)
			c.Pressure.Total = c.Pressure.Magnitude()
		}
	}
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}
