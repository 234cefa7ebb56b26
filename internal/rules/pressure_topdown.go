package rules

import (
	"math"

	"github.com/lixenwraith/terrarium/internal/vec2"
)

// topDownGenerator implements spec.md §4.2.1's "Top-Down Hydrostatic"
// pressure system: a running column mass produces a vertical pressure,
// plus a decaying lateral contribution from every deflected cell above,
// followed by a horizontal-gradient propagation pass between columns.
type topDownGenerator struct{}

func (topDownGenerator) UpdatePressures(g Grid, dt float64, gravity float64) {
	w, h := g.Width(), g.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.At(x, y).Pressure.Clear()
		}
	}

	for x := 0; x < w; x++ {
		accumulatedMass := 0.0
		for y := 0; y < h; y++ {
			c := g.At(x, y)
			m := c.PercentFull()
			accumulatedMass += m

			c.Pressure.Hydrostatic += accumulatedMass * gravity * dt * 0.1
			c.Pressure.Gradient = vec2.New(c.Pressure.Gradient.X(), c.Pressure.Gradient.Y()+c.Pressure.Hydrostatic)

			lateral := 0.0
			for k := 0; k <= y; k++ {
				above := g.At(x, k)
				d := above.NormalizedDeflection()
				lateral += d.X() * above.PercentFull() / (1 + 0.5*float64(y-k))
			}
			c.Pressure.Gradient = vec2.New(c.Pressure.Gradient.X()+lateral*dt*0.05, c.Pressure.Gradient.Y())
		}
	}

	// Second pass: propagate horizontal gradients from the vertical
	// pressure imbalance between adjacent columns, one row at a time.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := g.At(x, y)
			for _, nx := range []int{x - 1, x + 1} {
				if !g.InBounds(nx, y) {
					continue
				}
				n := g.At(nx, y)
				delta := c.Pressure.Hydrostatic - n.Pressure.Hydrostatic
				if math.Abs(delta) > 1e-3 && delta > 0 {
					n.Pressure.Gradient = vec2.New(n.Pressure.Gradient.X()+0.1*delta, n.Pressure.Gradient.Y())
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
