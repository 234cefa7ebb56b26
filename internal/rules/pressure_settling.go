package rules

import (
	"gonum.org/v1/gonum/floats"

	"github.com/lixenwraith/terrarium/internal/cell"
	"github.com/lixenwraith/terrarium/internal/vec2"
)

const settlingPasses = 3

// settlingGenerator implements spec.md §4.2.1's "Iterative Settling"
// pressure system: three dt/3 passes accumulate a weight-of-material
// and COM-deflection contribution, smoothed between passes by a 3x3
// stencil so pressure diffuses instead of forming cell-local spikes.
type settlingGenerator struct{}

func (settlingGenerator) UpdatePressures(g Grid, dt float64, gravity float64) {
	w, h := g.Width(), g.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.At(x, y).Pressure.Clear()
		}
	}

	subDt := dt / settlingPasses
	for pass := 0; pass < settlingPasses; pass++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := g.At(x, y)
				if c.PercentFull() < cell.MinDirtThreshold {
					continue
				}

				pressureFromAbove := 0.0
				for k := 0; k < y; k++ {
					above := g.At(x, k)
					pressureFromAbove += above.PercentFull() * gravity / (1 + 0.3*float64(y-k))
				}
				c.Pressure.Gradient = vec2.New(
					c.Pressure.Gradient.X(),
					c.Pressure.Gradient.Y()+pressureFromAbove*subDt*float64(pass+1)*0.02,
				)

				d := c.NormalizedDeflection()
				m := c.PercentFull()
				add := vec2.New(d.X(), d.Y()).Scale(m * subDt * 0.02)
				c.Pressure.Gradient = c.Pressure.Gradient.Add(add)
			}
		}

		redistributeLateral(g, w, h)
		if pass < settlingPasses-1 {
			smoothStencil(g, w, h)
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := g.At(x, y)
			c.Pressure.Total = c.Pressure.Magnitude()
		}
	}
}

// redistributeLateral moves a fraction (0.1) of each cell's vertical
// pressure into its horizontal neighbors' x-pressure.
func redistributeLateral(g Grid, w, h int) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := g.At(x, y)
			share := c.Pressure.Gradient.Y() * 0.1
			if share == 0 {
				continue
			}
			for _, nx := range []int{x - 1, x + 1} {
				if !g.InBounds(nx, y) {
					continue
				}
				n := g.At(nx, y)
				n.Pressure.Gradient = vec2.New(n.Pressure.Gradient.X()+share*0.5, n.Pressure.Gradient.Y())
			}
		}
	}
}

// smoothStencil applies a weighted 3x3 average (center weight 1,
// 8-neighbor weight 0.3 each), normalized by the number of contributing
// cells, to every cell's pressure gradient. Uses gonum/floats for the
// weighted reduction over each axis's neighbor samples.
func smoothStencil(g Grid, w, h int) {
	type snapshot struct{ gx, gy float64 }
	prev := make([]snapshot, w*h)
	idx := func(x, y int) int { return y*w + x }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := g.At(x, y)
			prev[idx(x, y)] = snapshot{c.Pressure.Gradient.X(), c.Pressure.Gradient.Y()}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			xs := make([]float64, 0, 9)
			ys := make([]float64, 0, 9)
			weights := make([]float64, 0, 9)
			center := prev[idx(x, y)]
			xs = append(xs, center.gx)
			ys = append(ys, center.gy)
			weights = append(weights, 1.0)

			count := 1
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if !g.InBounds(nx, ny) {
						continue
					}
					s := prev[idx(nx, ny)]
					xs = append(xs, s.gx)
					ys = append(ys, s.gy)
					weights = append(weights, 0.3)
					count++
				}
			}

			sumX := floats.Dot(xs, weights)
			sumY := floats.Dot(ys, weights)
			norm := float64(count)
			g.At(x, y).Pressure.Gradient = vec2.New(sumX/norm, sumY/norm)
		}
	}
}
