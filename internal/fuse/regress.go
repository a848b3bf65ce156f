// Copyright (C) 2026 the starfuse authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package fuse

import (
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"
)

var nan64 = math.NaN()

// Per-pixel conversion coefficients relating dense-sensor to sparse-sensor
// values, fit once per bracket pair and reused for every prediction date in
// the pair's batch. Only the slope scales dense deltas into sparse units
// downstream; the intercept is retained for inspection but not consumed.
type Coeffs struct {
	Bands      []string
	Slope      [][]float32 // per band, per pixel; NaN marks a failed fit
	Intercept  [][]float32 // per band, per pixel; NaN marks a failed fit
	Degenerate int64       // number of pixel/band fits with too few informative rows
}

// FitCoeffs pools, for every pixel, the unmasked neighbor samples from both
// bracket dates across all window offsets, and fits ordinary least squares
// sparse = intercept + slope*dense per band independently. Windows with fewer
// informative rows than the two parameters, or without variation in the dense
// values, are marked NaN and counted rather than given a spurious fit.
func FitCoeffs(sparse0, sparse1, dense0, dense1 *Stack, m0, m1 *Mask, c *Context) *Coeffs {
	bands := len(sparse0.Source.Bands)
	n := sparse0.NumOffsets()
	pixels := len(sparse0.Center(0))

	cf := &Coeffs{
		Bands:     append([]string(nil), sparse0.Source.Bands...),
		Slope:     make([][]float32, bands),
		Intercept: make([][]float32, bands),
	}
	for b := 0; b < bands; b++ {
		cf.Slope[b] = make([]float32, pixels)
		cf.Intercept[b] = make([]float32, pixels)
	}

	// row-band work packages under a channel semaphore
	batchSize := (pixels + 8*c.MaxThreads - 1) / (8 * c.MaxThreads)
	if batchSize < 1 {
		batchSize = 1
	}
	sem := make(chan bool, c.MaxThreads)
	wg := sync.WaitGroup{}
	for lower := 0; lower < pixels; lower += batchSize {
		upper := lower + batchSize
		if upper > pixels {
			upper = pixels
		}
		sem <- true
		wg.Add(1)
		go func(lower, upper int) {
			defer func() { <-sem; wg.Done() }()
			xs := make([]float64, 0, 2*n)
			ys := make([]float64, 0, 2*n)
			degenerate := int64(0)
			for b := 0; b < bands; b++ {
				for i := lower; i < upper; i++ {
					xs, ys = xs[:0], ys[:0]
					for date := 0; date < 2; date++ {
						sparse, dense, mask := sparse0, dense0, m0
						if date == 1 {
							sparse, dense, mask = sparse1, dense1, m1
						}
						for k := 0; k < n; k++ {
							if !mask.At(k, b)[i] {
								continue
							}
							sp, dn := sparse.Layer(k, b)[i], dense.Layer(k, b)[i]
							if sp != sp || dn != dn {
								continue
							}
							xs = append(xs, float64(dn))
							ys = append(ys, float64(sp))
						}
					}
					alpha, beta, ok := fitBand(xs, ys)
					if !ok {
						degenerate++
					}
					cf.Intercept[b][i] = float32(alpha)
					cf.Slope[b][i] = float32(beta)
				}
			}
			if degenerate > 0 {
				atomic.AddInt64(&cf.Degenerate, degenerate)
			}
		}(lower, upper)
	}
	wg.Wait()

	return cf
}

// fitBand runs simple OLS on the pooled rows of one pixel/band. Returns
// NaN coefficients and ok=false when the system is underdetermined.
func fitBand(xs, ys []float64) (alpha, beta float64, ok bool) {
	if len(xs) < 2 {
		return nan64, nan64, false
	}
	xmin, xmax := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < xmin {
			xmin = x
		}
		if x > xmax {
			xmax = x
		}
	}
	if xmin == xmax { // no variation in the dense values, slope undefined
		return nan64, nan64, false
	}
	alpha, beta = stat.LinearRegression(xs, ys, nil, false)
	return alpha, beta, true
}
