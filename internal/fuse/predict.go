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

	"starfuse/internal/raster"
)

// Predict synthesizes one high-resolution raster for the prediction date of
// the target stack. For each bracket date, the per-offset dense-sensor change
// towards the target date is scaled into sparse-sensor units via the window's
// regression slope and blended across the window through the diagonal weight
// matrix; the resulting increment is added to the bracket's sparse raster.
// The two bracket predictions are then merged with temporal weights inversely
// proportional to each bracket's summed dense change, so the bracket whose
// dense sensor moved least dominates. The output carries the target raster's
// acquisition identity.
func Predict(sparse0, sparse1 *raster.Raster, dense0, dense1, target *Stack,
	w *Weights, cf *Coeffs, c *Context) *raster.Raster {
	bands := len(sparse0.Bands)
	n := w.N
	pixels := len(target.Center(0))
	nan := float32(math.NaN())

	out := raster.New(target.Source.Width, target.Source.Height, sparse0.Bands, nil)
	out.ID = target.Source.ID
	out.FileName = target.Source.FileName
	out.DOY, out.Time = target.Source.DOY, target.Source.Time

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
			for b := 0; b < bands; b++ {
				dst := out.Band(b)
				slope := cf.Slope[b]
				base0, base1 := sparse0.Band(b), sparse1.Band(b)
				for i := lower; i < upper; i++ {
					pred0, sum0, ok0 := predictBracket(dense0, target, w, b, i, n, base0[i], slope[i])
					pred1, sum1, ok1 := predictBracket(dense1, target, w, b, i, n, base1[i], slope[i])
					if !ok0 || !ok1 {
						dst[i] = nan
						continue
					}
					switch w0, w1 := temporalWeights(sum0, sum1); {
					case w1 == 0: // fully trusted bracket, the other may be NaN
						dst[i] = pred0
					case w0 == 0:
						dst[i] = pred1
					default:
						dst[i] = w0*pred0 + w1*pred1
					}
				}
			}
		}(lower, upper)
	}
	wg.Wait()

	return out
}

// predictBracket computes one bracket's prediction for a single pixel and
// band: the weighted sum of slope-scaled dense deltas added onto the sparse
// base value, plus the unweighted delta sum that drives the temporal blend.
// ok is false when no offset carries a finite dense delta.
func predictBracket(dense, target *Stack, w *Weights, b, i, n int,
	base, slope float32) (pred, deltaSum float32, ok bool) {
	increment := float32(0)
	finite := false
	for k := 0; k < n; k++ {
		delta := target.Layer(k, b)[i] - dense.Layer(k, b)[i]
		if delta == delta {
			deltaSum += delta
			finite = true
		}
		if wk := w.At(k)[i]; wk > 0 && delta != 0 {
			increment += wk * delta // NaN delta under positive weight propagates
		}
	}
	if !finite {
		return 0, 0, false
	}
	if increment != 0 {
		// a zero increment needs no scaling, so an unchanged dense sensor
		// yields the bracket value even where the window fit is degenerate
		increment *= slope
	}
	return base + increment, deltaSum, true
}

// temporalWeights turns the two brackets' summed dense changes into blend
// factors. Inverse magnitudes are normalized to sum to 1; a zero change means
// maximal confidence in that bracket and is clamped to full (or, when both
// brackets are unchanged, equal) weight instead of dividing by zero.
func temporalWeights(sum0, sum1 float32) (w0, w1 float32) {
	a0, a1 := sum0, sum1
	if a0 < 0 {
		a0 = -a0
	}
	if a1 < 0 {
		a1 = -a1
	}
	switch {
	case a0 == 0 && a1 == 0:
		return 0.5, 0.5
	case a0 == 0:
		return 1, 0
	case a1 == 0:
		return 0, 1
	}
	inv0, inv1 := 1/a0, 1/a1
	return inv0 / (inv0 + inv1), inv1 / (inv0 + inv1)
}
