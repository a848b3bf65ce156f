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

	"gonum.org/v1/gonum/mat"
)

// Per-pixel normalized similarity weights across the window. Conceptually an
// NxN diagonal matrix per pixel, applied to the Nxbands neighbor difference
// array in the predictor; stored as the N diagonal entries. Weights at each
// pixel are nonnegative and sum to 1 whenever at least one offset has a
// finite combined distance.
type Weights struct {
	Radius int
	N      int
	layers [][]float32 // per offset k, per pixel
}

// BuildWeights fuses spectral and spatial distance into normalized weights.
// The combined distance is the product of the two, so either one can veto a
// neighbor entirely. Raw weights are inverse combined distances; offsets with
// NaN distance contribute zero. A combined distance of exactly zero marks a
// perfect match: such offsets split the pixel's full weight equally and all
// finite-distance offsets drop to zero, instead of propagating infinity.
func BuildWeights(specDist [][]float32, spatDist []float32, radius int) *Weights {
	n := len(spatDist)
	pixels := len(specDist[0])
	layers := make([][]float32, n)
	for k := range layers {
		layers[k] = make([]float32, pixels)
	}

	for i := 0; i < pixels; i++ {
		sum := float32(0)
		numPerfect := 0
		for k := 0; k < n; k++ {
			combined := specDist[k][i] * spatDist[k]
			if combined != combined { // masked or no-data neighbor
				layers[k][i] = 0
				continue
			}
			if combined == 0 {
				layers[k][i] = float32(math.Inf(1))
				numPerfect++
				continue
			}
			raw := 1 / combined
			layers[k][i] = raw
			sum += raw
		}

		if numPerfect > 0 {
			// perfect matches take all the weight, split evenly
			w := 1 / float32(numPerfect)
			for k := 0; k < n; k++ {
				if math.IsInf(float64(layers[k][i]), 1) {
					layers[k][i] = w
				} else {
					layers[k][i] = 0
				}
			}
		} else if sum > 0 {
			for k := 0; k < n; k++ {
				layers[k][i] /= sum
			}
		}
		// sum==0 leaves all weights zero: no usable neighbor at this pixel
	}

	return &Weights{Radius: radius, N: n, layers: layers}
}

// At returns the normalized weight grid for offset index k
func (w *Weights) At(k int) []float32 {
	return w.layers[k]
}

// Diag packs the weights of one pixel into the NxN diagonal matrix form
// consumed by matrix arithmetic; off-diagonal entries are exactly zero.
func (w *Weights) Diag(pixel int) *mat.DiagDense {
	diag := make([]float64, w.N)
	for k := 0; k < w.N; k++ {
		diag[k] = float64(w.layers[k][pixel])
	}
	return mat.NewDiagDense(w.N, diag)
}
