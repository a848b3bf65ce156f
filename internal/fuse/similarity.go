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

	"starfuse/internal/raster"
	"starfuse/internal/stats"
)

// Cap on the pixels scanned per band when deriving thresholds; larger bands
// fall back to a sampled standard deviation estimate.
const thresholdSampleBudget = 1024 * 1024

// Per-offset, per-band similarity flags for one bracket date. True marks a
// neighbor close enough to the window's center pixel to enter regression and
// weighting.
type Mask struct {
	Radius int
	bands  int
	layers [][]bool // indexed [k*bands + band], each of length W*H
}

// Thresholds derives the per-band similarity threshold for one sparse-sensor
// raster: 2*stddev/coverClasses, with the standard deviation taken over all
// valid pixels of the band. A band without valid pixels yields NaN, which
// downstream masking treats as all-dissimilar rather than failing.
func Thresholds(sparse *raster.Raster, coverClasses int) []float32 {
	thresh := make([]float32, len(sparse.Bands))
	for b := range sparse.Bands {
		stddev := stats.StdDev(sparse.Band(b), thresholdSampleBudget)
		thresh[b] = stddev * 2 / float32(coverClasses)
	}
	return thresh
}

// BuildMask flags each neighborhood pixel as similar where its value differs
// from the window's center pixel by no more than the band threshold.
// Comparisons against NaN, including a NaN threshold, are dissimilar.
func BuildMask(stack *Stack, thresholds []float32) *Mask {
	bands := len(stack.Source.Bands)
	n := stack.NumOffsets()
	layers := make([][]bool, n*bands)
	for k := 0; k < n; k++ {
		for b := 0; b < bands; b++ {
			center := stack.Center(b)
			neighbor := stack.Layer(k, b)
			thresh := thresholds[b]
			layer := make([]bool, len(center))
			if !math.IsNaN(float64(thresh)) {
				for i, c := range center {
					d := c - neighbor[i]
					if d < 0 {
						d = -d
					}
					layer[i] = d <= thresh // false for NaN operands
				}
			}
			layers[k*bands+b] = layer
		}
	}
	return &Mask{Radius: stack.Radius, bands: bands, layers: layers}
}

// At returns the similarity flags for offset index k and band index b
func (m *Mask) At(k, b int) []bool {
	return m.layers[k*m.bands+b]
}
