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
)

// SpectralDistance computes, per window offset, the mean absolute difference
// between the sparse and dense sensor values at that offset, averaged over
// bands and both bracket dates. Neighbors masked as dissimilar, and no-data
// samples, drop out of the mean; an offset with no contributing terms at a
// pixel is NaN there, which zeroes its weight downstream.
// Offset index k aligns with the input stacks' layer order.
func SpectralDistance(sparse0, sparse1, dense0, dense1 *Stack, m0, m1 *Mask) [][]float32 {
	bands := len(sparse0.Source.Bands)
	n := sparse0.NumOffsets()
	pixels := len(sparse0.Center(0))
	nan := float32(math.NaN())

	dist := make([][]float32, n)
	for k := 0; k < n; k++ {
		sum := make([]float32, pixels)
		count := make([]int32, pixels)
		for date := 0; date < 2; date++ {
			sparse, dense, mask := sparse0, dense0, m0
			if date == 1 {
				sparse, dense, mask = sparse1, dense1, m1
			}
			for b := 0; b < bands; b++ {
				sp, dn, ok := sparse.Layer(k, b), dense.Layer(k, b), mask.At(k, b)
				for i := range sum {
					if !ok[i] {
						continue
					}
					d := sp[i] - dn[i]
					if d != d { // no-data propagates out of the mean
						continue
					}
					if d < 0 {
						d = -d
					}
					sum[i] += d
					count[i]++
				}
			}
		}
		for i := range sum {
			if count[i] == 0 {
				sum[i] = nan
			} else {
				sum[i] /= float32(count[i])
			}
		}
		dist[k] = sum
	}
	return dist
}

// SpatialDistance computes, per window offset (dy,dx), the normalized
// Euclidean distance sqrt(1+dy^2+dx^2)/radius from the window center.
// The +1 keeps the center offset at a nonzero distance, so its weight
// cannot become singular. Constant across pixels, so one scalar per offset.
func SpatialDistance(radius int) []float32 {
	offsets := Offsets(radius)
	dist := make([]float32, len(offsets))
	for k, off := range offsets {
		d := float64(off.Dy*off.Dy + off.Dx*off.Dx)
		dist[k] = float32(math.Sqrt(1+d) / float64(radius))
	}
	return dist
}
