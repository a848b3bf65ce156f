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

package stats

import (
	"fmt"
	"math"

	"github.com/valyala/fastrand"
)

// Basic statistics on raster band planes. All calculations skip NaN no-data
// samples; Valid counts the samples that entered the aggregates.
type Basic struct {
	Min    float32 // Minimum of valid samples
	Max    float32 // Maximum of valid samples
	Mean   float32 // Mean of valid samples
	StdDev float32 // Standard deviation (norm 2, sigma) of valid samples
	Valid  int     // Number of valid (non-NaN) samples
}

// Pretty print basic stats to string
func (s *Basic) String() string {
	return fmt.Sprintf("Min %.6g Max %.6g Mean %.6g StdDev %.6g Valid %d",
		s.Min, s.Max, s.Mean, s.StdDev, s.Valid)
}

// Calculate basic statistics for a data array with a full scan.
// An array without valid samples yields all-NaN aggregates and Valid 0.
func CalcBasic(data []float32) (s *Basic) {
	nan := float32(math.NaN())
	s = &Basic{Min: nan, Max: nan, Mean: nan, StdDev: nan}

	min, max := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	sum, n := float32(0), 0
	for _, d := range data {
		if d != d {
			continue
		}
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
		sum += d
		n++
	}
	if n == 0 {
		return s
	}
	mean := sum / float32(n)

	sumSqDiff := float32(0)
	for _, d := range data {
		if d != d {
			continue
		}
		diff := d - mean
		sumSqDiff += diff * diff
	}
	variance := sumSqDiff / float32(n)

	s.Min, s.Max, s.Mean, s.Valid = min, max, mean, n
	s.StdDev = float32(math.Sqrt(float64(variance)))
	return s
}

// Fixed seed keeps sampled estimates reproducible across runs
const samplingSeed = 0xb5f3c6a7

// Calculates a fast approximate standard deviation of the (presumably large)
// data by subsampling numSamples values and taking the exact standard
// deviation of that. NaN samples are redrawn a bounded number of times, so an
// all-NaN array terminates and yields NaN.
func FastApproxStdDev(data []float32, numSamples int) float32 {
	max := uint32(len(data))
	rng := fastrand.RNG{}
	rng.Seed(samplingSeed)

	samples := make([]float32, 0, numSamples)
	for i := 0; i < numSamples; i++ {
		d := data[rng.Uint32n(max)]
		for retries := 0; d != d && retries < 8; retries++ {
			d = data[rng.Uint32n(max)]
		}
		if d != d {
			continue
		}
		samples = append(samples, d)
	}
	if len(samples) < 2 {
		return float32(math.NaN())
	}
	return CalcBasic(samples).StdDev
}

// StdDev picks the full scan below sampleThreshold elements, and the
// sampled estimate above, mirroring a best-effort bounded-pixel reduction.
func StdDev(data []float32, sampleThreshold int) float32 {
	if sampleThreshold <= 0 || len(data) <= sampleThreshold {
		return CalcBasic(data).StdDev
	}
	return FastApproxStdDev(data, sampleThreshold)
}
