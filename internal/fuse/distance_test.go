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
	"testing"

	"starfuse/internal/raster"
)

func constRaster(width, height int32, v float32) *raster.Raster {
	r := raster.New(width, height, []string{"ndvi"}, nil)
	for i := range r.Data {
		r.Data[i] = v
	}
	return r
}

func mustStack(t *testing.T, r *raster.Raster, radius int) *Stack {
	t.Helper()
	s, err := NewStack(r, radius)
	if err != nil {
		t.Fatal(err.Error())
	}
	return s
}

func allTrueMask(stack *Stack) *Mask {
	m := BuildMask(stack, []float32{float32(math.MaxFloat32)})
	return m
}

func TestSpatialDistance(t *testing.T) {
	d := SpatialDistance(2)
	if len(d) != 25 {
		t.Fatalf("len(d)=%d; want 25", len(d))
	}
	if want := float32(1.0 / 2); d[CenterIndex(2)] != want {
		t.Errorf("center=%f; want %f", d[CenterIndex(2)], want)
	}
	// corner offset (-2,-2)
	want := float32(math.Sqrt(1+4+4) / 2)
	if math.Abs(float64(d[0]-want)) > 1e-6 {
		t.Errorf("corner=%f; want %f", d[0], want)
	}
}

func TestSpectralDistanceConstantOffset(t *testing.T) {
	// Sparse exceeds dense by 3 on one date and 5 on the other, everywhere.
	// The cross-date mean absolute difference is 4 at every offset.
	s0 := mustStack(t, constRaster(5, 5, 7), 1)
	s1 := mustStack(t, constRaster(5, 5, 9), 1)
	d0 := mustStack(t, constRaster(5, 5, 4), 1)
	d1 := mustStack(t, constRaster(5, 5, 4), 1)
	m0, m1 := allTrueMask(s0), allTrueMask(s1)

	spec := SpectralDistance(s0, s1, d0, d1, m0, m1)
	if len(spec) != 9 {
		t.Fatalf("len(spec)=%d; want 9", len(spec))
	}
	// interior pixel: every offset has both dates valid
	i := 2*5 + 2
	for k := 0; k < 9; k++ {
		if v := spec[k][i]; math.Abs(float64(v-4)) > 1e-6 {
			t.Errorf("spec[%d][%d]=%f; want 4", k, i, v)
		}
	}
}

func TestSpectralDistanceMaskedOut(t *testing.T) {
	s0 := mustStack(t, constRaster(3, 3, 1), 1)
	s1 := mustStack(t, constRaster(3, 3, 1), 1)
	d0 := mustStack(t, constRaster(3, 3, 0), 1)
	d1 := mustStack(t, constRaster(3, 3, 0), 1)

	// NaN thresholds mask everything out, so no term survives anywhere
	m := BuildMask(s0, []float32{float32(math.NaN())})
	spec := SpectralDistance(s0, s1, d0, d1, m, m)
	for k := range spec {
		for i, v := range spec[k] {
			if !math.IsNaN(float64(v)) {
				t.Fatalf("spec[%d][%d]=%f; want NaN with all offsets masked", k, i, v)
			}
		}
	}
}

func TestSpectralDistanceBorderNaN(t *testing.T) {
	s0 := mustStack(t, constRaster(3, 3, 1), 1)
	s1 := mustStack(t, constRaster(3, 3, 1), 1)
	d0 := mustStack(t, constRaster(3, 3, 0), 1)
	d1 := mustStack(t, constRaster(3, 3, 0), 1)
	m0, m1 := allTrueMask(s0), allTrueMask(s1)

	spec := SpectralDistance(s0, s1, d0, d1, m0, m1)
	// top-left pixel has no upper-left neighbor
	if !math.IsNaN(float64(spec[0][0])) {
		t.Errorf("spec[0][0]=%f; want NaN at missing offset", spec[0][0])
	}
	// but its center offset is valid
	if v := spec[CenterIndex(1)][0]; math.Abs(float64(v-1)) > 1e-6 {
		t.Errorf("center spec[0]=%f; want 1", v)
	}
}
