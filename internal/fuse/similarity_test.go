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

func TestThresholds(t *testing.T) {
	// Half zeros, half twos: mean 1, stddev 1
	r := raster.New(4, 4, []string{"ndvi"}, nil)
	for i := range r.Data {
		if i%2 == 0 {
			r.Data[i] = 2
		}
	}
	th := Thresholds(r, 4)
	if len(th) != 1 {
		t.Fatalf("len(th)=%d; want 1", len(th))
	}
	want := float32(2 * 1.0 / 4)
	if math.Abs(float64(th[0]-want)) > 1e-6 {
		t.Errorf("th[0]=%f; want %f", th[0], want)
	}
}

func TestThresholdsEmptyBand(t *testing.T) {
	r := raster.New(2, 2, []string{"ndvi"}, nil)
	for i := range r.Data {
		r.Data[i] = float32(math.NaN())
	}
	th := Thresholds(r, 4)
	if !math.IsNaN(float64(th[0])) {
		t.Errorf("th[0]=%f; want NaN for all-NaN band", th[0])
	}
}

func TestBuildMaskCenterAlwaysSimilar(t *testing.T) {
	r := raster.New(5, 5, []string{"ndvi"}, nil)
	for i := range r.Data {
		r.Data[i] = float32(i) * 0.01
	}
	stack, err := NewStack(r, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	m := BuildMask(stack, []float32{0.001})
	center := m.At(CenterIndex(1), 0)
	for i, ok := range center {
		if !ok {
			t.Errorf("center mask[%d]=false; want true", i)
		}
	}
}

func TestBuildMaskThreshold(t *testing.T) {
	// 1x3 raster: values 0, 1, 10. With threshold 2 the left neighbor of
	// the center pixel is similar, the right neighbor is not.
	r := raster.New(3, 1, []string{"ndvi"}, []float32{0, 1, 10})
	stack, err := NewStack(r, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	m := BuildMask(stack, []float32{2})

	left := m.At(CenterIndex(1)-1, 0) // offset (0,-1)
	right := m.At(CenterIndex(1)+1, 0)
	if !left[1] {
		t.Errorf("left[1]=false; want true (|1-0|<=2)")
	}
	if right[1] {
		t.Errorf("right[1]=true; want false (|1-10|>2)")
	}
	// Border pixels see NaN neighbors, which are never similar
	if left[0] {
		t.Errorf("left[0]=true; want false at border")
	}
}

// Similarity is symmetric: if p accepts its neighbor q at offset (dy,dx),
// then q accepts p at the mirrored offset.
func TestBuildMaskSymmetry(t *testing.T) {
	r := raster.New(4, 4, []string{"ndvi"}, nil)
	for i := range r.Data {
		r.Data[i] = float32(i%5) * 0.3
	}
	stack, err := NewStack(r, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	m := BuildMask(stack, []float32{0.4})

	offsets := stack.Offsets()
	for k, off := range offsets {
		mirror := len(offsets) - 1 - k // row-major enumeration mirrors through the center
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				ny, nx := y+off.Dy, x+off.Dx
				if ny < 0 || ny >= 4 || nx < 0 || nx >= 4 {
					continue
				}
				if m.At(k, 0)[y*4+x] != m.At(mirror, 0)[ny*4+nx] {
					t.Fatalf("asymmetric mask at (%d,%d) offset %v", y, x, off)
				}
			}
		}
	}
}

func TestBuildMaskNaNThreshold(t *testing.T) {
	r := raster.New(3, 3, []string{"ndvi"}, nil)
	stack, err := NewStack(r, 1)
	if err != nil {
		t.Fatal(err.Error())
	}
	m := BuildMask(stack, []float32{float32(math.NaN())})
	for k := 0; k < stack.NumOffsets(); k++ {
		for i, ok := range m.At(k, 0) {
			if ok {
				t.Fatalf("mask[%d][%d]=true; want all false under NaN threshold", k, i)
			}
		}
	}
}
