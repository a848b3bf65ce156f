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

package raster

import (
	"math"
	"testing"
)

func TestBandPlanes(t *testing.T) {
	r := New(3, 2, []string{"red", "nir"}, nil)
	if r.Pixels() != 6 {
		t.Errorf("pixels=%d; want 6", r.Pixels())
	}
	if len(r.Data) != 12 {
		t.Errorf("len(data)=%d; want 12", len(r.Data))
	}
	r.Band(1)[0] = 42
	if r.Data[6] != 42 {
		t.Errorf("data[6]=%f; want 42, band planes must be contiguous", r.Data[6])
	}
	if i := r.BandIndex("nir"); i != 1 {
		t.Errorf("BandIndex(nir)=%d; want 1", i)
	}
	if i := r.BandIndex("swir"); i != -1 {
		t.Errorf("BandIndex(swir)=%d; want -1", i)
	}
}

func TestNewFromRaster(t *testing.T) {
	r := New(2, 2, []string{"ndvi"}, []float32{1, 2, 3, 4})
	r.ID, r.DOY = 7, 123
	clone := NewFromRaster(r)
	if clone.ID != 7 || clone.DOY != 123 {
		t.Errorf("ID=%d DOY=%d; want 7, 123", clone.ID, clone.DOY)
	}
	for i, v := range clone.Data {
		if !math.IsNaN(float64(v)) {
			t.Errorf("clone[%d]=%f; want NaN", i, v)
		}
	}
	if r.Data[0] != 1 {
		t.Error("source data must not be touched")
	}
}

func TestSameGrid(t *testing.T) {
	a := New(3, 2, []string{"ndvi"}, nil)
	if !a.SameGrid(New(3, 2, []string{"ndvi"}, nil)) {
		t.Error("identical grids flagged as different")
	}
	if a.SameGrid(New(2, 3, []string{"ndvi"}, nil)) {
		t.Error("transposed grid flagged as same")
	}
	if a.SameGrid(New(3, 2, []string{"red"}, nil)) {
		t.Error("different band layout flagged as same")
	}
}

func TestValidSamples(t *testing.T) {
	nan := float32(math.NaN())
	r := New(2, 2, []string{"ndvi"}, []float32{1, nan, 3, nan})
	if n := r.ValidSamples(0); n != 2 {
		t.Errorf("valid=%d; want 2", n)
	}
}
