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
	"io"
	"strings"
	"testing"
	"time"
)

func TestNewPairValidation(t *testing.T) {
	ok := constRaster(4, 4, 1)

	if _, err := NewPair(nil, ok, ok, ok); err == nil {
		t.Error("nil raster: expected error")
	}

	smaller := constRaster(3, 4, 1)
	if _, err := NewPair(ok, ok, smaller, ok); err == nil {
		t.Error("grid mismatch: expected error")
	}

	late := constRaster(4, 4, 1)
	late.DOY = 32
	if _, err := NewPair(ok, ok, late, ok); err == nil {
		t.Error("sensor date mismatch: expected error")
	}

	t0 := constRaster(4, 4, 1)
	t1 := constRaster(4, 4, 1)
	t0.Time = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	t1.Time = t0.Time.AddDate(0, 0, -16)
	if _, err := NewPair(t0, t1, constRaster(4, 4, 1), constRaster(4, 4, 1)); err == nil {
		t.Error("t1 before t0: expected error")
	}
}

func TestPrepareRejectsMissingBand(t *testing.T) {
	r := constRaster(4, 4, 1)
	pair, err := NewPair(r, r, r, r)
	if err != nil {
		t.Fatal(err.Error())
	}
	cfg := NewConfig(1, []string{"swir"}, 7)
	if _, err := pair.Prepare(cfg, NewContext(io.Discard)); err == nil ||
		!strings.Contains(err.Error(), "swir") {
		t.Errorf("missing band: err=%v; want named band error", err)
	}
}

func TestPrepareRejectsInvalidConfig(t *testing.T) {
	r := constRaster(4, 4, 1)
	pair, err := NewPair(r, r, r, r)
	if err != nil {
		t.Fatal(err.Error())
	}
	for _, cfg := range []*Config{
		NewConfig(0, []string{"ndvi"}, 7),
		NewConfig(1, nil, 7),
		NewConfig(1, []string{"ndvi"}, 0),
	} {
		if _, err := pair.Prepare(cfg, NewContext(io.Discard)); err == nil {
			t.Errorf("config %+v: expected error", cfg)
		}
	}
}

func TestPredictRejectsForeignGrid(t *testing.T) {
	r := constRaster(4, 4, 1)
	pair, err := NewPair(r, r, r, r)
	if err != nil {
		t.Fatal(err.Error())
	}
	prep, err := pair.Prepare(NewConfig(1, []string{"ndvi"}, 7), NewContext(io.Discard))
	if err != nil {
		t.Fatal(err.Error())
	}
	if _, err := prep.Predict(constRaster(5, 5, 1), NewContext(io.Discard)); err == nil {
		t.Error("foreign grid target: expected error")
	}
}
