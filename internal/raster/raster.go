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
	"fmt"
	"math"
	"strings"
	"time"
)

// A multi-band raster on a regular pixel grid. Bands are named semantic
// channels (e.g. "ndvi"). Data is stored band-planar: band i occupies
// Data[i*W*H : (i+1)*W*H], row-major within the plane. NaN marks no-data.
// Immutable by convention once produced by a constructor or the fusion engine.
type Raster struct {
	ID       int    // Sequential ID number, for log output
	FileName string // Original file name, if any, for log output

	Width  int32    // Pixels per row
	Height int32    // Rows
	Bands  []string // Band names, in storage order

	Data []float32 // Band-planar samples, len = Width*Height*len(Bands)

	DOY  int32     // Acquisition day of year, for pairing and provenance
	Time time.Time // Acquisition timestamp, carried into predictions
}

// Creates a raster with given dimensions and band names. Data is not copied,
// and allocated if nil. Band names are deep copied.
func New(width, height int32, bands []string, data []float32) *Raster {
	if data == nil {
		data = make([]float32, int(width)*int(height)*len(bands))
	}
	return &Raster{
		Width:  width,
		Height: height,
		Bands:  append([]string(nil), bands...),
		Data:   data,
	}
}

// Creates an all-NaN raster on the same grid as the given raster,
// carrying over its identity metadata.
func NewFromRaster(r *Raster) *Raster {
	res := New(r.Width, r.Height, r.Bands, nil)
	for i := range res.Data {
		res.Data[i] = float32(math.NaN())
	}
	res.ID, res.FileName = r.ID, r.FileName
	res.DOY, res.Time = r.DOY, r.Time
	return res
}

// Number of pixels per band plane
func (r *Raster) Pixels() int32 {
	return r.Width * r.Height
}

// Returns the data plane for band index i
func (r *Raster) Band(i int) []float32 {
	pix := int(r.Pixels())
	return r.Data[i*pix : (i+1)*pix]
}

// Returns the index of the named band, or -1 if absent
func (r *Raster) BandIndex(name string) int {
	for i, b := range r.Bands {
		if b == name {
			return i
		}
	}
	return -1
}

// SameGrid tells whether two rasters share dimensions and band layout,
// the precondition for any pairwise arithmetic between them.
func (r *Raster) SameGrid(o *Raster) bool {
	if r.Width != o.Width || r.Height != o.Height || len(r.Bands) != len(o.Bands) {
		return false
	}
	for i, b := range r.Bands {
		if o.Bands[i] != b {
			return false
		}
	}
	return true
}

func (r *Raster) DimensionsToString() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "%dx%d", r.Width, r.Height)
	if len(r.Bands) > 1 {
		fmt.Fprintf(&b, "x%d", len(r.Bands))
	}
	return b.String()
}

// Counts the valid (non-NaN) samples in band plane i
func (r *Raster) ValidSamples(i int) (n int) {
	for _, v := range r.Band(i) {
		if !isNaN32(v) {
			n++
		}
	}
	return n
}

func isNaN32(v float32) bool { return v != v }
