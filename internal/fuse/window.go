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
	"errors"
	"fmt"
	"math"

	"starfuse/internal/raster"
)

// A relative pixel offset within the square window
type Offset struct {
	Dy, Dx int
}

// Offsets enumerates the window's relative offsets in deterministic
// row-major order, dy then dx, each in [-radius, radius]. The position index
// into this slice is the stable offset identity used to align neighborhood
// stacks built from different source rasters.
func Offsets(radius int) []Offset {
	d := 2*radius + 1
	offsets := make([]Offset, 0, d*d)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			offsets = append(offsets, Offset{Dy: dy, Dx: dx})
		}
	}
	return offsets
}

// CenterIndex returns the position index of the (0,0) offset
func CenterIndex(radius int) int {
	d := 2*radius + 1
	return d*radius + radius
}

// A neighborhood stack: one shifted copy of the source raster per window
// offset. Layer k holds, for every pixel location, the source value at
// relative offset Offsets(radius)[k], with NaN where that neighbor falls
// outside the raster extent.
type Stack struct {
	Source  *raster.Raster
	Radius  int
	offsets []Offset
	layers  [][]float32 // indexed [k*bands + band], each of length W*H
}

// NewStack extracts the neighborhood stack of a raster for the given window
// radius. This is the memory-dominant structure of a fusion run: it holds
// N=(2r+1)^2 copies of the source per band.
func NewStack(r *raster.Raster, radius int) (*Stack, error) {
	if radius <= 0 {
		return nil, errors.New(fmt.Sprintf("invalid window radius %d, must be positive", radius))
	}
	offsets := Offsets(radius)
	width, height := int(r.Width), int(r.Height)
	bands := len(r.Bands)
	nan := float32(math.NaN())

	layers := make([][]float32, len(offsets)*bands)
	for k, off := range offsets {
		for b := 0; b < bands; b++ {
			src := r.Band(b)
			layer := getLayer(width * height)
			for y := 0; y < height; y++ {
				ny := y + off.Dy
				if ny < 0 || ny >= height {
					for x := 0; x < width; x++ {
						layer[y*width+x] = nan
					}
					continue
				}
				for x := 0; x < width; x++ {
					nx := x + off.Dx
					if nx < 0 || nx >= width {
						layer[y*width+x] = nan
					} else {
						layer[y*width+x] = src[ny*width+nx]
					}
				}
			}
			layers[k*bands+b] = layer
		}
	}

	return &Stack{Source: r, Radius: radius, offsets: offsets, layers: layers}, nil
}

// NumOffsets returns N, the number of layers per band
func (s *Stack) NumOffsets() int { return len(s.offsets) }

// Offsets returns the window offsets in layer order
func (s *Stack) Offsets() []Offset { return s.offsets }

// Layer returns the shifted copy for offset index k and band index b
func (s *Stack) Layer(k, b int) []float32 {
	return s.layers[k*len(s.Source.Bands)+b]
}

// Center returns the unshifted layer for band index b, which reproduces the
// source band exactly
func (s *Stack) Center(b int) []float32 {
	return s.Layer(CenterIndex(s.Radius), b)
}

// Release returns all planes to the layer pool. The stack must not be used
// afterwards.
func (s *Stack) Release() {
	for _, layer := range s.layers {
		putLayer(layer)
	}
	s.layers = nil
}

// MemoryMB estimates the in-memory footprint of a stack for the given
// source raster and radius, for batch planning.
func MemoryMB(r *raster.Raster, radius int) int64 {
	d := int64(2*radius + 1)
	bytes := d * d * int64(len(r.Bands)) * int64(r.Pixels()) * 4
	return bytes / 1024 / 1024
}
