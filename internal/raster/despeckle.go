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

// Despeckle replaces every pixel of every band plane with the median of its
// valid 3x3 neighborhood, suppressing salt-and-pepper sensor noise before
// fusion. No-data pixels stay no-data, and no-data neighbors simply shrink
// the median window, so gaps neither grow nor shrink. Returns a new raster;
// the input is left untouched.
func (r *Raster) Despeckle() *Raster {
	out := New(r.Width, r.Height, r.Bands, nil)
	out.ID, out.FileName = r.ID, r.FileName
	out.DOY, out.Time = r.DOY, r.Time

	width, height := int(r.Width), int(r.Height)
	for b := range r.Bands {
		src, dst := r.Band(b), out.Band(b)
		var window [9]float32
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				center := src[y*width+x]
				if center != center {
					dst[y*width+x] = center
					continue
				}
				n := 0
				for dy := -1; dy <= 1; dy++ {
					yy := y + dy
					if yy < 0 || yy >= height {
						continue
					}
					for dx := -1; dx <= 1; dx++ {
						xx := x + dx
						if xx < 0 || xx >= width {
							continue
						}
						if v := src[yy*width+xx]; v == v {
							window[n] = v
							n++
						}
					}
				}
				dst[y*width+x] = medianOf(window[:n])
			}
		}
	}
	return out
}

// medianOf destructively selects the median with an insertion sort; the
// window never exceeds nine elements, so anything fancier loses.
func medianOf(w []float32) float32 {
	for i := 1; i < len(w); i++ {
		for j := i; j > 0 && w[j] < w[j-1]; j-- {
			w[j], w[j-1] = w[j-1], w[j]
		}
	}
	return w[len(w)/2]
}
