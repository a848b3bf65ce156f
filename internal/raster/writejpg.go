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
	"bufio"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color ramp endpoints for index previews: bare soil to dense vegetation.
// Blending happens in Lab space for perceptual uniformity.
var (
	rampLow  = colorful.Color{R: 0.63, G: 0.45, B: 0.18}
	rampHigh = colorful.Color{R: 0.05, G: 0.42, B: 0.18}
)

// Write an 8-bit JPEG preview of band plane i, mapping [min,max] through
// a Lab-blended color ramp. No-data renders as black.
func (r *Raster) WriteJPGToFile(fileName string, band int, min, max float32, quality int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return r.WriteJPG(writer, band, min, max, quality)
}

// Write an 8-bit JPEG preview of band plane i to the given writer.
func (r *Raster) WriteJPG(writer io.Writer, band int, min, max float32, quality int) error {
	width, height := int(r.Width), int(r.Height)
	img := image.NewRGBA(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	data := r.Band(band)
	scale := 1 / (max - min)
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			v := data[yoffset+x]
			if math.IsNaN(float64(v)) {
				img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
				continue
			}
			t := float64((v - min) * scale)
			if t < 0 {
				t = 0
			}
			if t > 1 {
				t = 1
			}
			cr, cg, cb := rampLow.BlendLab(rampHigh, t).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{cr, cg, cb, 255})
		}
	}

	return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
}
