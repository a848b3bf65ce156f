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
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"golang.org/x/image/tiff"
)

// 16-bit grayscale TIFF I/O for single band planes. Values are mapped
// linearly from [min,max] to [1,65535]; the sample value 0 is reserved for
// no-data, so NaN survives a write/read cycle.

// Write band plane i of a raster to 16-bit grayscale TIFF, mapping [min,max].
func (r *Raster) WriteMonoTIFF16ToFile(fileName string, band int, min, max float32) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return r.WriteMonoTIFF16(writer, band, min, max)
}

// Write band plane i of a raster to 16-bit grayscale TIFF, mapping [min,max].
func (r *Raster) WriteMonoTIFF16(writer io.Writer, band int, min, max float32) error {
	width, height := int(r.Width), int(r.Height)
	img := image.NewGray16(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	data := r.Band(band)
	scale := 65534 / (max - min)
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			v := data[yoffset+x]
			if math.IsNaN(float64(v)) {
				img.SetGray16(x, y, color.Gray16{0})
				continue
			}
			v = (v-min)*scale + 1
			if v < 1 {
				v = 1
			}
			if v > 65535 {
				v = 65535
			}
			img.SetGray16(x, y, color.Gray16{uint16(v)})
		}
	}

	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// Read a 16-bit grayscale TIFF into a fresh single-band raster,
// mapping samples back from [1,65535] to [min,max]. Sample 0 becomes NaN.
func ReadMonoTIFF16File(fileName string, band string, min, max float32) (*Raster, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, err := ReadMonoTIFF16(bufio.NewReader(file), band, min, max)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", fileName, err.Error())
	}
	r.FileName = fileName
	return r, nil
}

// Read a 16-bit grayscale TIFF into a fresh single-band raster.
func ReadMonoTIFF16(reader io.Reader, band string, min, max float32) (*Raster, error) {
	img, err := tiff.Decode(reader)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	r := New(int32(width), int32(height), []string{band}, nil)
	data := r.Band(0)
	scale := (max - min) / 65534
	nan := float32(math.NaN())
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			gray, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if gray == 0 {
				data[yoffset+x] = nan
			} else {
				data[yoffset+x] = (float32(gray)-1)*scale + min
			}
		}
	}
	return r, nil
}
