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

	"starfuse/internal/raster"
)

// A bracket pair: sparse- and dense-sensor rasters at the two dates bounding
// a prediction interval. All four rasters share one spatial grid and band
// layout, and the sensors' t0/t1 acquisition dates match pairwise.
type Pair struct {
	Sparse0, Sparse1 *raster.Raster // high spatial resolution, t0 and t1
	Dense0, Dense1   *raster.Raster // low spatial resolution, t0 and t1
}

// NewPair validates the bracket-pair invariants up front, so configuration
// errors surface before any computation starts.
func NewPair(sparse0, sparse1, dense0, dense1 *raster.Raster) (*Pair, error) {
	if sparse0 == nil || sparse1 == nil || dense0 == nil || dense1 == nil {
		return nil, errors.New("bracket pair needs two sparse and two dense rasters")
	}
	for _, r := range []*raster.Raster{sparse1, dense0, dense1} {
		if !sparse0.SameGrid(r) {
			return nil, errors.New(fmt.Sprintf("raster grids differ: %s vs %s",
				sparse0.DimensionsToString(), r.DimensionsToString()))
		}
	}
	if sparse0.DOY != dense0.DOY || sparse1.DOY != dense1.DOY {
		return nil, errors.New(fmt.Sprintf("sensor acquisition dates differ: sparse %d/%d vs dense %d/%d",
			sparse0.DOY, sparse1.DOY, dense0.DOY, dense1.DOY))
	}
	if !sparse0.Time.IsZero() && sparse1.Time.Before(sparse0.Time) {
		return nil, errors.New("bracket t1 precedes t0")
	}
	return &Pair{Sparse0: sparse0, Sparse1: sparse1, Dense0: dense0, Dense1: dense1}, nil
}

// The once-per-pair state shared by all of a pair's prediction dates:
// dense-sensor neighborhood stacks, the weight matrix, and the conversion
// coefficients. Nothing in here persists across bracket pairs.
type Prepared struct {
	Pair    *Pair
	Config  *Config
	dense0  *Stack
	dense1  *Stack
	weights *Weights
	coeffs  *Coeffs
}

// Prepare runs the once-per-pair phase: neighborhood extraction, similarity
// masking, spectral/spatial distances, weights, and the pooled window
// regression. It must complete before any prediction for the pair proceeds.
func (p *Pair) Prepare(cfg *Config, c *Context) (*Prepared, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, band := range cfg.Bands {
		if p.Sparse0.BandIndex(band) < 0 {
			return nil, errors.New(fmt.Sprintf("configured band %s missing from input rasters", band))
		}
	}

	fmt.Fprintf(c.Log, "Preparing bracket pair DOY %d..%d, %s pixels, radius %d (%d offsets)\n",
		p.Sparse0.DOY, p.Sparse1.DOY, p.Sparse0.DimensionsToString(), cfg.Radius, cfg.NumOffsets())

	sparse0, err := NewStack(p.Sparse0, cfg.Radius)
	if err != nil {
		return nil, err
	}
	sparse1, err := NewStack(p.Sparse1, cfg.Radius)
	if err != nil {
		return nil, err
	}
	dense0, err := NewStack(p.Dense0, cfg.Radius)
	if err != nil {
		return nil, err
	}
	dense1, err := NewStack(p.Dense1, cfg.Radius)
	if err != nil {
		return nil, err
	}

	thresh0 := Thresholds(p.Sparse0, cfg.CoverClasses)
	thresh1 := Thresholds(p.Sparse1, cfg.CoverClasses)
	fmt.Fprintf(c.Log, "Similarity thresholds t0 %v t1 %v\n", thresh0, thresh1)
	mask0 := BuildMask(sparse0, thresh0)
	mask1 := BuildMask(sparse1, thresh1)

	specDist := SpectralDistance(sparse0, sparse1, dense0, dense1, mask0, mask1)
	spatDist := SpatialDistance(cfg.Radius)
	weights := BuildWeights(specDist, spatDist, cfg.Radius)

	coeffs := FitCoeffs(sparse0, sparse1, dense0, dense1, mask0, mask1, c)
	if coeffs.Degenerate > 0 {
		fmt.Fprintf(c.Log, "%d of %d window fits degenerate, their predictions are no-data\n",
			coeffs.Degenerate, int64(p.Sparse0.Pixels())*int64(len(cfg.Bands)))
	}

	// the sparse stacks are only needed for fitting
	sparse0.Release()
	sparse1.Release()

	return &Prepared{
		Pair:    p,
		Config:  cfg,
		dense0:  dense0,
		dense1:  dense1,
		weights: weights,
		coeffs:  coeffs,
	}, nil
}

// Weights exposes the pair's per-pixel weight matrix
func (pp *Prepared) Weights() *Weights { return pp.weights }

// Coeffs exposes the pair's conversion coefficients
func (pp *Prepared) Coeffs() *Coeffs { return pp.coeffs }

// Predict synthesizes the high-resolution raster for one dense-sensor target
// date, materializing the target's neighborhood stack for the duration of
// the call.
func (pp *Prepared) Predict(target *raster.Raster, c *Context) (*raster.Raster, error) {
	if !pp.Pair.Sparse0.SameGrid(target) {
		return nil, errors.New(fmt.Sprintf("target raster grid %s differs from pair grid %s",
			target.DimensionsToString(), pp.Pair.Sparse0.DimensionsToString()))
	}
	stack, err := NewStack(target, pp.Config.Radius)
	if err != nil {
		return nil, err
	}
	defer stack.Release()
	out := Predict(pp.Pair.Sparse0, pp.Pair.Sparse1, pp.dense0, pp.dense1, stack,
		pp.weights, pp.coeffs, c)
	return out, nil
}
