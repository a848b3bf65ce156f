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
)

// Run configuration for one fusion batch. Passed explicitly to every
// component; there is no ambient state.
type Config struct {
	Radius       int      `json:"radius"`       // Window radius r in pixels; the window covers (2r+1)^2 offsets
	Bands        []string `json:"bands"`        // Output band names, shared by all input rasters
	CoverClasses int      `json:"coverClasses"` // Expected number of land cover classes in the scene
}

func NewConfig(radius int, bands []string, coverClasses int) *Config {
	return &Config{
		Radius:       radius,
		Bands:        append([]string(nil), bands...),
		CoverClasses: coverClasses,
	}
}

// Validate reports configuration errors before any computation starts.
func (cfg *Config) Validate() error {
	if cfg.Radius <= 0 {
		return errors.New(fmt.Sprintf("invalid window radius %d, must be positive", cfg.Radius))
	}
	if len(cfg.Bands) == 0 {
		return errors.New("no fusion bands configured")
	}
	if cfg.CoverClasses <= 0 {
		return errors.New(fmt.Sprintf("invalid cover class count %d, must be positive", cfg.CoverClasses))
	}
	return nil
}

// NumOffsets returns N, the number of relative offsets in the window.
func (cfg *Config) NumOffsets() int {
	d := 2*cfg.Radius + 1
	return d * d
}
