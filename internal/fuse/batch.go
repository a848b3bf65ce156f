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
	"runtime/debug"
	"sync"

	"starfuse/internal/raster"
)

// Fuse runs a whole bracket-pair batch: one prepare phase, then one predicted
// raster per prediction-date target, in input order. Targets inside a batch
// run concurrently; batch sizing keeps the materialized neighborhood stacks
// inside the context's memory ceiling, since window radius and in-flight
// target count trade off directly against peak memory.
func Fuse(pair *Pair, targets []*raster.Raster, cfg *Config, c *Context) ([]*raster.Raster, error) {
	if len(targets) == 0 {
		return nil, errors.New("no prediction targets between bracket dates")
	}
	for i := 1; i < len(targets); i++ {
		if targets[i].DOY < targets[i-1].DOY {
			return nil, errors.New(fmt.Sprintf("prediction targets out of chronological order: DOY %d after %d",
				targets[i].DOY, targets[i-1].DOY))
		}
	}

	prepared, err := pair.Prepare(cfg, c)
	if err != nil {
		return nil, err
	}

	batchSize, numBatches, err := planTargets(pair.Sparse0, len(targets), cfg, c)
	if err != nil {
		return nil, err
	}

	outs := make([]*raster.Raster, len(targets))
	errs := make([]error, len(targets))
	for batch := 0; batch < numBatches; batch++ {
		lower := batch * batchSize
		upper := lower + batchSize
		if upper > len(targets) {
			upper = len(targets)
		}
		fmt.Fprintf(c.Log, "Predicting batch %d of %d with %d targets...\n", batch+1, numBatches, upper-lower)

		sem := make(chan bool, batchSize)
		wg := sync.WaitGroup{}
		for i := lower; i < upper; i++ {
			sem <- true
			wg.Add(1)
			go func(i int) {
				defer func() { <-sem; wg.Done() }()
				outs[i], errs[i] = prepared.Predict(targets[i], c)
			}(i)
		}
		wg.Wait()
		debug.FreeOSMemory()
	}

	for i, e := range errs {
		if e != nil {
			return nil, errors.New(fmt.Sprintf("target DOY %d: %s", targets[i].DOY, e.Error()))
		}
	}
	return outs, nil
}

// planTargets sizes the per-batch target count against the memory ceiling.
// Each in-flight target materializes an N-offset stack plus its output
// raster, on top of the pair's resident dense stacks, weights and
// coefficients.
func planTargets(grid *raster.Raster, numTargets int, cfg *Config, c *Context) (batchSize, numBatches int, err error) {
	perTargetMB := MemoryMB(grid, cfg.Radius) + int64(grid.Pixels())*4*int64(len(grid.Bands))/1024/1024 + 1
	residentMB := 2*MemoryMB(grid, cfg.Radius) + // dense t0/t1 stacks
		int64(cfg.NumOffsets())*int64(grid.Pixels())*4/1024/1024 + // weights
		2*int64(len(grid.Bands))*int64(grid.Pixels())*4/1024/1024 // coefficients

	availableMB := int64(c.FuseMemoryMB) - residentMB
	if availableMB < perTargetMB {
		return 0, 0, errors.New(fmt.Sprintf(
			"cannot predict a single %s target with radius %d inside the %d MiB ceiling (resident %d MiB, per target %d MiB); reduce the window radius",
			grid.DimensionsToString(), cfg.Radius, c.FuseMemoryMB, residentMB, perTargetMB))
	}

	batchSize = int(availableMB / perTargetMB)
	if batchSize > c.MaxThreads {
		batchSize = c.MaxThreads
	}
	if batchSize > numTargets {
		batchSize = numTargets
	}
	numBatches = (numTargets + batchSize - 1) / batchSize
	fmt.Fprintf(c.Log, "Memory ceiling %d MiB, resident %d MiB, %d MiB per target: %d batches of up to %d targets.\n",
		c.FuseMemoryMB, residentMB, perTargetMB, numBatches, batchSize)
	return batchSize, numBatches, nil
}
