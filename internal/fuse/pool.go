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
	"sync"
)

// Pool of constant sized float32 planes, keyed by length. Neighborhood
// stacks churn through N*bands planes per prediction target, so recycling
// them between targets takes the bulk of the allocation pressure off the GC.
var layerPool = struct {
	sync.RWMutex
	m map[int]*sync.Pool
}{m: make(map[int]*sync.Pool)}

// getLayer returns a float32 plane of the given size, recycled if available.
// Contents are undefined; the caller must overwrite every element.
func getLayer(size int) []float32 {
	layerPool.RLock()
	p, ok := layerPool.m[size]
	layerPool.RUnlock()
	if !ok {
		layerPool.Lock()
		p, ok = layerPool.m[size]
		if !ok {
			p = &sync.Pool{New: func() interface{} { return make([]float32, size) }}
			layerPool.m[size] = p
		}
		layerPool.Unlock()
	}
	return p.Get().([]float32)
}

// putLayer returns a plane obtained from getLayer to the pool
func putLayer(layer []float32) {
	layerPool.RLock()
	p, ok := layerPool.m[len(layer)]
	layerPool.RUnlock()
	if ok {
		p.Put(layer)
	}
}
