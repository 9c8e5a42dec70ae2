/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package malloc

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// ErrRegionExhausted is returned by Region.Grow when the region cannot
// be extended any further.
var ErrRegionExhausted = errors.New("malloc: region exhausted")

// Region is a grow-only contiguous byte region, the brk-style primitive
// the allocator obtains heap memory from.
//
// Grow extends the region by exactly n bytes and returns a pointer to
// the old end. Addresses handed out earlier stay valid and contiguous
// with later growth; the region never shrinks or moves. On exhaustion
// Grow returns ErrRegionExhausted.
type Region interface {
	Grow(n int) (unsafe.Pointer, error)
}

// DefaultSlabCapacity is a general-purpose capacity (1MB) to pass to
// NewSlab.
const DefaultSlabCapacity = 1 << 20

// Slab is a Region over a fixed-capacity byte slab allocated up front.
// Grow advances a cursor inside the slab, so the region is contiguous
// by construction and exhausts when the slab runs out.
type Slab struct {
	mem []byte
	brk int
}

// NewSlab reserves a slab of the given capacity. The backing bytes are
// not zeroed; the allocator writes all metadata it reads.
func NewSlab(capacity int) (*Slab, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("malloc: slab capacity must be positive, got %d", capacity)
	}
	return &Slab{mem: dirtmake.Bytes(capacity, capacity)}, nil
}

func (s *Slab) Grow(n int) (unsafe.Pointer, error) {
	if n < 0 {
		return nil, fmt.Errorf("malloc: negative grow %d", n)
	}
	if s.brk+n > len(s.mem) {
		return nil, ErrRegionExhausted
	}
	p := unsafe.Add(unsafe.Pointer(&s.mem[0]), s.brk)
	s.brk += n
	return p, nil
}

// Size returns the number of bytes grown so far.
func (s *Slab) Size() int { return s.brk }

// Cap returns the slab capacity.
func (s *Slab) Cap() int { return len(s.mem) }
