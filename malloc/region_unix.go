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

//go:build linux || darwin
// +build linux darwin

package malloc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapRegion is a Region over anonymous mmap'd memory, keeping the heap
// area outside the Go heap entirely. The full capacity is mapped up
// front so the region never moves; Grow only advances a cursor.
type MmapRegion struct {
	mem []byte
	brk int
}

// NewMmapRegion maps an anonymous private region of the given capacity.
func NewMmapRegion(capacity int) (*MmapRegion, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("malloc: mmap capacity must be positive, got %d", capacity)
	}
	mem, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("malloc: mmap failed: %w", err)
	}
	return &MmapRegion{mem: mem}, nil
}

func (r *MmapRegion) Grow(n int) (unsafe.Pointer, error) {
	if n < 0 {
		return nil, fmt.Errorf("malloc: negative grow %d", n)
	}
	if r.brk+n > len(r.mem) {
		return nil, ErrRegionExhausted
	}
	p := unsafe.Add(unsafe.Pointer(&r.mem[0]), r.brk)
	r.brk += n
	return p, nil
}

// Size returns the number of bytes grown so far.
func (r *MmapRegion) Size() int { return r.brk }

// Cap returns the mapped capacity.
func (r *MmapRegion) Cap() int { return len(r.mem) }

// Close unmaps the region. All payloads handed out by an allocator on
// top of this region become invalid.
func (r *MmapRegion) Close() error {
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem = nil
	return err
}
