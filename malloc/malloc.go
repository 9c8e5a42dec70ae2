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

// Package malloc implements a dynamic memory allocator over a grow-only
// contiguous region: boundary-tagged blocks, an explicit doubly-linked
// free list with LIFO insertion, first-fit placement with splitting, and
// immediate coalescing on free.
//
// All metadata lives inside the heap area itself. Every block carries a
// one-word header and footer packing its size and an allocated bit; a
// free block additionally threads prev/next free-list links through its
// first two payload words. The footer lets Free locate the physically
// preceding block in O(1).
//
// The allocator is NOT goroutine-safe; callers must serialize access.
package malloc

import (
	"fmt"
	"unsafe"
)

// Allocator manages one heap area obtained from a Region. The zero
// value is not usable; construct with NewAllocator.
type Allocator struct {
	region Region

	// head is the free-list head, nil when the list is empty.
	head unsafe.Pointer
	// heapFirst and heapLast bound the physical block sequence, nil
	// before the first allocation.
	heapFirst unsafe.Pointer
	heapLast  unsafe.Pointer
}

// sliceHeader mirrors the runtime slice layout. Used to recover the
// block base from a payload without forcing len > 0.
type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

// NewAllocator returns an allocator serving from the given region. It
// consumes Alignment-headerSize leading bytes so that the first block's
// payload lands on an Alignment boundary, and fails if the region
// refuses even that.
func NewAllocator(region Region) (*Allocator, error) {
	if region == nil {
		return nil, fmt.Errorf("malloc: nil region")
	}
	if _, err := region.Grow(Alignment - headerSize); err != nil {
		return nil, err
	}
	return &Allocator{region: region}, nil
}

// Malloc allocates at least n bytes and returns the payload with len n.
// The payload address is Alignment-aligned and cap reports the full
// usable capacity of the backing block. Malloc(0) returns a valid
// zero-length payload backed by a minimum-size block. It returns nil
// when n is negative or the region is exhausted.
//
// The returned slice must be passed back to Free unresliced.
func (a *Allocator) Malloc(n int) []byte {
	if n < 0 {
		return nil
	}
	need := alignUp(headerSize + n + footerSize)
	if need < minBlockSize {
		need = minBlockSize
	}
	b := a.findFit(need)
	if b != nil {
		a.unlink(b)
		a.place(b, need)
	} else {
		p, err := a.region.Grow(need)
		if err != nil {
			return nil
		}
		b = p
		setBlock(b, need, true)
		if a.heapFirst == nil {
			a.heapFirst = b
		}
		a.heapLast = b
	}
	return unsafe.Slice((*byte)(payloadOf(b)), payloadCap(b))[:n]
}

// place marks b allocated with need bytes, splitting off the tail as a
// new free block when the remainder can stand on its own (at least
// minBlockSize, so it can hold its own links).
func (a *Allocator) place(b unsafe.Pointer, need int) {
	size := blockSize(b)
	if size-need >= minBlockSize {
		wasLast := a.heapLast == b
		setBlock(b, need, true)
		rest := unsafe.Add(b, need)
		setBlock(rest, size-need, false)
		a.pushFree(rest)
		if wasLast {
			a.heapLast = rest
		}
	} else {
		setBlock(b, size, true)
	}
}

// Free returns a payload to the allocator. A nil buf is a no-op. The
// freed block is merged immediately with whichever physical neighbors
// are free, so no two adjacent free blocks survive the call.
//
// buf must be a slice returned by Malloc, Realloc, or Calloc, not
// resliced from the front. Freeing anything else, or freeing twice, has
// undefined behavior; the cheap cases are detected and panic.
func (a *Allocator) Free(buf []byte) {
	p := (*sliceHeader)(unsafe.Pointer(&buf)).Data
	if p == nil {
		return
	}
	b := blockOfPayload(p)
	if !blockAllocated(b) {
		panic("malloc: double free or invalid payload")
	}
	if *headerOf(b) != *footerOf(b) {
		panic("malloc: corrupted block")
	}

	prev, next := a.physPrev(b), a.physNext(b)
	prevFree := prev != nil && !blockAllocated(prev)
	nextFree := next != nil && !blockAllocated(next)

	switch {
	case !prevFree && !nextFree:
		setBlock(b, blockSize(b), false)
		a.pushFree(b)
	case !prevFree && nextFree:
		a.unlink(next)
		if a.heapLast == next {
			a.heapLast = b
		}
		setBlock(b, blockSize(b)+blockSize(next), false)
		a.pushFree(b)
	case prevFree && !nextFree:
		// prev is already on the free list; it just grows in place.
		if a.heapLast == b {
			a.heapLast = prev
		}
		setBlock(prev, blockSize(prev)+blockSize(b), false)
	default:
		a.unlink(next)
		if a.heapLast == next {
			a.heapLast = prev
		}
		setBlock(prev, blockSize(prev)+blockSize(b)+blockSize(next), false)
	}
}

// physPrev returns the physically preceding block via the boundary tag,
// or nil when b is the first block.
func (a *Allocator) physPrev(b unsafe.Pointer) unsafe.Pointer {
	if b == a.heapFirst {
		return nil
	}
	w := *(*uintptr)(unsafe.Add(b, -footerSize))
	return unsafe.Add(b, -wordSizeOf(w))
}

// physNext returns the physically following block, or nil when b is the
// last block.
func (a *Allocator) physNext(b unsafe.Pointer) unsafe.Pointer {
	if b == a.heapLast {
		return nil
	}
	return unsafe.Add(b, blockSize(b))
}

// Realloc resizes a payload. Realloc(nil, n) is Malloc(n) and
// Realloc(buf, 0) frees buf and returns nil. Otherwise it allocates a
// new block, copies min(old capacity, n) bytes, and frees the old one.
// On allocation failure it returns nil and leaves buf valid.
func (a *Allocator) Realloc(buf []byte, n int) []byte {
	old := (*sliceHeader)(unsafe.Pointer(&buf)).Data
	if old == nil {
		return a.Malloc(n)
	}
	if n == 0 {
		a.Free(buf)
		return nil
	}
	nbuf := a.Malloc(n)
	if nbuf == nil {
		return nil
	}
	b := blockOfPayload(old)
	copy(nbuf, unsafe.Slice((*byte)(payloadOf(b)), payloadCap(b)))
	a.Free(buf)
	return nbuf
}

// Calloc allocates count*size bytes and zeroes them. It returns nil on
// negative inputs, on count*size overflow, or when the underlying
// allocation fails.
func (a *Allocator) Calloc(count, size int) []byte {
	if count < 0 || size < 0 {
		return nil
	}
	total := count * size
	if size != 0 && total/size != count {
		return nil
	}
	buf := a.Malloc(total)
	if buf == nil {
		return nil
	}
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// Stats is a point-in-time summary of the heap area.
type Stats struct {
	// HeapBytes is the total size of all blocks, allocated and free.
	HeapBytes int
	// FreeBytes is the total size of free blocks, metadata included.
	FreeBytes int
	// FreeBlocks is the number of entries on the free list.
	FreeBlocks int
}

// Stats walks the heap and reports its current shape.
func (a *Allocator) Stats() Stats {
	var st Stats
	if a.heapFirst == nil {
		return st
	}
	for b := a.heapFirst; b != nil; b = a.physNext(b) {
		size := blockSize(b)
		st.HeapBytes += size
		if !blockAllocated(b) {
			st.FreeBytes += size
			st.FreeBlocks++
		}
	}
	return st
}
