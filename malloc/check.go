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
	"fmt"
	"unsafe"
)

// CheckHeap walks the physical block sequence and the free list and
// verifies the structural invariants: header/footer agreement, size
// alignment and minimum, payload alignment, no adjacent free blocks,
// gapless coverage from the first block to the last, and exactly-once
// free-list membership. It returns nil on a consistent heap.
//
// Offsets in errors are relative to the first block.
func (a *Allocator) CheckHeap() error {
	if a.heapFirst == nil {
		if a.heapLast != nil {
			return fmt.Errorf("malloc: heapLast set on empty heap")
		}
		if a.head != nil {
			return fmt.Errorf("malloc: free list set on empty heap")
		}
		return nil
	}
	if a.heapLast == nil {
		return fmt.Errorf("malloc: heapLast unset on non-empty heap")
	}

	off := func(b unsafe.Pointer) uintptr {
		return uintptr(b) - uintptr(a.heapFirst)
	}

	freeSeen := 0
	prevFree := false
	for b := a.heapFirst; ; {
		size := blockSize(b)
		if size < minBlockSize {
			return fmt.Errorf("malloc: block %#x size %d below minimum %d", off(b), size, minBlockSize)
		}
		if size%Alignment != 0 {
			return fmt.Errorf("malloc: block %#x size %d not %d-aligned", off(b), size, Alignment)
		}
		if *headerOf(b) != *footerOf(b) {
			return fmt.Errorf("malloc: block %#x header %#x != footer %#x", off(b), *headerOf(b), *footerOf(b))
		}
		if uintptr(payloadOf(b))%uintptr(Alignment) != 0 {
			return fmt.Errorf("malloc: block %#x payload misaligned", off(b))
		}
		free := !blockAllocated(b)
		if free && prevFree {
			return fmt.Errorf("malloc: adjacent free blocks at %#x", off(b))
		}
		if free {
			freeSeen++
		}
		prevFree = free
		if b == a.heapLast {
			break
		}
		b = unsafe.Add(b, size)
		if uintptr(b) > uintptr(a.heapLast) {
			return fmt.Errorf("malloc: physical walk overran heapLast at %#x", off(b))
		}
	}

	count := 0
	var prev unsafe.Pointer
	end := unsafe.Add(a.heapLast, blockSize(a.heapLast))
	for b := a.head; b != nil; b = freeNext(b) {
		if uintptr(b) < uintptr(a.heapFirst) || uintptr(b) >= uintptr(end) {
			return fmt.Errorf("malloc: free-list entry %#x outside heap", off(b))
		}
		if blockAllocated(b) {
			return fmt.Errorf("malloc: allocated block %#x on free list", off(b))
		}
		if freePrev(b) != prev {
			return fmt.Errorf("malloc: free-list prev link broken at %#x", off(b))
		}
		count++
		if count > freeSeen {
			return fmt.Errorf("malloc: free list longer than %d free blocks", freeSeen)
		}
		prev = b
	}
	if count != freeSeen {
		return fmt.Errorf("malloc: free list has %d entries, heap has %d free blocks", count, freeSeen)
	}
	return nil
}
