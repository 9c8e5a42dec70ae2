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

import "unsafe"

// The explicit free list is doubly linked through the payload words of
// free blocks, LIFO: pushFree always inserts at the head. There is no
// sentinel node; nil terminates both directions.

func (a *Allocator) pushFree(b unsafe.Pointer) {
	setFreeNext(b, a.head)
	setFreePrev(b, nil)
	if a.head != nil {
		setFreePrev(a.head, b)
	}
	a.head = b
}

func (a *Allocator) unlink(b unsafe.Pointer) {
	prev, next := freePrev(b), freeNext(b)
	if prev != nil {
		setFreeNext(prev, next)
	} else {
		a.head = next
	}
	if next != nil {
		setFreePrev(next, prev)
	}
}

// findFit returns the first free block of at least need bytes, or nil.
func (a *Allocator) findFit(need int) unsafe.Pointer {
	for b := a.head; b != nil; b = freeNext(b) {
		if blockSize(b) >= need {
			return b
		}
	}
	return nil
}
