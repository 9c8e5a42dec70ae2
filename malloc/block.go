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

const (
	// wordSize is the machine word, the unit of all block metadata.
	wordSize = int(unsafe.Sizeof(uintptr(0)))

	// Alignment is the alignment of every payload address returned to
	// callers. Block sizes are always multiples of it, which keeps the
	// low bit of every size word free for the allocated flag.
	Alignment = 2 * wordSize

	headerSize = wordSize
	footerSize = wordSize

	allocBit = 1

	// minBlockSize is the smallest block that can hold a header, the two
	// free-list links a free block stores in its payload, and a footer.
	minBlockSize = (headerSize + 2*wordSize + footerSize + Alignment - 1) &^ (Alignment - 1)
)

// alignUp rounds n up to the next multiple of Alignment.
func alignUp(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// A block is addressed by an unsafe.Pointer to its header word.
// Its footer is its last word, which the physically following block
// reads (one word before its own header) to find it; all access goes
// through the helpers below.

func packWord(size int, allocated bool) uintptr {
	w := uintptr(size)
	if allocated {
		w |= allocBit
	}
	return w
}

func wordSizeOf(w uintptr) int {
	return int(w &^ allocBit)
}

func wordAllocated(w uintptr) bool {
	return w&allocBit != 0
}

func headerOf(b unsafe.Pointer) *uintptr {
	return (*uintptr)(b)
}

func blockSize(b unsafe.Pointer) int {
	return wordSizeOf(*headerOf(b))
}

func blockAllocated(b unsafe.Pointer) bool {
	return wordAllocated(*headerOf(b))
}

func footerOf(b unsafe.Pointer) *uintptr {
	return (*uintptr)(unsafe.Add(b, blockSize(b)-footerSize))
}

// setBlock writes a block's header and footer in one go. The footer
// position is computed from size, not read back from the header.
func setBlock(b unsafe.Pointer, size int, allocated bool) {
	w := packWord(size, allocated)
	*headerOf(b) = w
	*(*uintptr)(unsafe.Add(b, size-footerSize)) = w
}

func payloadOf(b unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(b, headerSize)
}

func blockOfPayload(p unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(p, -headerSize)
}

// payloadCap is the number of user bytes a block holds.
func payloadCap(b unsafe.Pointer) int {
	return blockSize(b) - headerSize - footerSize
}

// Free-list links live in the first two payload words of a free block.
// When the block is allocated the same bytes are user data; the header's
// allocated bit decides which interpretation is current.

func freeNext(b unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Add(b, headerSize))
}

func freePrev(b unsafe.Pointer) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Add(b, headerSize+wordSize))
}

func setFreeNext(b, next unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Add(b, headerSize)) = next
}

func setFreePrev(b, prev unsafe.Pointer) {
	*(*unsafe.Pointer)(unsafe.Add(b, headerSize+wordSize)) = prev
}
