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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHeapEmpty(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultSlabCapacity)
	require.NoError(t, a.CheckHeap())
}

// headerPtr digs the header word out of a payload returned by Malloc.
func headerPtr(buf []byte) *uintptr {
	p := (*sliceHeader)(unsafe.Pointer(&buf)).Data
	return (*uintptr)(unsafe.Add(p, -headerSize))
}

func TestCheckHeapDetectsCorruption(t *testing.T) {
	t.Run("header_footer_mismatch", func(t *testing.T) {
		a, _ := newTestAllocator(t, DefaultSlabCapacity)
		p := a.Malloc(24)
		hdr := headerPtr(p)
		saved := *hdr
		*hdr = packWord(96, true) // size no longer matches the footer
		assert.Error(t, a.CheckHeap())
		*hdr = saved
		require.NoError(t, a.CheckHeap())
	})

	t.Run("allocated_bit_flipped", func(t *testing.T) {
		a, _ := newTestAllocator(t, DefaultSlabCapacity)
		p := a.Malloc(24)
		a.Malloc(24) // spacer so the flipped block is not heapLast
		// block now reads as free but is not on the free list; the
		// footer is patched too so only membership is violated
		b := blockOfPayload((*sliceHeader)(unsafe.Pointer(&p)).Data)
		size := blockSize(b)
		setBlock(b, size, false)
		assert.Error(t, a.CheckHeap())
		setBlock(b, size, true)
		require.NoError(t, a.CheckHeap())
	})

	t.Run("undersized_block", func(t *testing.T) {
		a, _ := newTestAllocator(t, DefaultSlabCapacity)
		p := a.Malloc(24)
		b := blockOfPayload((*sliceHeader)(unsafe.Pointer(&p)).Data)
		saved := blockSize(b)
		setBlock(b, minBlockSize/2, true)
		assert.Error(t, a.CheckHeap())
		setBlock(b, saved, true)
		require.NoError(t, a.CheckHeap())
	})
}

func TestStatsEmpty(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultSlabCapacity)
	assert.Zero(t, a.Stats())
}

func TestStats(t *testing.T) {
	a, _ := newTestAllocator(t, DefaultSlabCapacity)

	p := a.Malloc(24)
	q := a.Malloc(100)
	st := a.Stats()
	assert.Equal(t, 48+128, st.HeapBytes)
	assert.Zero(t, st.FreeBytes)
	assert.Zero(t, st.FreeBlocks)

	a.Free(p)
	st = a.Stats()
	assert.Equal(t, 48+128, st.HeapBytes)
	assert.Equal(t, 48, st.FreeBytes)
	assert.Equal(t, 1, st.FreeBlocks)

	a.Free(q)
	st = a.Stats()
	assert.Equal(t, 48+128, st.HeapBytes)
	assert.Equal(t, 48+128, st.FreeBytes)
	assert.Equal(t, 1, st.FreeBlocks)
}
