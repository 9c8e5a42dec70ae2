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

import "fmt"

func Example() {
	region, _ := NewSlab(DefaultSlabCapacity)
	a, _ := NewAllocator(region)

	b1 := a.Malloc(24) // 48-byte block: header 8 + payload 32 + footer 8
	b2 := a.Calloc(4, 8)

	fmt.Printf("b1: len=%d cap=%d\n", len(b1), cap(b1))
	fmt.Printf("b2: len=%d cap=%d\n", len(b2), cap(b2))

	a.Free(b1)
	a.Free(b2)
	fmt.Printf("free blocks: %d\n", a.Stats().FreeBlocks)

	// Output:
	// b1: len=24 cap=32
	// b2: len=32 cap=32
	// free blocks: 1
}
