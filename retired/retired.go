// Copyright 2021 dustinxie
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retired implements a lock-free, append-only list used to defer
// reclamation of references unlinked from a live data structure while
// concurrent readers may still hold them.
package retired

import (
	"sync/atomic"
	"unsafe"
)

type entry struct {
	ref  unsafe.Pointer
	next unsafe.Pointer // *entry
}

// List is single-producer-safe-for-many-producers: any number of goroutines
// may call Insert concurrently, but Destroy must run with no Insert calls
// in flight (it is the table-teardown path).
type List struct {
	head entry // dummy head, never holds a ref
}

// New creates an empty retired list.
func New() *List {
	return &List{}
}

// Insert appends ref. It walks from the head to the tail and CASes the new
// entry in; on failure it rewalks from the head and tries again until its CAS
// wins. A CAS only fails because another Insert appended first, so the number
// of retries is not bounded by the list length when the call started.
func (l *List) Insert(ref unsafe.Pointer) {
	n := &entry{ref: ref}
	for {
		curr := &l.head
		next := (*entry)(atomic.LoadPointer(&curr.next))
		for next != nil {
			curr = next
			next = (*entry)(atomic.LoadPointer(&curr.next))
		}
		if atomic.CompareAndSwapPointer(&curr.next, nil, unsafe.Pointer(n)) {
			return
		}
	}
}

// Destroy walks the list once, invoking release on every stored reference,
// and drops the list spine. Destroy is not safe to call concurrently with
// Insert or with another Destroy.
func (l *List) Destroy(release func(ref unsafe.Pointer)) {
	curr := (*entry)(atomic.LoadPointer(&l.head.next))
	for curr != nil {
		release(curr.ref)
		curr = (*entry)(atomic.LoadPointer(&curr.next))
	}
	atomic.StorePointer(&l.head.next, nil)
}
