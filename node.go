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

package splitlist

import (
	"sync/atomic"
	"unsafe"
)

// sentinelMark is the SENTINEL marker. Its address is a unique bit pattern
// that no boxed interface{} can ever alias, since every live value is
// boxed into a freshly allocated interface{} by newNode, storeValue, or
// ifSentinelSetValue.
var sentinelMark = new(struct{})

var sentinelPtr = unsafe.Pointer(sentinelMark)

// node is one cell of the split-ordered list. hash is immutable after
// construction; value and next are mutated only through atomics or CAS.
type node struct {
	hash  uint32
	value unsafe.Pointer // *interface{}, or sentinelPtr
	next  unsafe.Pointer // *node
}

// newNode allocates a live node holding value at the given split-order hash.
func newNode(value interface{}, hash uint32) *node {
	return &node{hash: hash, value: unsafe.Pointer(&value)}
}

// newSentinelNode allocates a bucket-anchor sentinel for hash.
func newSentinelNode(hash uint32) *node {
	return &node{hash: hash, value: sentinelPtr}
}

// getHash returns the node's split-order key. A nil node reads as 0,
// matching the defensive behavior of hashtable_node_get_hash.
func (n *node) getHash() uint32 {
	if n == nil {
		return 0
	}
	return n.hash
}

// loadValue acquire-loads the raw value slot, for use as the "expected"
// operand of a subsequent casValue.
func (n *node) loadValue() unsafe.Pointer {
	return atomic.LoadPointer(&n.value)
}

// valueOf interprets a raw value slot previously obtained from loadValue.
// It returns (nil, false) for the sentinel marker.
func valueOf(p unsafe.Pointer) (interface{}, bool) {
	if p == sentinelPtr {
		return nil, false
	}
	return *(*interface{})(p), true
}

// isSentinel reports whether n currently has no live value.
func (n *node) isSentinel() bool {
	return atomic.LoadPointer(&n.value) == sentinelPtr
}

// getNext acquire-loads the successor link.
func (n *node) getNext() *node {
	return (*node)(atomic.LoadPointer(&n.next))
}

// storeNext unconditionally release-stores the successor. Only safe before
// the node is published to other threads (initial list construction).
func (n *node) storeNext(next *node) {
	atomic.StorePointer(&n.next, unsafe.Pointer(next))
}

// storeValue unconditionally release-stores a new live value.
func (n *node) storeValue(value interface{}) {
	atomic.StorePointer(&n.value, unsafe.Pointer(&value))
}

// makeSentinel unconditionally release-stores the SENTINEL marker.
func (n *node) makeSentinel() {
	atomic.StorePointer(&n.value, sentinelPtr)
}

// casValue attempts to swap the value slot from expected to new.
func (n *node) casValue(expected, new unsafe.Pointer) bool {
	return atomic.CompareAndSwapPointer(&n.value, expected, new)
}

// casNext attempts to swap the successor link from expected to new.
func (n *node) casNext(expected, new *node) bool {
	return atomic.CompareAndSwapPointer(&n.next, unsafe.Pointer(expected), unsafe.Pointer(new))
}

// ifSentinelSetValue revives a sentinel into a live node holding value.
func (n *node) ifSentinelSetValue(value interface{}) bool {
	return n.casValue(sentinelPtr, unsafe.Pointer(&value))
}

// ifValueSetSentinel turns a live node back into a sentinel, provided its
// value slot still holds the raw pointer expected (obtained via loadValue).
func (n *node) ifValueSetSentinel(expected unsafe.Pointer) bool {
	return n.casValue(expected, sentinelPtr)
}
