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

// Package hashutil provides ready-made splitlist.HashFunc implementations,
// so most callers never need to hand-roll one. A table only ever needs the
// low 32 bits of a good hash, so both functions here fold a wider digest
// down rather than truncate it.
package hashutil

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
)

const intSize = (32 << (^uint(0) >> 63)) >> 3

// SipHash returns a seeded, keyed HashFunc over Go's common scalar types,
// []byte, and string. Keys of any other type must implement Hash64
// (Sum64() uint64); anything else panics, mirroring the original table's
// assumption that hash_fn is total over the caller's key domain.
func SipHash(k0, k1 uint64) func(key interface{}) uint32 {
	return func(key interface{}) uint32 {
		return fold64(sipHash(k0, k1, key))
	}
}

// Hash64 is implemented by keys that know how to hash themselves.
type Hash64 interface {
	Sum64() uint64
}

func sipHash(k0, k1 uint64, key interface{}) uint64 {
	switch v := key.(type) {
	case uint8:
		return memhash(k0, k1, unsafe.Pointer(&v), 1)
	case int8:
		return memhash(k0, k1-1, unsafe.Pointer(&v), 1)
	case uint16:
		return memhash(k0, k1, unsafe.Pointer(&v), 2)
	case int16:
		return memhash(k0, k1-1, unsafe.Pointer(&v), 2)
	case uint32:
		return memhash(k0, k1, unsafe.Pointer(&v), 4)
	case int32:
		return memhash(k0, k1-1, unsafe.Pointer(&v), 4)
	case uint64:
		return memhash(k0, k1, unsafe.Pointer(&v), 8)
	case int64:
		return memhash(k0, k1, unsafe.Pointer(&v), 8)
	case uint:
		return memhash(k0, k1+1, unsafe.Pointer(&v), intSize)
	case int:
		return memhash(k0, k1+2, unsafe.Pointer(&v), intSize)
	case []byte:
		return siphash.Hash(k0, k1, v)
	case string:
		return siphash.Hash(k0, k1-1, stringBytes(v))
	default:
		if h, ok := v.(Hash64); ok {
			return h.Sum64()
		}
		panic(fmt.Errorf("hashutil: unsupported key type %T", v))
	}
}

func memhash(k0, k1 uint64, addr unsafe.Pointer, size int) uint64 {
	return siphash.Hash(k0, k1, unsafe.Slice((*byte)(addr), size))
}

func stringBytes(s string) []byte {
	hdr := (*reflect.StringHeader)(unsafe.Pointer(&s))
	sh := reflect.SliceHeader{Data: hdr.Data, Len: hdr.Len, Cap: hdr.Len}
	return *(*[]byte)(unsafe.Pointer(&sh))
}

// XXHash returns a HashFunc over []byte and string keys using xxhash, a
// fast non-cryptographic digest that needs no seed. Prefer this over
// SipHash when keys are untrusted-input-safety isn't a concern and the
// caller only ever keys by bytes or strings.
func XXHash() func(key interface{}) uint32 {
	return func(key interface{}) uint32 {
		switch v := key.(type) {
		case []byte:
			return fold64(xxhash.Sum64(v))
		case string:
			return fold64(xxhash.Sum64String(v))
		default:
			if h, ok := v.(Hash64); ok {
				return fold64(h.Sum64())
			}
			panic(fmt.Errorf("hashutil: XXHash only supports []byte, string, or Hash64, got %T", v))
		}
	}
}

// fold64 XORs the high and low halves of a 64-bit digest into a uint32,
// rather than truncating, so both halves of the input digest influence
// every output bit.
func fold64(h uint64) uint32 {
	return uint32(h>>32) ^ uint32(h)
}
