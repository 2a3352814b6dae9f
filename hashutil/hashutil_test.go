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

package hashutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSipHashDeterministic(t *testing.T) {
	req := require.New(t)

	h := SipHash(1, 2)
	req.Equal(h("same"), h("same"))
	req.NotEqual(h("same"), h("different"))
	req.Equal(h([]byte("bytes")), h([]byte("bytes")))

	// different seeds produce different hashes for the same key
	h2 := SipHash(3, 4)
	req.NotEqual(h("seeded"), h2("seeded"))
}

func TestSipHashScalarTypes(t *testing.T) {
	h := SipHash(7, 8)
	require.NotPanics(t, func() {
		h(uint8(1))
		h(int8(1))
		h(uint16(1))
		h(int16(1))
		h(uint32(1))
		h(int32(1))
		h(uint64(1))
		h(int64(1))
		h(uint(1))
		h(1)
	})
}

func TestSipHashUnsupportedTypePanics(t *testing.T) {
	h := SipHash(1, 1)
	require.Panics(t, func() {
		h(struct{ X int }{1})
	})
}

type fakeHash64 struct{ v uint64 }

func (f fakeHash64) Sum64() uint64 { return f.v }

func TestSipHashCustomHash64(t *testing.T) {
	h := SipHash(1, 1)
	require.NotPanics(t, func() {
		h(fakeHash64{42})
	})
}

func TestXXHashDeterministic(t *testing.T) {
	req := require.New(t)

	h := XXHash()
	req.Equal(h("same"), h("same"))
	req.NotEqual(h("same"), h("different"))
	req.Equal(h([]byte("bytes")), h([]byte("bytes")))
	req.Equal(h("abc"), h([]byte("abc")))
}

func TestXXHashUnsupportedTypePanics(t *testing.T) {
	h := XXHash()
	require.Panics(t, func() {
		h(42)
	})
}
