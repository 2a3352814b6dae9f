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

package retired

import (
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestInsertThenDestroy(t *testing.T) {
	req := require.New(t)

	l := New()
	values := []int{1, 2, 3, 4, 5}
	for i := range values {
		l.Insert(unsafe.Pointer(&values[i]))
	}

	seen := make(map[int]bool)
	l.Destroy(func(ref unsafe.Pointer) {
		seen[*(*int)(ref)] = true
	})

	for _, v := range values {
		req.True(seen[v])
	}
	req.Len(seen, len(values))
}

func TestConcurrentInsert(t *testing.T) {
	req := require.New(t)

	l := New()
	const n = 500
	values := make([]int, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		values[i] = i
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Insert(unsafe.Pointer(&values[i]))
		}(i)
	}
	wg.Wait()

	var count int64
	l.Destroy(func(unsafe.Pointer) {
		atomic.AddInt64(&count, 1)
	})
	req.EqualValues(n, count)
}

func TestDestroyEmptyList(t *testing.T) {
	l := New()
	called := false
	l.Destroy(func(unsafe.Pointer) { called = true })
	require.False(t, called)
}
