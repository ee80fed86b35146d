// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package funcutil

import (
	"sync"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Map returns f applied to every element of a, in order.
func Map[T any, S any](a []T, f func(T) S) []S {
	b := make([]S, len(a))
	for i, x := range a {
		b[i] = f(x)
	}
	return b
}

// MapParallel computes Map(a, f) with up to numRoutines goroutines. Each goroutine calls newWorker once to get its
// own f, so the function returned by newWorker may hold state that is not safe for concurrent use.
// The elements are handed out through a shared counter; the result keeps the order of a.
func MapParallel[T any, S any](a []T, newWorker func() func(T) S, numRoutines int) []S {
	res := make([]S, len(a))
	if len(a) == 0 {
		return res
	}
	if numRoutines <= 0 {
		numRoutines = 1
	}
	if numRoutines > len(a) {
		numRoutines = len(a)
	}

	var mu sync.Mutex
	next := 0
	take := func() (int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(a) {
			return 0, false
		}
		next++
		return next - 1, true
	}

	var wg sync.WaitGroup
	wg.Add(numRoutines)
	for w := 0; w < numRoutines; w++ {
		go func() {
			defer wg.Done()
			f := newWorker()
			for i, ok := take(); ok; i, ok = take() {
				res[i] = f(a[i])
			}
		}()
	}
	wg.Wait()
	return res
}

// SetToOrderedSlice returns the members of set (the keys mapped to true) in increasing order.
func SetToOrderedSlice[T constraints.Ordered](set map[T]bool) []T {
	s := make([]T, 0, len(set))
	for x, in := range set {
		if in {
			s = append(s, x)
		}
	}
	slices.Sort(s)
	return s
}
