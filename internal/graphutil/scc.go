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

package graphutil

import (
	"golang.org/x/exp/constraints"
)

// StronglyConnectedComponents is an implementation of Tarjan's strongly connected component (SCC) algorithm
// for generic nodes T.
// Successors returns a slice containing the targets of directed edges out from the given node.
// sccs is a slice of slices containing the nodes in each SCC. The order within the SCC is arbitrary.
// The order of SCCs is toposorted so that successors appear first; i.e. if the graph is a tree then
// in order from leaves towards the root.
//
// The traversal keeps an explicit stack of frames instead of recursing, so that deep call chains of large programs
// do not exhaust the goroutine stack.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) (sccs [][]T) {
	type frame struct {
		v     T
		succs []T
		next  int
	}
	stack := make([]T, 0)
	onStack := make(map[T]bool, 0)
	index := make(map[T]int, 0)
	lowlink := make(map[T]int, 0)
	nextIndex := 0
	sccs = make([][]T, 0)

	var frames []*frame
	push := func(v T) {
		index[v] = nextIndex
		lowlink[v] = nextIndex
		nextIndex++
		stack = append(stack, v)
		onStack[v] = true
		frames = append(frames, &frame{v: v, succs: successors(v)})
	}

	for _, root := range nodes {
		if _, ok := index[root]; ok {
			continue
		}
		push(root)
		for len(frames) > 0 {
			f := frames[len(frames)-1]
			if f.next < len(f.succs) {
				w := f.succs[f.next]
				f.next++
				if _, ok := index[w]; !ok {
					push(w)
				} else if onStack[w] && index[w] < lowlink[f.v] {
					lowlink[f.v] = index[w]
				}
				continue
			}
			// all successors of f.v are done
			frames = frames[:len(frames)-1]
			v := f.v
			if len(frames) > 0 {
				parent := frames[len(frames)-1].v
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				scc := make([]T, 0)
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, scc)
			}
		}
	}
	return sccs
}

// ComponentRepresentatives maps every node of the components to the smallest node of its component.
func ComponentRepresentatives[T constraints.Ordered](sccs [][]T) map[T]T {
	reps := make(map[T]T)
	for _, scc := range sccs {
		if len(scc) == 0 {
			continue
		}
		rep := scc[0]
		for _, x := range scc[1:] {
			if x < rep {
				rep = x
			}
		}
		for _, x := range scc {
			reps[x] = rep
		}
	}
	return reps
}
