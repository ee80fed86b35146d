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
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// FindAllElementaryCycles finds all elementary cycles in the graph CGraph, including self loops. Each cycle is
// reported as the list of its nodes, starting and ending with its smallest node.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
//
//	cg : the graph with cycles
//	limit: the search stops after limit cycles have been found; no limit if limit <= 0
func FindAllElementaryCycles(cg CGraph, limit int) [][]int64 {
	s := &state{
		stack:  []int64{},
		cycles: [][]int64{},
		limit:  limit,
	}
	start := 0
	for start < len(cg.Keys) && !s.full() {
		fg := Subgraph(cg, cg.Keys[start:])
		// least node that is in a non-trivial component of fg
		least := int64(-1)
		for _, component := range graph.StrongComponents(fg) {
			if len(component) == 1 {
				v := int64(component[0])
				if _, ok := fg.IDMap[v]; !ok || !fg.Edges[v][v] {
					continue
				}
			}
			slices.Sort(component)
			if least < 0 || int64(component[0]) < least {
				least = int64(component[0])
			}
		}
		if least < 0 {
			break
		}
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.stack = s.stack[:0]
		s.circuit(least, least, fg)
		start, _ = slices.BinarySearch(cg.Keys, least)
		start++
	}
	return s.cycles
}

type state struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
	limit   int
}

func (s *state) full() bool {
	return s.limit > 0 && len(s.cycles) >= s.limit
}

func (s *state) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int64, i int64, g CGraph) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range g.succs[v] {
		if s.full() {
			break
		}
		if w == i {
			stackCopy := make([]int64, len(s.stack), len(s.stack)+1)
			copy(stackCopy, s.stack)
			stackCopy = append(stackCopy, w)
			s.cycles = append(s.cycles, stackCopy)
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i, g) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for _, w := range g.succs[v] {
			m := s.blist[w]
			if m != nil {
				m[v] = true
			} else {
				s.blist[w] = map[int64]bool{v: true}
			}
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}
