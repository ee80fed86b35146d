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

package pag

import (
	"golang.org/x/tools/container/intsets"
)

// FactStore is an in-memory PointsToStore. Facts are recorded on the representative of a node; nodes can be merged
// into others, or killed, which makes them stale for the query engine.
//
// Once populated, a FactStore can be read by several goroutines: Representative and ContextObjects do not modify it.
type FactStore struct {
	facts  map[NodeID][]IntervalObject
	parent map[NodeID]NodeID
	dead   intsets.Sparse
}

// NewFactStore returns an empty fact store.
func NewFactStore() *FactStore {
	return &FactStore{
		facts:  map[NodeID][]IntervalObject{},
		parent: map[NodeID]NodeID{},
	}
}

func (s *FactStore) root(n NodeID) NodeID {
	for {
		p, ok := s.parent[n]
		if !ok {
			return n
		}
		n = p
	}
}

func (s *FactStore) find(n NodeID) NodeID {
	root := s.root(n)
	// path compression
	for n != root {
		next := s.parent[n]
		s.parent[n] = root
		n = next
	}
	return root
}

// Add records that n points to obj under the contexts [l, r). Empty intervals are ignored, and so are facts
// identical to one already recorded.
func (s *FactStore) Add(n, obj NodeID, l, r int64) {
	if l >= r {
		return
	}
	rep := s.find(n)
	for _, f := range s.facts[rep] {
		if f.Obj == obj && f.L == l && f.R == r {
			return
		}
	}
	s.facts[rep] = append(s.facts[rep], IntervalObject{Obj: obj, L: l, R: r})
}

// Merge merges node n into node into: n's facts move to the representative of into, and n answers queries with the
// representative of into from now on.
func (s *FactStore) Merge(n, into NodeID) {
	rn, ri := s.find(n), s.find(into)
	if rn == ri {
		return
	}
	s.parent[rn] = ri
	for _, f := range s.facts[rn] {
		s.Add(ri, f.Obj, f.L, f.R)
	}
	delete(s.facts, rn)
}

// Kill removes n from the analysis. Nodes merged into n are removed as well.
func (s *FactStore) Kill(n NodeID) {
	s.dead.Insert(int(s.find(n)))
}

// Representative implements PointsToStore.
func (s *FactStore) Representative(n NodeID) (NodeID, bool) {
	if n == NoNode {
		return NoNode, false
	}
	rep := s.root(n)
	if s.dead.Has(int(rep)) {
		return NoNode, false
	}
	return rep, true
}

// ContextObjects implements PointsToStore. Each visited fact is clipped to [l, r).
func (s *FactStore) ContextObjects(n NodeID, l, r int64, v Visitor) {
	for _, f := range s.facts[n] {
		lo, hi := f.L, f.R
		if l > lo {
			lo = l
		}
		if r < hi {
			hi = r
		}
		if lo < hi {
			v.Visit(IntervalObject{Obj: f.Obj, L: lo, R: hi})
		}
	}
}

// NumFacts returns the total number of facts in the store.
func (s *FactStore) NumFacts() int {
	n := 0
	for _, fs := range s.facts {
		n += len(fs)
	}
	return n
}
