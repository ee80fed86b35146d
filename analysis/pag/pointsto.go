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
	"fmt"
	"sort"

	"golang.org/x/tools/container/intsets"
)

// IntervalObject is a context-sensitive points-to fact: the object Obj is pointed to under every context number in
// the half-open interval [L, R).
type IntervalObject struct {
	Obj NodeID
	L   int64
	R   int64
}

func (o IntervalObject) String() string {
	return fmt.Sprintf("%d@[%d,%d)", o.Obj, o.L, o.R)
}

// A Visitor receives the results of a query, one call per fact. Results are never returned as a collection so that
// callers decide how to buffer them.
type Visitor interface {
	Visit(o IntervalObject)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(o IntervalObject)

// Visit calls f(o)
func (f VisitorFunc) Visit(o IntervalObject) { f(o) }

// Collector is a Visitor that records every fact it receives.
type Collector struct {
	Objects []IntervalObject
}

// Visit appends o to the collected objects
func (c *Collector) Visit(o IntervalObject) {
	c.Objects = append(c.Objects, o)
}

// Reset forgets all the collected objects.
func (c *Collector) Reset() {
	c.Objects = c.Objects[:0]
}

// ObjectSet returns the set of distinct objects collected so far.
func (c *Collector) ObjectSet() *intsets.Sparse {
	s := &intsets.Sparse{}
	for _, o := range c.Objects {
		s.Insert(int(o.Obj))
	}
	return s
}

// Sorted returns the collected facts sorted by object, then interval.
func (c *Collector) Sorted() []IntervalObject {
	res := make([]IntervalObject, len(c.Objects))
	copy(res, c.Objects)
	sort.Slice(res, func(i, j int) bool {
		if res[i].Obj != res[j].Obj {
			return res[i].Obj < res[j].Obj
		}
		if res[i].L != res[j].L {
			return res[i].L < res[j].L
		}
		return res[i].R < res[j].R
	})
	return res
}

// PointsToStore is the solved points-to fixpoint, as seen by the query engine.
type PointsToStore interface {
	// Representative returns the node that holds the points-to facts of n. The second value is false if n has been
	// removed from the analysis (merged away without representative, or unreachable).
	Representative(n NodeID) (NodeID, bool)

	// ContextObjects calls v.Visit for every fact of n whose interval overlaps [l, r). n must be a representative.
	ContextObjects(n NodeID, l, r int64, v Visitor)
}
