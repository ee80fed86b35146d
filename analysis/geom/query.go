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

package geom

import (
	"math"

	"github.com/awslabs/ar-go-pta/analysis/pag"
)

// Querier answers context-sensitive points-to queries whose context is given partially (one call edge) or fully
// (a chain of call edges), against an encoding and a solved points-to store.
//
// A Querier reuses scratch state across queries and must not be used by several goroutines at the same time. Use
// Fork to obtain one querier per goroutine.
type Querier struct {
	enc   *Encoding
	cg    *CondensedGraph
	nodes *pag.NodeStore
	pts   pag.PointsToStore

	// reachable[r] is the status of component r in the current search: failedLabel, successLabel, or a label of an
	// older search, which means unvisited
	reachable    []int32
	curLabel     int32
	failedLabel  int32
	successLabel int32
}

// searchPacket holds the parameters of one any-edge search
type searchPacket struct {
	ptr        pag.NodeID
	target     pag.MethodID
	ctxtLength int64
	visitor    pag.Visitor
}

// NewQuerier returns a querier for the encoding. nodes gives the enclosing methods of the queried variables, and pts
// their solved points-to facts.
func NewQuerier(enc *Encoding, nodes *pag.NodeStore, pts pag.PointsToStore) *Querier {
	return &Querier{
		enc:       enc,
		cg:        enc.Graph(),
		nodes:     nodes,
		pts:       pts,
		reachable: make([]int32, enc.Graph().NumMethods()),
		curLabel:  math.MaxInt32 - 2,
	}
}

// Fork returns a new querier sharing the encoding and the stores of q, with its own scratch state.
func (q *Querier) Fork() *Querier {
	return NewQuerier(q.enc, q.nodes, q.pts)
}

// Encoding returns the encoding used by the querier.
func (q *Querier) Encoding() *Encoding {
	return q.enc
}

// nextLabels starts a new search generation. The labels are cleared when the counter is about to overflow.
func (q *Querier) nextLabels() {
	if q.curLabel >= math.MaxInt32-2 {
		q.curLabel = 0
		for i := range q.reachable {
			q.reachable[i] = 0
		}
	}
	q.failedLabel = q.curLabel + 1
	q.successLabel = q.curLabel + 2
}

// dfsCalcMapping searches the paths from s (entered with context l) to the target method of the packet, and delivers
// the facts of the queried pointer under the contexts of the target reached this way.
func (q *Querier) dfsCalcMapping(p *searchPacket, s pag.MethodID, l int64) bool {
	target := p.target
	repS := q.cg.Rep(s)
	repTarget := q.cg.Rep(target)

	if s == target {
		q.pts.ContextObjects(p.ptr, l, l+p.ctxtLength, p.visitor)
		return true
	}

	// The target is in the same component: the depth of the call inside the cycle is unknown, so every block of
	// the target is a possible context.
	if repS == repTarget {
		blockSize := q.enc.BlockSize(s)
		offset := (l - 1) % blockSize
		var sum int64
		for i := int64(0); i < q.enc.BlockNum(target); i++ {
			lEnd := 1 + offset + sum
			q.pts.ContextObjects(p.ptr, lEnd, lEnd+p.ctxtLength, p.visitor)
			sum += blockSize
		}
		return true
	}

	s = repS
	q.reachable[s] = q.failedLabel
	blockSize := q.enc.BlockSize(s)
	inBlockOffset := (l - 1) % blockSize
	for _, e := range q.cg.Out(s) {
		t := e.Callee
		if t == s {
			continue
		}
		repT := q.cg.Rep(t)
		if q.reachable[repT] == q.failedLabel {
			continue
		}
		if q.reachable[repT] == q.successLabel || q.cg.Rank(repT) <= q.cg.Rank(repTarget) {
			if q.dfsCalcMapping(p, t, e.MapOffset+inBlockOffset) {
				q.reachable[s] = q.successLabel
			}
		}
	}
	return q.reachable[s] == q.successLabel
}

// ContextsByAnyCallEdge visits the objects ptr points to under the contexts that go through the call edge. The
// edge can be any hop of the calling context: the paths from its callee to the method declaring ptr are searched.
//
// It returns false without visiting anything if ptr has been removed from the analysis, if the edge is unknown or
// unmapped, or if ptr has no enclosing method. Otherwise it returns true, even if no path leads to ptr's method.
func (q *Querier) ContextsByAnyCallEdge(edge pag.CallSite, ptr pag.NodeID, v pag.Visitor) bool {
	rep, ok := q.pts.Representative(ptr)
	if !ok {
		return false
	}
	e, ok := q.cg.Raw().Edge(edge)
	if !ok || !e.Mapped() {
		return false
	}
	m := q.nodes.Method(ptr)
	if m < 0 || int(m) >= q.cg.NumMethods() {
		return false
	}

	p := &searchPacket{
		ptr:        rep,
		target:     m,
		ctxtLength: q.enc.BlockSize(e.Caller),
		visitor:    v,
	}
	q.nextLabels()
	q.dfsCalcMapping(p, e.Callee, e.MapOffset)
	q.curLabel += 2
	return true
}

// ContextsByCallChain visits the objects ptr points to under the calling context given by the chain of edges, from
// the farthest caller to the closest one. No search is needed: the chain is composed directly.
//
// It returns false without visiting anything if ptr has been removed from the analysis, if the chain is empty, or if
// one of its edges is unknown or unmapped.
func (q *Querier) ContextsByCallChain(chain []pag.CallSite, ptr pag.NodeID, v pag.Visitor) bool {
	rep, ok := q.pts.Representative(ptr)
	if !ok {
		return false
	}
	edges := make([]*Edge, len(chain))
	for i, cs := range chain {
		e, ok := q.cg.Raw().Edge(cs)
		if !ok {
			return false
		}
		edges[i] = e
	}
	l, ok := q.enc.ComposeChain(edges)
	if !ok {
		return false
	}
	r := l + q.enc.BlockSize(edges[0].Caller)
	q.pts.ContextObjects(rep, l, r, v)
	return true
}
