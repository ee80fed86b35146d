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

// Encoding is the geometric numbering of the calling contexts of every method.
//
// The contexts of a method m are the numbers 1 to BlockSize(m)*BlockNum(m). A call edge e from s to t maps a context x
// of s to the context MapOffset(e) + (x-1) mod BlockSize(s) of t: the contexts of t are split in consecutive ranges,
// one per incoming edge, and each range has the size of one block of the caller. When the total would exceed the
// maximum span, the contexts of t are organized in blocks of the maximum span, and contexts of different blocks of s
// are merged.
//
// All the methods of a strongly connected component share the numbering of their representative.
type Encoding struct {
	cg        *CondensedGraph
	blockSize []int64
	blockNum  []int64
}

// NewEncoding returns an encoding where every method has exactly one context. Edge offsets are not modified. Callers
// set blocks and offsets by hand with SetBlock and Edge.MapOffset.
func NewEncoding(cg *CondensedGraph) *Encoding {
	n := cg.NumMethods()
	e := &Encoding{
		cg:        cg,
		blockSize: make([]int64, n),
		blockNum:  make([]int64, n),
	}
	for i := 0; i < n; i++ {
		e.blockSize[i] = 1
		e.blockNum[i] = 1
	}
	return e
}

// Encode computes the encoding of the condensed graph. maxSpan is the maximum block size; a non-positive value means
// no limit.
//
// The offsets of the edges whose caller is reachable are set; SCC edges get the offset 1 (contexts are not
// distinguished inside a component). The offsets of edges from unreachable methods are reset to zero.
func Encode(cg *CondensedGraph, maxSpan int64) *Encoding {
	if maxSpan <= 0 {
		maxSpan = math.MaxInt64
	}
	enc := NewEncoding(cg)
	n := cg.NumMethods()
	// bins[t] blocks of t are full, and filled[t] contexts are used in the current one
	bins := make([]int64, n)
	filled := make([]int64, n)

	for _, s := range cg.Order {
		size, num := int64(1), int64(1)
		if s != pag.RootMethod {
			if bins[s] == 0 {
				size = max64(filled[s], 1)
			} else {
				size, num = maxSpan, satAdd(bins[s], 1)
			}
		}
		for _, m := range cg.Members(s) {
			enc.blockSize[m] = size
			enc.blockNum[m] = num
		}
		for _, e := range cg.Out(s) {
			t := cg.Rep(e.Callee)
			if filled[t] > 0 && filled[t] > maxSpan-size {
				bins[t]++
				filled[t] = 0
			}
			e.MapOffset = satAdd(satMul(bins[t], maxSpan), satAdd(filled[t], 1))
			filled[t] += size
		}
	}

	for _, e := range cg.Raw().Edges() {
		switch {
		case !cg.Reachable(e.Caller):
			e.MapOffset = 0
		case e.SCCEdge:
			e.MapOffset = 1
		}
	}
	return enc
}

// Graph returns the condensed graph that was encoded.
func (e *Encoding) Graph() *CondensedGraph {
	return e.cg
}

// SetBlock sets the block size and number of blocks of m.
func (e *Encoding) SetBlock(m pag.MethodID, size, num int64) {
	e.blockSize[m] = size
	e.blockNum[m] = num
}

// BlockSize returns the size of one block of contexts of m.
func (e *Encoding) BlockSize(m pag.MethodID) int64 {
	return e.blockSize[m]
}

// BlockNum returns the number of blocks of contexts of m.
func (e *Encoding) BlockNum(m pag.MethodID) int64 {
	return e.blockNum[m]
}

// ContextSpan returns the number of contexts of m, saturated to math.MaxInt64.
func (e *Encoding) ContextSpan(m pag.MethodID) int64 {
	return satMul(e.blockSize[m], e.blockNum[m])
}

// MapThrough maps the context x of the caller of edge to a context of its callee.
func (e *Encoding) MapThrough(edge *Edge, x int64) int64 {
	return edge.MapOffset + (x-1)%e.blockSize[edge.Caller]
}

// ComposeChain returns the context reached at the end of the chain of edges, starting from the first context of the
// first caller. The edges are ordered from the farthest caller to the closest one. It returns false if the chain is
// empty or one of the edges is unmapped.
func (e *Encoding) ComposeChain(edges []*Edge) (int64, bool) {
	if len(edges) == 0 {
		return 0, false
	}
	l := int64(1)
	for _, edge := range edges {
		if !edge.Mapped() {
			return 0, false
		}
		l = e.MapThrough(edge, l)
	}
	return l, true
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func satAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func satMul(a, b int64) int64 {
	if a != 0 && b > math.MaxInt64/a {
		return math.MaxInt64
	}
	return a * b
}
