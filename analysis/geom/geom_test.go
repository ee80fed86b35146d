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
	"math/rand"
	"sort"
	"testing"

	"github.com/awslabs/ar-go-pta/analysis/pag"
	"gonum.org/v1/gonum/graph/topo"
)

// randomCallGraph returns a graph of size methods where the root calls method 1, and every method calls up to three
// random methods.
func randomCallGraph(size int, seed int64) *CallGraph {
	r := rand.New(rand.NewSource(seed))
	g := NewCallGraph(size)
	g.AddEdge(pag.CallSite{Caller: pag.RootMethod, Callee: 1, Site: pag.EntrySite})
	site := 0
	for i := 1; i < size; i++ {
		for j := 0; j < 3; j++ {
			if r.Float32() < 0.6 {
				site++
				callee := pag.MethodID(1 + r.Intn(size-1))
				g.AddEdge(pag.CallSite{Caller: pag.MethodID(i), Callee: callee, Site: pag.SiteID(site)})
			}
		}
	}
	return g
}

func mustEdge(t *testing.T, g *CallGraph, caller, callee pag.MethodID, site pag.SiteID) *Edge {
	t.Helper()
	e, ok := g.AddEdge(pag.CallSite{Caller: caller, Callee: callee, Site: site})
	if !ok {
		t.Fatalf("edge %d -> %d added twice", caller, callee)
	}
	return e
}

func TestCondenseRankMonotonicity(t *testing.T) {
	for i := 0; i < 50; i++ {
		g := randomCallGraph(40, 1234+int64(i))
		cg := Condense(g, Representatives(g))
		if cg.Rank(pag.RootMethod) != 0 {
			t.Fatalf("root has rank %d", cg.Rank(pag.RootMethod))
		}
		for m := 0; m < cg.NumMethods(); m++ {
			r := cg.Rep(pag.MethodID(m))
			if cg.Rep(r) != r {
				t.Fatalf("representative of %d is not idempotent", m)
			}
			if r > pag.MethodID(m) {
				t.Fatalf("representative %d of %d is not the smallest member", r, m)
			}
		}
		for _, e := range g.Edges() {
			if !cg.Reachable(e.Caller) {
				continue
			}
			if e.SCCEdge != (cg.Rep(e.Caller) == cg.Rep(e.Callee)) {
				t.Fatalf("edge %v is wrongly marked", e)
			}
			if !e.SCCEdge && cg.Rank(e.Callee) < cg.Rank(e.Caller)+1 {
				t.Fatalf("edge %v breaks the rank order: %d -> %d", e, cg.Rank(e.Caller), cg.Rank(e.Callee))
			}
		}
	}
}

func TestCondensedOrderIsTopological(t *testing.T) {
	g := randomCallGraph(60, 777)
	cg := Condense(g, Representatives(g))
	sorted, err := topo.Sort(cg.AsGraph(nil))
	if err != nil {
		t.Fatalf("the condensed graph should be acyclic: %v", err)
	}
	if len(sorted) != cg.NumComponents() {
		t.Fatalf("expected %d components, got %d", cg.NumComponents(), len(sorted))
	}
	pos := map[pag.MethodID]int{}
	for i, r := range cg.Order {
		pos[r] = i
	}
	for _, r := range cg.Order {
		for _, e := range cg.Out(r) {
			if pos[cg.Rep(e.Callee)] <= pos[r] {
				t.Fatalf("component %d is finalized before its caller %d", cg.Rep(e.Callee), r)
			}
		}
	}
}

func TestEncodeRangesAreDisjoint(t *testing.T) {
	for _, maxSpan := range []int64{0, 3, 16} {
		for i := 0; i < 20; i++ {
			g := randomCallGraph(30, 4242+int64(i))
			cg := Condense(g, Representatives(g))
			enc := Encode(cg, maxSpan)
			ranges := map[pag.MethodID][][2]int64{}
			for _, e := range g.Edges() {
				if !cg.Reachable(e.Caller) {
					if e.Mapped() {
						t.Fatalf("edge %v from an unreachable method is mapped", e)
					}
					continue
				}
				if !e.Mapped() {
					t.Fatalf("edge %v is not mapped", e)
				}
				if e.SCCEdge {
					continue
				}
				lo, hi := e.MapOffset, e.MapOffset+enc.BlockSize(e.Caller)
				if lo < 1 || hi-1 > enc.ContextSpan(e.Callee) {
					t.Fatalf("range [%d,%d) of %v is outside of the %d contexts of the callee",
						lo, hi, e, enc.ContextSpan(e.Callee))
				}
				if maxSpan > 0 && (lo-1)/maxSpan != (hi-2)/maxSpan {
					t.Fatalf("range [%d,%d) of %v straddles two blocks", lo, hi, e)
				}
				ranges[cg.Rep(e.Callee)] = append(ranges[cg.Rep(e.Callee)], [2]int64{lo, hi})
			}
			for m, rs := range ranges {
				sort.Slice(rs, func(i, j int) bool { return rs[i][0] < rs[j][0] })
				for k := 1; k < len(rs); k++ {
					if rs[k][0] < rs[k-1][1] {
						t.Fatalf("ranges %v and %v of method %d overlap", rs[k-1], rs[k], m)
					}
				}
			}
		}
	}
}

func TestEncodeBlocking(t *testing.T) {
	g := NewCallGraph(3)
	e1 := mustEdge(t, g, pag.RootMethod, 1, 1)
	e2 := mustEdge(t, g, pag.RootMethod, 1, 2)
	e3 := mustEdge(t, g, pag.RootMethod, 1, 3)
	e4 := mustEdge(t, g, 1, 2, 4)
	enc := Encode(Condense(g, Representatives(g)), 2)

	if e1.MapOffset != 1 || e2.MapOffset != 2 || e3.MapOffset != 3 {
		t.Fatalf("unexpected offsets %d %d %d", e1.MapOffset, e2.MapOffset, e3.MapOffset)
	}
	if enc.BlockSize(1) != 2 || enc.BlockNum(1) != 2 {
		t.Fatalf("method 1 should have 2 blocks of 2 contexts, got %d x %d", enc.BlockNum(1), enc.BlockSize(1))
	}
	if e4.MapOffset != 1 || enc.BlockSize(2) != 2 || enc.BlockNum(2) != 1 {
		t.Fatalf("unexpected encoding of method 2")
	}
	// contexts of different blocks of the caller are merged
	if enc.MapThrough(e4, 3) != enc.MapThrough(e4, 1) {
		t.Fatalf("contexts 1 and 3 of method 1 should map to the same context")
	}
}

func TestEncodeSaturates(t *testing.T) {
	// a chain of fan-outs doubles the number of contexts at each level
	g := NewCallGraph(200)
	mustEdge(t, g, pag.RootMethod, 1, 0)
	site := pag.SiteID(1)
	for m := pag.MethodID(1); m < 199; m++ {
		mustEdge(t, g, m, m+1, site)
		mustEdge(t, g, m, m+1, site+1)
		site += 2
	}
	enc := Encode(Condense(g, Representatives(g)), 0)
	if enc.ContextSpan(199) != math.MaxInt64 {
		t.Fatalf("expected the context span to saturate, got %d", enc.ContextSpan(199))
	}
}

func TestComposeChainAssociativity(t *testing.T) {
	for i := 0; i < 30; i++ {
		g := randomCallGraph(25, 99+int64(i))
		cg := Condense(g, Representatives(g))
		enc := Encode(cg, 8)
		r := rand.New(rand.NewSource(int64(i)))
		// random walk of three mapped edges from the root
		var chain []*Edge
		m := pag.RootMethod
		for len(chain) < 3 {
			out := g.Out(m)
			if len(out) == 0 {
				break
			}
			e := out[r.Intn(len(out))]
			chain = append(chain, e)
			m = e.Callee
		}
		if len(chain) < 3 {
			continue
		}
		full, ok := enc.ComposeChain(chain)
		if !ok {
			t.Fatalf("chain %v should compose", chain)
		}
		prefix, _ := enc.ComposeChain(chain[:2])
		if got := enc.MapThrough(chain[2], prefix); got != full {
			t.Fatalf("composition is not associative: %d != %d", got, full)
		}
	}
	if _, ok := NewEncoding(Condense(NewCallGraph(1), nil)).ComposeChain(nil); ok {
		t.Fatalf("the empty chain does not compose")
	}
}
