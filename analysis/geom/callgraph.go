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
	"fmt"

	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/internal/graphutil"
)

// Edge is a raw call edge. SCCEdge is set when caller and callee belong to the same strongly connected component.
// MapOffset is assigned by the encoder; an edge with a zero offset is unmapped (it was never encoded, for instance
// because its caller is unreachable) and cannot serve as a query context.
type Edge struct {
	Caller    pag.MethodID
	Callee    pag.MethodID
	Site      pag.SiteID
	SCCEdge   bool
	MapOffset int64
}

// Mapped returns true when the encoder assigned an offset to the edge.
func (e *Edge) Mapped() bool {
	return e != nil && e.MapOffset > 0
}

// CallSite returns the identity of the edge.
func (e *Edge) CallSite() pag.CallSite {
	return pag.CallSite{Caller: e.Caller, Callee: e.Callee, Site: e.Site}
}

func (e *Edge) String() string {
	s := fmt.Sprintf("%d -[%d]-> %d", e.Caller, e.Site, e.Callee)
	if e.SCCEdge {
		s += " (scc)"
	}
	return s
}

// CallGraph is the raw call multigraph over method ids. Edges are only ever added. Each call site identity has at most
// one edge.
type CallGraph struct {
	out    [][]*Edge
	bySite map[pag.CallSite]*Edge
	edges  []*Edge
}

// NewCallGraph returns a graph with methods 0 (the root) to numMethods-1 and no edge.
func NewCallGraph(numMethods int) *CallGraph {
	g := &CallGraph{bySite: map[pag.CallSite]*Edge{}}
	g.EnsureMethod(pag.MethodID(numMethods - 1))
	return g
}

// EnsureMethod grows the graph so that m is a valid method.
func (g *CallGraph) EnsureMethod(m pag.MethodID) {
	for int(m) >= len(g.out) {
		g.out = append(g.out, nil)
	}
}

// AddEdge adds the edge identified by cs if it does not exist. It returns the edge and whether it was new.
func (g *CallGraph) AddEdge(cs pag.CallSite) (*Edge, bool) {
	if e, ok := g.bySite[cs]; ok {
		return e, false
	}
	g.EnsureMethod(cs.Caller)
	g.EnsureMethod(cs.Callee)
	e := &Edge{Caller: cs.Caller, Callee: cs.Callee, Site: cs.Site}
	g.out[cs.Caller] = append(g.out[cs.Caller], e)
	g.bySite[cs] = e
	g.edges = append(g.edges, e)
	return e, true
}

// Edge returns the edge identified by cs.
func (g *CallGraph) Edge(cs pag.CallSite) (*Edge, bool) {
	e, ok := g.bySite[cs]
	return e, ok
}

// Out returns the edges out of m, in insertion order.
func (g *CallGraph) Out(m pag.MethodID) []*Edge {
	if m < 0 || int(m) >= len(g.out) {
		return nil
	}
	return g.out[m]
}

// Successors returns the callees of m, with repetitions if m calls a method from several sites.
func (g *CallGraph) Successors(m pag.MethodID) []pag.MethodID {
	out := g.Out(m)
	res := make([]pag.MethodID, len(out))
	for i, e := range out {
		res[i] = e.Callee
	}
	return res
}

// Edges returns all the edges in insertion order.
func (g *CallGraph) Edges() []*Edge {
	return g.edges
}

// NumMethods returns one plus the largest method id of the graph.
func (g *CallGraph) NumMethods() int {
	return len(g.out)
}

// NumEdges returns the number of edges.
func (g *CallGraph) NumEdges() int {
	return len(g.edges)
}

// ReachableFromRoot returns, for each method, whether it is reachable from the root method.
func (g *CallGraph) ReachableFromRoot() []bool {
	visited := make([]bool, len(g.out))
	if len(g.out) == 0 {
		return visited
	}
	queue := []pag.MethodID{pag.RootMethod}
	visited[pag.RootMethod] = true
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		for _, e := range g.out[m] {
			if !visited[e.Callee] {
				visited[e.Callee] = true
				queue = append(queue, e.Callee)
			}
		}
	}
	return visited
}

// AsGraph returns the call graph as a CGraph, to run generic graph algorithms on it. Parallel edges are merged.
func (g *CallGraph) AsGraph(label func(pag.MethodID) string) graphutil.CGraph {
	keys := make([]int64, len(g.out))
	for i := range g.out {
		keys[i] = int64(i)
	}
	return graphutil.NewGraph(keys,
		func(k int64) []int64 {
			var succs []int64
			for _, e := range g.out[k] {
				succs = append(succs, int64(e.Callee))
			}
			return succs
		},
		labelFunc(label))
}

func labelFunc(label func(pag.MethodID) string) func(int64) string {
	if label == nil {
		return nil
	}
	return func(k int64) string { return label(pag.MethodID(k)) }
}
