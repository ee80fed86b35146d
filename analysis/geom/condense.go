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

// CondensedGraph is the call graph where every strongly connected component is collapsed into its representative.
// Only the edges between distinct components are kept, attached to the representative of their caller. Every
// representative reachable from the root has a topological rank.
type CondensedGraph struct {
	raw       *CallGraph
	rep       []pag.MethodID
	rank      []int
	out       [][]*Edge
	members   [][]pag.MethodID
	reachable []bool

	// Order lists the representatives reachable from the root in the order in which the topological traversal
	// finalized them. Every caller component appears before its callee components.
	Order []pag.MethodID
}

// Condense builds the condensed graph of raw. rep maps each method to the representative of its strongly connected
// component; methods beyond the end of rep are their own representative. Edges of raw whose caller and callee have
// the same representative are marked as SCC edges.
//
// Only the methods reachable from the root are condensed. The others keep rank 0 and are never visited by queries.
// Panics if rep is not idempotent.
func Condense(raw *CallGraph, rep []pag.MethodID) *CondensedGraph {
	n := raw.NumMethods()
	c := &CondensedGraph{
		raw:     raw,
		rep:     make([]pag.MethodID, n),
		rank:    make([]int, n),
		out:     make([][]*Edge, n),
		members: make([][]pag.MethodID, n),
	}
	for i := 0; i < n; i++ {
		c.rep[i] = pag.MethodID(i)
		if i < len(rep) {
			c.rep[i] = rep[i]
		}
	}
	for i := 0; i < n; i++ {
		r := c.rep[i]
		if r < 0 || int(r) >= n || c.rep[r] != r {
			panic(fmt.Sprintf("representative %d of method %d is not its own representative", r, i))
		}
		c.members[r] = append(c.members[r], pag.MethodID(i))
	}

	c.reachable = raw.ReachableFromRoot()
	inDegree := make([]int, n)
	for i := 0; i < n; i++ {
		if !c.reachable[i] {
			continue
		}
		r := c.rep[i]
		for _, e := range raw.Out(pag.MethodID(i)) {
			if c.rep[e.Callee] == r {
				e.SCCEdge = true
			}
			if e.SCCEdge {
				continue
			}
			c.out[r] = append(c.out[r], e)
			inDegree[c.rep[e.Callee]]++
		}
	}

	if n == 0 {
		return c
	}
	// Kahn traversal from the root
	queue := []pag.MethodID{pag.RootMethod}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		c.Order = append(c.Order, s)
		for _, e := range c.out[s] {
			t := c.rep[e.Callee]
			if w := c.rank[s] + 1; c.rank[t] < w {
				c.rank[t] = w
			}
			inDegree[t]--
			if inDegree[t] == 0 {
				queue = append(queue, t)
			}
		}
	}
	return c
}

// Representatives computes the strongly connected components of the graph and returns the representative of each
// method: the smallest method of its component.
func Representatives(raw *CallGraph) []pag.MethodID {
	n := raw.NumMethods()
	methods := make([]pag.MethodID, n)
	for i := range methods {
		methods[i] = pag.MethodID(i)
	}
	reps := graphutil.ComponentRepresentatives(graphutil.StronglyConnectedComponents(methods, raw.Successors))
	res := make([]pag.MethodID, n)
	for i := range res {
		res[i] = reps[pag.MethodID(i)]
	}
	return res
}

// Raw returns the call graph that was condensed.
func (c *CondensedGraph) Raw() *CallGraph {
	return c.raw
}

// NumMethods returns the number of methods of the graph.
func (c *CondensedGraph) NumMethods() int {
	return len(c.rep)
}

// Rep returns the representative of m's component.
func (c *CondensedGraph) Rep(m pag.MethodID) pag.MethodID {
	return c.rep[m]
}

// Rank returns the topological rank of m's component.
func (c *CondensedGraph) Rank(m pag.MethodID) int {
	return c.rank[c.rep[m]]
}

// Out returns the edges leaving the component represented by rep. Every edge goes to another component.
func (c *CondensedGraph) Out(rep pag.MethodID) []*Edge {
	return c.out[rep]
}

// Members returns the methods of the component represented by rep, rep included.
func (c *CondensedGraph) Members(rep pag.MethodID) []pag.MethodID {
	return c.members[rep]
}

// Reachable returns true if m is reachable from the root.
func (c *CondensedGraph) Reachable(m pag.MethodID) bool {
	return m >= 0 && int(m) < len(c.reachable) && c.reachable[m]
}

// NumComponents returns the number of components reachable from the root.
func (c *CondensedGraph) NumComponents() int {
	return len(c.Order)
}

// AsGraph returns the graph of the reachable components as a CGraph, with one node per representative.
func (c *CondensedGraph) AsGraph(label func(pag.MethodID) string) graphutil.CGraph {
	keys := make([]int64, len(c.Order))
	for i, r := range c.Order {
		keys[i] = int64(r)
	}
	return graphutil.NewGraph(keys,
		func(k int64) []int64 {
			var succs []int64
			for _, e := range c.out[k] {
				succs = append(succs, int64(c.rep[e.Callee]))
			}
			return succs
		},
		labelFunc(label))
}
