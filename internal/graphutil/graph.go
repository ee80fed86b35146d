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
	"strconv"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// CGraph is an abstraction over a call graph to work with existing graph libraries. It implements the methods to
// satisfy graph.Iterator of github.com/yourbasic/graph and Gonum's graph.Directed.
//
// Node ids are the method ids of the call graph; yourbasic algorithms require them to be in [0, Order()).
type CGraph struct {
	// The order of the graph
	order int

	// IDMap maps from node IDs to CNodes
	IDMap map[int64]CNode

	// Keys are all the node IDs, sorted
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between IDMap[x] and IDMap[y]
	Edges map[int64]map[int64]bool

	// succs lists the successors of each node in increasing order
	succs map[int64][]int64
	// preds lists the predecessors of each node in increasing order
	preds map[int64][]int64
}

// NewGraph returns a new graph over the nodes keys. successors gives the targets of the edges out of a node; targets
// that are not in keys are ignored. label names the nodes (for rendering); it may be nil.
func NewGraph(keys []int64, successors func(int64) []int64, label func(int64) string) CGraph {
	idmap := make(map[int64]CNode, len(keys))
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	order := 0
	for _, k := range sorted {
		name := strconv.FormatInt(k, 10)
		if label != nil {
			name = label(k)
		}
		idmap[k] = CNode{id: k, Label: name}
		if int(k)+1 > order {
			order = int(k) + 1
		}
	}
	edges := make(map[int64]map[int64]bool, len(keys))
	for _, k := range sorted {
		edges[k] = map[int64]bool{}
		for _, t := range successors(k) {
			if _, ok := idmap[t]; ok {
				edges[k][t] = true
			}
		}
	}
	return newCGraph(order, idmap, sorted, edges)
}

func newCGraph(order int, idmap map[int64]CNode, keys []int64, edges map[int64]map[int64]bool) CGraph {
	succs := make(map[int64][]int64, len(edges))
	preds := make(map[int64][]int64, len(edges))
	for _, s := range keys {
		for t := range edges[s] {
			succs[s] = append(succs[s], t)
			preds[t] = append(preds[t], s)
		}
	}
	for _, l := range succs {
		slices.Sort(l)
	}
	for _, l := range preds {
		slices.Sort(l)
	}
	return CGraph{
		order: order,
		IDMap: idmap,
		Keys:  keys,
		Edges: edges,
		succs: succs,
		preds: preds,
	}
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order is the same as in origin, meaning that node indices will stay consistent
// across subgraphs.
func Subgraph(original CGraph, include []int64) CGraph {
	idmap := make(map[int64]CNode, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := slices.Clone(include)
	slices.Sort(keys)

	for _, i := range keys {
		idmap[i] = original.IDMap[i]
	}

	for _, i := range keys {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if _, ok := idmap[e]; ok {
				edges[i][e] = true
			}
		}
	}

	return newCGraph(original.order, idmap, keys, edges)
}

// Order implements the order of the graph.Iterator interface for the CGraph
func (c CGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for the CGraph
func (c CGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.IDMap[int64(v)]; !ok {
		return false
	}
	for _, w := range c.succs[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface. It returns nil if the node is not in the graph.
func (c CGraph) Node(id int64) graph.Node {
	if n, ok := c.IDMap[id]; ok {
		return n
	}
	return nil
}

// Nodes returns the set of nodes in the graph, in increasing id order
func (c CGraph) Nodes() graph.Nodes {
	return c.nodesOf(c.Keys)
}

func (c CGraph) nodesOf(ids []int64) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = c.IDMap[id]
	}
	return iterator.NewOrderedNodes(nodes)
}

// From returns the set of nodes directly reachable from the id
func (c CGraph) From(id int64) graph.Nodes {
	return c.nodesOf(c.succs[id])
}

// To returns the set of nodes that have an edge to the id
func (c CGraph) To(id int64) graph.Nodes {
	return c.nodesOf(c.preds[id])
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (c CGraph) HasEdgeBetween(xid, yid int64) bool {
	return c.Edges[xid][yid] || c.Edges[yid][xid]
}

// HasEdgeFromTo returns a boolean indicating whether there is a directed edge from uid to vid
func (c CGraph) HasEdgeFromTo(uid, vid int64) bool {
	return c.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (c CGraph) Edge(uid, vid int64) graph.Edge {
	if c.Edges[uid][vid] {
		return CEdge{from: c.IDMap[uid], to: c.IDMap[vid]}
	}
	return nil
}

// *************** Nodes implementation **********************

// CNode is a node of a CGraph. It implements the graph.Node interface, and the dot.Node interface so that the
// label is used when the graph is marshalled.
type CNode struct {
	id    int64
	Label string
}

// ID returns the id of the node
func (n CNode) ID() int64 {
	return n.id
}

// DOTID returns the identifier of the node in DOT output
func (n CNode) DOTID() string {
	return n.Label
}

func (n CNode) String() string {
	return n.Label
}

// *************** Edge implementation **********************

// CEdge implements the graph.Edge interface
type CEdge struct {
	from CNode
	to   CNode
}

// From returns the origin of the edge
func (e CEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e CEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e CEdge) ReversedEdge() graph.Edge {
	return CEdge{from: e.to, to: e.from}
}
