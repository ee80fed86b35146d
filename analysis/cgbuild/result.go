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

package cgbuild

import (
	"fmt"
	"io"

	"github.com/awslabs/ar-go-pta/analysis/geom"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"gopkg.in/yaml.v3"
)

// Result is a frozen call graph with its condensation and its context encoding.
type Result struct {
	// Graph is the raw call graph, with SCC edges marked and offsets set
	Graph *geom.CallGraph
	// Condensed is the graph of the strongly connected components
	Condensed *geom.CondensedGraph
	// Encoding numbers the calling contexts of every method
	Encoding *geom.Encoding
	// Reachable lists the methods reachable from the root, in increasing order
	Reachable []pag.MethodID
	// Contexts is the heap abstraction used while building
	Contexts ContextManager
}

// NewQuerier returns a querier answering context-sensitive queries over the points-to facts in pts.
func (r *Result) NewQuerier(nodes *pag.NodeStore, pts pag.PointsToStore) *geom.Querier {
	return geom.NewQuerier(r.Encoding, nodes, pts)
}

// Stats summarizes the shape of a frozen call graph.
type Stats struct {
	Methods    int `yaml:"methods"`
	Reachable  int `yaml:"reachable"`
	Edges      int `yaml:"edges"`
	SCCEdges   int `yaml:"scc-edges"`
	Unmapped   int `yaml:"unmapped-edges"`
	Components int `yaml:"components"`
	// Cycles is the number of components with more than one method, or with a self call
	Cycles  int `yaml:"cyclic-components"`
	MaxRank int `yaml:"max-rank"`
	// MaxSpan is the largest number of contexts of a method
	MaxSpan int64 `yaml:"max-span"`
	// Blocked is the number of components encoded with more than one block
	Blocked int `yaml:"blocked-components"`
}

func (s Stats) String() string {
	return fmt.Sprintf("%d methods (%d reachable), %d edges (%d in cycles, %d unmapped), "+
		"%d components (%d cyclic, %d blocked), max rank %d, max span %d",
		s.Methods, s.Reachable, s.Edges, s.SCCEdges, s.Unmapped,
		s.Components, s.Cycles, s.Blocked, s.MaxRank, s.MaxSpan)
}

// WriteYaml writes the statistics to w in yaml format
func (s Stats) WriteYaml(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// Stats computes the statistics of the result
func (r *Result) Stats() Stats {
	s := Stats{
		Methods:   r.Condensed.NumMethods(),
		Reachable: len(r.Reachable),
		Edges:     r.Graph.NumEdges(),
	}
	cyclic := map[pag.MethodID]bool{}
	for _, e := range r.Graph.Edges() {
		if e.SCCEdge {
			s.SCCEdges++
			cyclic[r.Condensed.Rep(e.Caller)] = true
		}
		if !e.Mapped() {
			s.Unmapped++
		}
	}
	for _, rep := range r.Condensed.Order {
		s.Components++
		if cyclic[rep] {
			s.Cycles++
		}
		if rank := r.Condensed.Rank(rep); rank > s.MaxRank {
			s.MaxRank = rank
		}
		if span := r.Encoding.ContextSpan(rep); span > s.MaxSpan {
			s.MaxSpan = span
		}
		if r.Encoding.BlockNum(rep) > 1 {
			s.Blocked++
		}
	}
	return s
}
