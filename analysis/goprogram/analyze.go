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

package goprogram

import (
	"fmt"
	"math"
	"sort"

	"github.com/awslabs/ar-go-pta/analysis/cgbuild"
	"github.com/awslabs/ar-go-pta/analysis/config"
	"github.com/awslabs/ar-go-pta/analysis/geom"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/analysis/typemgr"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
)

// Analysis is the context-sensitive view of a Go program: the call graph built from its entry points, encoded, and
// the points-to sets of the pointer analysis lifted to every context of the function declaring each value.
type Analysis struct {
	Universe  *Universe
	CallGraph *callgraph.Graph
	Pointer   *pointer.Result
	Result    *cgbuild.Result
	Facts     *pag.FactStore
	Types     *typemgr.Manager

	querier *geom.Querier
}

// Analyze runs the pointer analysis on the functions of the packages matching the package filter, builds the call
// graph with the configured mode and lifts the points-to sets.
func Analyze(cfg *config.Config, log *config.LogGroup, prog *ssa.Program) (*Analysis, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if log == nil {
		log = config.NewLogGroup(cfg)
	}
	mode, err := ParseCallgraphMode(cfg.CallgraphMode)
	if err != nil {
		return nil, err
	}
	filter := func(f *ssa.Function) bool {
		return f.Pkg != nil && cfg.MatchPkgFilter(f.Pkg.Pkg.Path())
	}
	log.Infof("running pointer analysis")
	ptrResult, err := DoPointerAnalysis(prog, filter, mode == PointerAnalysis)
	if err != nil {
		return nil, fmt.Errorf("pointer analysis failed: %w", err)
	}
	for _, w := range ptrResult.Warnings {
		log.Debugf("pointer analysis: %s: %s", prog.Fset.Position(w.Pos), w.Message)
	}
	cg := ptrResult.CallGraph
	if mode != PointerAnalysis {
		log.Infof("computing %s call graph", mode)
		if cg, err = mode.ComputeCallgraph(prog); err != nil {
			return nil, err
		}
	}

	u := NewUniverse(prog, cg)
	b := cgbuild.New(cfg, log, u.Nodes, u.Hierarchy)
	if len(cfg.EntryPoints) > 0 {
		if err := b.AddConfiguredEntryPoints(); err != nil {
			return nil, err
		}
	} else {
		for _, m := range u.EntryPoints(cg) {
			if err := b.AddEntryPoint(m); err != nil {
				return nil, err
			}
		}
	}
	if err := b.Build(u.Resolver(cg)); err != nil {
		return nil, err
	}
	result := b.Freeze()

	a := &Analysis{
		Universe:  u,
		CallGraph: cg,
		Pointer:   ptrResult,
		Result:    result,
		Types:     typemgr.NewManager(u.Nodes, u.Hierarchy),
	}
	a.Facts = a.lift(b.Contexts())
	a.querier = result.NewQuerier(u.Nodes, a.Facts)
	log.Infof("lifted %d points-to facts", a.Facts.NumFacts())
	return a, nil
}

// sortedValues returns the keys of the query map in a deterministic order.
func sortedValues(queries map[ssa.Value]pointer.Pointer) []ssa.Value {
	values := make([]ssa.Value, 0, len(queries))
	for v := range queries {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Pos() != values[j].Pos() {
			return values[i].Pos() < values[j].Pos()
		}
		return values[i].String() < values[j].String()
	})
	return values
}

// lift records, for every queried value of a reachable function, its points-to set under every context of the
// function. Field addresses also give the facts of the fields of the objects their base points to, under all contexts.
func (a *Analysis) lift(contexts cgbuild.ContextManager) *pag.FactStore {
	facts := pag.NewFactStore()
	enc := a.Result.Encoding
	objects := func(p pointer.Pointer) []pag.NodeID {
		var res []pag.NodeID
		for _, l := range p.PointsTo().Labels() {
			res = append(res, contexts.HeapContext(a.Universe.LabelAlloc(l), pag.NoNode))
		}
		return res
	}

	for _, v := range sortedValues(a.Pointer.Queries) {
		n, ok := a.Universe.Variable(v)
		if !ok {
			continue
		}
		span := enc.ContextSpan(a.Universe.Nodes.Method(n))
		if span <= 0 {
			continue
		}
		for _, o := range objects(a.Pointer.Queries[v]) {
			facts.Add(n, o, 1, satAdd1(span))
		}
	}

	for _, v := range sortedValues(a.Pointer.IndirectQueries) {
		fa, ok := v.(*ssa.FieldAddr)
		if !ok {
			continue
		}
		name, ok := FieldName(fa)
		if !ok {
			continue
		}
		base, ok := a.Pointer.Queries[fa.X]
		if !ok {
			continue
		}
		f := a.Universe.Nodes.AddField(name)
		targets := objects(a.Pointer.IndirectQueries[v])
		for _, o := range objects(base) {
			fieldNode := a.Universe.Nodes.AddAllocField(o, f)
			for _, target := range targets {
				facts.Add(fieldNode, target, 1, math.MaxInt64)
			}
		}
	}
	return facts
}

func satAdd1(span int64) int64 {
	if span == math.MaxInt64 {
		return span
	}
	return span + 1
}

// Querier returns the querier over the lifted facts. The same querier is returned on every call and its scratch
// labels are reused from one query to the next, so it must not be shared between goroutines: use Fork to query
// concurrently.
func (a *Analysis) Querier() *geom.Querier {
	return a.querier
}

// PointsTo visits the objects v points to under the contexts reaching its function through the given call edge.
// It runs on the querier of a and is not safe for concurrent use.
func (a *Analysis) PointsTo(v ssa.Value, instr ssa.CallInstruction, callee *ssa.Function, visitor pag.Visitor) bool {
	n, ok := a.Universe.Variable(v)
	if !ok {
		return false
	}
	cs, ok := a.Universe.CallSite(instr, callee)
	if !ok {
		return false
	}
	return a.querier.ContextsByAnyCallEdge(cs, n, visitor)
}
