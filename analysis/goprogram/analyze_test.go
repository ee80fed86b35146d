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

package goprogram_test

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-pta/analysis/config"
	"github.com/awslabs/ar-go-pta/analysis/goprogram"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/internal/analysistest"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

func loadBasic(t *testing.T, mode string) (*goprogram.Analysis, analysistest.Annotations) {
	t.Helper()
	dir := filepath.Join("testdata", "src", "basic")
	program, cfg := analysistest.LoadTest(t, dir, nil)
	cfg.CallgraphMode = mode
	log := config.NewLogGroup(cfg)
	log.SetLevel(config.ErrLevel)
	a, err := goprogram.Analyze(cfg, log, program)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	annotations, err := analysistest.GetAnnotations(dir)
	if err != nil {
		t.Fatalf("could not read annotations: %v", err)
	}
	return a, annotations
}

// returnsOf returns the return instructions of the functions of the main package
func returnsOf(prog *ssa.Program) map[analysistest.LPos]*ssa.Return {
	res := map[analysistest.LPos]*ssa.Return{}
	for f := range ssautil.AllFunctions(prog) {
		if f.Pkg == nil || f.Pkg.Pkg.Name() != "main" {
			continue
		}
		for _, b := range f.Blocks {
			for _, instr := range b.Instrs {
				if ret, ok := instr.(*ssa.Return); ok && len(ret.Results) == 1 {
					res[analysistest.RemoveColumn(prog.Fset.Position(ret.Pos()))] = ret
				}
			}
		}
	}
	return res
}

// allocIDs maps the objects collected to the identifiers of their annotated allocation sites
func allocIDs(t *testing.T, a *goprogram.Analysis, ann analysistest.Annotations, c *pag.Collector) []string {
	var ids []string
	for _, o := range c.Objects {
		v, ok := a.Universe.AllocValue(o.Obj)
		if !ok {
			t.Errorf("object %d is not an allocation", o.Obj)
			continue
		}
		pos := analysistest.RemoveColumn(a.Universe.Program.Fset.Position(v.Pos()))
		if id, ok := ann.AllocAt(pos); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return slices.Compact(ids)
}

func TestAnalyzePointsToAnnotations(t *testing.T) {
	a, ann := loadBasic(t, config.CallgraphModePointer)
	if len(ann.Allocs) != 3 || len(ann.PointsTo) != 2 {
		t.Fatalf("expected 3 allocations and 2 queries, got %v and %v", ann.Allocs, ann.PointsTo)
	}
	returns := returnsOf(a.Universe.Program)
	for pos, expected := range ann.PointsTo {
		ret, ok := returns[pos]
		if !ok {
			t.Errorf("no return instruction at %s", pos)
			continue
		}
		fn := ret.Parent()
		node := a.CallGraph.Nodes[fn]
		if node == nil || len(node.In) == 0 {
			t.Errorf("%s is never called", fn)
			continue
		}
		for _, in := range node.In {
			c := &pag.Collector{}
			if !a.PointsTo(ret.Results[0], in.Site, fn, c) {
				t.Errorf("query on %s through %s failed", ret.Results[0], in)
				continue
			}
			got := allocIDs(t, a, ann, c)
			sort.Strings(expected)
			if !slices.Equal(got, expected) {
				t.Errorf("%s: expected %v, got %v", pos, expected, got)
			}
		}
	}
}

func TestAnalyzeFields(t *testing.T) {
	a, ann := loadBasic(t, config.CallgraphModePointer)
	var owner *ssa.Function
	for f := range ssautil.AllFunctions(a.Universe.Program) {
		if f.Name() == "owner" && f.Pkg != nil && f.Pkg.Pkg.Name() == "main" {
			owner = f
		}
	}
	if owner == nil {
		t.Fatalf("function owner not found")
	}
	var fa *ssa.FieldAddr
	for _, b := range owner.Blocks {
		for _, instr := range b.Instrs {
			if x, ok := instr.(*ssa.FieldAddr); ok {
				fa = x
			}
		}
	}
	if fa == nil {
		t.Fatalf("no field access in owner")
	}
	name, ok := goprogram.FieldName(fa)
	if !ok || !strings.HasSuffix(name, "Dog.owner") {
		t.Fatalf("unexpected field name %q", name)
	}
	f, ok := a.Universe.Nodes.LookupField(name)
	if !ok {
		t.Fatalf("field %s not registered", name)
	}
	d, ok := a.Universe.Variable(owner.Params[0])
	if !ok {
		t.Fatalf("no node for the parameter of owner")
	}
	q := a.Querier()
	for _, in := range a.CallGraph.Nodes[owner].In {
		cs, ok := a.Universe.CallSite(in.Site, owner)
		if !ok {
			t.Fatalf("no call site for %s", in)
		}
		c := &pag.Collector{}
		if !q.FieldContextsByAnyCallEdge(cs, d, f, c) {
			t.Fatalf("field query failed")
		}
		if got := allocIDs(t, a, ann, c); !slices.Equal(got, []string{"alice"}) {
			t.Errorf("expected owner to be alice, got %v", got)
		}
	}
}

func TestRepeatedQueriesShareQuerier(t *testing.T) {
	a, ann := loadBasic(t, config.CallgraphModePointer)
	if a.Querier() != a.Querier() {
		t.Fatalf("Querier should return the same querier on every call")
	}
	fork := a.Querier().Fork()
	for _, ret := range returnsOf(a.Universe.Program) {
		fn := ret.Parent()
		node := a.CallGraph.Nodes[fn]
		if node == nil {
			continue
		}
		n, ok := a.Universe.Variable(ret.Results[0])
		if !ok {
			continue
		}
		for _, in := range node.In {
			var results [][]string
			for i := 0; i < 3; i++ {
				c := &pag.Collector{}
				a.PointsTo(ret.Results[0], in.Site, fn, c)
				results = append(results, allocIDs(t, a, ann, c))
			}
			cs, ok := a.Universe.CallSite(in.Site, fn)
			if !ok {
				t.Fatalf("no call site for %s", in)
			}
			c := &pag.Collector{}
			fork.ContextsByAnyCallEdge(cs, n, c)
			results = append(results, allocIDs(t, a, ann, c))
			for i := 1; i < len(results); i++ {
				if !slices.Equal(results[i], results[0]) {
					t.Errorf("%s through %s: query %d returned %v, first returned %v", ret.Results[0], in, i, results[i],
						results[0])
				}
			}
		}
	}
}

func TestCallgraphModes(t *testing.T) {
	for _, mode := range config.CallgraphModes {
		t.Run(mode, func(t *testing.T) {
			a, _ := loadBasic(t, mode)
			reachable := map[string]bool{}
			for _, m := range a.Result.Reachable {
				if f, ok := a.Universe.Function(m); ok {
					reachable[f.Name()] = true
				}
			}
			for _, name := range []string{"main", "id", "owner"} {
				if !reachable[name] {
					t.Errorf("%s: function %s is not reachable", mode, name)
				}
			}
			if a.Facts.NumFacts() == 0 {
				t.Errorf("%s: no points-to fact lifted", mode)
			}
		})
	}
}

func TestParseCallgraphMode(t *testing.T) {
	for _, name := range config.CallgraphModes {
		mode, err := goprogram.ParseCallgraphMode(name)
		if err != nil {
			t.Errorf("mode %s: %v", name, err)
		}
		if mode.String() != name {
			t.Errorf("mode %s prints as %s", name, mode)
		}
	}
	if _, err := goprogram.ParseCallgraphMode("andersen"); err == nil {
		t.Errorf("unknown mode should be rejected")
	}
}
