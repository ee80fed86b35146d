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

package factfile

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-pta/analysis/geom"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/internal/funcutil"
	"golang.org/x/exp/slices"
)

// QueryResult is the outcome of one query of a fact file
type QueryResult struct {
	Query Query
	// OK is the value returned by the querier
	OK bool
	// Objects are the facts delivered to the visitor, sorted
	Objects []pag.IntervalObject
	// Err is set when the query could not be run, for instance because it names an unknown node
	Err error
}

// RunQueries runs the queries of the file with the given number of goroutines. Each goroutine has its own querier.
// The results are in the order of the queries. Build must have been called.
func (p *Program) RunQueries(workers int) ([]QueryResult, error) {
	if p.Result == nil {
		return nil, fmt.Errorf("%w: program %s must be built before running queries", ErrInvalid, p.Name)
	}
	base := p.Result.NewQuerier(p.Nodes, p.Facts)
	newWorker := func() func(Query) QueryResult {
		q := base.Fork()
		return func(query Query) QueryResult {
			return p.RunQuery(q, query)
		}
	}
	return funcutil.MapParallel(p.File.Queries, newWorker, workers), nil
}

// RunQuery runs one query with the querier q
func (p *Program) RunQuery(q *geom.Querier, query Query) QueryResult {
	res := QueryResult{Query: query}
	ptr, err := p.Node(query.Pointer)
	if err != nil {
		res.Err = err
		return res
	}
	c := &pag.Collector{}
	var v pag.Visitor = c
	if query.Type != "" {
		t, err := p.Type(query.Type)
		if err != nil {
			res.Err = err
			return res
		}
		v = p.Types.Filter(t, c)
	}
	field := pag.FieldID(0)
	if query.Field != "" {
		f, ok := p.Nodes.LookupField(query.Field)
		if !ok {
			res.Err = fmt.Errorf("field %q: %w", query.Field, ErrUnknownName)
			return res
		}
		field = f
	}

	switch {
	case query.Edge != nil && len(query.Chain) == 0:
		cs, err := p.CallSite(*query.Edge)
		if err != nil {
			res.Err = err
			return res
		}
		if query.Field != "" {
			res.OK = q.FieldContextsByAnyCallEdge(cs, ptr, field, v)
		} else {
			res.OK = q.ContextsByAnyCallEdge(cs, ptr, v)
		}
	case query.Edge == nil && len(query.Chain) > 0:
		chain := make([]pag.CallSite, len(query.Chain))
		for i, e := range query.Chain {
			if chain[i], err = p.CallSite(e); err != nil {
				res.Err = err
				return res
			}
		}
		if query.Field != "" {
			res.OK = q.FieldContextsByCallChain(chain, ptr, field, v)
		} else {
			res.OK = q.ContextsByCallChain(chain, ptr, v)
		}
	default:
		res.Err = fmt.Errorf("%w: query %s needs exactly one of edge and chain", ErrInvalid, query.Name)
		return res
	}
	res.Objects = c.Sorted()
	return res
}

// Check compares the result with the expectations of its query. Objects are compared as sets of facts. A query
// expected to fail may still have delivered objects; they are only compared when the query lists expected objects.
func (p *Program) Check(r QueryResult) error {
	if r.Err != nil {
		return r.Err
	}
	q := r.Query
	if r.OK == q.Fails {
		return fmt.Errorf("query %s returned %v", q.Name, r.OK)
	}
	if q.Fails && len(q.Expect) == 0 {
		return nil
	}
	expected := make([]pag.IntervalObject, 0, len(q.Expect))
	for _, e := range q.Expect {
		obj, err := p.Node(e.Object)
		if err != nil {
			return fmt.Errorf("query %s: %w", q.Name, err)
		}
		expected = append(expected, pag.IntervalObject{Obj: obj, L: e.L, R: e.R})
	}
	c := pag.Collector{Objects: expected}
	expected = slices.Compact(c.Sorted())
	got := slices.Compact(slices.Clone(r.Objects))
	if !slices.Equal(expected, got) {
		return fmt.Errorf("query %s: got %s, expected %s", q.Name, p.FormatObjects(got),
			p.FormatObjects(expected))
	}
	return nil
}

// FormatObjects renders facts with the node names of the file
func (p *Program) FormatObjects(objects []pag.IntervalObject) string {
	parts := funcutil.Map(objects, func(o pag.IntervalObject) string {
		return fmt.Sprintf("%s@[%d,%d)", p.NodeName(o.Obj), o.L, o.R)
	})
	return "{" + strings.Join(parts, ", ") + "}"
}
