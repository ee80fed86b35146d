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
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/awslabs/ar-go-pta/analysis/config"
	"github.com/awslabs/ar-go-pta/analysis/geom"
	"github.com/awslabs/ar-go-pta/analysis/objsens"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/analysis/typemgr"
	"golang.org/x/tools/container/intsets"
)

var (
	// ErrFrozen is returned when an edge is added after Freeze
	ErrFrozen = errors.New("call graph is frozen")

	// ErrUnknownMethod is returned when an edge or an entry point refers to a method that is not in the node store
	ErrUnknownMethod = errors.New("unknown method")
)

// CalleeResolver gives the call edges out of a method. It is called once per reachable method.
type CalleeResolver interface {
	Callees(m pag.MethodID) []pag.CallSite
}

// CalleeResolverFunc adapts a function to the CalleeResolver interface.
type CalleeResolverFunc func(m pag.MethodID) []pag.CallSite

// Callees returns f(m)
func (f CalleeResolverFunc) Callees(m pag.MethodID) []pag.CallSite { return f(m) }

// Builder builds the raw call graph from the entry points. It is safe for concurrent use.
type Builder struct {
	mu sync.Mutex

	cfg      *config.Config
	log      *config.LogGroup
	nodes    *pag.NodeStore
	contexts ContextManager
	table    *objsens.Table

	graph     *geom.CallGraph
	reachable intsets.Sparse
	// pending holds the methods that became reachable and whose callees have not been resolved yet
	pending []pag.MethodID
	result  *Result
}

// New returns a builder for the methods of nodes. The hierarchy is used by the object-sensitive heap abstraction to
// exclude the subclasses of the no-context classes; it may be nil.
func New(cfg *config.Config, log *config.LogGroup, nodes *pag.NodeStore, h typemgr.Hierarchy) *Builder {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if log == nil {
		log = config.NewLogGroup(cfg)
	}
	b := &Builder{
		cfg:   cfg,
		log:   log,
		nodes: nodes,
		graph: geom.NewCallGraph(nodes.NumMethods()),
	}
	if cfg.ObjectSensitive() {
		b.table = objsens.NewTable(nodes, h)
	}
	contexts, unknown := MakeContextManager(cfg, nodes, b.table)
	for _, name := range unknown {
		log.Warnf("no-context class %q is not a known type", name)
	}
	b.contexts = contexts
	if contexts.ObjectSensitive() {
		log.Infof("object-sensitive heap, k=%d", cfg.ObjectSensitivity)
	} else {
		log.Debugf("context-insensitive heap")
	}
	b.reachable.Insert(int(pag.RootMethod))
	return b
}

// Contexts returns the context manager of the builder.
func (b *Builder) Contexts() ContextManager {
	return b.contexts
}

// ObjSensTable returns the table of object-sensitive allocations, or nil if object sensitivity is disabled.
func (b *Builder) ObjSensTable() *objsens.Table {
	return b.table
}

func (b *Builder) validMethod(m pag.MethodID) bool {
	return m >= 0 && int(m) < b.nodes.NumMethods()
}

// AddEntryPoint adds the edge from the root to m.
func (b *Builder) AddEntryPoint(m pag.MethodID) error {
	_, err := b.AddEdge(pag.CallSite{Caller: pag.RootMethod, Callee: m, Site: pag.EntrySite})
	return err
}

// AddConfiguredEntryPoints adds the entry points named in the configuration.
func (b *Builder) AddConfiguredEntryPoints() error {
	for _, name := range b.cfg.EntryPoints {
		m, ok := b.nodes.LookupMethod(name)
		if !ok {
			return fmt.Errorf("entry point %q: %w", name, ErrUnknownMethod)
		}
		if err := b.AddEntryPoint(m); err != nil {
			return err
		}
	}
	return nil
}

// AddEdge adds the call edge cs. It returns true if the edge is new. The callee becomes reachable, and its callees
// are resolved by the next call to Build.
func (b *Builder) AddEdge(cs pag.CallSite) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addEdgeLocked(cs)
}

func (b *Builder) addEdgeLocked(cs pag.CallSite) (bool, error) {
	if b.result != nil {
		return false, fmt.Errorf("adding %s: %w", cs, ErrFrozen)
	}
	if !b.validMethod(cs.Caller) || !b.validMethod(cs.Callee) {
		return false, fmt.Errorf("adding %s: %w", cs, ErrUnknownMethod)
	}
	_, isNew := b.graph.AddEdge(cs)
	if !isNew {
		return false, nil
	}
	b.log.Tracef("edge %s -> %s", b.nodes.MethodName(cs.Caller), b.nodes.MethodName(cs.Callee))
	if b.reachable.Insert(int(cs.Callee)) {
		b.pending = append(b.pending, cs.Callee)
	}
	return true, nil
}

// Build resolves the callees of every method that became reachable since the last call, until no new method is
// reached. Edges returned by the resolver for another caller than the method being resolved are rejected.
func (b *Builder) Build(resolver CalleeResolver) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result != nil {
		return ErrFrozen
	}
	if b.reachable.Len() == 1 && len(b.pending) == 0 {
		b.log.Warnf("no entry point: only the root method is reachable")
	}
	resolved := 0
	for len(b.pending) > 0 {
		m := b.pending[len(b.pending)-1]
		b.pending = b.pending[:len(b.pending)-1]
		resolved++
		for _, cs := range resolver.Callees(m) {
			if cs.Caller != m {
				return fmt.Errorf("resolver returned %s for method %d", cs, m)
			}
			if _, err := b.addEdgeLocked(cs); err != nil {
				return err
			}
		}
	}
	b.log.Debugf("resolved the callees of %d methods, %d edges", resolved, b.graph.NumEdges())
	return nil
}

// Reachables returns the methods reachable from the root, the root included, in increasing order.
func (b *Builder) Reachables() []pag.MethodID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return reachableSlice(&b.reachable)
}

func reachableSlice(s *intsets.Sparse) []pag.MethodID {
	var res []pag.MethodID
	for _, m := range s.AppendTo(nil) {
		res = append(res, pag.MethodID(m))
	}
	return res
}

// Graph returns the raw call graph. It must not be modified by the caller.
func (b *Builder) Graph() *geom.CallGraph {
	return b.graph
}

// Freeze ends the construction of the call graph: the strongly connected components are computed, and the graph is
// condensed and encoded. Further calls return the same result, and adding edges fails with ErrFrozen.
func (b *Builder) Freeze() *Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result != nil {
		return b.result
	}
	if len(b.pending) > 0 {
		b.log.Warnf("freezing with %d methods whose callees have not been resolved", len(b.pending))
	}
	// methods without edges still need a representative
	b.graph.EnsureMethod(pag.MethodID(b.nodes.NumMethods() - 1))
	rep := geom.Representatives(b.graph)
	condensed := geom.Condense(b.graph, rep)
	enc := geom.Encode(condensed, b.cfg.MaxContextSpan)
	b.result = &Result{
		Graph:     b.graph,
		Condensed: condensed,
		Encoding:  enc,
		Reachable: reachableSlice(&b.reachable),
		Contexts:  b.contexts,
	}
	stats := b.result.Stats()
	b.log.Infof("call graph: %s", stats)
	if b.cfg.ReportStats && b.cfg.ReportsDir != "" {
		if err := b.reportStats(stats); err != nil {
			b.log.Errorf("could not write statistics: %v", err)
		}
	}
	return b.result
}

func (b *Builder) reportStats(stats Stats) error {
	f, err := os.CreateTemp(b.cfg.ReportsDir, "callgraph-stats-*.yaml")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := stats.WriteYaml(f); err != nil {
		return err
	}
	b.log.Infof("call graph statistics written in %s", f.Name())
	return nil
}
