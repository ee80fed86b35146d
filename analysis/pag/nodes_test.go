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

package pag

import (
	"sync"
	"testing"
)

func TestNodeStoreNumbering(t *testing.T) {
	s := NewNodeStore()
	if s.NullType() == NoType {
		t.Fatalf("null type should be interned at creation")
	}
	a := s.AddType("A", TypeRef)
	if a2 := s.AddType("A", TypeArray); a2 != a {
		t.Fatalf("types are interned by name, got %d and %d", a, a2)
	}
	m := s.AddMethod("foo")
	if m == RootMethod {
		t.Fatalf("the root method id is reserved")
	}
	v := s.AddVariable("p", a, m)
	o := s.AddAlloc("new A", a, m)
	if v == NoNode || o != v+1 {
		t.Fatalf("nodes should be numbered densely from 1, got %d and %d", v, o)
	}
	n, ok := s.Node(o)
	if !ok || !n.IsAlloc() || n.Site != o || n.AllocKind != AllocInsensitive {
		t.Fatalf("unexpected allocation record %+v", n)
	}
	if s.Method(v) != m || s.TypeOf(o) != a {
		t.Fatalf("wrong method or type")
	}
	if _, ok := s.Node(NoNode); ok {
		t.Fatalf("NoNode is not a node")
	}
	if allocs := s.AllocNodes(); len(allocs) != 1 || allocs[0] != o {
		t.Fatalf("expected exactly one allocation, got %v", allocs)
	}
}

func TestNodeStoreAllocFieldsAndConstants(t *testing.T) {
	s := NewNodeStore()
	cls := s.AddType("Class", TypeRef)
	a := s.AddType("A", TypeRef)
	o := s.AddAlloc("o", a, s.AddMethod("main"))
	f := s.AddField("next")

	if _, ok := s.FindAllocField(o, f); ok {
		t.Fatalf("field node should not exist before it is added")
	}
	of := s.AddAllocField(o, f)
	if of2 := s.AddAllocField(o, f); of2 != of {
		t.Fatalf("alloc-field nodes must be interned")
	}
	if got, ok := s.FindAllocField(o, f); !ok || got != of {
		t.Fatalf("FindAllocField returned %d, %v", got, ok)
	}
	n, _ := s.Node(of)
	if n.Kind != KindAllocField || n.Name != "o.next" || n.Base != o {
		t.Fatalf("unexpected field node %+v", n)
	}

	c1 := s.AddClassConstant("A.class", cls)
	c2 := s.AddClassConstant("A.class", cls)
	if c1 != c2 {
		t.Fatalf("class constants are interned by name")
	}
	cn, _ := s.Node(c1)
	if cn.AllocKind != AllocClassConstant || cn.Method != NoMethod {
		t.Fatalf("unexpected class constant %+v", cn)
	}

	os := s.AddObjSensAlloc(o, []NodeID{c1})
	osn, _ := s.Node(os)
	if osn.Site != o || osn.Type != a || osn.AllocKind != AllocObjectSensitive {
		t.Fatalf("object-sensitive node should inherit from its base: %+v", osn)
	}
	if len(s.AllocNodesFrom(1)) != 2 {
		t.Fatalf("expected two allocations after the first one")
	}
}

func TestNodeStoreConcurrentAppend(t *testing.T) {
	s := NewNodeStore()
	a := s.AddType("A", TypeRef)
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.AddAlloc("o", a, RootMethod)
			}
		}()
	}
	wg.Wait()
	if s.NumNodes() != 801 {
		t.Fatalf("expected 800 nodes plus the reserved slot, got %d", s.NumNodes())
	}
	seen := map[NodeID]bool{}
	for _, id := range s.AllocNodes() {
		if seen[id] {
			t.Fatalf("node %d numbered twice", id)
		}
		seen[id] = true
	}
}
