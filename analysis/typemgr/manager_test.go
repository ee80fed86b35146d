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

package typemgr

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-go-pta/analysis/pag"
	"golang.org/x/tools/container/intsets"
)

// countingHierarchy counts the subtype queries reaching the hierarchy
type countingHierarchy struct {
	*ClassHierarchy
	calls int
}

func (c *countingHierarchy) CanStoreType(src, dst pag.TypeID) bool {
	c.calls++
	return c.ClassHierarchy.CanStoreType(src, dst)
}

type zoo struct {
	nodes                         *pag.NodeStore
	h                             *ClassHierarchy
	object, animal, dog, cat, pet pag.TypeID
	anyAnimal, dogs               pag.TypeID
	main                          pag.MethodID
}

func newZoo() *zoo {
	z := &zoo{nodes: pag.NewNodeStore()}
	z.object = z.nodes.AddType("Object", pag.TypeRef)
	z.animal = z.nodes.AddType("Animal", pag.TypeRef)
	z.dog = z.nodes.AddType("Dog", pag.TypeRef)
	z.cat = z.nodes.AddType("Cat", pag.TypeRef)
	z.pet = z.nodes.AddType("Pet", pag.TypeRef)
	z.anyAnimal = z.nodes.AddAnySubType(z.animal)
	z.dogs = z.nodes.AddArrayType(z.dog)
	z.main = z.nodes.AddMethod("main")

	z.h = NewClassHierarchy(z.nodes)
	z.h.AddClass(z.object, pag.NoType)
	z.h.SetObject(z.object)
	z.h.AddInterface(z.pet)
	z.h.AddClass(z.animal, z.object)
	z.h.SetAbstract(z.animal)
	z.h.AddClass(z.dog, z.animal, z.pet)
	z.h.AddClass(z.cat, z.animal)
	return z
}

func TestCastCacheConsistency(t *testing.T) {
	z := newZoo()
	m := NewManager(z.nodes, z.h)
	null := z.nodes.NullType()
	types := []pag.TypeID{z.object, z.animal, z.dog, z.cat, z.pet, z.dogs, null}
	for _, src := range types {
		for _, dst := range types {
			fresh := m.CastNeverFails(src, dst)
			cached := m.CastNeverFails(src, dst)
			if fresh != cached {
				t.Errorf("cast %d -> %d: fresh %v, cached %v", src, dst, fresh, cached)
			}
		}
	}
	for _, typ := range types {
		if !m.CastNeverFails(typ, typ) {
			t.Errorf("self cast of %d should never fail", typ)
		}
		if !m.CastNeverFails(null, typ) {
			t.Errorf("null can be cast to %d", typ)
		}
		if typ != null && m.CastNeverFails(typ, null) {
			t.Errorf("%d cannot be cast to null", typ)
		}
	}
	if !m.CastNeverFails(z.dog, z.pet) || !m.CastNeverFails(z.dog, z.object) || m.CastNeverFails(z.cat, z.pet) {
		t.Errorf("wrong subtype relation")
	}
	if !m.CastNeverFails(z.anyAnimal, z.cat) {
		t.Errorf("any-subtype sources are always compatible")
	}
	if !m.CastNeverFails(z.dogs, z.object) || m.CastNeverFails(z.dogs, z.dog) {
		t.Errorf("arrays can only be stored in the root class")
	}
}

func TestCastToAnySubtypePanics(t *testing.T) {
	z := newZoo()
	m := NewManager(z.nodes, z.h)
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrAnySubtypeDst) {
			t.Fatalf("expected ErrAnySubtypeDst panic, got %v", r)
		}
	}()
	m.CastNeverFails(z.dog, z.anyAnimal)
}

func TestNoHierarchyAdmitsEverything(t *testing.T) {
	z := newZoo()
	m := NewManager(z.nodes, nil)
	if !m.CastNeverFails(z.cat, z.dog) || !m.CastNeverFails(z.dog, z.anyAnimal) {
		t.Errorf("without a hierarchy every cast succeeds")
	}
}

func TestTypeMaskOfDoesNotRecompute(t *testing.T) {
	z := newZoo()
	// one type per allocation so that the cast cache cannot hide recomputations
	var allocs []pag.NodeID
	for _, name := range []string{"A", "B", "C"} {
		typ := z.nodes.AddType(name, pag.TypeRef)
		z.h.AddClass(typ, z.animal)
		allocs = append(allocs, z.nodes.AddAlloc("new "+name, typ, z.main))
	}
	counter := &countingHierarchy{ClassHierarchy: z.h}
	m := NewManager(z.nodes, counter)

	first := &intsets.Sparse{}
	first.Insert(int(allocs[0]))
	first.Insert(int(allocs[1]))
	mask := m.TypeMaskOf(z.animal, first)
	if counter.calls != 2 || mask.Len() != 2 {
		t.Fatalf("expected 2 decisions, got %d calls and mask %s", counter.calls, mask.String())
	}

	// forget the cast results: only the type mask caches can prevent recomputation now
	m.castTrue = map[pag.TypeID]*intsets.Sparse{}
	m.castFalse = map[pag.TypeID]*intsets.Sparse{}

	second := &intsets.Sparse{}
	second.Insert(int(allocs[1]))
	second.Insert(int(allocs[2]))
	mask = m.TypeMaskOf(z.animal, second)
	if counter.calls != 3 {
		t.Fatalf("only the new candidate should be decided, got %d calls", counter.calls)
	}
	if mask.Len() != 3 {
		t.Fatalf("expected all three allocations in the mask, got %s", mask.String())
	}

	// the whole-universe mask reuses the incremental results
	m.castTrue = map[pag.TypeID]*intsets.Sparse{}
	m.castFalse = map[pag.TypeID]*intsets.Sparse{}
	before := counter.calls
	if full := m.TypeMask(z.animal); full.Len() != 3 {
		t.Fatalf("unexpected whole-universe mask %s", full.String())
	}
	if counter.calls != before {
		t.Fatalf("whole-universe mask recomputed %d decisions", counter.calls-before)
	}
}

func TestTypeMaskFoldsNewAllocations(t *testing.T) {
	z := newZoo()
	m := NewManager(z.nodes, z.h)
	d1 := z.nodes.AddAlloc("d1", z.dog, z.main)
	c1 := z.nodes.AddAlloc("c1", z.cat, z.main)
	if mask := m.TypeMask(z.pet); !mask.Has(int(d1)) || mask.Has(int(c1)) {
		t.Fatalf("unexpected Pet mask %s", mask.String())
	}
	d2 := z.nodes.AddAlloc("d2", z.dog, z.main)
	if mask := m.TypeMask(z.pet); !mask.Has(int(d2)) || mask.Len() != 2 {
		t.Fatalf("new allocation not folded in the Pet mask: %s", mask.String())
	}
	if !m.Admits(z.animal, c1) || m.Admits(z.dog, c1) {
		t.Fatalf("wrong single-object decisions")
	}

	c := &pag.Collector{}
	f := m.Filter(z.pet, c)
	f.Visit(pag.IntervalObject{Obj: d1, L: 1, R: 2})
	f.Visit(pag.IntervalObject{Obj: c1, L: 1, R: 2})
	if len(c.Objects) != 1 || c.Objects[0].Obj != d1 {
		t.Fatalf("filter let through %v", c.Objects)
	}
}

func TestClassTypeMasks(t *testing.T) {
	z := newZoo()
	m := NewManager(z.nodes, z.h)
	d1 := z.nodes.AddAlloc("d1", z.dog, z.main)
	c1 := z.nodes.AddAlloc("c1", z.cat, z.main)
	a1 := z.nodes.AddAlloc("a1", z.anyAnimal, z.main)
	arr := z.nodes.AddAlloc("arr", z.dogs, z.main)

	m.MakeClassTypeMasks(z.object)

	expect := func(typ pag.TypeID, want ...pag.NodeID) {
		t.Helper()
		got := m.TypeMask(typ)
		if got.Len() != len(want) {
			t.Fatalf("mask of %d: got %s, want %v", typ, got.String(), want)
		}
		for _, n := range want {
			if !got.Has(int(n)) {
				t.Fatalf("mask of %d: got %s, want %v", typ, got.String(), want)
			}
		}
	}
	expect(z.dog, d1, a1)
	expect(z.cat, c1, a1)
	expect(z.animal, d1, c1, a1)
	expect(z.pet, d1, a1)
	expect(z.object, d1, c1, a1, arr)

	d2 := z.nodes.AddAlloc("d2", z.dog, z.main)
	expect(z.dog, d1, a1, d2)
	expect(z.cat, c1, a1)

	// decided one by one, the masks agree with the hierarchy walk
	m.ClearTypeMask()
	expect(z.cat, c1, a1)
	expect(z.pet, d1, a1, d2)
}

func TestIsUnresolved(t *testing.T) {
	z := newZoo()
	m := NewManager(z.nodes, z.h)
	ext := z.nodes.AddType("Ext", pag.TypeRef)
	z.nodes.MarkUnresolved(ext)
	if !m.IsUnresolved(ext) || !m.IsUnresolved(z.nodes.AddArrayType(ext)) {
		t.Fatalf("Ext and Ext[] should be unresolved")
	}
	if m.IsUnresolved(z.dog) || m.IsUnresolved(z.nodes.NullType()) {
		t.Fatalf("resolved types reported as unresolved")
	}
}
