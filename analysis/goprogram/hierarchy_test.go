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
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/awslabs/ar-go-pta/analysis/goprogram"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/analysis/typemgr"
	"golang.org/x/exp/slices"
)

const zoo = `package zoo

type Animal interface{ Name() string }

type Dog struct{}

func (*Dog) Name() string { return "dog" }

type Rock struct{}
`

func checkZoo(t *testing.T) *types.Package {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "zoo.go", zoo, 0)
	if err != nil {
		t.Fatal(err)
	}
	pkg, err := (&types.Config{}).Check("zoo", fset, []*ast.File{f}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

func TestGoHierarchy(t *testing.T) {
	pkg := checkZoo(t)
	nodes := pag.NewNodeStore()
	h := goprogram.NewGoHierarchy(nodes)

	animal := h.TypeID(pkg.Scope().Lookup("Animal").Type())
	dog := h.TypeID(types.NewPointer(pkg.Scope().Lookup("Dog").Type()))
	rock := h.TypeID(types.NewPointer(pkg.Scope().Lookup("Rock").Type()))
	integer := h.TypeID(types.Typ[types.Int])

	if again := h.TypeID(types.NewPointer(pkg.Scope().Lookup("Dog").Type())); again != dog {
		t.Errorf("identical types got ids %d and %d", dog, again)
	}
	if h.TypeID(types.Typ[types.UntypedNil]) != nodes.NullType() {
		t.Errorf("nil should have the null type")
	}
	if typ, _ := nodes.Type(integer); typ.Kind != pag.TypePrimitive {
		t.Errorf("int should be primitive, got %s", typ.Kind)
	}
	if typ, _ := nodes.Type(dog); typ.Kind != pag.TypeRef || typ.Name != "*zoo.Dog" {
		t.Errorf("unexpected type record %+v", typ)
	}

	if !h.IsInterface(animal) || h.IsConcrete(animal) || !h.IsConcrete(dog) {
		t.Errorf("wrong interface classification")
	}
	if !h.CanStoreType(dog, animal) || h.CanStoreType(rock, animal) || h.CanStoreType(animal, dog) {
		t.Errorf("wrong assignability")
	}
	if impl := h.Implementers(animal); len(impl) != 1 || impl[0] != dog {
		t.Errorf("expected *Dog to be the only implementer, got %v", impl)
	}
	if subs := h.SubtypesOfIncluding(animal); len(subs) != 2 {
		t.Errorf("expected Animal and *Dog, got %v", subs)
	}
	empty := h.TypeID(types.NewInterfaceType(nil, nil))
	if impl := h.Implementers(empty); !slices.Equal(impl, []pag.TypeID{dog, rock}) {
		t.Errorf("expected *Dog and *Rock to implement any, got %v", impl)
	}
	for _, sub := range h.SubtypesOfIncluding(empty) {
		if sub == nodes.NullType() || sub == integer {
			t.Errorf("subtypes of any should not contain type %d", sub)
		}
	}
	if len(h.DirectSubclasses(dog)) != 0 {
		t.Errorf("Go types have no subclasses")
	}

	m := typemgr.NewManager(nodes, h)
	dogAlloc := nodes.AddAlloc("dog", dog, pag.NoMethod)
	rockAlloc := nodes.AddAlloc("rock", rock, pag.NoMethod)
	mask := m.TypeMask(animal)
	if !mask.Has(int(dogAlloc)) || mask.Has(int(rockAlloc)) {
		t.Errorf("unexpected mask %s for Animal", mask)
	}
	if !m.CastNeverFails(nodes.NullType(), dog) {
		t.Errorf("nil can be stored in any pointer")
	}
}
