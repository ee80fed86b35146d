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
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/internal/funcutil"
	"golang.org/x/tools/container/intsets"
)

// Hierarchy is the class hierarchy of the analyzed program, as needed by the type manager and the object-sensitive
// context table.
type Hierarchy interface {
	// CanStoreType returns true if a value of type src can be stored in a location of type dst
	CanStoreType(src, dst pag.TypeID) bool

	// DirectSubclasses returns the classes that directly extend class
	DirectSubclasses(class pag.TypeID) []pag.TypeID

	// SubtypesOfIncluding returns t and all its transitive subtypes
	SubtypesOfIncluding(t pag.TypeID) []pag.TypeID

	// Implementers returns the top-most classes implementing iface
	Implementers(iface pag.TypeID) []pag.TypeID

	// IsInterface returns true if t is an interface type
	IsInterface(t pag.TypeID) bool

	// IsConcrete returns true if t is a class that can be instantiated
	IsConcrete(t pag.TypeID) bool
}

// ClassHierarchy is an in-memory single-inheritance hierarchy with interfaces.
type ClassHierarchy struct {
	types      *pag.NodeStore
	object     pag.TypeID
	super      map[pag.TypeID]pag.TypeID
	supers     map[pag.TypeID][]pag.TypeID // declared interfaces of classes, super-interfaces of interfaces
	subclasses map[pag.TypeID][]pag.TypeID
	interfaces intsets.Sparse
	abstract   intsets.Sparse
}

// NewClassHierarchy returns an empty hierarchy over the types of the store.
func NewClassHierarchy(types *pag.NodeStore) *ClassHierarchy {
	return &ClassHierarchy{
		types:      types,
		super:      map[pag.TypeID]pag.TypeID{},
		supers:     map[pag.TypeID][]pag.TypeID{},
		subclasses: map[pag.TypeID][]pag.TypeID{},
	}
}

// SetObject sets the root class of the hierarchy. Arrays can be stored in locations of that type.
func (h *ClassHierarchy) SetObject(t pag.TypeID) {
	h.object = t
}

// Object returns the root class of the hierarchy.
func (h *ClassHierarchy) Object() pag.TypeID {
	return h.object
}

// AddClass declares class t with superclass super (pag.NoType for a root) and the implemented interfaces.
func (h *ClassHierarchy) AddClass(t, super pag.TypeID, interfaces ...pag.TypeID) {
	if super != pag.NoType {
		h.super[t] = super
		h.subclasses[super] = append(h.subclasses[super], t)
	}
	h.supers[t] = append(h.supers[t], interfaces...)
}

// AddInterface declares interface t extending the given interfaces.
func (h *ClassHierarchy) AddInterface(t pag.TypeID, extends ...pag.TypeID) {
	h.interfaces.Insert(int(t))
	h.supers[t] = append(h.supers[t], extends...)
}

// SetAbstract marks class t as abstract.
func (h *ClassHierarchy) SetAbstract(t pag.TypeID) {
	h.abstract.Insert(int(t))
}

// IsInterface implements Hierarchy.
func (h *ClassHierarchy) IsInterface(t pag.TypeID) bool {
	return h.interfaces.Has(int(t))
}

// IsConcrete implements Hierarchy.
func (h *ClassHierarchy) IsConcrete(t pag.TypeID) bool {
	return !h.interfaces.Has(int(t)) && !h.abstract.Has(int(t))
}

// DirectSubclasses implements Hierarchy.
func (h *ClassHierarchy) DirectSubclasses(class pag.TypeID) []pag.TypeID {
	return h.subclasses[class]
}

// isSubtype returns true if src is dst or a transitive subtype of dst along superclass and interface edges.
func (h *ClassHierarchy) isSubtype(src, dst pag.TypeID) bool {
	visited := intsets.Sparse{}
	stack := []pag.TypeID{src}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == dst {
			return true
		}
		if !visited.Insert(int(cur)) {
			continue
		}
		if s, ok := h.super[cur]; ok {
			stack = append(stack, s)
		}
		stack = append(stack, h.supers[cur]...)
	}
	// every reference type is a subtype of the root class
	return dst == h.object && h.object != pag.NoType
}

// CanStoreType implements Hierarchy.
func (h *ClassHierarchy) CanStoreType(src, dst pag.TypeID) bool {
	if src == dst {
		return true
	}
	st, ok1 := h.types.Type(src)
	dt, ok2 := h.types.Type(dst)
	if !ok1 || !ok2 {
		return false
	}
	switch st.Kind {
	case pag.TypeArray:
		if dt.Kind != pag.TypeArray {
			return dst == h.object
		}
		se, _ := h.types.Type(st.Elem)
		de, _ := h.types.Type(dt.Elem)
		if se.Kind == pag.TypePrimitive || de.Kind == pag.TypePrimitive {
			return st.Elem == dt.Elem
		}
		return h.CanStoreType(st.Elem, dt.Elem)
	case pag.TypeRef:
		if dt.Kind != pag.TypeRef {
			return false
		}
		return h.isSubtype(src, dst)
	default:
		return false
	}
}

// SubtypesOfIncluding implements Hierarchy.
func (h *ClassHierarchy) SubtypesOfIncluding(t pag.TypeID) []pag.TypeID {
	res := []pag.TypeID{t}
	for _, other := range h.types.Types() {
		if other == t {
			continue
		}
		if ot, _ := h.types.Type(other); ot.Kind == pag.TypeRef && h.isSubtype(other, t) {
			res = append(res, other)
		}
	}
	return res
}

// Implementers implements Hierarchy. The result contains the classes implementing iface whose superclass does not
// itself implement iface.
func (h *ClassHierarchy) Implementers(iface pag.TypeID) []pag.TypeID {
	var res []pag.TypeID
	for _, t := range h.SubtypesOfIncluding(iface) {
		if t == iface || h.IsInterface(t) {
			continue
		}
		if s, ok := h.super[t]; ok && h.isSubtype(s, iface) {
			continue
		}
		res = append(res, t)
	}
	return res
}

// Classes returns the ids of all the declared classes and interfaces, sorted.
func (h *ClassHierarchy) Classes() []pag.TypeID {
	set := map[pag.TypeID]bool{}
	for t := range h.supers {
		set[t] = true
	}
	for t := range h.super {
		set[t] = true
	}
	return funcutil.SetToOrderedSlice(set)
}
