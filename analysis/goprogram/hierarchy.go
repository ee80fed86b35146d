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
	"go/types"
	"sort"
	"sync"

	"github.com/awslabs/ar-go-pta/analysis/pag"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/types/typeutil"
)

// GoHierarchy implements typemgr.Hierarchy over go/types. Go has no subclassing: a type is a subtype of another when
// it is assignable to it, and the implementers of an interface are the registered concrete types assignable to it.
//
// Types are registered lazily by TypeID; identical types get the same id.
type GoHierarchy struct {
	mu    sync.RWMutex
	nodes *pag.NodeStore
	ids   typeutil.Map
	byID  map[pag.TypeID]types.Type
}

// NewGoHierarchy returns an empty hierarchy registering its types in nodes.
func NewGoHierarchy(nodes *pag.NodeStore) *GoHierarchy {
	return &GoHierarchy{nodes: nodes, byID: map[pag.TypeID]types.Type{}}
}

// TypeID returns the id of t, registering it if needed. Types that cannot point are primitive; the type of nil is the
// null type of the store.
func (h *GoHierarchy) TypeID(t types.Type) pag.TypeID {
	if t == nil {
		return pag.NoType
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.ids.At(t).(pag.TypeID); ok {
		return id
	}
	var id pag.TypeID
	if b, ok := t.(*types.Basic); ok && b.Kind() == types.UntypedNil {
		id = h.nodes.NullType()
	} else {
		kind := pag.TypePrimitive
		if pointer.CanPoint(t) {
			kind = pag.TypeRef
		}
		name := types.TypeString(t, nil)
		// distinct types may print the same, e.g. local types of different functions
		for i := 1; ; i++ {
			if _, taken := h.nodes.LookupType(name); !taken {
				break
			}
			name = fmt.Sprintf("%s#%d", types.TypeString(t, nil), i)
		}
		id = h.nodes.AddType(name, kind)
	}
	h.ids.Set(t, id)
	h.byID[id] = t
	return id
}

// GoType returns the type registered under id.
func (h *GoHierarchy) GoType(id pag.TypeID) (types.Type, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.byID[id]
	return t, ok
}

func (h *GoHierarchy) pair(src, dst pag.TypeID) (types.Type, types.Type, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok1 := h.byID[src]
	d, ok2 := h.byID[dst]
	return s, d, ok1 && ok2
}

// CanStoreType implements typemgr.Hierarchy.
func (h *GoHierarchy) CanStoreType(src, dst pag.TypeID) bool {
	if src == dst {
		return true
	}
	s, d, ok := h.pair(src, dst)
	if !ok {
		return false
	}
	return types.AssignableTo(s, d)
}

// DirectSubclasses implements typemgr.Hierarchy. Go types have no subclasses.
func (h *GoHierarchy) DirectSubclasses(pag.TypeID) []pag.TypeID {
	return nil
}

// SubtypesOfIncluding implements typemgr.Hierarchy.
func (h *GoHierarchy) SubtypesOfIncluding(t pag.TypeID) []pag.TypeID {
	res := []pag.TypeID{t}
	for _, other := range h.referenceTypes() {
		if other != t && h.CanStoreType(other, t) {
			res = append(res, other)
		}
	}
	return res
}

// Implementers implements typemgr.Hierarchy.
func (h *GoHierarchy) Implementers(iface pag.TypeID) []pag.TypeID {
	var res []pag.TypeID
	for _, other := range h.referenceTypes() {
		if other != iface && !h.IsInterface(other) && h.CanStoreType(other, iface) {
			res = append(res, other)
		}
	}
	return res
}

// IsInterface implements typemgr.Hierarchy.
func (h *GoHierarchy) IsInterface(t pag.TypeID) bool {
	typ, ok := h.GoType(t)
	return ok && types.IsInterface(typ)
}

// IsConcrete implements typemgr.Hierarchy.
func (h *GoHierarchy) IsConcrete(t pag.TypeID) bool {
	typ, ok := h.GoType(t)
	return ok && !types.IsInterface(typ)
}

// referenceTypes returns the registered types that can be allocated. The null type and primitive types are left out:
// nil is assignable to every pointer and interface but is never the type of an allocation.
func (h *GoHierarchy) referenceTypes() []pag.TypeID {
	null := h.nodes.NullType()
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := make([]pag.TypeID, 0, len(h.byID))
	for id := range h.byID {
		if id == null {
			continue
		}
		if typ, ok := h.nodes.Type(id); !ok || typ.Kind != pag.TypeRef {
			continue
		}
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
