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
	"fmt"
	"sync"

	"github.com/awslabs/ar-go-pta/analysis/pag"
	"golang.org/x/tools/container/intsets"
)

// ErrAnySubtypeDst is the panic value raised when an any-subtype type is used as the destination of a cast query.
// Such a type is never a legitimate cast target; seeing one is a bug in the client.
var ErrAnySubtypeDst = errors.New("any-subtype type used as cast destination")

// Manager answers type compatibility queries between static types and computes type masks: bit-vectors over
// allocation node numbers marking the allocations whose type is compatible with a given type.
//
// Both kinds of results are memoized. For cast queries, a positive and a negative bit-vector are kept per source type,
// indexed by destination type number. For type masks, a positive and a negative mask are kept per type, indexed by
// allocation node number; they are shared by the whole-universe and the incremental computations.
//
// A Manager is safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	nodes *pag.NodeStore
	h     Hierarchy

	castTrue  map[pag.TypeID]*intsets.Sparse
	castFalse map[pag.TypeID]*intsets.Sparse

	typeMask         map[pag.TypeID]*intsets.Sparse
	negativeTypeMask map[pag.TypeID]*intsets.Sparse

	// cursor[t] is the number of allocation nodes already folded in the whole-universe mask of t
	cursor map[pag.TypeID]int
}

// NewManager returns a type manager for the nodes of the store. If h is nil, every cast is considered safe.
func NewManager(nodes *pag.NodeStore, h Hierarchy) *Manager {
	m := &Manager{nodes: nodes, h: h}
	m.reset()
	return m
}

func (m *Manager) reset() {
	m.castTrue = map[pag.TypeID]*intsets.Sparse{}
	m.castFalse = map[pag.TypeID]*intsets.Sparse{}
	m.typeMask = map[pag.TypeID]*intsets.Sparse{}
	m.negativeTypeMask = map[pag.TypeID]*intsets.Sparse{}
	m.cursor = map[pag.TypeID]int{}
}

// SetHierarchy replaces the hierarchy and drops every cached result.
func (m *Manager) SetHierarchy(h Hierarchy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.h = h
	m.reset()
}

// Hierarchy returns the hierarchy used by the manager.
func (m *Manager) Hierarchy() Hierarchy {
	return m.h
}

// ClearTypeMask drops the cached type masks. Cast results are kept.
func (m *Manager) ClearTypeMask() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeMask = map[pag.TypeID]*intsets.Sparse{}
	m.negativeTypeMask = map[pag.TypeID]*intsets.Sparse{}
	m.cursor = map[pag.TypeID]int{}
}

// IsUnresolved returns true if the type (or the element type of an array type) is a reference type whose hierarchy
// has not been resolved.
func (m *Manager) IsUnresolved(t pag.TypeID) bool {
	typ, ok := m.nodes.Type(t)
	if !ok {
		return false
	}
	if typ.Kind == pag.TypeArray {
		typ, ok = m.nodes.Type(typ.Elem)
		if !ok {
			return false
		}
	}
	return typ.Kind == pag.TypeRef && typ.Unresolved
}

// CastNeverFails returns true if a value of static type src can always be assigned to a location of static type dst.
// Panics with ErrAnySubtypeDst if dst is an any-subtype type.
func (m *Manager) CastNeverFails(src, dst pag.TypeID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.castNeverFails(src, dst)
}

func (m *Manager) castNeverFails(src, dst pag.TypeID) bool {
	if m.h == nil || dst == pag.NoType || dst == src {
		return true
	}
	if src == pag.NoType {
		return false
	}
	trueCache := m.castTrue[src]
	if trueCache == nil {
		trueCache = &intsets.Sparse{}
		m.castTrue[src] = trueCache
	}
	if trueCache.Has(int(dst)) {
		return true
	}
	falseCache := m.castFalse[src]
	if falseCache == nil {
		falseCache = &intsets.Sparse{}
		m.castFalse[src] = falseCache
	}
	if falseCache.Has(int(dst)) {
		return false
	}
	result := m.castNeverFailsInternal(src, dst)
	if result {
		trueCache.Insert(int(dst))
	} else {
		falseCache.Insert(int(dst))
	}
	return result
}

func (m *Manager) castNeverFailsInternal(src, dst pag.TypeID) bool {
	st, _ := m.nodes.Type(src)
	dt, _ := m.nodes.Type(dst)
	if st.Kind == pag.TypeNull || st.Kind == pag.TypeAnySubType {
		return true
	}
	if dt.Kind == pag.TypeNull {
		return false
	}
	if dt.Kind == pag.TypeAnySubType {
		panic(fmt.Errorf("%w: src=%s dst=%s", ErrAnySubtypeDst, st.Name, dt.Name))
	}
	return m.h.CanStoreType(src, dst)
}

// masks returns the positive and negative masks of t, creating them if necessary.
func (m *Manager) masks(t pag.TypeID) (*intsets.Sparse, *intsets.Sparse) {
	mask := m.typeMask[t]
	if mask == nil {
		mask = &intsets.Sparse{}
		m.typeMask[t] = mask
	}
	negative := m.negativeTypeMask[t]
	if negative == nil {
		negative = &intsets.Sparse{}
		m.negativeTypeMask[t] = negative
	}
	return mask, negative
}

// decide computes whether allocation node n belongs to the mask of t, unless it has been computed already.
func (m *Manager) decide(t pag.TypeID, n pag.NodeID, mask, negative *intsets.Sparse) bool {
	if mask.Has(int(n)) {
		return true
	}
	if negative.Has(int(n)) {
		return false
	}
	if m.castNeverFails(m.nodes.TypeOf(n), t) {
		mask.Insert(int(n))
		return true
	}
	negative.Insert(int(n))
	return false
}

// TypeMask returns the mask of type t over every allocation node of the universe. Allocation nodes created since the
// last call are folded in. The returned set is a copy.
func (m *Manager) TypeMask(t pag.TypeID) *intsets.Sparse {
	m.mu.Lock()
	defer m.mu.Unlock()
	mask, negative := m.masks(t)
	fresh := m.nodes.AllocNodesFrom(m.cursor[t])
	for _, n := range fresh {
		m.decide(t, n, mask, negative)
	}
	m.cursor[t] += len(fresh)
	res := &intsets.Sparse{}
	res.Copy(mask)
	return res
}

// TypeMaskOf returns the mask of type t, computing membership only for the allocation nodes in candidates that have
// not been decided before. The result may contain allocation nodes outside of candidates that were decided by earlier
// calls; callers intersect it with their own set. The returned set is a copy.
func (m *Manager) TypeMaskOf(t pag.TypeID, candidates *intsets.Sparse) *intsets.Sparse {
	m.mu.Lock()
	defer m.mu.Unlock()
	mask, negative := m.masks(t)
	var x int
	it := &intsets.Sparse{}
	it.Copy(candidates)
	for it.TakeMin(&x) {
		if n, ok := m.nodes.Node(pag.NodeID(x)); ok && n.IsAlloc() {
			m.decide(t, n.ID, mask, negative)
		}
	}
	res := &intsets.Sparse{}
	res.Copy(mask)
	return res
}

// Admits returns true if the allocation node n is in the mask of type t. Like TypeMaskOf, it only computes the
// answer if it is not cached.
func (m *Manager) Admits(t pag.TypeID, n pag.NodeID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	mask, negative := m.masks(t)
	return m.decide(t, n, mask, negative)
}

// Filter returns a visitor that forwards to v the objects whose type is compatible with t.
func (m *Manager) Filter(t pag.TypeID, v pag.Visitor) pag.Visitor {
	return pag.VisitorFunc(func(o pag.IntervalObject) {
		if m.Admits(t, o.Obj) {
			v.Visit(o)
		}
	})
}
