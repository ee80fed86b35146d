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
	"golang.org/x/tools/container/intsets"
)

// classMaskBuilder holds the state of one MakeClassTypeMasks run
type classMaskBuilder struct {
	m            *Manager
	class2allocs map[pag.TypeID][]pag.NodeID
	anySubtype   []pag.NodeID
	arrays       []pag.NodeID
	done         map[pag.TypeID]*intsets.Sparse
}

// MakeClassTypeMasks computes the type masks of every class and interface of the hierarchy by walking it downwards
// from root, instead of deciding each (allocation, type) pair separately:
//   - the mask of a class is the set of allocations of the class (if it is concrete) and the masks of its subclasses;
//   - a class without subclasses also admits every allocation of an any-subtype type;
//   - the mask of an interface is the union of the masks of its implementers, or the any-subtype allocations when
//     nothing implements it.
//
// Array allocations are admitted by the root. The masks replace the cached ones and are complete for the allocation
// nodes existing at the time of the call; later allocations are folded in by TypeMask.
func (m *Manager) MakeClassTypeMasks(root pag.TypeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.h == nil {
		return
	}
	allocs := m.nodes.AllocNodes()
	b := &classMaskBuilder{
		m:            m,
		class2allocs: map[pag.TypeID][]pag.NodeID{},
		done:         map[pag.TypeID]*intsets.Sparse{},
	}
	for _, n := range allocs {
		t, ok := m.nodes.Type(m.nodes.TypeOf(n))
		if !ok {
			continue
		}
		switch t.Kind {
		case pag.TypeRef:
			b.class2allocs[t.ID] = append(b.class2allocs[t.ID], n)
		case pag.TypeAnySubType:
			b.anySubtype = append(b.anySubtype, n)
		case pag.TypeArray:
			b.arrays = append(b.arrays, n)
		}
	}

	rootMask := b.classMask(root)
	for _, n := range b.arrays {
		rootMask.Insert(int(n))
	}
	for _, t := range m.nodes.Types() {
		if m.h.IsInterface(t) {
			b.interfaceMask(t)
		}
	}

	all := &intsets.Sparse{}
	for _, n := range allocs {
		all.Insert(int(n))
	}
	for t, mask := range b.done {
		negative := &intsets.Sparse{}
		negative.Difference(all, mask)
		m.typeMask[t] = mask
		m.negativeTypeMask[t] = negative
		m.cursor[t] = len(allocs)
	}
}

func (b *classMaskBuilder) classMask(class pag.TypeID) *intsets.Sparse {
	if mask, ok := b.done[class]; ok {
		return mask
	}
	mask := &intsets.Sparse{}
	b.done[class] = mask
	if b.m.h.IsConcrete(class) {
		for _, n := range b.class2allocs[class] {
			mask.Insert(int(n))
		}
	}
	subclasses := b.m.h.DirectSubclasses(class)
	if len(subclasses) == 0 {
		for _, n := range b.anySubtype {
			mask.Insert(int(n))
		}
		return mask
	}
	for _, sub := range subclasses {
		mask.UnionWith(b.classMask(sub))
	}
	return mask
}

func (b *classMaskBuilder) interfaceMask(iface pag.TypeID) *intsets.Sparse {
	if mask, ok := b.done[iface]; ok {
		return mask
	}
	mask := &intsets.Sparse{}
	b.done[iface] = mask
	implementers := b.m.h.Implementers(iface)
	for _, impl := range implementers {
		mask.UnionWith(b.classMask(impl))
	}
	if len(implementers) == 0 {
		for _, n := range b.anySubtype {
			mask.Insert(int(n))
		}
	}
	return mask
}
