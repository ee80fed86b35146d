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

package objsens

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/analysis/typemgr"
	"golang.org/x/tools/container/intsets"
)

var (
	// ErrContextIndex is the panic value raised when a context slot outside of [1, k-1] is requested.
	ErrContextIndex = errors.New("invalid context index for object-sensitive allocation")

	// ErrUnsupportedContext is the panic value raised when an allocation is qualified by a node that is not an
	// allocation.
	ErrUnsupportedContext = errors.New("unsupported context on allocation")
)

// Record is the arena entry of an interned object-sensitive allocation.
type Record struct {
	// Node is the number of the allocation in the node store
	Node pag.NodeID
	// Site is the context-free allocation site
	Site pag.NodeID
	// Context holds the k-1 enclosing allocation sites, closest first. Empty slots are pag.NoNode.
	Context []pag.NodeID
}

// Table interns object-sensitive allocations: an allocation site qualified by the chain of the allocation sites of
// its enclosing receiver objects, up to depth k. Two allocations are the same node if and only if they have the same
// site and the same chain.
//
// The allocations of the types of the no-context list (and of their subtypes) are never qualified.
//
// A Table is safe for concurrent use. It calls the node store while holding its own lock.
type Table struct {
	mu    sync.Mutex
	nodes *pag.NodeStore
	h     typemgr.Hierarchy

	k         int
	noContext intsets.Sparse

	records []Record
	byKey   map[string]int
	byNode  map[pag.NodeID]int
}

// NewTable returns a table numbering its allocations in nodes. The hierarchy is used to expand the no-context list to
// subtypes; it may be nil. The table must be Reset before use.
func NewTable(nodes *pag.NodeStore, h typemgr.Hierarchy) *Table {
	t := &Table{nodes: nodes, h: h}
	t.Reset(1, nil)
	return t
}

// Reset clears the table and starts a new configuration with depth k (k-1 context slots) and the given types
// excluded from object sensitivity. Nodes created by earlier configurations stay in the node store but are no
// longer known to the table.
func (t *Table) Reset(k int, noContext []pag.TypeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if k < 1 {
		k = 1
	}
	t.k = k
	t.records = nil
	t.byKey = map[string]int{}
	t.byNode = map[pag.NodeID]int{}
	t.noContext.Clear()
	for _, typ := range noContext {
		t.noContext.Insert(int(typ))
		if t.h == nil {
			continue
		}
		for _, sub := range t.h.SubtypesOfIncluding(typ) {
			t.noContext.Insert(int(sub))
		}
	}
}

// K returns the depth of the current configuration.
func (t *Table) K() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.k
}

// NoContext returns true if allocations of type typ are never qualified.
func (t *Table) NoContext(typ pag.TypeID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.noContext.Has(int(typ))
}

// Intern returns the object-sensitive allocation for the allocation site of base, created in a method whose receiver
// is the allocation enclosing. The chain is the site of enclosing followed by the chain of enclosing, shortened to
// k-1 sites: the oldest site of the chain of enclosing falls off.
//
// Panics with ErrUnsupportedContext if enclosing is not an allocation node.
func (t *Table) Intern(base, enclosing pag.NodeID) pag.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.allocNode(base)
	chain := make([]pag.NodeID, t.k-1)
	if t.noContext.Has(int(b.Type)) {
		return t.internLocked(b, chain)
	}
	ctx, ok := t.nodes.Node(enclosing)
	if !ok || !ctx.IsAlloc() {
		panic(fmt.Errorf("%w: %d qualifying %s", ErrUnsupportedContext, enclosing, b))
	}
	if len(chain) == 0 {
		return t.internLocked(b, chain)
	}
	switch ctx.AllocKind {
	case pag.AllocObjectSensitive:
		chain[0] = ctx.Site
		copy(chain[1:], ctx.Context)
	case pag.AllocInsensitive, pag.AllocClassConstant:
		chain[0] = ctx.Site
	default:
		panic(fmt.Errorf("%w: %s qualifying %s", ErrUnsupportedContext, ctx, b))
	}
	return t.internLocked(b, chain)
}

// InternContextless returns the object-sensitive allocation of base with an empty chain.
func (t *Table) InternContextless(base pag.NodeID) pag.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.internLocked(t.allocNode(base), make([]pag.NodeID, t.k-1))
}

func (t *Table) allocNode(base pag.NodeID) pag.Node {
	b, ok := t.nodes.Node(base)
	if !ok || !b.IsAlloc() {
		panic(fmt.Errorf("%w: %d is not an allocation", ErrUnsupportedContext, base))
	}
	return b
}

func (t *Table) internLocked(base pag.Node, chain []pag.NodeID) pag.NodeID {
	key := recordKey(base.Site, chain)
	if i, ok := t.byKey[key]; ok {
		return t.records[i].Node
	}
	id := t.nodes.AddObjSensAlloc(base.ID, chain)
	t.records = append(t.records, Record{Node: id, Site: base.Site, Context: chain})
	t.byKey[key] = len(t.records) - 1
	t.byNode[id] = len(t.records) - 1
	return id
}

// recordKey encodes the site and the chain as a string usable as a map key
func recordKey(site pag.NodeID, chain []pag.NodeID) string {
	buf := make([]byte, 0, binary.MaxVarintLen64*(len(chain)+1))
	buf = binary.AppendUvarint(buf, uint64(site))
	for _, c := range chain {
		buf = binary.AppendUvarint(buf, uint64(c))
	}
	return string(buf)
}

func containsSite(chain []pag.NodeID, site pag.NodeID) bool {
	for _, c := range chain {
		if c == site {
			return true
		}
	}
	return false
}

// Record returns the arena entry of the object-sensitive allocation n.
func (t *Table) Record(n pag.NodeID) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byNode[n]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// Context returns the i-th enclosing allocation site of n, for 1 <= i <= k-1. It returns pag.NoNode for an empty
// slot, or if n is not an allocation of the table.
// Panics with ErrContextIndex if i is out of range.
func (t *Table) Context(n pag.NodeID, i int) pag.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 1 || i >= t.k {
		panic(fmt.Errorf("%w: %d not in [1, %d]", ErrContextIndex, i, t.k-1))
	}
	r, ok := t.byNode[n]
	if !ok {
		return pag.NoNode
	}
	return t.records[r].Context[i-1]
}

// ContainsSite returns true if site is in the chain of n.
func (t *Table) ContainsSite(n pag.NodeID, site pag.NodeID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.byNode[n]
	return ok && site != pag.NoNode && containsSite(t.records[r].Context, site)
}

// Len returns the number of allocations interned since the last Reset.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Records returns a copy of the arena, in interning order.
func (t *Table) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := make([]Record, len(t.records))
	copy(res, t.records)
	return res
}

func (t *Table) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "object-sensitive allocations (k=%d): %d\n", t.k, len(t.records))
	for _, r := range t.records {
		n, _ := t.nodes.Node(r.Node)
		sb.WriteString("  " + n.String() + "\n")
	}
	return sb.String()
}
