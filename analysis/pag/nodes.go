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
	"fmt"
	"strings"
	"sync"
)

// Kind is the role of a node in the pointer assignment graph.
type Kind int

const (
	// KindVariable is a local or global variable node
	KindVariable Kind = iota + 1
	// KindAlloc is an allocation node. The AllocKind of the node tells which context abstraction it carries.
	KindAlloc
	// KindAllocField is the node of a field of the objects allocated at an allocation node
	KindAllocField
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "var"
	case KindAlloc:
		return "alloc"
	case KindAllocField:
		return "alloc-field"
	default:
		return "invalid"
	}
}

// AllocKind is the context abstraction attached to an allocation node.
type AllocKind int

const (
	// AllocInsensitive is a plain allocation site
	AllocInsensitive AllocKind = iota
	// AllocClassConstant is the allocation standing for a class constant. It has no enclosing method.
	AllocClassConstant
	// AllocObjectSensitive is an allocation site qualified by a chain of enclosing allocation sites
	AllocObjectSensitive
)

func (k AllocKind) String() string {
	switch k {
	case AllocInsensitive:
		return "insensitive"
	case AllocClassConstant:
		return "class-constant"
	case AllocObjectSensitive:
		return "object-sensitive"
	default:
		return "invalid"
	}
}

// Node is the record of one node. Only the fields relevant to the Kind (and AllocKind) of the node are set.
type Node struct {
	ID     NodeID
	Kind   Kind
	Name   string
	Type   TypeID
	Method MethodID

	// AllocKind is the context abstraction of an allocation node
	AllocKind AllocKind

	// Site is the allocation site identity of an allocation node: the node itself for insensitive allocations and
	// class constants, the context-free base allocation for object-sensitive ones.
	Site NodeID

	// Context is the chain of enclosing allocation sites of an object-sensitive allocation. Empty slots are NoNode.
	// The slice must not be modified.
	Context []NodeID

	// Base and Field identify the allocation and the field of an alloc-field node
	Base  NodeID
	Field FieldID
}

// IsAlloc returns true if the node is an allocation node of any context kind.
func (n Node) IsAlloc() bool {
	return n.Kind == KindAlloc
}

func (n Node) String() string {
	switch n.Kind {
	case KindAlloc:
		if n.AllocKind == AllocObjectSensitive {
			var sb strings.Builder
			fmt.Fprintf(&sb, "alloc#%d %s", n.ID, n.Name)
			for _, c := range n.Context {
				if c != NoNode {
					fmt.Fprintf(&sb, "[%d]", c)
				}
			}
			return sb.String()
		}
		return fmt.Sprintf("alloc#%d %s", n.ID, n.Name)
	case KindAllocField:
		return fmt.Sprintf("field#%d %s", n.ID, n.Name)
	default:
		return fmt.Sprintf("var#%d %s", n.ID, n.Name)
	}
}

type allocFieldKey struct {
	alloc NodeID
	field FieldID
}

// NodeStore is the numbered universe of pointer nodes, types, methods and fields. Every entity is numbered densely and
// the store only grows. A NodeStore is safe for concurrent use.
type NodeStore struct {
	mu sync.RWMutex

	// nodes[0] is the unused NoNode slot
	nodes       []Node
	allocs      []NodeID
	allocFields map[allocFieldKey]NodeID
	classConsts map[string]NodeID

	types      []Type
	typeByName map[string]TypeID
	nullType   TypeID

	methods      []string
	methodByName map[string]MethodID

	fields      []string
	fieldByName map[string]FieldID
}

// RootMethodName is the name of the synthetic root method.
const RootMethodName = "<root>"

// NewNodeStore returns an empty store containing only the root method and the null type.
func NewNodeStore() *NodeStore {
	s := &NodeStore{
		nodes:        []Node{{}},
		allocFields:  map[allocFieldKey]NodeID{},
		classConsts:  map[string]NodeID{},
		types:        []Type{{}},
		typeByName:   map[string]TypeID{},
		methods:      []string{RootMethodName},
		methodByName: map[string]MethodID{RootMethodName: RootMethod},
		fields:       []string{""},
		fieldByName:  map[string]FieldID{},
	}
	s.nullType = s.addTypeLocked(Type{Name: NullTypeName, Kind: TypeNull})
	return s
}

// AddMethod interns a method by name.
func (s *NodeStore) AddMethod(name string) MethodID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.methodByName[name]; ok {
		return id
	}
	id := MethodID(len(s.methods))
	s.methods = append(s.methods, name)
	s.methodByName[name] = id
	return id
}

// LookupMethod returns the id of the method with the given name.
func (s *NodeStore) LookupMethod(name string) (MethodID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.methodByName[name]
	return id, ok
}

// MethodName returns the name of the method, or "" if m is not a valid method.
func (s *NodeStore) MethodName(m MethodID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m < 0 || int(m) >= len(s.methods) {
		return ""
	}
	return s.methods[m]
}

// NumMethods returns the number of methods, the root included.
func (s *NodeStore) NumMethods() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.methods)
}

// AddField interns a field signature by name.
func (s *NodeStore) AddField(name string) FieldID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.fieldByName[name]; ok {
		return id
	}
	id := FieldID(len(s.fields))
	s.fields = append(s.fields, name)
	s.fieldByName[name] = id
	return id
}

// LookupField returns the id of the field with the given name.
func (s *NodeStore) LookupField(name string) (FieldID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.fieldByName[name]
	return id, ok
}

// FieldName returns the name of the field.
func (s *NodeStore) FieldName(f FieldID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f <= 0 || int(f) >= len(s.fields) {
		return ""
	}
	return s.fields[f]
}

func (s *NodeStore) addNodeLocked(n Node) NodeID {
	n.ID = NodeID(len(s.nodes))
	s.nodes = append(s.nodes, n)
	if n.Kind == KindAlloc {
		s.allocs = append(s.allocs, n.ID)
	}
	return n.ID
}

// AddVariable adds a new variable node of static type typ declared in method m.
func (s *NodeStore) AddVariable(name string, typ TypeID, m MethodID) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNodeLocked(Node{Kind: KindVariable, Name: name, Type: typ, Method: m})
}

// AddAlloc adds a new context-insensitive allocation node of type typ in method m.
func (s *NodeStore) AddAlloc(name string, typ TypeID, m MethodID) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := Node{Kind: KindAlloc, Name: name, Type: typ, Method: m, AllocKind: AllocInsensitive}
	id := s.addNodeLocked(n)
	s.nodes[id].Site = id
	return id
}

// AddClassConstant returns the allocation node representing the class constant with the given name. The node is
// created on first use and has type classType and no enclosing method.
func (s *NodeStore) AddClassConstant(name string, classType TypeID) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.classConsts[name]; ok {
		return id
	}
	n := Node{Kind: KindAlloc, Name: name, Type: classType, Method: NoMethod, AllocKind: AllocClassConstant}
	id := s.addNodeLocked(n)
	s.nodes[id].Site = id
	s.classConsts[name] = id
	return id
}

// AddObjSensAlloc numbers a new object-sensitive allocation node for the allocation site base and the context chain.
// The store does not deduplicate contexts; callers intern them first (see package objsens).
// Panics if base is not an allocation node.
func (s *NodeStore) AddObjSensAlloc(base NodeID, chain []NodeID) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(base) <= 0 || int(base) >= len(s.nodes) || s.nodes[base].Kind != KindAlloc {
		panic(fmt.Sprintf("object-sensitive allocation on non-allocation node %d", base))
	}
	b := s.nodes[base]
	n := Node{
		Kind:      KindAlloc,
		Name:      b.Name,
		Type:      b.Type,
		Method:    b.Method,
		AllocKind: AllocObjectSensitive,
		Site:      b.Site,
		Context:   chain,
	}
	return s.addNodeLocked(n)
}

// AddAllocField returns the node of field f of the objects allocated at alloc, creating it if necessary.
func (s *NodeStore) AddAllocField(alloc NodeID, f FieldID) NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := allocFieldKey{alloc, f}
	if id, ok := s.allocFields[key]; ok {
		return id
	}
	name := s.nodes[alloc].Name + "." + s.fields[f]
	id := s.addNodeLocked(Node{Kind: KindAllocField, Name: name, Method: NoMethod, Base: alloc, Field: f})
	s.allocFields[key] = id
	return id
}

// FindAllocField returns the node of field f of alloc if it has been created.
func (s *NodeStore) FindAllocField(alloc NodeID, f FieldID) (NodeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.allocFields[allocFieldKey{alloc, f}]
	return id, ok
}

// Node returns the record of node id. The second value is false if id is not a valid node.
func (s *NodeStore) Node(id NodeID) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) <= 0 || int(id) >= len(s.nodes) {
		return Node{}, false
	}
	return s.nodes[id], true
}

// Method returns the enclosing method of node id, or NoMethod.
func (s *NodeStore) Method(id NodeID) MethodID {
	n, ok := s.Node(id)
	if !ok {
		return NoMethod
	}
	return n.Method
}

// TypeOf returns the static type of node id, or NoType.
func (s *NodeStore) TypeOf(id NodeID) TypeID {
	n, ok := s.Node(id)
	if !ok {
		return NoType
	}
	return n.Type
}

// NumNodes returns one plus the largest node id.
func (s *NodeStore) NumNodes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// AllocNodes returns the ids of all allocation nodes, in creation order.
func (s *NodeStore) AllocNodes() []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]NodeID, len(s.allocs))
	copy(res, s.allocs)
	return res
}

// AllocNodesFrom returns the allocation nodes created after the first start ones. It is used by clients that
// process allocations incrementally.
func (s *NodeStore) AllocNodesFrom(start int) []NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if start >= len(s.allocs) {
		return nil
	}
	res := make([]NodeID, len(s.allocs)-start)
	copy(res, s.allocs[start:])
	return res
}
