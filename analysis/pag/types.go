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

// TypeKind is the closed set of static type shapes the analysis distinguishes.
type TypeKind int

const (
	// TypeRef is a class or interface type
	TypeRef TypeKind = iota
	// TypeArray is an array type; Elem is the element type
	TypeArray
	// TypeNull is the type of the null constant
	TypeNull
	// TypeAnySubType stands for "any subtype of Base"; it is the type of allocations whose concrete class is unknown
	TypeAnySubType
	// TypePrimitive is any non-reference type
	TypePrimitive
)

func (k TypeKind) String() string {
	switch k {
	case TypeRef:
		return "ref"
	case TypeArray:
		return "array"
	case TypeNull:
		return "null"
	case TypeAnySubType:
		return "any-subtype"
	case TypePrimitive:
		return "primitive"
	default:
		return "unknown"
	}
}

// Type is the record of a static type in the universe.
type Type struct {
	ID   TypeID
	Name string
	Kind TypeKind
	// Elem is the element type of an array type
	Elem TypeID
	// Base is the bound of an any-subtype type
	Base TypeID
	// Unresolved is true when the hierarchy of the type could not be loaded
	Unresolved bool
}

// IsRefLike returns true if values of the type can be stored in a pointer node.
func (t Type) IsRefLike() bool {
	return t.Kind == TypeRef || t.Kind == TypeArray || t.Kind == TypeNull || t.Kind == TypeAnySubType
}

// NullTypeName is the name under which the null type is interned in every store.
const NullTypeName = "<null>"

// AddType interns a type by name. If a type with the same name already exists, its id is returned and the kind
// argument is ignored.
func (s *NodeStore) AddType(name string, kind TypeKind) TypeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTypeLocked(Type{Name: name, Kind: kind})
}

// AddArrayType interns the array type with element type elem.
func (s *NodeStore) AddArrayType(elem TypeID) TypeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTypeLocked(Type{Name: s.types[elem].Name + "[]", Kind: TypeArray, Elem: elem})
}

// AddAnySubType interns the type standing for any subtype of base.
func (s *NodeStore) AddAnySubType(base TypeID) TypeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTypeLocked(Type{Name: "Any_subtype_of_" + s.types[base].Name, Kind: TypeAnySubType, Base: base})
}

// MarkUnresolved flags the type as unresolved: its class hierarchy is not available.
func (s *NodeStore) MarkUnresolved(t TypeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(t) > 0 && int(t) < len(s.types) {
		s.types[t].Unresolved = true
	}
}

func (s *NodeStore) addTypeLocked(t Type) TypeID {
	if id, ok := s.typeByName[t.Name]; ok {
		return id
	}
	t.ID = TypeID(len(s.types))
	s.types = append(s.types, t)
	s.typeByName[t.Name] = t.ID
	return t.ID
}

// NullType returns the id of the null type.
func (s *NodeStore) NullType() TypeID {
	return s.nullType
}

// Type returns the type record for id. The second value is false if id is not a valid type.
func (s *NodeStore) Type(id TypeID) (Type, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) <= 0 || int(id) >= len(s.types) {
		return Type{}, false
	}
	return s.types[id], true
}

// LookupType returns the id of the type with the given name.
func (s *NodeStore) LookupType(name string) (TypeID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.typeByName[name]
	return id, ok
}

// NumTypes returns one plus the largest type id.
func (s *NodeStore) NumTypes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.types)
}

// Types returns all the valid type ids in increasing order.
func (s *NodeStore) Types() []TypeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]TypeID, 0, len(s.types)-1)
	for i := 1; i < len(s.types); i++ {
		ids = append(ids, TypeID(i))
	}
	return ids
}
