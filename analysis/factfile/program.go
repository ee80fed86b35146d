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

package factfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/awslabs/ar-go-pta/analysis/cgbuild"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/analysis/typemgr"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownName is returned when a fact file refers to an undeclared method, type, node or field
	ErrUnknownName = errors.New("unknown name")

	// ErrInvalid is returned when a fact file is syntactically valid yaml but does not describe a program
	ErrInvalid = errors.New("invalid fact file")
)

// Program is a program loaded from a fact file.
type Program struct {
	// Name is the name of the file the program has been loaded from
	Name string
	// File is the raw content of the fact file
	File *File

	Nodes     *pag.NodeStore
	Hierarchy *typemgr.ClassHierarchy
	Types     *typemgr.Manager

	// Facts holds the points-to facts; it is filled by Build
	Facts *pag.FactStore
	// Result is the frozen call graph; it is set by Build
	Result *cgbuild.Result
	// Builder is the builder that produced Result
	Builder *cgbuild.Builder

	names     map[string]pag.NodeID
	nodeNames map[pag.NodeID]string
	calls     map[pag.MethodID][]pag.CallSite
}

// Load reads and parses the fact file filename
func Load(filename string) (*Program, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read fact file: %w", err)
	}
	return Parse(filename, b)
}

// LoadFS reads and parses the fact file name in fsys
func LoadFS(fsys fs.FS, name string) (*Program, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("could not read fact file: %w", err)
	}
	return Parse(name, b)
}

// Parse parses the content b of the fact file name. It declares the types, methods, variables and allocations of
// the program; the rest of the file is interpreted by Build.
func Parse(name string, b []byte) (*Program, error) {
	f := &File{}
	if err := yaml.Unmarshal(b, f); err != nil {
		return nil, fmt.Errorf("could not unmarshal fact file %s: %w", name, err)
	}
	p := &Program{
		Name:      name,
		File:      f,
		Nodes:     pag.NewNodeStore(),
		names:     map[string]pag.NodeID{},
		nodeNames: map[pag.NodeID]string{},
		calls:     map[pag.MethodID][]pag.CallSite{},
	}
	p.Hierarchy = typemgr.NewClassHierarchy(p.Nodes)
	p.Types = typemgr.NewManager(p.Nodes, p.Hierarchy)
	if err := p.declare(); err != nil {
		return nil, fmt.Errorf("in fact file %s: %w", name, err)
	}
	return p, nil
}

func (p *Program) declare() error {
	f := p.File
	for _, prim := range f.Primitives {
		p.Nodes.AddType(prim, pag.TypePrimitive)
	}
	for _, c := range f.Classes {
		if c.Name == "" {
			return fmt.Errorf("%w: class without name", ErrInvalid)
		}
		p.Nodes.AddType(c.Name, pag.TypeRef)
	}
	for _, c := range f.Classes {
		t, _ := p.Nodes.LookupType(c.Name)
		var supers []pag.TypeID
		for _, s := range c.Interfaces {
			st, ok := p.Nodes.LookupType(s)
			if !ok {
				return fmt.Errorf("interface %q of %s: %w", s, c.Name, ErrUnknownName)
			}
			supers = append(supers, st)
		}
		if c.Interface {
			p.Hierarchy.AddInterface(t, supers...)
		} else {
			super := pag.NoType
			if c.Super != "" {
				st, ok := p.Nodes.LookupType(c.Super)
				if !ok {
					return fmt.Errorf("superclass %q of %s: %w", c.Super, c.Name, ErrUnknownName)
				}
				super = st
			}
			p.Hierarchy.AddClass(t, super, supers...)
		}
		if c.Abstract {
			p.Hierarchy.SetAbstract(t)
		}
		if c.Unresolved {
			p.Nodes.MarkUnresolved(t)
		}
	}
	if f.Object != "" {
		t, ok := p.Nodes.LookupType(f.Object)
		if !ok {
			return fmt.Errorf("root class %q: %w", f.Object, ErrUnknownName)
		}
		p.Hierarchy.SetObject(t)
	}

	for _, m := range f.Methods {
		if m == pag.RootMethodName {
			return fmt.Errorf("%w: %s is reserved", ErrInvalid, m)
		}
		p.Nodes.AddMethod(m)
	}
	for _, e := range f.Edges {
		cs, err := p.CallSite(e)
		if err != nil {
			return err
		}
		p.calls[cs.Caller] = append(p.calls[cs.Caller], cs)
	}

	for _, v := range f.Variables {
		m, err := p.method(v.Method)
		if err != nil {
			return err
		}
		t, err := p.Type(v.Type)
		if err != nil {
			return err
		}
		if err := p.name(v.Name, p.Nodes.AddVariable(v.Name, t, m)); err != nil {
			return err
		}
	}
	for _, a := range f.Allocs {
		t, err := p.Type(a.Type)
		if err != nil {
			return err
		}
		var id pag.NodeID
		if a.ClassConstant {
			id = p.Nodes.AddClassConstant(a.Name, t)
		} else {
			m, err := p.method(a.Method)
			if err != nil {
				return err
			}
			id = p.Nodes.AddAlloc(a.Name, t, m)
		}
		if err := p.name(a.Name, id); err != nil {
			return err
		}
	}
	return nil
}

// name binds a node name
func (p *Program) name(name string, id pag.NodeID) error {
	if name == "" {
		return fmt.Errorf("%w: node without name", ErrInvalid)
	}
	if _, ok := p.names[name]; ok {
		return fmt.Errorf("%w: node %q declared twice", ErrInvalid, name)
	}
	p.names[name] = id
	p.nodeNames[id] = name
	return nil
}

func (p *Program) method(name string) (pag.MethodID, error) {
	m, ok := p.Nodes.LookupMethod(name)
	if !ok {
		return pag.NoMethod, fmt.Errorf("method %q: %w", name, ErrUnknownName)
	}
	return m, nil
}

// Method returns the id of the method with the given name
func (p *Program) Method(name string) (pag.MethodID, error) {
	return p.method(name)
}

// Node returns the id of the node with the given name
func (p *Program) Node(name string) (pag.NodeID, error) {
	id, ok := p.names[name]
	if !ok {
		return pag.NoNode, fmt.Errorf("node %q: %w", name, ErrUnknownName)
	}
	return id, nil
}

// NodeName returns the name of node id in the fact file
func (p *Program) NodeName(id pag.NodeID) string {
	if name, ok := p.nodeNames[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// Type resolves a type name. The empty name is pag.NoType.
func (p *Program) Type(name string) (pag.TypeID, error) {
	switch {
	case name == "":
		return pag.NoType, nil
	case name == "null":
		return p.Nodes.NullType(), nil
	case strings.HasSuffix(name, "[]"):
		elem, err := p.Type(strings.TrimSuffix(name, "[]"))
		if err != nil {
			return pag.NoType, err
		}
		return p.Nodes.AddArrayType(elem), nil
	case strings.HasPrefix(name, "any "):
		base, err := p.Type(strings.TrimPrefix(name, "any "))
		if err != nil {
			return pag.NoType, err
		}
		return p.Nodes.AddAnySubType(base), nil
	}
	t, ok := p.Nodes.LookupType(name)
	if !ok {
		return pag.NoType, fmt.Errorf("type %q: %w", name, ErrUnknownName)
	}
	return t, nil
}

// CallSite resolves the methods of a call edge
func (p *Program) CallSite(e Edge) (pag.CallSite, error) {
	caller, err := p.method(e.Caller)
	if err != nil {
		return pag.CallSite{}, err
	}
	callee, err := p.method(e.Callee)
	if err != nil {
		return pag.CallSite{}, err
	}
	return pag.CallSite{Caller: caller, Callee: callee, Site: pag.SiteID(e.Site)}, nil
}

// Callees implements cgbuild.CalleeResolver with the edges of the file
func (p *Program) Callees(m pag.MethodID) []pag.CallSite {
	return p.calls[m]
}
