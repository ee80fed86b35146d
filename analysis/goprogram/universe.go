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

	"github.com/awslabs/ar-go-pta/analysis/cgbuild"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
)

// Universe numbers the entities of an SSA program in a node store: functions are methods, call instructions are call
// sites, SSA values are variable nodes, and the values labelling the objects of the pointer analysis are allocation
// nodes.
type Universe struct {
	Program   *ssa.Program
	Nodes     *pag.NodeStore
	Hierarchy *GoHierarchy

	methods map[*ssa.Function]pag.MethodID
	funcs   map[pag.MethodID]*ssa.Function

	sites     map[ssa.CallInstruction]pag.SiteID
	siteInstr []ssa.CallInstruction

	vars        map[ssa.Value]pag.NodeID
	allocs      map[ssa.Value]pag.NodeID
	allocValues map[pag.NodeID]ssa.Value
}

// NewUniverse numbers every function of the call graph. The root of the call graph, if any, is the root method.
func NewUniverse(prog *ssa.Program, cg *callgraph.Graph) *Universe {
	nodes := pag.NewNodeStore()
	u := &Universe{
		Program:   prog,
		Nodes:     nodes,
		Hierarchy: NewGoHierarchy(nodes),
		methods:   map[*ssa.Function]pag.MethodID{},
		funcs:     map[pag.MethodID]*ssa.Function{},
		sites:     map[ssa.CallInstruction]pag.SiteID{},
		vars:        map[ssa.Value]pag.NodeID{},
		allocs:      map[ssa.Value]pag.NodeID{},
		allocValues: map[pag.NodeID]ssa.Value{},
	}
	var root *ssa.Function
	if cg.Root != nil {
		root = cg.Root.Func
	}
	funcs := make([]*ssa.Function, 0, len(cg.Nodes))
	for f := range cg.Nodes {
		if f != nil && f != root {
			funcs = append(funcs, f)
		}
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].String() < funcs[j].String() })
	for _, f := range funcs {
		u.addFunction(f)
	}
	return u
}

func (u *Universe) addFunction(f *ssa.Function) pag.MethodID {
	if m, ok := u.methods[f]; ok {
		return m
	}
	name := f.String()
	for i := 1; ; i++ {
		if _, taken := u.Nodes.LookupMethod(name); !taken {
			break
		}
		name = fmt.Sprintf("%s#%d", f.String(), i)
	}
	m := u.Nodes.AddMethod(name)
	u.methods[f] = m
	u.funcs[m] = f
	return m
}

// Method returns the method of f.
func (u *Universe) Method(f *ssa.Function) (pag.MethodID, bool) {
	m, ok := u.methods[f]
	return m, ok
}

// Function returns the function of m. The root method has no function.
func (u *Universe) Function(m pag.MethodID) (*ssa.Function, bool) {
	f, ok := u.funcs[m]
	return f, ok
}

// Site returns the site id of a call instruction; nil is the entry site.
func (u *Universe) Site(instr ssa.CallInstruction) pag.SiteID {
	if instr == nil {
		return pag.EntrySite
	}
	if s, ok := u.sites[instr]; ok {
		return s
	}
	s := pag.SiteID(len(u.siteInstr))
	u.sites[instr] = s
	u.siteInstr = append(u.siteInstr, instr)
	return s
}

// Instruction returns the call instruction of a site.
func (u *Universe) Instruction(s pag.SiteID) (ssa.CallInstruction, bool) {
	if s < 0 || int(s) >= len(u.siteInstr) {
		return nil, false
	}
	return u.siteInstr[s], true
}

// CallSite returns the identity of the call edge from the function containing instr to callee.
func (u *Universe) CallSite(instr ssa.CallInstruction, callee *ssa.Function) (pag.CallSite, bool) {
	calleeID, ok := u.methods[callee]
	if !ok {
		return pag.CallSite{}, false
	}
	caller := pag.RootMethod
	if instr != nil {
		if caller, ok = u.methods[instr.Parent()]; !ok {
			return pag.CallSite{}, false
		}
	}
	return pag.CallSite{Caller: caller, Callee: calleeID, Site: u.Site(instr)}, true
}

// EntryPoints returns the methods called by the root of the call graph. If the root has no callees, as for the
// static and class hierarchy call graphs, the init and main functions of the main packages are returned.
func (u *Universe) EntryPoints(cg *callgraph.Graph) []pag.MethodID {
	var res []pag.MethodID
	if cg.Root != nil {
		for _, e := range cg.Root.Out {
			if m, ok := u.methods[e.Callee.Func]; ok {
				res = append(res, m)
			}
		}
	}
	if len(res) == 0 {
		for _, f := range mainRoots(u.Program) {
			if m, ok := u.methods[f]; ok {
				res = append(res, m)
			}
		}
	}
	return res
}

// Resolver returns the callee resolver reading the edges of the call graph.
func (u *Universe) Resolver(cg *callgraph.Graph) cgbuild.CalleeResolver {
	return cgbuild.CalleeResolverFunc(func(m pag.MethodID) []pag.CallSite {
		f, ok := u.funcs[m]
		if !ok {
			return nil
		}
		node := cg.Nodes[f]
		if node == nil {
			return nil
		}
		var res []pag.CallSite
		for _, e := range node.Out {
			callee, ok := u.methods[e.Callee.Func]
			if !ok {
				continue
			}
			res = append(res, pag.CallSite{Caller: m, Callee: callee, Site: u.Site(e.Site)})
		}
		return res
	})
}

// Variable returns the variable node of v, creating it if v belongs to a numbered function.
func (u *Universe) Variable(v ssa.Value) (pag.NodeID, bool) {
	if n, ok := u.vars[v]; ok {
		return n, true
	}
	m, ok := u.methods[v.Parent()]
	if !ok {
		return pag.NoNode, false
	}
	name := fmt.Sprintf("%s.%s", v.Parent().String(), v.Name())
	n := u.Nodes.AddVariable(name, u.Hierarchy.TypeID(v.Type()), m)
	u.vars[v] = n
	return n, true
}

// Alloc returns the allocation node of the object labelled by v. Objects allocated outside of the numbered functions,
// such as globals and functions, have no method.
func (u *Universe) Alloc(v ssa.Value) pag.NodeID {
	if n, ok := u.allocs[v]; ok {
		return n
	}
	m := pag.NoMethod
	name := v.String()
	if parent := v.Parent(); parent != nil {
		if pm, ok := u.methods[parent]; ok {
			m = pm
		}
		name = fmt.Sprintf("%s.%s", parent.String(), v.Name())
	}
	n := u.Nodes.AddAlloc(name, u.Hierarchy.TypeID(allocType(v)), m)
	u.allocs[v] = n
	u.allocValues[n] = v
	return n
}

// AllocValue returns the value labelling the allocation node n. Object-sensitive copies of a node are resolved to
// their allocation site.
func (u *Universe) AllocValue(n pag.NodeID) (ssa.Value, bool) {
	if node, ok := u.Nodes.Node(n); ok && node.IsAlloc() {
		n = node.Site
	}
	v, ok := u.allocValues[n]
	return v, ok
}

// LabelAlloc returns the allocation node of a pointer analysis label.
func (u *Universe) LabelAlloc(l *pointer.Label) pag.NodeID {
	return u.Alloc(l.Value())
}

// allocType returns the type of the object labelled by v: boxing instructions allocate the concrete value.
func allocType(v ssa.Value) types.Type {
	if mi, ok := v.(*ssa.MakeInterface); ok {
		return mi.X.Type()
	}
	return v.Type()
}

// FieldName returns the name of the field accessed by a field address instruction, qualified by the struct type.
func FieldName(fa *ssa.FieldAddr) (string, bool) {
	ptr, ok := fa.X.Type().Underlying().(*types.Pointer)
	if !ok {
		return "", false
	}
	st, ok := ptr.Elem().Underlying().(*types.Struct)
	if !ok || fa.Field >= st.NumFields() {
		return "", false
	}
	return fmt.Sprintf("%s.%s", types.TypeString(ptr.Elem(), nil), st.Field(fa.Field).Name()), true
}
