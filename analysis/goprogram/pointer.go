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
	"go/types"

	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// DoPointerAnalysis runs the pointer analysis on the program p, marking every value in the functions filtered by
// functionFilter as potential value to query.
//
// - p is the program to be analyzed
//
// - functionFilter determines whether to add the values of the function in the Queries or IndirectQueries of the result
//
// - buildCallGraph determines whether the analysis must also build the callgraph of the program
//
// If error == nil, every value in the functions f such that functionFilter(f) is true will be in the Queries or
// IndirectQueries of the pointer.Result
func DoPointerAnalysis(p *ssa.Program, functionFilter func(*ssa.Function) bool, buildCallGraph bool) (*pointer.Result,
	error) {
	pCfg := &pointer.Config{
		Mains:           ssautil.MainPackages(p.AllPackages()),
		Reflection:      false,
		BuildCallGraph:  buildCallGraph,
		Queries:         make(map[ssa.Value]struct{}),
		IndirectQueries: make(map[ssa.Value]struct{}),
	}

	for function := range ssautil.AllFunctions(p) {
		if functionFilter(function) {
			iterateInstructions(function, func(instruction ssa.Instruction) { addQuery(pCfg, instruction) })
		}
	}

	return pointer.Analyze(pCfg)
}

func iterateInstructions(f *ssa.Function, fn func(ssa.Instruction)) {
	for _, block := range f.Blocks {
		for _, instruction := range block.Instrs {
			fn(instruction)
		}
	}
}

// addQuery adds a query for the operands of the instruction, and for the value it defines, to the pointer
// configuration.
func addQuery(cfg *pointer.Config, instruction ssa.Instruction) {
	if instruction == nil {
		return
	}
	operands := instruction.Operands([]*ssa.Value{})
	if v, ok := instruction.(ssa.Value); ok {
		operands = append(operands, &v)
	}
	for _, operand := range operands {
		if *operand != nil && (*operand).Type() != nil {
			typ := (*operand).Type()
			if pointer.CanPoint(typ) {
				cfg.AddQuery(*operand)
			}
			indirectQuery(typ, operand, cfg)
		}
	}
}

// indirectQuery wraps an update to the IndirectQuery of the pointer config. We need to wrap it
// because typ.Underlying() may panic despite typ being non-nil
func indirectQuery(typ types.Type, operand *ssa.Value, cfg *pointer.Config) {
	defer func() {
		// occurs on a *ssa.opaqueType
		recover()
	}()

	if typ.Underlying() != nil {
		if ptrType, ok := typ.Underlying().(*types.Pointer); ok {
			if pointer.CanPoint(ptrType.Elem()) {
				cfg.AddIndirectQuery(*operand)
			}
		}
	}
}
