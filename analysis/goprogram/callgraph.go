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

	"github.com/awslabs/ar-go-pta/analysis/config"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/callgraph/vta"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// CallgraphAnalysisMode is the algorithm computing the call graph the builder starts from
type CallgraphAnalysisMode uint64

const (
	PointerAnalysis        CallgraphAnalysisMode = iota // PointerAnalysis is over-approximating (slow)
	StaticAnalysis                                      // StaticAnalysis is under-approximating (fast)
	ClassHierarchyAnalysis                              // ClassHierarchyAnalysis is a coarse over-approximation (fast)
	RapidTypeAnalysis                                   // RapidTypeAnalysis is CHA restricted to the types of the reachable code
	VariableTypeAnalysis                                // VariableTypeAnalysis refines the CHA call graph with the flows of types
)

// ParseCallgraphMode returns the mode named by the callgraph-mode option
func ParseCallgraphMode(name string) (CallgraphAnalysisMode, error) {
	switch name {
	case config.CallgraphModePointer:
		return PointerAnalysis, nil
	case config.CallgraphModeStatic:
		return StaticAnalysis, nil
	case config.CallgraphModeCha:
		return ClassHierarchyAnalysis, nil
	case config.CallgraphModeRta:
		return RapidTypeAnalysis, nil
	case config.CallgraphModeVta:
		return VariableTypeAnalysis, nil
	default:
		return 0, fmt.Errorf("%w: unsupported callgraph mode %q", config.ErrInvalidOption, name)
	}
}

func (mode CallgraphAnalysisMode) String() string {
	switch mode {
	case PointerAnalysis:
		return config.CallgraphModePointer
	case StaticAnalysis:
		return config.CallgraphModeStatic
	case ClassHierarchyAnalysis:
		return config.CallgraphModeCha
	case RapidTypeAnalysis:
		return config.CallgraphModeRta
	case VariableTypeAnalysis:
		return config.CallgraphModeVta
	default:
		return fmt.Sprintf("mode(%d)", uint64(mode))
	}
}

// mainRoots returns the init and main functions of the main packages
func mainRoots(prog *ssa.Program) []*ssa.Function {
	var roots []*ssa.Function
	for _, m := range ssautil.MainPackages(prog.AllPackages()) {
		for _, name := range []string{"init", "main"} {
			if f := m.Func(name); f != nil {
				roots = append(roots, f)
			}
		}
	}
	return roots
}

// ComputeCallgraph computes the call graph of prog using the provided mode.
func (mode CallgraphAnalysisMode) ComputeCallgraph(prog *ssa.Program) (*callgraph.Graph, error) {
	switch mode {
	case PointerAnalysis:
		// Build the callgraph using the pointer analysis. This function returns only the
		// callgraph, and not the entire pointer analysis result.
		result, err := DoPointerAnalysis(prog, func(_ *ssa.Function) bool { return false }, true)
		if err != nil {
			return nil, fmt.Errorf("pointer analysis failed: %w", err)
		}
		return result.CallGraph, nil
	case StaticAnalysis:
		// Build the callgraph using only static analysis.
		return static.CallGraph(prog), nil
	case ClassHierarchyAnalysis:
		// "Optimization of Object-Oriented Programs Using Static Class Hierarchy Analysis",
		// J. Dean, D. Grove, and C. Chambers, ECOOP'95.
		return cha.CallGraph(prog), nil
	case VariableTypeAnalysis:
		// vta refines a sound initial call graph
		cg := cha.CallGraph(prog)
		return vta.CallGraph(ssautil.AllFunctions(prog), cg), nil
	case RapidTypeAnalysis:
		// "Fast Analysis of C++ Virtual Function Calls", D.Bacon & P. Sweeney, OOPSLA'96
		roots := mainRoots(prog)
		if len(roots) == 0 {
			return nil, fmt.Errorf("rapid type analysis needs a main package")
		}
		return rta.Analyze(roots, true).CallGraph, nil
	default:
		return nil, fmt.Errorf("unsupported callgraph analysis mode %s", mode)
	}
}
