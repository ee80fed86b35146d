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

/*
Package goprogram connects Go programs to the context-sensitive query engine.

A program is loaded and translated to SSA with LoadProgram. Analyze then runs the inclusion-based pointer analysis of
golang.org/x/tools/go/pointer on the functions matching the package filter, and computes a call graph with the
configured algorithm:

	pointer  the call graph of the pointer analysis
	static   static calls only
	cha      class hierarchy analysis
	rta      rapid type analysis from the main and init functions
	vta      variable type analysis refining the class hierarchy call graph

The functions of the call graph are numbered in a Universe, the call graph is built from the entry points and encoded,
and the points-to sets of the pointer analysis are lifted to every context of the function declaring each value. The
lifted facts are context-insensitive; the encoding still restricts queries to the contexts reachable through a call
edge or a call chain.

GoHierarchy answers the type queries of the type manager with the assignability rules of go/types.
*/
package goprogram
