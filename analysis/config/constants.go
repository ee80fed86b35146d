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

package config

const (
	// DefaultMaxContextSpan is the largest number of contexts of a method before the encoder switches to the blocking
	// scheme. Spans above this bound are folded into blocks of that size.
	DefaultMaxContextSpan int64 = 1 << 40

	// DefaultObjectSensitivity disables object sensitivity: every allocation is context-insensitive.
	DefaultObjectSensitivity = 0

	// DefaultCallgraphMode is the call graph algorithm used by the Go frontend when none is specified.
	DefaultCallgraphMode = CallgraphModePointer

	// DefaultQueryWorkers is the number of goroutines answering the queries of a fact file.
	DefaultQueryWorkers = 1
)

// Names of the call graph algorithms of the Go frontend
const (
	CallgraphModePointer = "pointer"
	CallgraphModeStatic  = "static"
	CallgraphModeCha     = "cha"
	CallgraphModeRta     = "rta"
	CallgraphModeVta     = "vta"
)

// CallgraphModes lists the accepted values of the callgraph-mode option
var CallgraphModes = []string{
	CallgraphModePointer,
	CallgraphModeStatic,
	CallgraphModeCha,
	CallgraphModeRta,
	CallgraphModeVta,
}
