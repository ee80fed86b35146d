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

import "fmt"

// NodeID is the dense number of a pointer node. Node numbers are used directly as bit positions in the points-to
// and type masks, so they are never reused.
type NodeID int

// NoNode is the zero node id. No node is ever assigned that number.
const NoNode NodeID = 0

// MethodID is the dense number of an analyzed method.
type MethodID int

const (
	// RootMethod is the synthetic method that calls every entry point of the program.
	RootMethod MethodID = 0

	// NoMethod is returned when a node has no enclosing method (globals, class constants, ...)
	NoMethod MethodID = -1
)

// TypeID is the dense number of a static type.
type TypeID int

// NoType is the zero type id.
const NoType TypeID = 0

// FieldID is the dense number of a field signature.
type FieldID int

// SiteID identifies a call instruction in the intermediate representation. The ids are opaque to this package: the
// frontend that loads the program decides how they are assigned.
type SiteID int

// EntrySite is the call site of the synthetic edges from the RootMethod to the entry points.
const EntrySite SiteID = -1

// CallSite identifies a raw call edge: the caller, the callee and the call instruction. It is comparable and can be used
// as a map key.
type CallSite struct {
	Caller MethodID
	Callee MethodID
	Site   SiteID
}

func (cs CallSite) String() string {
	return fmt.Sprintf("%d -[%d]-> %d", cs.Caller, cs.Site, cs.Callee)
}
