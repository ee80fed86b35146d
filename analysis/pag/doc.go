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
Package pag contains the numbered universe the points-to query engine indexes into: pointer nodes (variables,
allocation sites, fields of allocation sites), static types, methods and fields.

Every entity gets a dense integer id. Ids are never reused, which lets the other packages use them as positions in
bit-vectors (see golang.org/x/tools/container/intsets) and as indices in slices.

Allocation nodes come in three context flavours, distinguished by [AllocKind]: plain allocation sites, class
constants, and object-sensitive allocations created by package objsens. All of them share the numbering of plain
allocation nodes so that they can appear in the same points-to sets.

The package also defines the boundary with the points-to solver: [PointsToStore] is the read-only view of a solved
fixpoint, and [FactStore] is an in-memory implementation of it.
*/
package pag
