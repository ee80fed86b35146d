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
Package typemgr implements the type compatibility oracle of the points-to query engine.

A [Manager] answers whether a cast between two static types can ever fail, and builds type masks: sets of allocation
node numbers whose static type is compatible with a given type. Query clients use masks to filter points-to sets by the
declared type of the querying variable (see [Manager.Filter]).

The class hierarchy is an external collaborator, abstracted by [Hierarchy]. [ClassHierarchy] is an in-memory
implementation used by fact files and tests; the Go frontend provides its own.
*/
package typemgr
