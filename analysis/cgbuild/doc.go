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
Package cgbuild builds the call graph of the analyzed program on the fly and freezes it into the structures the
query engine needs.

A [Builder] starts from the entry points of the program, which are called by the synthetic root method, and asks a
[CalleeResolver] for the call edges out of every method that becomes reachable. Clients that discover edges by
other means (for instance a points-to solver resolving virtual calls) add them with [Builder.AddEdge]. Edges are
only ever added.

[Builder.Freeze] ends the construction: it computes the strongly connected components of the graph, condenses it,
ranks it and encodes the calling contexts of every method. The [Result] is immutable and builds the queriers.

The heap abstraction is chosen by [MakeContextManager]: allocations are context-insensitive unless object
sensitivity is enabled in the configuration.
*/
package cgbuild
