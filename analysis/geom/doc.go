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
Package geom implements the geometric encoding of calling contexts and the queries that resolve partial contexts
against it.

The pipeline is:
  - a raw [CallGraph] is built by the call graph builder (package cgbuild);
  - [Condense] collapses its strongly connected components and ranks the components topologically from the root;
  - [Encode] assigns to each method a range of context numbers and to each call edge an offset mapping the contexts
    of the caller to contexts of the callee;
  - a [Querier] answers queries on the solved points-to facts: either knowing one edge of the context
    ([Querier.ContextsByAnyCallEdge]) or the full chain of edges ([Querier.ContextsByCallChain]).

Results are always delivered to a [pag.Visitor]. A query returns false when its inputs are stale: the queried
pointer was removed from the analysis, or an edge is not part of the encoding.
*/
package geom
