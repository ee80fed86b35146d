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
Package factfile loads the description of an analyzed program from a yaml file: its class hierarchy, its methods and
call edges, its pointer nodes and the solved points-to facts. A fact file stands in for the frontend and the solver:
the call graph builder, the encoder and the query engine run on it unchanged.

A minimal file looks as follows:

	classes:
	  - name: Object
	  - name: Dog
	    super: Object
	object: Object
	methods: [main, bark]
	entry-points: [main]
	edges:
	  - {caller: main, callee: bark, site: 1}
	variables:
	  - {name: d, method: bark, type: Dog}
	allocs:
	  - {name: newDog, type: Dog, method: main}
	facts:
	  - {pointer: d, object: newDog, l: 1, r: 2}
	queries:
	  - name: d-from-main
	    edge: {caller: main, callee: bark, site: 1}
	    pointer: d
	    expect:
	      - {object: newDog, l: 1, r: 2}

Type names ending with [] denote array types, and names of the form "any T" denote the type of allocations of an
unknown subclass of T. The type "null" is the type of the null constant.

The nodes of the fields of allocations (declared under fields) are named after the allocation and the field, as in
newDog.name. Object-sensitive allocations are declared under heap-contexts, and are created through the heap
abstraction of the call graph builder: they only exist once the program has been built with object sensitivity.
*/
package factfile
