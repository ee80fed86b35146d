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

package geom

import (
	"github.com/awslabs/ar-go-pta/analysis/pag"
)

// fieldObjects visits the objects pointed to by field f of the object o, under the contexts of o.
// It returns false if the field node of o does not exist or has been removed from the analysis.
func (q *Querier) fieldObjects(o pag.IntervalObject, f pag.FieldID, v pag.Visitor) bool {
	fieldNode, ok := q.nodes.FindAllocField(o.Obj, f)
	if !ok {
		return false
	}
	rep, ok := q.pts.Representative(fieldNode)
	if !ok {
		return false
	}
	q.pts.ContextObjects(rep, o.L, o.R, v)
	return true
}

// FieldContextsByAnyCallEdge visits the objects pointed to by the field f of the objects ptr points to, under the
// contexts that go through the call edge (see ContextsByAnyCallEdge). Objects without a node for f are skipped.
func (q *Querier) FieldContextsByAnyCallEdge(edge pag.CallSite, ptr pag.NodeID, f pag.FieldID, v pag.Visitor) bool {
	base := &pag.Collector{}
	if !q.ContextsByAnyCallEdge(edge, ptr, base) {
		return false
	}
	for _, o := range base.Objects {
		q.fieldObjects(o, f, v)
	}
	return true
}

// FieldContextsByCallChain visits the objects pointed to by the field f of the objects ptr points to, under the
// calling context given by the chain (see ContextsByCallChain).
//
// If one of the objects has no node for f, the query fails and returns false. The visitor may already have received
// the results of the objects processed before.
func (q *Querier) FieldContextsByCallChain(chain []pag.CallSite, ptr pag.NodeID, f pag.FieldID, v pag.Visitor) bool {
	base := &pag.Collector{}
	if !q.ContextsByCallChain(chain, ptr, base) {
		return false
	}
	for _, o := range base.Objects {
		if !q.fieldObjects(o, f, v) {
			return false
		}
	}
	return true
}
