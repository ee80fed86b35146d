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

package cgbuild

import (
	"github.com/awslabs/ar-go-pta/analysis/config"
	"github.com/awslabs/ar-go-pta/analysis/objsens"
	"github.com/awslabs/ar-go-pta/analysis/pag"
)

// ContextManager decides how allocations are qualified by their context.
type ContextManager interface {
	// HeapContext returns the allocation node representing the objects allocated at base by a method whose receiver
	// is the allocation enclosing. enclosing is pag.NoNode when the method has no receiver.
	HeapContext(base, enclosing pag.NodeID) pag.NodeID

	// ObjectSensitive returns true if HeapContext qualifies allocations
	ObjectSensitive() bool
}

type insensitiveContextManager struct{}

func (insensitiveContextManager) HeapContext(base, _ pag.NodeID) pag.NodeID {
	return base
}

func (insensitiveContextManager) ObjectSensitive() bool {
	return false
}

type objectSensitiveContextManager struct {
	table *objsens.Table
}

func (c *objectSensitiveContextManager) HeapContext(base, enclosing pag.NodeID) pag.NodeID {
	if enclosing == pag.NoNode {
		return c.table.InternContextless(base)
	}
	return c.table.Intern(base, enclosing)
}

func (c *objectSensitiveContextManager) ObjectSensitive() bool {
	return true
}

// MakeContextManager returns the context manager selected by the configuration. When object sensitivity is enabled,
// the table is reset to the configured depth, with the allocations of the no-context classes (resolved by name in
// nodes) excluded. It returns the names that did not resolve to a type.
func MakeContextManager(cfg *config.Config, nodes *pag.NodeStore, table *objsens.Table) (ContextManager, []string) {
	if cfg == nil || !cfg.ObjectSensitive() || table == nil {
		return insensitiveContextManager{}, nil
	}
	var noContext []pag.TypeID
	var unknown []string
	for _, name := range cfg.NoContextClasses {
		if t, ok := nodes.LookupType(name); ok {
			noContext = append(noContext, t)
		} else {
			unknown = append(unknown, name)
		}
	}
	table.Reset(cfg.ObjectSensitivity, noContext)
	return &objectSensitiveContextManager{table: table}, unknown
}
