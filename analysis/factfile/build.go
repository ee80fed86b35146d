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

package factfile

import (
	"fmt"

	"github.com/awslabs/ar-go-pta/analysis/cgbuild"
	"github.com/awslabs/ar-go-pta/analysis/config"
	"github.com/awslabs/ar-go-pta/analysis/pag"
)

// Build builds and freezes the call graph of the program from its entry points, then creates the heap contexts and
// the field nodes and records the points-to facts. If the file has no entry point, the entry points of the
// configuration are used. The encoding overrides of the file are applied to the frozen encoding.
//
// Build must be called once.
func (p *Program) Build(cfg *config.Config, log *config.LogGroup) (*cgbuild.Result, error) {
	if p.Result != nil {
		return nil, fmt.Errorf("%w: program %s already built", ErrInvalid, p.Name)
	}
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if log == nil {
		log = config.NewLogGroup(cfg)
	}
	b := cgbuild.New(cfg, log, p.Nodes, p.Hierarchy)
	if len(p.File.EntryPoints) == 0 {
		if err := b.AddConfiguredEntryPoints(); err != nil {
			return nil, err
		}
	}
	for _, name := range p.File.EntryPoints {
		m, err := p.method(name)
		if err != nil {
			return nil, fmt.Errorf("entry point: %w", err)
		}
		if err := b.AddEntryPoint(m); err != nil {
			return nil, err
		}
	}
	if err := b.Build(p); err != nil {
		return nil, fmt.Errorf("building call graph of %s: %w", p.Name, err)
	}
	res := b.Freeze()
	if err := p.applyEncoding(res); err != nil {
		return nil, err
	}
	if err := p.heapContexts(b.Contexts()); err != nil {
		return nil, err
	}
	if err := p.fieldNodes(); err != nil {
		return nil, err
	}
	facts, err := p.facts()
	if err != nil {
		return nil, err
	}
	log.Debugf("%s: %d nodes, %d facts", p.Name, p.Nodes.NumNodes()-1, facts.NumFacts())
	p.Builder = b
	p.Facts = facts
	p.Result = res
	return res, nil
}

func (p *Program) applyEncoding(res *cgbuild.Result) error {
	if p.File.Encoding == nil {
		return nil
	}
	for _, blk := range p.File.Encoding.Blocks {
		m, err := p.method(blk.Method)
		if err != nil {
			return err
		}
		if blk.Size <= 0 || blk.Num <= 0 {
			return fmt.Errorf("%w: block of %s must be positive", ErrInvalid, blk.Method)
		}
		res.Encoding.SetBlock(m, blk.Size, blk.Num)
	}
	for _, o := range p.File.Encoding.Offsets {
		cs, err := p.CallSite(o.Edge)
		if err != nil {
			return err
		}
		e, ok := res.Graph.Edge(cs)
		if !ok {
			return fmt.Errorf("%w: offset of edge %s which is not in the call graph", ErrInvalid, cs)
		}
		e.MapOffset = o.Offset
	}
	return nil
}

func (p *Program) heapContexts(contexts cgbuild.ContextManager) error {
	for _, hc := range p.File.HeapContexts {
		base, err := p.Node(hc.Base)
		if err != nil {
			return err
		}
		receiver := pag.NoNode
		if hc.Receiver != "" {
			if receiver, err = p.Node(hc.Receiver); err != nil {
				return err
			}
		}
		id := contexts.HeapContext(base, receiver)
		if id == base {
			// context-insensitive heap: the name is an alias of the base allocation
			p.names[hc.Name] = id
			continue
		}
		if prev, ok := p.names[hc.Name]; ok && prev == id {
			continue
		}
		if err := p.name(hc.Name, id); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) fieldNodes() error {
	for _, fd := range p.File.Fields {
		alloc, err := p.Node(fd.Alloc)
		if err != nil {
			return err
		}
		if n, _ := p.Nodes.Node(alloc); !n.IsAlloc() {
			return fmt.Errorf("%w: field %s of %s, which is not an allocation", ErrInvalid, fd.Field, fd.Alloc)
		}
		f := p.Nodes.AddField(fd.Field)
		id := p.Nodes.AddAllocField(alloc, f)
		name := fd.Alloc + "." + fd.Field
		if prev, ok := p.names[name]; ok && prev == id {
			continue
		}
		if err := p.name(name, id); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) facts() (*pag.FactStore, error) {
	facts := pag.NewFactStore()
	for _, f := range p.File.Facts {
		ptr, err := p.Node(f.Pointer)
		if err != nil {
			return nil, err
		}
		obj, err := p.Node(f.Object)
		if err != nil {
			return nil, err
		}
		if n, _ := p.Nodes.Node(obj); !n.IsAlloc() {
			return nil, fmt.Errorf("%w: %s points to %s, which is not an allocation", ErrInvalid, f.Pointer, f.Object)
		}
		facts.Add(ptr, obj, f.L, f.R)
	}
	for _, m := range p.File.Merged {
		n, err := p.Node(m.Node)
		if err != nil {
			return nil, err
		}
		into, err := p.Node(m.Into)
		if err != nil {
			return nil, err
		}
		facts.Merge(n, into)
	}
	for _, name := range p.File.Dead {
		n, err := p.Node(name)
		if err != nil {
			return nil, err
		}
		facts.Kill(n)
	}
	return facts, nil
}
