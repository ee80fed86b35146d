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

// File is the yaml layout of a fact file.
type File struct {
	Classes      []Class       `yaml:"classes"`
	Object       string        `yaml:"object"`
	Primitives   []string      `yaml:"primitives"`
	Methods      []string      `yaml:"methods"`
	EntryPoints  []string      `yaml:"entry-points"`
	Edges        []Edge        `yaml:"edges"`
	Variables    []Variable    `yaml:"variables"`
	Allocs       []Alloc       `yaml:"allocs"`
	HeapContexts []HeapContext `yaml:"heap-contexts"`
	Fields       []Field       `yaml:"fields"`
	Facts        []Fact        `yaml:"facts"`
	Merged       []Merge       `yaml:"merged"`
	Dead         []string      `yaml:"dead"`
	Encoding     *Encoding     `yaml:"encoding"`
	Queries      []Query       `yaml:"queries"`
}

// Class declares a class or an interface
type Class struct {
	Name       string   `yaml:"name"`
	Super      string   `yaml:"super"`
	Interfaces []string `yaml:"interfaces"`
	Interface  bool     `yaml:"interface"`
	Abstract   bool     `yaml:"abstract"`
	Unresolved bool     `yaml:"unresolved"`
}

// Edge is a call edge. The caller of the edges from the synthetic root is "<root>".
type Edge struct {
	Caller string `yaml:"caller"`
	Callee string `yaml:"callee"`
	Site   int    `yaml:"site"`
}

// Variable declares a local variable of a method
type Variable struct {
	Name   string `yaml:"name"`
	Method string `yaml:"method"`
	Type   string `yaml:"type"`
}

// Alloc declares an allocation site, or a class constant
type Alloc struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Method        string `yaml:"method"`
	ClassConstant bool   `yaml:"class-constant"`
}

// HeapContext declares the allocation Base qualified by the allocation Receiver, the receiver of the method
// performing the allocation. An empty receiver stands for a method without receiver.
type HeapContext struct {
	Name     string `yaml:"name"`
	Base     string `yaml:"base"`
	Receiver string `yaml:"receiver"`
}

// Field declares the node of field Field of the objects allocated at Alloc
type Field struct {
	Alloc string `yaml:"alloc"`
	Field string `yaml:"field"`
}

// Fact states that Pointer points to Object under the contexts [L, R)
type Fact struct {
	Pointer string `yaml:"pointer"`
	Object  string `yaml:"object"`
	L       int64  `yaml:"l"`
	R       int64  `yaml:"r"`
}

// Merge states that the solver merged Node into Into
type Merge struct {
	Node string `yaml:"node"`
	Into string `yaml:"into"`
}

// Encoding overrides parts of the computed context encoding
type Encoding struct {
	Blocks  []Block  `yaml:"blocks"`
	Offsets []Offset `yaml:"offsets"`
}

// Block sets the block size and the number of blocks of a method
type Block struct {
	Method string `yaml:"method"`
	Size   int64  `yaml:"size"`
	Num    int64  `yaml:"num"`
}

// Offset sets the offset of a call edge
type Offset struct {
	Edge   `yaml:",inline"`
	Offset int64 `yaml:"offset"`
}

// Expected is an expected result of a query
type Expected struct {
	Object string `yaml:"object"`
	L      int64  `yaml:"l"`
	R      int64  `yaml:"r"`
}

// Query is a points-to query: exactly one of Edge and Chain must be given. The chain is ordered from the farthest
// caller to the closest one. If Field is set, the query is on the field of the objects Pointer points to. If Type is
// set, the objects are filtered by the type manager.
type Query struct {
	Name    string     `yaml:"name"`
	Edge    *Edge      `yaml:"edge"`
	Chain   []Edge     `yaml:"chain"`
	Pointer string     `yaml:"pointer"`
	Field   string     `yaml:"field"`
	Type    string     `yaml:"type"`
	Expect  []Expected `yaml:"expect"`
	// Fails is true when the query is expected to return false
	Fails bool `yaml:"fails"`
}
