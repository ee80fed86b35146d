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

package condense

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-pta/analysis/config"
	"github.com/awslabs/ar-go-pta/analysis/factfile"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/internal/formatutil"
)

func TestCondenseRecursion(t *testing.T) {
	flags, err := NewFlags([]string{"-no-color", filepath.Join("..", "..", "..", "analysis", "factfile", "testdata", "recursion.yaml")})
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	if err := Run(flags, &out); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, expected := range []string{"A -[1]-> B", "B -[2]-> A", "scc", "1 elementary cycles", "A -> B -> A"} {
		if !strings.Contains(s, expected) {
			t.Errorf("output does not contain %q:\n%s", expected, s)
		}
	}
}

func TestCondenseWithoutCycles(t *testing.T) {
	flags, err := NewFlags([]string{"-no-color", "-cycles", "0",
		filepath.Join("..", "..", "..", "analysis", "factfile", "testdata", "chain.yaml")})
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	if err := Run(flags, &out); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "elementary cycles") || strings.Contains(out.String(), "scc") {
		t.Errorf("unexpected cycles in output:\n%s", out.String())
	}
}

func TestPrintQuotesEscapeSequences(t *testing.T) {
	formatutil.SetColors(false)
	p, err := factfile.Load(filepath.Join("..", "..", "..", "analysis", "factfile", "testdata", "recursion.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.NewDefault()
	res, err := p.Build(cfg, config.NewLogGroup(cfg))
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	Print(&out, res, func(m pag.MethodID) string { return "\x1b[2J" + p.Nodes.MethodName(m) }, 1)
	s := out.String()
	if strings.Contains(s, "\x1b") {
		t.Fatalf("raw escape sequence in output:\n%q", s)
	}
	if !strings.Contains(s, `\x1b[2JA -[1]-> \x1b[2JB`) {
		t.Errorf("names should be quoted:\n%s", s)
	}
}
