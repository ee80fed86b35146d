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

package query

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-pta/internal/formatutil"
)

var factDir = filepath.Join("..", "..", "..", "analysis", "factfile", "testdata")

func TestRunFactFiles(t *testing.T) {
	formatutil.SetColors(false)
	flags, err := NewFlags([]string{"-workers", "2",
		filepath.Join(factDir, "chain.yaml"), filepath.Join(factDir, "recursion.yaml")})
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	if err := Run(flags, &out); err != nil {
		t.Fatalf("queries failed: %v\n%s", err, out.String())
	}
	if strings.Contains(out.String(), "FAIL") || !strings.Contains(out.String(), "ok any-edge") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunReportsFailures(t *testing.T) {
	formatutil.SetColors(false)
	b, err := os.ReadFile(filepath.Join(factDir, "chain.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	// flipping the expectation of a failing query makes it fail the check
	broken := strings.Replace(string(b), "fails: true", "fails: false", 1)
	if broken == string(b) {
		t.Fatalf("fixture has no failing query")
	}
	filename := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(filename, []byte(broken), 0o600); err != nil {
		t.Fatal(err)
	}
	flags, err := NewFlags([]string{filename})
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	if err := Run(flags, &out); err == nil || !strings.Contains(out.String(), "FAIL") {
		t.Errorf("expected a failure, got %v:\n%s", err, out.String())
	}
}

func TestRunWithoutFiles(t *testing.T) {
	flags, err := NewFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := Run(flags, &strings.Builder{}); err == nil {
		t.Errorf("expected an error without fact files")
	}
}
