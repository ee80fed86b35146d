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

// Package analysistest loads the Go programs and the annotations used by the tests of the analyses.
package analysistest

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-pta/analysis/config"
	"github.com/awslabs/ar-go-pta/analysis/goprogram"
	"golang.org/x/tools/go/ssa"
)

// LoadTest loads the program in the directory dir, looking for a main.go and an optional config.yaml. If additional
// files are specified as extraFiles, the program will be loaded using those files too.
func LoadTest(t *testing.T, dir string, extraFiles []string) (*ssa.Program, *config.Config) {
	t.Helper()
	cfg := config.NewDefault()
	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil {
		config.SetGlobalConfig(configFile)
		cfg, err = config.LoadGlobal()
		if err != nil {
			t.Fatalf("error loading config %s: %v", configFile, err)
		}
	}
	files := []string{filepath.Join(dir, "./main.go")}
	for _, extraFile := range extraFiles {
		files = append(files, filepath.Join(dir, extraFile))
	}

	program, err := goprogram.LoadProgram(nil, "", ssa.BuilderMode(0), files)
	if err != nil {
		t.Fatalf("error loading packages: %v", err)
	}
	return program.Program, cfg
}

// AllocRegex matches annotations of the form "@Alloc(id)"
var AllocRegex = regexp.MustCompile(`//.*@Alloc\(\s*(\w+)\s*\)`)

// PointsToRegex matches annotations of the form "@PointsTo(id1, id2, id3)"; "@PointsTo()" expects an empty set
var PointsToRegex = regexp.MustCompile(`//.*@PointsTo\(((?:\s*\w*\s*,?)*)\)`)

// LPos is a position without column
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// RemoveColumn drops the column of the position, and the directory of the file name
func RemoveColumn(pos token.Position) LPos {
	return LPos{Line: pos.Line, Filename: filepath.Base(pos.Filename)}
}

// Annotations are the allocation sites and the expected points-to sets marked in the comments of a test program
type Annotations struct {
	// Allocs maps each allocation identifier to the line of its allocation site
	Allocs map[string]LPos
	// PointsTo maps the lines of the annotated values to the identifiers of the allocations they may point to
	PointsTo map[LPos][]string
}

// AllocAt returns the identifier of the allocation annotated at pos.
func (a Annotations) AllocAt(pos LPos) (string, bool) {
	for id, p := range a.Allocs {
		if p == pos {
			return id, true
		}
	}
	return "", false
}

// GetAnnotations parses the Go files in dir and collects the @Alloc and @PointsTo annotations.
func GetAnnotations(dir string) (Annotations, error) {
	res := Annotations{Allocs: map[string]LPos{}, PointsTo: map[LPos][]string{}}
	fset := token.NewFileSet()
	var files []*ast.File

	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return res, err
	}

	for _, f := range files {
		for _, c := range f.Comments {
			for _, c1 := range c.List {
				pos := RemoveColumn(fset.Position(c1.Pos()))
				if a := AllocRegex.FindStringSubmatch(c1.Text); len(a) > 1 {
					if prev, ok := res.Allocs[a[1]]; ok {
						return res, fmt.Errorf("allocation %s annotated twice, at %s and %s", a[1], prev, pos)
					}
					res.Allocs[a[1]] = pos
				}
				if a := PointsToRegex.FindStringSubmatch(c1.Text); len(a) > 1 {
					ids := []string{}
					for _, ident := range strings.Split(a[1], ",") {
						if ident = strings.TrimSpace(ident); ident != "" {
							ids = append(ids, ident)
						}
					}
					res.PointsTo[pos] = ids
				}
			}
		}
	}
	return res, nil
}
