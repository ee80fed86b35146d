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

// Package gostats implements the sub-command analyzing a Go program and printing the statistics of its call graph
// and context encoding.
package gostats

import (
	"fmt"
	"go/token"
	"io"
	"time"

	"github.com/awslabs/ar-go-pta/analysis/goprogram"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/condense"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/tools"
	"github.com/awslabs/ar-go-pta/internal/formatutil"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// Usage of the gostats sub-command
const Usage = `Load a Go program, run the pointer analysis and print the statistics of the encoded call graph.
Usage:
  argot-pta gostats [options] <package path(s)>
Examples:
  % argot-pta gostats -analysis rta ./cmd/server
  % argot-pta gostats -config config.yaml -details main.go
`

// Flags represents the parsed gostats sub-command flags.
type Flags struct {
	tools.CommonFlags
	cgAnalysis string
	details    bool
}

// NewFlags returns the parsed gostats sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("gostats")
	cgAnalysis := flags.FlagSet.String("analysis", "",
		"type of call graph analysis to run, overriding the config. One of: pointer, cha, rta, static, vta")
	details := flags.FlagSet.Bool("details", false, "print every method, edge and cycle")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, cgAnalysis: *cgAnalysis, details: *details}, nil
}

// Run loads the program named by the arguments and prints the statistics of its analysis to out.
func Run(flags Flags, out io.Writer) error {
	cfg, log, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	if flags.cgAnalysis != "" {
		if _, err := goprogram.ParseCallgraphMode(flags.cgAnalysis); err != nil {
			return err
		}
		cfg.CallgraphMode = flags.cgAnalysis
	}

	log.Infof("%s", formatutil.Faint("Reading sources"))
	pkgConfig := &packages.Config{
		Mode:  goprogram.PkgLoadMode,
		Tests: flags.WithTest,
		Fset:  token.NewFileSet(),
	}
	program, err := goprogram.LoadProgram(pkgConfig, "", ssa.BuilderMode(0), flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %v", err)
	}

	start := time.Now()
	a, err := goprogram.Analyze(cfg, log, program.Program)
	if err != nil {
		return err
	}
	log.Infof("analysis done in %.2fs", time.Since(start).Seconds())

	fmt.Fprintf(out, "%s\n", a.Result.Stats())
	fmt.Fprintf(out, "%d pointers, %d points-to facts, %d types\n",
		len(a.Pointer.Queries), a.Facts.NumFacts(), a.Universe.Nodes.NumTypes())
	if flags.details {
		condense.Print(out, a.Result, a.Universe.Nodes.MethodName, 100)
	}
	return nil
}
