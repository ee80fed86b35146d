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

// Package render implements the sub-command rendering the call graph of a fact file in DOT format.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/awslabs/ar-go-pta/analysis/factfile"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/tools"
	"github.com/awslabs/ar-go-pta/internal/formatutil"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// Usage of the render sub-command
const Usage = `Render the condensed call graph of a fact file in DOT format.
Usage:
  argot-pta render [options] <fact file>
Examples:
  % argot-pta render -out zoo.dot zoo.yaml
  % argot-pta render -raw zoo.yaml
`

// Flags represents the parsed render sub-command flags.
type Flags struct {
	tools.CommonFlags
	out string
	raw bool
}

// NewFlags returns the parsed render sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("render")
	out := flags.FlagSet.String("out", "", "output file (standard output if not specified)")
	raw := flags.FlagSet.Bool("raw", false, "render the raw call graph instead of its condensation")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, out: *out, raw: *raw}, nil
}

// Run renders the graph of the fact file to the output file of the flags, or to stdout.
func Run(flags Flags, stdout io.Writer) error {
	cfg, log, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	if len(flags.FlagSet.Args()) != 1 {
		return fmt.Errorf("expected one fact file, got %d", len(flags.FlagSet.Args()))
	}
	p, err := factfile.Load(flags.FlagSet.Args()[0])
	if err != nil {
		return err
	}
	res, err := p.Build(cfg, log)
	if err != nil {
		return err
	}
	g := res.Condensed.AsGraph(p.Nodes.MethodName)
	if flags.raw {
		g = res.Graph.AsGraph(p.Nodes.MethodName)
	}
	b, err := dot.Marshal(g, p.Name, "", "  ")
	if err != nil {
		return fmt.Errorf("could not render %s: %w", p.Name, err)
	}
	if flags.out == "" {
		_, err = stdout.Write(append(b, '\n'))
		return err
	}
	if err := os.WriteFile(flags.out, b, 0o644); err != nil {
		return err
	}
	log.Infof("%s", formatutil.Faint(fmt.Sprintf("wrote %s", flags.out)))
	return nil
}
