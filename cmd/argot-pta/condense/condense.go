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

// Package condense implements the sub-command printing the condensed call graph and the context encoding of fact
// files.
package condense

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/awslabs/ar-go-pta/analysis/cgbuild"
	"github.com/awslabs/ar-go-pta/analysis/factfile"
	"github.com/awslabs/ar-go-pta/analysis/pag"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/tools"
	"github.com/awslabs/ar-go-pta/internal/formatutil"
	"github.com/awslabs/ar-go-pta/internal/funcutil"
	"github.com/awslabs/ar-go-pta/internal/graphutil"
	"github.com/yourbasic/graph"
)

// Usage of the condense sub-command
const Usage = `Print the strongly connected components, topological ranks and context encoding of the call graph of
fact files.
Usage:
  argot-pta condense [options] <fact file(s)>
Examples:
  % argot-pta condense -cycles 10 zoo.yaml
`

// Flags represents the parsed condense sub-command flags.
type Flags struct {
	tools.CommonFlags
	cycles int
}

// NewFlags returns the parsed condense sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("condense")
	cycles := flags.FlagSet.Int("cycles", 100, "maximum number of elementary cycles printed (0 to skip)")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, cycles: *cycles}, nil
}

// Run prints the condensation of every fact file given as argument to out.
func Run(flags Flags, out io.Writer) error {
	cfg, log, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	if len(flags.FlagSet.Args()) == 0 {
		return fmt.Errorf("no fact file given")
	}
	for _, filename := range flags.FlagSet.Args() {
		p, err := factfile.Load(filename)
		if err != nil {
			return err
		}
		res, err := p.Build(cfg, log)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		fmt.Fprintf(out, "%s\n%s\n\n", formatutil.Bold(filename), res.Stats())
		Print(out, res, p.Nodes.MethodName, flags.cycles)
	}
	return nil
}

// Print writes the components, the edges and at most maxCycles elementary cycles of the result to out. Methods are
// printed with name, with escape sequences in the names quoted.
func Print(out io.Writer, res *cgbuild.Result, methodName func(m pag.MethodID) string, maxCycles int) {
	name := func(m pag.MethodID) string { return formatutil.Sanitize(methodName(m)) }
	rows := [][]string{{"method", "component", "rank", "block", "blocks", "contexts"}}
	for _, m := range res.Reachable {
		rep := res.Condensed.Rep(m)
		rows = append(rows, []string{
			name(m),
			name(rep),
			strconv.Itoa(res.Condensed.Rank(rep)),
			strconv.FormatInt(res.Encoding.BlockSize(m), 10),
			strconv.FormatInt(res.Encoding.BlockNum(m), 10),
			strconv.FormatInt(res.Encoding.ContextSpan(m), 10),
		})
	}
	fmt.Fprint(out, formatutil.Columns(rows))

	fmt.Fprintf(out, "\n%s\n", formatutil.Faint("edges"))
	rows = rows[:0]
	for _, e := range res.Graph.Edges() {
		kind := ""
		switch {
		case e.SCCEdge:
			kind = formatutil.Yellow("scc")
		case !e.Mapped():
			kind = formatutil.Red("unmapped")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%s -[%d]-> %s", name(e.Caller), e.Site, name(e.Callee)),
			strconv.FormatInt(e.MapOffset, 10),
			kind,
		})
	}
	fmt.Fprint(out, formatutil.Columns(rows))

	raw := res.Graph.AsGraph(name)
	stats := graph.Check(raw)
	fmt.Fprintf(out, "\n%d edges, %d self loops, %d parallel edges merged, %d isolated methods\n",
		stats.Size, stats.Loops, res.Graph.NumEdges()-stats.Size, stats.Isolated)
	if maxCycles <= 0 {
		return
	}
	cycles := graphutil.FindAllElementaryCycles(raw, maxCycles)
	fmt.Fprintf(out, "%s\n", formatutil.Faint(fmt.Sprintf("%d elementary cycles", len(cycles))))
	for _, cycle := range cycles {
		names := funcutil.Map(cycle, func(k int64) string { return name(pag.MethodID(k)) })
		fmt.Fprintf(out, "  %s\n", strings.Join(names, " -> "))
	}
}
