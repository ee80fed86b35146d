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

// Package query implements the sub-command running the queries of fact files.
package query

import (
	"fmt"
	"io"

	"github.com/awslabs/ar-go-pta/analysis/factfile"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/tools"
	"github.com/awslabs/ar-go-pta/internal/formatutil"
)

// Usage of the query sub-command
const Usage = `Run the context-sensitive queries of fact files and check their expected results.
Usage:
  argot-pta query [options] <fact file(s)>
Examples:
  % argot-pta query -workers 4 zoo.yaml
`

// Flags represents the parsed query sub-command flags.
type Flags struct {
	tools.CommonFlags
	workers int
}

// NewFlags returns the parsed query sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("query")
	workers := flags.FlagSet.Int("workers", 0, "number of goroutines answering queries (default: query-workers option)")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, workers: *workers}, nil
}

// Run runs the queries of every fact file given as argument, writing one line per query to out. It returns an error
// if a file could not be loaded or a query did not give its expected result.
func Run(flags Flags, out io.Writer) error {
	cfg, log, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	workers := flags.workers
	if workers <= 0 {
		workers = cfg.QueryWorkers
	}
	if len(flags.FlagSet.Args()) == 0 {
		return fmt.Errorf("no fact file given")
	}
	failed := 0
	for _, filename := range flags.FlagSet.Args() {
		p, err := factfile.Load(filename)
		if err != nil {
			return err
		}
		if _, err := p.Build(cfg, log); err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		results, err := p.RunQueries(workers)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", formatutil.Bold(filename))
		for _, r := range results {
			if err := p.Check(r); err != nil {
				failed++
				fmt.Fprintf(out, "  %s %s: %v\n", formatutil.Red("FAIL"), r.Query.Name, err)
				continue
			}
			fmt.Fprintf(out, "  %s %s %s\n", formatutil.Green("ok"), r.Query.Name,
				formatutil.Faint(p.FormatObjects(r.Objects)))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d queries failed", failed)
	}
	return nil
}
