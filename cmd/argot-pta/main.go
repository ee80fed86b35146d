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

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/ar-go-pta/cmd/argot-pta/condense"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/gostats"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/query"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/render"
	"github.com/awslabs/ar-go-pta/cmd/argot-pta/tools"
)

const usage = `Argot-pta: context-sensitive points-to queries
Usage:
  argot-pta [tool] [options] <file(s)>
Tools:
  - query: runs the queries of fact files and checks their expected results
  - condense: prints the components, ranks and context encoding of the call graph of fact files
  - render: renders the call graph of a fact file in DOT format
  - gostats: analyzes a Go program and prints the statistics of its encoded call graph
Examples:
  Run the queries of a fact file: argot-pta query -workers 4 zoo.yaml
  Analyze a Go program: argot-pta gostats -analysis pointer main.go`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(tools.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "query":
		flags, err := query.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := query.Run(flags, os.Stdout); err != nil {
			errExit(err)
		}
	case "condense":
		flags, err := condense.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := condense.Run(flags, os.Stdout); err != nil {
			errExit(err)
		}
	case "render":
		flags, err := render.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := render.Run(flags, os.Stdout); err != nil {
			errExit(err)
		}
	case "gostats":
		flags, err := gostats.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := gostats.Run(flags, os.Stdout); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
