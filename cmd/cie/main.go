// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the CIE CLI for building and querying the code
// knowledge graph.
//
// Usage:
//
//	cie init                Create .cie/project.yaml configuration
//	cie index                Parse the project and upsert the graph
//	cie index --file <path>  Incrementally reparse a single file
//	cie status [--json]      Show project status
//	cie query <term> [--json] Search the graph by name
//	cie reset --file <path> --yes  Delete one file's graph data
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .cie/project.yaml (default: ./.cie/project.yaml)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `CIE - Code Intelligence Engine CLI

Usage:
  cie <command> [options]

Commands:
  init          Create .cie/project.yaml configuration
  index         Parse the project (or one file) and upsert the graph
  status        Show graph store status
  query         Search the graph by name
  reset         Delete a file's graph data (destructive!)
  install-hook  Install a git post-commit hook for auto-reindexing

Global Options:
  --config  Path to .cie/project.yaml
  --version Show version and exit

Examples:
  cie init
  cie index
  cie index --file src/app.ts
  cie status --json
  cie query handleRequest

Environment Variables:
  CIE_STORE_URI       Graph store bolt URI (overrides project.yaml)
  CIE_STORE_USER      Graph store user
  CIE_STORE_PASSWORD  Graph store password
  CIE_STORE_DATABASE  Graph store database name

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("cie version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "index":
		runIndex(cmdArgs, *configPath)
	case "status":
		runStatus(cmdArgs, *configPath)
	case "query":
		runQuery(cmdArgs, *configPath)
	case "reset":
		runReset(cmdArgs, *configPath)
	case "install-hook":
		runInstallHook(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
