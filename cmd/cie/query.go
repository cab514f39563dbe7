// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kraklabs/cie/internal/config"
	cieerrors "github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/internal/output"
	"github.com/kraklabs/cie/pkg/graphstore"
)

// runQuery executes the 'query' CLI command: a name search across the
// graph, optionally narrowed to one file and to callers/callees of a
// function.
//
// Flags:
//   - --json: Output results as JSON
//   - --file: restrict the search to entities declared in this file
//   - --limit: maximum results (default 20)
//   - --callers / --callees: list a function's callers or callees instead
//     of searching by name
func runQuery(args []string, configPath string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	filePattern := fs.String("file", "", "Restrict the search to this file")
	limit := fs.Int("limit", 20, "Maximum results")
	callers := fs.Bool("callers", false, "List callers of the named function instead of searching")
	callees := fs.Bool("callees", false, "List callees of the named function instead of searching")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie query [options] <term>

Searches the knowledge graph by name.

Examples:
  cie query handleRequest
  cie query --file src/app.ts Controller
  cie query --callers NewPipeline
  cie query --callees run --json

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		cieerrors.FatalError(cieerrors.NewInputError(
			"a search term is required",
			"no positional argument was given to 'cie query'",
			"pass a name to search for, e.g. cie query handleRequest",
		), *jsonOutput)
	}
	term := strings.Join(fs.Args(), " ")

	cfg, err := config.Load(configPath)
	if err != nil {
		cieerrors.FatalError(err, *jsonOutput)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()
	store, err := graphstore.NewClient(ctx, cfg.GraphStoreConfig(), logger)
	if err != nil {
		cieerrors.FatalError(err, *jsonOutput)
	}
	defer func() { _ = store.Close(ctx) }()

	switch {
	case *callers:
		sites, err := store.FindCallers(ctx, term)
		if err != nil {
			cieerrors.FatalError(err, *jsonOutput)
		}
		printCallSites(sites, *jsonOutput)
	case *callees:
		sites, err := store.FindCallees(ctx, term)
		if err != nil {
			cieerrors.FatalError(err, *jsonOutput)
		}
		printCallSites(sites, *jsonOutput)
	default:
		results, err := store.Search(ctx, graphstore.SearchArgs{Term: term, FilePattern: *filePattern, Limit: *limit})
		if err != nil {
			cieerrors.FatalError(err, *jsonOutput)
		}
		printSearchResults(results, *jsonOutput)
	}
}

func printSearchResults(results []graphstore.SearchResult, asJSON bool) {
	if asJSON {
		_ = output.JSON(results)
		return
	}
	if len(results) == 0 {
		fmt.Println("No results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tNAME\tFILE\tLINE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.Label, r.Name, r.FilePath, r.StartLine)
	}
	_ = w.Flush()
	fmt.Printf("\n(%d results)\n", len(results))
}

func printCallSites(sites []graphstore.CallSite, asJSON bool) {
	if asJSON {
		_ = output.JSON(sites)
		return
	}
	if len(sites) == 0 {
		fmt.Println("No results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FUNCTION\tFILE\tLINE")
	for _, s := range sites {
		fmt.Fprintf(w, "%s\t%s\t%d\n", s.Name, s.FilePath, s.Line)
	}
	_ = w.Flush()
	fmt.Printf("\n(%d results)\n", len(sites))
}
