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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/cie/internal/config"
	cieerrors "github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/internal/output"
	"github.com/kraklabs/cie/internal/ui"
	"github.com/kraklabs/cie/pkg/pipeline"
)

// startMetricsServer serves Prometheus metrics on addr in the background.
// A bind failure is logged, not fatal — metrics are a diagnostic aid, not
// required for indexing to succeed.
func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()
}

// runIndex executes the 'index' CLI command: a full-project parse by
// default, or a single-file incremental reparse with --file.
//
// Flags:
//   - --file: reparse only this file (relative to the project root)
//   - --debug: enable debug logging
//   - --json: print the ParseResult as JSON instead of a formatted summary
//
// Examples:
//
//	cie index                    Full project parse
//	cie index --file src/app.ts  Incremental reparse of one file
func runIndex(args []string, configPath string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	file := fs.String("file", "", "Reparse only this file (incremental)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	jsonOutput := fs.Bool("json", false, "Output the parse result as JSON")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090) while indexing")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie index [options]

Parses the project (or a single file) and upserts the knowledge graph,
using configuration from .cie/project.yaml.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *metricsAddr != "" {
		startMetricsServer(*metricsAddr)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		cieerrors.FatalError(err, *jsonOutput)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	var bar *progressbar.ProgressBar
	var onFileDone func(path string)
	if *file == "" && !*jsonOutput {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
		onFileDone = func(path string) { _ = bar.Add(1) }
	}

	coord, store, err := newCoordinator(ctx, cfg, logger, onFileDone)
	if err != nil {
		cieerrors.FatalError(err, *jsonOutput)
	}
	defer func() { _ = store.Close(ctx) }()

	var result *pipeline.ParseResult
	if *file != "" {
		path := *file
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.ProjectRoot, path)
		}
		result, err = coord.ParseFile(ctx, path)
	} else {
		result, err = coord.ParseProject(ctx, cfg.ProjectRoot, nil)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if result != nil {
			printIndexResult(result, *jsonOutput)
		}
		cieerrors.FatalError(cieerrors.NewInternalError(
			"index failed",
			err.Error(),
			"check the indexing error above and re-run 'cie index'",
			err,
		), *jsonOutput)
	}

	printIndexResult(result, *jsonOutput)
	if result.Status != "complete" {
		os.Exit(1)
	}
}

func printIndexResult(result *pipeline.ParseResult, asJSON bool) {
	if asJSON {
		_ = output.JSON(result)
		return
	}

	ui.Header("Index Result")
	fmt.Printf("Status:   %s\n", result.Status)
	fmt.Printf("Duration: %s\n", result.Duration)
	fmt.Println()

	ui.SubHeader("Files")
	fmt.Printf("  Processed:    %s\n", ui.CountText(result.FilesProcessed))
	fmt.Printf("  Parse errors: %s\n", ui.CountText(result.ParseErrors))
	for _, fe := range result.Errors {
		fmt.Printf("    %s: %s\n", fe.Path, fe.Message)
	}
	fmt.Println()

	ui.SubHeader("Entities")
	fmt.Printf("  Functions:   %s\n", ui.CountText(result.FunctionsExtracted))
	fmt.Printf("  Classes:     %s\n", ui.CountText(result.ClassesExtracted))
	fmt.Printf("  Interfaces:  %s\n", ui.CountText(result.InterfacesExtracted))
	fmt.Printf("  Variables:   %s\n", ui.CountText(result.VariablesExtracted))
	fmt.Printf("  Types:       %s\n", ui.CountText(result.TypesExtracted))
	fmt.Printf("  Components:  %s\n", ui.CountText(result.ComponentsExtracted))
	fmt.Println()

	ui.SubHeader("Edges")
	fmt.Printf("  Contains:    %s\n", ui.CountText(result.ContainsEdges))
	fmt.Printf("  Imports:     %s\n", ui.CountText(result.ImportsEdges))
	fmt.Printf("  Calls:       %s\n", ui.CountText(result.CallsEdges))
	fmt.Printf("  Extends:     %s\n", ui.CountText(result.ExtendsEdges))
	fmt.Printf("  Implements:  %s\n", ui.CountText(result.ImplementsEdges))
	fmt.Printf("  Renders:     %s\n", ui.CountText(result.RendersEdges))
	fmt.Println()

	ui.SubHeader("Resolution")
	fmt.Printf("  Resolved:   %s\n", ui.CountText(result.ResolvedRelationships))
	fmt.Printf("  Unresolved: %s\n", ui.CountText(result.UnresolvedReferences))

	if len(result.SkipReasons) > 0 {
		fmt.Println()
		ui.SubHeader("Skipped Files")
		for reason, count := range result.SkipReasons {
			fmt.Printf("  %s: %d\n", reason, count)
		}
	}

	if result.Error != "" {
		fmt.Println()
		ui.Error(result.Error)
	} else if result.Status == "complete" {
		fmt.Println()
		ui.Success("Index complete")
	}
}
