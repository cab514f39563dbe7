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
	"os"
	"time"

	"github.com/kraklabs/cie/internal/config"
	cieerrors "github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/internal/output"
	"github.com/kraklabs/cie/internal/ui"
	"github.com/kraklabs/cie/pkg/graphstore"
)

// StatusResult is the project status for JSON output.
type StatusResult struct {
	ProjectID string           `json:"project_id"`
	StoreURI  string           `json:"store_uri"`
	Connected bool             `json:"connected"`
	Nodes     map[string]int64 `json:"nodes,omitempty"`
	Edges     map[string]int64 `json:"edges,omitempty"`
	EdgeCount int64            `json:"edge_count"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, displaying graph store
// statistics.
//
// Flags:
//   - --json: Output results as JSON
func runStatus(args []string, configPath string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie status [options]

Shows graph store statistics for the current project.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		reportStatusErr(&StatusResult{Timestamp: time.Now()}, err, *jsonOutput)
	}

	result := &StatusResult{ProjectID: cfg.ProjectID, StoreURI: cfg.Store.URI, Timestamp: time.Now()}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()
	store, err := graphstore.NewClient(ctx, cfg.GraphStoreConfig(), logger)
	if err != nil {
		reportStatusErr(result, err, *jsonOutput)
	}
	defer func() { _ = store.Close(ctx) }()

	result.Connected = true
	stats, err := store.Stats(ctx)
	if err != nil {
		reportStatusErr(result, err, *jsonOutput)
	}
	result.Nodes = stats.NodeCountsByLabel
	result.Edges = stats.EdgeCountsByType
	result.EdgeCount = stats.EdgeCount

	if *jsonOutput {
		_ = output.JSON(result)
		return
	}
	printStatus(result)
}

// reportStatusErr prints the richer StatusResult shape (project ID, store
// URI, timestamp alongside the error) rather than FatalError's plain
// ErrorJSON, then exits with the error's classified exit code.
func reportStatusErr(result *StatusResult, err error, asJSON bool) {
	result.Error = err.Error()
	exitCode := cieerrors.ExitInternal
	if ue, ok := err.(*cieerrors.UserError); ok {
		exitCode = ue.ExitCode
	}
	if asJSON {
		_ = output.JSON(result)
	} else {
		ui.Errorf("%v", err)
	}
	os.Exit(exitCode)
}

func printStatus(result *StatusResult) {
	ui.Header("CIE Project Status")
	fmt.Printf("Project ID: %s\n", result.ProjectID)
	fmt.Printf("Store URI:  %s\n", result.StoreURI)
	fmt.Println()

	ui.SubHeader("Nodes")
	for label, count := range result.Nodes {
		fmt.Printf("  %-12s %s\n", label+":", ui.CountText(int(count)))
	}
	fmt.Println()

	ui.SubHeader("Edges")
	for edgeType, count := range result.Edges {
		fmt.Printf("  %-12s %s\n", edgeType+":", ui.CountText(int(count)))
	}
	fmt.Printf("  %-12s %s\n", "total:", ui.CountText(int(result.EdgeCount)))
}
