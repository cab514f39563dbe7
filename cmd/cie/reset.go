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

	"github.com/kraklabs/cie/internal/config"
	cieerrors "github.com/kraklabs/cie/internal/errors"
	"github.com/kraklabs/cie/internal/ui"
	"github.com/kraklabs/cie/pkg/graphstore"
)

// runReset executes the 'reset' CLI command: deletes a single file's File
// node and everything it CONTAINS from the graph store (the same
// detach-delete DeleteFile uses internally, exposed directly for cleaning
// up a file that was removed from the repository).
//
// Flags:
//   - --file: the file whose graph data to delete (required)
//   - --yes: confirm the deletion
func runReset(args []string, configPath string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	file := fs.String("file", "", "File whose graph data to delete (required)")
	confirm := fs.Bool("yes", false, "Confirm the reset")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cie reset --file <path> [options]

Deletes a file's node and everything it CONTAINS from the graph store.
Use this after removing a file from the repository so stale nodes don't
linger.

WARNING: This operation is destructive and cannot be undone.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *file == "" {
		cieerrors.FatalError(cieerrors.NewInputError(
			"--file is required",
			"no --file flag was given to 'cie reset'",
			"pass the file whose graph data to delete, e.g. cie reset --file src/app.ts --yes",
		), false)
	}
	if !*confirm {
		cieerrors.FatalError(cieerrors.NewInputError(
			"you must pass --yes to confirm the reset",
			"'cie reset' is destructive and requires explicit confirmation",
			"re-run with --yes once you're sure",
		), false)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		cieerrors.FatalError(err, false)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()
	store, err := graphstore.NewClient(ctx, cfg.GraphStoreConfig(), logger)
	if err != nil {
		cieerrors.FatalError(err, false)
	}
	defer func() { _ = store.Close(ctx) }()

	fmt.Printf("Deleting graph data for %s...\n", *file)
	if err := store.DeleteFileEntities(ctx, *file); err != nil {
		cieerrors.FatalError(err, false)
	}

	ui.Success("Reset complete")
}
