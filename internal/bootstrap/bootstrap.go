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

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kraklabs/cie/pkg/extract"
	"github.com/kraklabs/cie/pkg/graphstore"
	"github.com/kraklabs/cie/pkg/pipeline"
	"github.com/kraklabs/cie/pkg/registry"
)

// ProjectConfig holds configuration for initializing a project against the
// graph store.
type ProjectConfig struct {
	// ProjectID is the logical project identifier (reported in logs only;
	// the graph store itself has no notion of project scoping).
	ProjectID string

	// Store is the graph store connection.
	Store graphstore.Config
}

// ProjectInfo holds information about an initialized project.
type ProjectInfo struct {
	ProjectID string
	StoreURI  string
}

// InitProject connects to the graph store and ensures its uniqueness
// constraints exist. This function is idempotent: calling it multiple
// times is safe, since EnsureIndexes uses CREATE CONSTRAINT IF NOT EXISTS.
func InitProject(ctx context.Context, config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	logger.Info("bootstrap.project.init.start", "project_id", config.ProjectID, "store_uri", config.Store.URI)

	store, err := graphstore.NewClient(ctx, config.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to graph store: %w", err)
	}
	defer func() { _ = store.Close(ctx) }()

	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	logger.Info("bootstrap.project.init.success", "project_id", config.ProjectID)

	return &ProjectInfo{ProjectID: config.ProjectID, StoreURI: config.Store.URI}, nil
}

// OpenCoordinator connects to the graph store, ensures its indexes, and
// wires it together with a fully-registered Language Plugin Registry into a
// ready-to-use pipeline.Coordinator. Callers must Close the returned
// *graphstore.Client.
func OpenCoordinator(ctx context.Context, config ProjectConfig, pipelineCfg pipeline.Config, logger *slog.Logger) (*pipeline.Coordinator, *graphstore.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := registry.New()
	for _, p := range []registry.Plugin{
		extract.NewTSPlugin(logger),
		extract.NewPyPlugin(logger),
		extract.NewCSharpPlugin(logger),
	} {
		if err := reg.Register(p); err != nil {
			return nil, nil, fmt.Errorf("register %s plugin: %w", p.ID(), err)
		}
	}

	store, err := graphstore.NewClient(ctx, config.Store, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to graph store: %w", err)
	}

	if err := store.EnsureIndexes(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return pipeline.NewCoordinator(reg, store, pipelineCfg, logger), store, nil
}
