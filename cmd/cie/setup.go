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
	"log/slog"

	"github.com/kraklabs/cie/internal/bootstrap"
	"github.com/kraklabs/cie/internal/config"
	"github.com/kraklabs/cie/pkg/graphstore"
	"github.com/kraklabs/cie/pkg/pipeline"
)

// newCoordinator connects the graph store, ensures its indexes, and wires
// it together with a freshly built plugin registry into a
// pipeline.Coordinator. Callers must Close the returned *graphstore.Client.
// onFileDone, if non-nil, is invoked once per file extracted — a caller's
// hook for progress reporting.
func newCoordinator(ctx context.Context, cfg *config.Config, logger *slog.Logger, onFileDone func(path string)) (*pipeline.Coordinator, *graphstore.Client, error) {
	pipelineCfg := cfg.PipelineConfig()
	pipelineCfg.OnFileDone = onFileDone
	return bootstrap.OpenCoordinator(ctx, bootstrap.ProjectConfig{
		ProjectID: cfg.ProjectID,
		Store:     cfg.GraphStoreConfig(),
	}, pipelineCfg, logger)
}
