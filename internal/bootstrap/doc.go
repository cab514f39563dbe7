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

// Package bootstrap handles CIE project initialization and setup against
// the graph store.
//
// # Initialization Workflow
//
//	info, err := bootstrap.InitProject(ctx, bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	    Store:     graphstore.Config{URI: "bolt://localhost:7687", User: "neo4j", Password: "..."},
//	}, logger)
//
//	coord, store, err := bootstrap.OpenCoordinator(ctx, bootstrap.ProjectConfig{...}, pipeline.Config{}, logger)
//	defer store.Close(ctx)
//
// # Idempotency
//
// InitProject is idempotent: its constraint creation uses
// "CREATE CONSTRAINT IF NOT EXISTS", so repeat calls are safe.
package bootstrap
