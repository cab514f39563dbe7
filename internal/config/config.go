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

// Package config loads the project.yaml configuration recognised by the
// pipeline core: project root, ignore globs, extension filter, worker
// count, store timeout, and graph store connection settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/cie/internal/contract"
	"github.com/kraklabs/cie/pkg/graphstore"
	"github.com/kraklabs/cie/pkg/pipeline"
)

// StoreConfig holds the graph store connection settings.
type StoreConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Config is the configuration shape recognised by the core: projectRoot,
// ignore patterns, an optional extension filter, worker count, store
// timeout, and the store connection.
type Config struct {
	ProjectID        string      `yaml:"project_id"`
	ProjectRoot      string      `yaml:"project_root"`
	Ignore           []string    `yaml:"ignore,omitempty"`
	ExtensionFilter  []string    `yaml:"extension_filter,omitempty"`
	WorkerCount      int         `yaml:"worker_count,omitempty"`
	StoreTimeoutMs   int         `yaml:"store_timeout_ms,omitempty"`
	MaxFileSizeBytes int64       `yaml:"max_file_size_bytes,omitempty"`
	Store            StoreConfig `yaml:"store"`
}

// DefaultConfig returns a Config with the core's default ignore patterns
// and connection settings pointing at a local Neo4j instance, for the
// given project identifier.
func DefaultConfig(projectID, projectRoot string) *Config {
	return &Config{
		ProjectID:        projectID,
		ProjectRoot:      projectRoot,
		Ignore:           append([]string(nil), pipeline.DefaultIgnorePatterns...),
		WorkerCount:      0, // 0 means "let the pipeline pick a default"
		StoreTimeoutMs:   30_000,
		MaxFileSizeBytes: 1 << 20, // 1 MiB
		Store: StoreConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
	}
}

// ConfigDir returns the .cie directory under repoDir.
func ConfigDir(repoDir string) string {
	return filepath.Join(repoDir, ".cie")
}

// ConfigPath returns the project.yaml path under repoDir.
func ConfigPath(repoDir string) string {
	return filepath.Join(ConfigDir(repoDir), "project.yaml")
}

// Load reads and parses the configuration at path. An empty path resolves
// to ConfigPath(cwd).
func Load(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: get working directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied, not request input
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w (run 'cie init' first)", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.ProjectRoot == "" {
		cfg.ProjectRoot = filepath.Dir(filepath.Dir(path))
	}
	applyEnvOverrides(&cfg)
	if cfg.MaxFileSizeBytes > 0 {
		if effective, result := contract.ValidateFileSizeLimit(cfg.MaxFileSizeBytes); !result.OK {
			cfg.MaxFileSizeBytes = effective
		}
	}
	return &cfg, nil
}

// applyEnvOverrides lets CIE_STORE_URI / CIE_STORE_USER / CIE_STORE_PASSWORD
// / CIE_STORE_DATABASE win over the file, the same override pattern the
// core's connection error messages already advertise.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CIE_STORE_URI"); v != "" {
		cfg.Store.URI = v
	}
	if v := os.Getenv("CIE_STORE_USER"); v != "" {
		cfg.Store.User = v
	}
	if v := os.Getenv("CIE_STORE_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}
	if v := os.Getenv("CIE_STORE_DATABASE"); v != "" {
		cfg.Store.Database = v
	}
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// PipelineConfig translates the on-disk shape into pkg/pipeline.Config.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		ProjectID:        c.ProjectID,
		Ignore:           c.Ignore,
		ExtensionFilter:  c.ExtensionFilter,
		MaxFileSizeBytes: c.MaxFileSizeBytes,
		WorkerCount:      c.WorkerCount,
		CheckpointDir:    ConfigDir(c.ProjectRoot),
	}
}

// GraphStoreConfig translates the on-disk shape into pkg/graphstore.Config.
func (c *Config) GraphStoreConfig() graphstore.Config {
	return graphstore.Config{
		URI:       c.Store.URI,
		User:      c.Store.User,
		Password:  c.Store.Password,
		Database:  c.Store.Database,
		TimeoutMs: c.StoreTimeoutMs,
	}
}
