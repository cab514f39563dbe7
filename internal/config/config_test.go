// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("myproj", "/repo")
	if cfg.ProjectID != "myproj" || cfg.ProjectRoot != "/repo" {
		t.Fatalf("unexpected identity fields: %+v", cfg)
	}
	if len(cfg.Ignore) == 0 {
		t.Error("expected default ignore patterns to be populated")
	}
	if cfg.Store.URI == "" {
		t.Error("expected a default store URI")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".cie", "project.yaml")

	want := DefaultConfig("roundtrip", dir)
	want.Ignore = append(want.Ignore, "extra/**")

	if err := Save(want, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ProjectID != want.ProjectID {
		t.Errorf("ProjectID = %q; want %q", got.ProjectID, want.ProjectID)
	}
	if len(got.Ignore) != len(want.Ignore) {
		t.Errorf("Ignore = %v; want %v", got.Ignore, want.Ignore)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := DefaultConfig("envtest", "/repo")
	t.Setenv("CIE_STORE_URI", "bolt://override:7687")
	applyEnvOverrides(cfg)
	if cfg.Store.URI != "bolt://override:7687" {
		t.Errorf("Store.URI = %q; want override applied", cfg.Store.URI)
	}
}

func TestPipelineConfig_CarriesExtensionFilter(t *testing.T) {
	cfg := DefaultConfig("p", "/repo")
	cfg.ExtensionFilter = []string{".ts", ".py"}
	pc := cfg.PipelineConfig()
	if len(pc.ExtensionFilter) != 2 {
		t.Fatalf("expected extension filter to carry over, got %v", pc.ExtensionFilter)
	}
}
