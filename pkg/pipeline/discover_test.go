// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatchesGlob_DirectoryNames(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"node_modules/react/index.js", "node_modules", true},
		{"src/node_modules/index.js", "node_modules", true},
		{"src/components/Button.tsx", "node_modules", false},
		{"src/components/Button.test.tsx", "*.test.*", true},
		{"src/components/Button.tsx", "*.test.*", false},
		{"a/b/__pycache__/c.pyc", "__pycache__", true},
		{"a/b/c.pyc", "*.pyc", true},
		{"vendor/lib/file.go", "vendor/**", true},
		{"lib/vendor_utils.go", "vendor/**", false},
	}
	for _, tt := range tests {
		if got := matchesGlob(tt.path, tt.pattern); got != tt.want {
			t.Errorf("matchesGlob(%q, %q) = %v; want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}

func TestMatchesAny(t *testing.T) {
	if !matchesAny("dist/bundle.js", DefaultIgnorePatterns) {
		t.Error("expected dist/bundle.js to be ignored by default patterns")
	}
	if matchesAny("src/index.ts", DefaultIgnorePatterns) {
		t.Error("expected src/index.ts to not be ignored by default patterns")
	}
}

func TestLooksBinary(t *testing.T) {
	dir := t.TempDir()

	textFile := filepath.Join(dir, "a.ts")
	if err := os.WriteFile(textFile, []byte("export const x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if looksBinary(textFile) {
		t.Error("expected text file to not look binary")
	}

	binFile := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(binFile, []byte{0x00, 0x01, 0x02, 'a', 'b'}, 0o644); err != nil {
		t.Fatal(err)
	}
	if !looksBinary(binFile) {
		t.Error("expected NUL-containing file to look binary")
	}
}

func TestDiscoverFiles_RespectsExtensionAndIgnore(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "src", "index.ts"), "export const x = 1;")
	mustWrite(t, filepath.Join(dir, "src", "index.test.ts"), "test")
	mustWrite(t, filepath.Join(dir, "node_modules", "lib", "index.ts"), "vendored")
	mustWrite(t, filepath.Join(dir, "README.md"), "docs")

	supported := func(ext string) bool { return ext == ".ts" }
	files, skipped, err := discoverFiles(dir, DefaultIgnorePatterns, 0, supported)
	if err != nil {
		t.Fatalf("discoverFiles: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected exactly 1 eligible file, got %d: %v", len(files), files)
	}
	if filepath.Base(files[0].path) != "index.ts" {
		t.Errorf("expected src/index.ts, got %s", files[0].path)
	}
	if skipped["unsupported_language"] == 0 {
		t.Error("expected README.md to be skipped as unsupported_language")
	}
	if skipped["excluded"] == 0 && skipped["excluded_dir"] == 0 {
		t.Error("expected node_modules content to be excluded")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
