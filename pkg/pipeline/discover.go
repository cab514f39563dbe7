// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

// Package pipeline implements the thin Coordinator that wires C1-C4
// together: file discovery and ignore filtering (grounded on
// pkg/ingestion/repo_loader.go's walkRepository/shouldExclude/matchesGlob),
// a bounded worker pool for C2 (grounded on local_pipeline.go's
// parseFilesParallel/parseFilesSequential), and the full-project / single-
// file / delete entry points of spec.md §6.
package pipeline

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultIgnorePatterns is the configuration surface's default exclude list
// (spec.md §6 "Default ignore patterns").
var DefaultIgnorePatterns = []string{
	"node_modules", "dist", "build", ".git", "coverage",
	"__tests__", "__mocks__", ".next", ".turbo", "__pycache__",
	".venv", "venv", "*.pyc", "*.test.*", "*.spec.*",
}

// discoveredFile is one file found under the project root, eligible for
// parsing.
type discoveredFile struct {
	path string // absolute
	size int64
}

// discoverFiles walks root, skipping directories/files matched by ignore
// globs, oversized files, and binary files (sniffed the way delta.go's
// checkFileEligible does), returning only files whose extension the
// registry recognizes.
func discoverFiles(root string, ignore []string, maxFileSize int64, supportedExt func(ext string) bool) ([]discoveredFile, map[string]int, error) {
	var files []discoveredFile
	skipReasons := make(map[string]int)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}
		normalized := filepath.ToSlash(relPath)

		if d.IsDir() {
			if matchesAny(normalized, ignore) {
				skipReasons["excluded_dir"]++
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAny(normalized, ignore) {
			skipReasons["excluded"]++
			return nil
		}
		if !supportedExt(filepath.Ext(path)) {
			skipReasons["unsupported_language"]++
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if maxFileSize > 0 && info.Size() > maxFileSize {
			skipReasons["too_large"]++
			return nil
		}
		if looksBinary(path) {
			skipReasons["binary"]++
			return nil
		}

		files = append(files, discoveredFile{path: path, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, skipReasons, err
	}
	return files, skipReasons, nil
}

// matchesAny reports whether path matches any of the given glob patterns,
// each evaluated by matchesGlob.
func matchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if matchesGlob(path, p) {
			return true
		}
	}
	return false
}

// matchesGlob supports *, **, and literal substring/suffix matching, the
// subset of pkg/ingestion/repo_loader.go's matchesGlob this coordinator's
// default ignore patterns actually exercise (directory names, "*.pyc"-style
// extension globs, and "*.test.*" infix globs).
func matchesGlob(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	if strings.HasPrefix(pattern, "*.") && !strings.Contains(pattern[1:], "/") {
		return globMatchSegment(filepath.Base(path), pattern)
	}
	if !strings.ContainsAny(pattern, "*?[") {
		// Literal pattern: matches a path component exactly, or as a
		// directory prefix (so "node_modules" excludes node_modules/** too).
		parts := strings.Split(path, "/")
		for _, part := range parts {
			if part == pattern {
				return true
			}
		}
		return false
	}
	return globMatchSegment(filepath.Base(path), pattern) || globMatchSegment(path, pattern)
}

// globMatchSegment matches a single '*'-style glob (no '**') against s.
func globMatchSegment(s, pattern string) bool {
	ok, err := filepath.Match(pattern, s)
	return err == nil && ok
}

// looksBinary sniffs the first 8KB of path for a NUL byte, the same
// heuristic delta.go's checkFileEligible uses.
func looksBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	const sniff = 8192
	buf := make([]byte, sniff)
	n, _ := io.ReadFull(f, buf)
	if n <= 0 {
		return false
	}
	return bytes.IndexByte(buf[:n], 0x00) >= 0
}
