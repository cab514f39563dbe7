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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cie/pkg/entity"
	"github.com/kraklabs/cie/pkg/extract"
	"github.com/kraklabs/cie/pkg/registry"
	"github.com/kraklabs/cie/pkg/resolve"
)

// fakePlugin is a minimal registry.Plugin stand-in so extraction behavior
// can be exercised without a real tree-sitter grammar: any source file
// whose content is the literal string "PARSE_FAIL" fails as a tree-sitter
// parse error, "EXTRACT_FAIL" fails as a plugin-logic error, anything else
// yields one Function entity named after the file's base name.
type fakePlugin struct{ ext string }

func (p *fakePlugin) ID() string          { return "fake" }
func (p *fakePlugin) DisplayName() string { return "Fake" }
func (p *fakePlugin) Extensions() []string { return []string{p.ext} }
func (p *fakePlugin) ExtractAllEntities(_ context.Context, src []byte, filePath string) (*entity.ParsedFileEntities, error) {
	switch string(src) {
	case "PARSE_FAIL":
		return nil, &extract.ParseError{Path: filePath, Err: errors.New("syntax error")}
	case "EXTRACT_FAIL":
		return nil, errors.New("walk failed")
	}
	return &entity.ParsedFileEntities{
		File:      entity.File{Path: filePath},
		Functions: []entity.Function{{Name: filepath.Base(filePath), FilePath: filePath, StartLine: 1}},
	}, nil
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(&fakePlugin{ext: ".fk"}))
	return NewCoordinator(reg, nil, Config{}, nil)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestClassifyExtractErr(t *testing.T) {
	assert.Equal(t, "parse_error", classifyExtractErr(&extract.ParseError{Path: "a.fk", Err: errors.New("boom")}))
	assert.Equal(t, "extractor_error", classifyExtractErr(errors.New("no plugin registered for a.fk")))
}

func TestExtractSequential_ClassifiesParseVsExtractorErrors(t *testing.T) {
	c := newTestCoordinator(t)
	dir := t.TempDir()
	ok := writeFile(t, dir, "good.fk", "fine")
	parseFail := writeFile(t, dir, "bad_parse.fk", "PARSE_FAIL")
	extractFail := writeFile(t, dir, "bad_extract.fk", "EXTRACT_FAIL")

	files := []discoveredFile{{path: ok}, {path: parseFail}, {path: extractFail}}
	parsed, errs := c.extractSequential(context.Background(), files)

	require.Len(t, parsed, 1)
	assert.Equal(t, ok, parsed[0].File.Path)

	require.Len(t, errs, 2)
	byPath := map[string]string{}
	for _, e := range errs {
		byPath[e.Path] = e.Kind
	}
	assert.Equal(t, "parse_error", byPath[parseFail])
	assert.Equal(t, "extractor_error", byPath[extractFail])
}

func TestExtractAll_ParallelPathMatchesSequentialClassification(t *testing.T) {
	c := newTestCoordinator(t)
	dir := t.TempDir()

	var files []discoveredFile
	for i := 0; i < 12; i++ {
		files = append(files, discoveredFile{path: writeFile(t, dir, "ok"+string(rune('a'+i))+".fk", "fine")})
	}
	files = append(files, discoveredFile{path: writeFile(t, dir, "bad.fk", "PARSE_FAIL")})

	parsed, errs := c.extractAll(context.Background(), files)

	assert.Len(t, parsed, 12)
	require.Len(t, errs, 1)
	assert.Equal(t, "parse_error", errs[0].Kind)
}

func TestExtractOne_NoRegisteredPluginIsExtractorError(t *testing.T) {
	c := newTestCoordinator(t)
	dir := t.TempDir()
	p := writeFile(t, dir, "orphan.unknownext", "fine")

	_, err := c.extractOne(context.Background(), discoveredFile{path: p})
	require.Error(t, err)
	assert.Equal(t, "extractor_error", classifyExtractErr(err))
}

func TestExtOf(t *testing.T) {
	tests := map[string]string{
		"/src/a.ts":          ".ts",
		"/src/a.test.tsx":    ".tsx",
		"/src/noext":         "",
		"/src/dir.with.dots/a.py": ".py",
	}
	for path, want := range tests {
		if got := extOf(path); got != want {
			t.Errorf("extOf(%q) = %q; want %q", path, got, want)
		}
	}
}

func TestScopeEdgesToFile(t *testing.T) {
	fnA := entity.Function{Name: "fnA", FilePath: "/src/a.ts", StartLine: 1}
	fnB := entity.Function{Name: "fnB", FilePath: "/src/b.ts", StartLine: 1}
	fnC := entity.Function{Name: "fnC", FilePath: "/src/c.ts", StartLine: 1}

	edges := &resolve.Edges{
		Calls: []entity.CallsEdge{
			{FromFunctionID: fnA.ID(), ToFunctionID: fnB.ID(), Count: 1}, // touches a.ts
			{FromFunctionID: fnB.ID(), ToFunctionID: fnC.ID(), Count: 1}, // does not touch a.ts
		},
		Imports: []entity.ImportsEdge{
			{FromFileID: entity.FileID("/src/a.ts"), ToFileID: entity.FileID("/src/b.ts")},
			{FromFileID: entity.FileID("/src/b.ts"), ToFileID: entity.FileID("/src/c.ts")},
		},
	}

	scoped := scopeEdgesToFile(edges, "/src/a.ts")
	if len(scoped.Calls) != 1 {
		t.Fatalf("expected 1 scoped call edge, got %d", len(scoped.Calls))
	}
	if len(scoped.Imports) != 1 {
		t.Fatalf("expected 1 scoped import edge, got %d", len(scoped.Imports))
	}
}

func TestResultFromStats_AggregatesCounts(t *testing.T) {
	parsed := []*entity.ParsedFileEntities{
		{
			File:      entity.File{Path: "/src/a.ts"},
			Functions: []entity.Function{{Name: "fnA", FilePath: "/src/a.ts", StartLine: 1}},
			Classes:   []entity.Class{{Name: "A", FilePath: "/src/a.ts", StartLine: 5}},
		},
	}
	edges := &resolve.Edges{Calls: []entity.CallsEdge{{Count: 1}}}
	stats := &resolve.ResolutionResult{ResolvedRelationships: 1, UnresolvedReferences: 0}

	r := resultFromStats(parsed, edges, stats, nil, 1, nil, time.Now())
	if r.FunctionsExtracted != 1 || r.ClassesExtracted != 1 {
		t.Fatalf("unexpected extraction counts: %+v", r)
	}
	if r.CallsEdges != 1 || r.ResolvedRelationships != 1 {
		t.Fatalf("unexpected edge/resolution counts: %+v", r)
	}
	if r.Status != "complete" {
		t.Errorf("expected status complete, got %s", r.Status)
	}
}
