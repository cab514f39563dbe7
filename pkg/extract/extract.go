// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

// Package extract implements C2, the per-language syntactic extractor: it
// walks a tree-sitter concrete-syntax tree and emits typed entity records
// plus unresolved reference records (§4.2). One file per language plugin
// (typescript.go, python.go, csharp.go); shared helpers live here.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/cie/pkg/entity"
)

// DefaultMaxCodeTextSize bounds how much source text an entity's CodeText
// field retains; larger snippets are truncated and counted.
const DefaultMaxCodeTextSize = 64 * 1024

// ParseError wraps a tree-sitter parse failure (the grammar could not
// produce a tree at all), as distinct from a plugin's own entity-walking
// logic failing on an already-parsed tree. Callers use errors.As to tell
// the two apart and count them separately (§7: "Parse error vs Extractor
// error").
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("tree-sitter parse %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// base is embedded by every language extractor. It carries the knobs and
// counters common to all of them, mirroring the truncation contract of
// earlier parser generations (SetMaxCodeTextSize / GetTruncatedCount).
type base struct {
	logger          *slog.Logger
	maxCodeTextSize int64
	truncatedCount  int64
}

func newBase(logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{logger: logger, maxCodeTextSize: DefaultMaxCodeTextSize}
}

func (b *base) SetMaxCodeTextSize(n int64) {
	if n > 0 {
		b.maxCodeTextSize = n
	}
}

func (b *base) GetTruncatedCount() int64 { return b.truncatedCount }

func (b *base) ResetTruncatedCount() { b.truncatedCount = 0 }

func (b *base) truncateCodeText(text string) string {
	if int64(len(text)) <= b.maxCodeTextSize {
		return text
	}
	b.truncatedCount++
	return text[:b.maxCodeTextSize]
}

// position reports 1-indexed line/column bounds for a node, matching the
// +1 convention tree-sitter's 0-indexed points need to become the line
// numbers spec.md's identity scheme (§3.3) bakes in.
type position struct {
	startLine, endLine int
	startCol, endCol   int
}

func nodePosition(n *sitter.Node) position {
	return position{
		startLine: int(n.StartPoint().Row) + 1,
		endLine:   int(n.EndPoint().Row) + 1,
		startCol:  int(n.StartPoint().Column) + 1,
		endCol:    int(n.EndPoint().Column) + 1,
	}
}

func nodeText(content []byte, n *sitter.Node) string {
	return string(content[n.StartByte():n.EndByte()])
}

// countErrors reports how many ERROR nodes a parse produced, used only for
// a single diagnostic log line — parse errors on a whole file are handled
// by the caller (§4.2 "Failure semantics"), not here.
func countErrors(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	count := 0
	if n.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countErrors(n.Child(i))
	}
	return count
}

// buildFile constructs the File entity for one parsed source file (§3.1).
// Hash is a content digest, not part of identity (identity is path-only,
// §3.3); it exists so I3's "pure function of content hash" reparse
// invariant has something to compare against without re-reading bytes.
func buildFile(absPath string, content []byte, modTime time.Time) entity.File {
	sum := sha256.Sum256(content)
	loc := 1
	for _, b := range content {
		if b == '\n' {
			loc++
		}
	}
	return entity.File{
		Path:         absPath,
		Name:         filepath.Base(absPath),
		Extension:    filepath.Ext(absPath),
		LOC:          loc,
		LastModified: modTime.UTC().Format(time.RFC3339),
		Hash:         hex.EncodeToString(sum[:]),
	}
}

// parseCtx delegates to sitter.Parser.ParseCtx for a fresh parse (no
// previous tree is reused).
func parseCtx(ctx context.Context, p *sitter.Parser, content []byte) (*sitter.Tree, error) {
	return p.ParseCtx(ctx, nil, content)
}
