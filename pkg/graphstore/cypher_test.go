// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package graphstore

import "testing"

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Function", true},
		{"_private", true},
		{"camelCase123", true},
		{"", false},
		{"has space", false},
		{"has-dash", false},
		{"1leadingDigit", false},
		{"DROP TABLE", false},
	}
	for _, tt := range tests {
		if got := isValidIdentifier(tt.in); got != tt.want {
			t.Errorf("isValidIdentifier(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildMergeNode(t *testing.T) {
	b := newCypherBuilder()
	q, err := b.buildMergeNode("Function", "id", "Function:a.ts:f:1", map[string]any{"name": "f"})
	if err != nil {
		t.Fatalf("buildMergeNode: %v", err)
	}
	if q == "" {
		t.Fatal("expected non-empty query")
	}
	params := b.paramMap()
	if len(params) != 2 {
		t.Fatalf("expected 2 params (unique value + one property), got %d: %v", len(params), params)
	}
}

func TestBuildMergeNode_RejectsInvalidLabel(t *testing.T) {
	b := newCypherBuilder()
	if _, err := b.buildMergeNode("Function; DROP", "id", "x", nil); err == nil {
		t.Fatal("expected error for invalid label")
	}
}

func TestBuildMergeNode_RejectsInvalidPropertyKey(t *testing.T) {
	b := newCypherBuilder()
	if _, err := b.buildMergeNode("Function", "id", "x", map[string]any{"bad key": 1}); err == nil {
		t.Fatal("expected error for invalid property key")
	}
}

func TestBuildMergeEdge(t *testing.T) {
	b := newCypherBuilder()
	q, err := b.buildMergeEdge("File", "id", "File:a.ts", "File", "id", "File:b.ts", "IMPORTS", nil)
	if err != nil {
		t.Fatalf("buildMergeEdge: %v", err)
	}
	if q == "" {
		t.Fatal("expected non-empty query")
	}
	if len(b.paramMap()) != 2 {
		t.Fatalf("expected 2 params, got %d", len(b.paramMap()))
	}
}

func TestBuildMergeEdgeByID(t *testing.T) {
	b := newCypherBuilder()
	q, err := b.buildMergeEdgeByID("Class:a.ts:A:1", "Interface:b.ts:B:1", "IMPLEMENTS", nil)
	if err != nil {
		t.Fatalf("buildMergeEdgeByID: %v", err)
	}
	if q == "" {
		t.Fatal("expected non-empty query")
	}
}

func TestBuildMergeEdgeByID_RejectsInvalidEdgeLabel(t *testing.T) {
	b := newCypherBuilder()
	if _, err := b.buildMergeEdgeByID("a", "b", "BAD LABEL", nil); err == nil {
		t.Fatal("expected error for invalid edge label")
	}
}
