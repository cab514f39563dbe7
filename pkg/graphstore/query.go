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

import (
	"context"
	"fmt"

	"github.com/kraklabs/cie/pkg/entity"
)

// SearchArgs mirrors the ambient read-endpoint contract: a free-text term
// matched against name, signature, and code, with an optional file filter.
type SearchArgs struct {
	Term        string
	FilePattern string // substring match against file path, not a full regex
	Limit       int
}

// SearchResult is one Function/Class/Interface/Component/Type match.
type SearchResult struct {
	ID        string
	Label     string
	Name      string
	FilePath  string
	StartLine int
}

// Search looks up entities whose name, signature, or code text contains
// term, case-insensitively, translating the teacher's regex_matches-over-
// name/signature/code_text predicate into Cypher's toLower/CONTAINS (§6
// read endpoints).
func (c *Client) Search(ctx context.Context, args SearchArgs) ([]SearchResult, error) {
	if args.Term == "" {
		return nil, fmt.Errorf("graphstore: search term is required")
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 20
	}

	q := `MATCH (n)
WHERE (n:Function OR n:Class OR n:Interface OR n:Component OR n:Type)
  AND (toLower(n.name) CONTAINS toLower($term)
       OR toLower(coalesce(n.signature, '')) CONTAINS toLower($term)
       OR toLower(coalesce(n.codeText, '')) CONTAINS toLower($term))
  AND ($filePattern = '' OR n.filePath CONTAINS $filePattern)
RETURN n.id AS id, labels(n)[0] AS label, n.name AS name, n.filePath AS filePath, n.startLine AS startLine
LIMIT $limit`

	records, err := c.query(ctx, q, map[string]any{
		"term": args.Term, "filePattern": args.FilePattern, "limit": limit,
	})
	if err != nil {
		return nil, err
	}
	return toSearchResults(records), nil
}

func toSearchResults(records []map[string]any) []SearchResult {
	out := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		out = append(out, SearchResult{
			ID:        asString(rec["id"]),
			Label:     asString(rec["label"]),
			Name:      asString(rec["name"]),
			FilePath:  asString(rec["filePath"]),
			StartLine: asInt(rec["startLine"]),
		})
	}
	return out
}

// CallSite names one end of a CALLS edge.
type CallSite struct {
	FunctionID string
	Name       string
	FilePath   string
	Line       int
}

// FindCallers returns every function with a CALLS edge into functionName,
// matching on exact name or a trailing ".Name" (method-call) suffix, same
// leniency as the teacher's FindCallers.
func (c *Client) FindCallers(ctx context.Context, functionName string) ([]CallSite, error) {
	if functionName == "" {
		return nil, fmt.Errorf("graphstore: function name is required")
	}
	q := `MATCH (caller:Function)-[r:CALLS]->(callee:Function)
WHERE callee.name = $name OR callee.name ENDS WITH $suffix
RETURN caller.id AS id, caller.name AS name, caller.filePath AS filePath, caller.startLine AS line`
	records, err := c.query(ctx, q, map[string]any{"name": functionName, "suffix": "." + functionName})
	if err != nil {
		return nil, err
	}
	return toCallSites(records), nil
}

// FindCallees returns every function functionName has a CALLS edge to.
func (c *Client) FindCallees(ctx context.Context, functionName string) ([]CallSite, error) {
	if functionName == "" {
		return nil, fmt.Errorf("graphstore: function name is required")
	}
	q := `MATCH (caller:Function)-[r:CALLS]->(callee:Function)
WHERE caller.name = $name OR caller.name ENDS WITH $suffix
RETURN callee.id AS id, callee.name AS name, callee.filePath AS filePath, callee.startLine AS line`
	records, err := c.query(ctx, q, map[string]any{"name": functionName, "suffix": "." + functionName})
	if err != nil {
		return nil, err
	}
	return toCallSites(records), nil
}

func toCallSites(records []map[string]any) []CallSite {
	out := make([]CallSite, 0, len(records))
	for _, rec := range records {
		out = append(out, CallSite{
			FunctionID: asString(rec["id"]),
			Name:       asString(rec["name"]),
			FilePath:   asString(rec["filePath"]),
			Line:       asInt(rec["line"]),
		})
	}
	return out
}

// FileSubgraph returns every entity a file CONTAINS, for inspecting one
// file's slice of the graph without a full-graph query.
func (c *Client) FileSubgraph(ctx context.Context, path string) ([]SearchResult, error) {
	q := `MATCH (f:File {id: $id})-[:CONTAINS]->(n)
RETURN n.id AS id, labels(n)[0] AS label, n.name AS name, n.filePath AS filePath, n.startLine AS startLine`
	records, err := c.query(ctx, q, map[string]any{"id": entity.FileID(path)})
	if err != nil {
		return nil, err
	}
	return toSearchResults(records), nil
}

// Stats is the per-label node count and per-type edge count, the Cypher
// analogue of the teacher's ListFiles/status summaries.
type Stats struct {
	NodeCountsByLabel map[string]int64
	EdgeCountsByType  map[string]int64
	EdgeCount         int64
}

// Stats reports how many nodes of each label and how many edges of each
// relationship type the store currently holds (§6: "statistics queries
// return node counts per label and edge counts per type").
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	labels := []string{"File", "Function", "Class", "Interface", "Variable", "Type", "Component"}
	nodeCounts := make(map[string]int64, len(labels))
	for _, label := range labels {
		q := fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS c", label)
		records, err := c.query(ctx, q, nil)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			nodeCounts[label] = asInt64(records[0]["c"])
		}
	}

	edgeRecords, err := c.query(ctx, "MATCH ()-[r]->() RETURN type(r) AS t, count(r) AS c", nil)
	if err != nil {
		return nil, err
	}
	edgeCounts := make(map[string]int64, len(edgeRecords))
	var edgeCount int64
	for _, rec := range edgeRecords {
		n := asInt64(rec["c"])
		edgeCounts[asString(rec["t"])] = n
		edgeCount += n
	}

	return &Stats{NodeCountsByLabel: nodeCounts, EdgeCountsByType: edgeCounts, EdgeCount: edgeCount}, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
