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
	"sync"

	"github.com/kraklabs/cie/pkg/entity"
	"github.com/kraklabs/cie/pkg/resolve"
)

// EnsureIndexes creates the uniqueness constraints this store relies on for
// idempotent MERGE (§4.4 "upserts assume an index exists on id"), plus the
// range/name indexes the read layer's Search/FindCallers/FindCallees
// queries depend on (§6: "range on File.path; name indexes on
// Function.name, Class.name, Component.name"). Re-running against an
// already-indexed database is a no-op: CREATE CONSTRAINT/INDEX IF NOT
// EXISTS tolerates repeat calls, matching the rest of this layer's
// idempotence guarantee.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	labels := []string{"File", "Function", "Class", "Interface", "Variable", "Type", "Component"}
	for _, label := range labels {
		q := fmt.Sprintf("CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", label)
		if err := c.run(ctx, q, nil); err != nil {
			return fmt.Errorf("graphstore: ensure index for %s: %w", label, err)
		}
	}

	rangeIndexes := map[string]string{
		"File": "path",
	}
	for label, prop := range rangeIndexes {
		q := fmt.Sprintf("CREATE RANGE INDEX IF NOT EXISTS FOR (n:%s) ON (n.%s)", label, prop)
		if err := c.run(ctx, q, nil); err != nil {
			return fmt.Errorf("graphstore: ensure range index for %s.%s: %w", label, prop, err)
		}
	}

	nameIndexLabels := []string{"Function", "Class", "Component"}
	for _, label := range nameIndexLabels {
		q := fmt.Sprintf("CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n.name)", label)
		if err := c.run(ctx, q, nil); err != nil {
			return fmt.Errorf("graphstore: ensure name index for %s: %w", label, err)
		}
	}
	return nil
}

// UpsertFile merges a File node keyed on its absolute path.
func (c *Client) UpsertFile(ctx context.Context, f entity.File) error {
	mu := c.lockFor(f.Path)
	mu.Lock()
	defer mu.Unlock()

	b := newCypherBuilder()
	q, err := b.buildMergeNode("File", "id", f.ID(), map[string]any{
		"path":         f.Path,
		"name":         f.Name,
		"extension":    f.Extension,
		"loc":          f.LOC,
		"lastModified": f.LastModified,
		"hash":         f.Hash,
	})
	if err != nil {
		return err
	}
	return c.run(ctx, q, b.paramMap())
}

// entityNode is the label/key/properties view shared by every non-File
// entity kind, letting UpsertEntity and BatchUpsert stay kind-agnostic.
type entityNode struct {
	label string
	id    string
	props map[string]any
}

func functionNode(fn entity.Function) entityNode {
	return entityNode{label: "Function", id: fn.ID(), props: map[string]any{
		"name": fn.Name, "filePath": fn.FilePath, "startLine": fn.StartLine, "endLine": fn.EndLine,
		"isExported": fn.IsExported, "isAsync": fn.IsAsync, "isArrow": fn.IsArrow,
		"isGenerator": fn.IsGenerator, "returnType": fn.ReturnType, "docstring": fn.Docstring,
		"signature": fn.Signature, "codeText": fn.CodeText,
	}}
}

func classNode(cl entity.Class) entityNode {
	return entityNode{label: "Class", id: cl.ID(), props: map[string]any{
		"name": cl.Name, "filePath": cl.FilePath, "startLine": cl.StartLine, "endLine": cl.EndLine,
		"isExported": cl.IsExported, "isAbstract": cl.IsAbstract, "extends": cl.Extends,
		"docstring": cl.Docstring, "codeText": cl.CodeText,
	}}
}

func interfaceNode(i entity.Interface) entityNode {
	return entityNode{label: "Interface", id: i.ID(), props: map[string]any{
		"name": i.Name, "filePath": i.FilePath, "startLine": i.StartLine, "endLine": i.EndLine,
		"isExported": i.IsExported, "docstring": i.Docstring, "codeText": i.CodeText,
	}}
}

func variableNode(v entity.Variable) entityNode {
	return entityNode{label: "Variable", id: v.ID(), props: map[string]any{
		"name": v.Name, "filePath": v.FilePath, "line": v.Line,
		"kind": string(v.Kind), "isExported": v.IsExported, "type": v.Type,
	}}
}

func typeNode(t entity.TypeAlias) entityNode {
	return entityNode{label: "Type", id: t.ID(), props: map[string]any{
		"name": t.Name, "filePath": t.FilePath, "startLine": t.StartLine, "endLine": t.EndLine,
		"isExported": t.IsExported, "kind": string(t.Kind), "docstring": t.Docstring, "codeText": t.CodeText,
	}}
}

func componentNode(c entity.Component) entityNode {
	return entityNode{label: "Component", id: c.ID(), props: map[string]any{
		"name": c.Name, "filePath": c.FilePath, "startLine": c.StartLine, "endLine": c.EndLine,
		"isExported": c.IsExported, "propsType": c.PropsType, "codeText": c.CodeText,
	}}
}

// UpsertEntity merges one non-File node and the CONTAINS edge from its
// owning File, per §4.4's ordering contract (callers upsert the File first).
func (c *Client) UpsertEntity(ctx context.Context, fileID string, n entityNode) error {
	b := newCypherBuilder()
	nodeQ, err := b.buildMergeNode(n.label, "id", n.id, n.props)
	if err != nil {
		return err
	}
	edgeB := newCypherBuilder()
	edgeQ, err := edgeB.buildMergeEdge("File", "id", fileID, n.label, "id", n.id, "CONTAINS", nil)
	if err != nil {
		return err
	}
	if err := c.run(ctx, nodeQ, b.paramMap()); err != nil {
		return err
	}
	return c.run(ctx, edgeQ, edgeB.paramMap())
}

// CreateCallEdge merges a CALLS edge, incrementing its count if the caller
// already calls the callee (§3.2 CALLS, §3.3 I5): ON CREATE starts the
// counter at the batch's own count, ON MATCH adds to whatever the store
// already holds.
func (c *Client) CreateCallEdge(ctx context.Context, e entity.CallsEdge) error {
	b := newCypherBuilder()
	fromParam := b.addParam(e.FromFunctionID)
	toParam := b.addParam(e.ToFunctionID)
	lineParam := b.addParam(e.Line)
	countParam := b.addParam(e.Count)
	q := fmt.Sprintf(
		`MATCH (from:Function {id: %s}) MATCH (to:Function {id: %s})
MERGE (from)-[r:CALLS]->(to)
ON CREATE SET r.line = %s, r.count = %s
ON MATCH SET r.count = r.count + %s`,
		fromParam, toParam, lineParam, countParam, countParam,
	)
	return c.run(ctx, q, b.paramMap())
}

// createSimpleEdge merges an edge kind with no count semantics (IMPORTS,
// IMPLEMENTS, RENDERS).
func (c *Client) createSimpleEdge(ctx context.Context, fromLabel, toLabel, edgeLabel, fromID, toID string, props map[string]any) error {
	b := newCypherBuilder()
	q, err := b.buildMergeEdge(fromLabel, "id", fromID, toLabel, "id", toID, edgeLabel, props)
	if err != nil {
		return err
	}
	return c.run(ctx, q, b.paramMap())
}

// createEdgeByID merges EXTENDS, whose endpoints may be Class or Interface
// (§3.2), by id alone rather than a fixed label pair.
func (c *Client) createEdgeByID(ctx context.Context, fromID, toID, edgeLabel string, props map[string]any) error {
	b := newCypherBuilder()
	q, err := b.buildMergeEdgeByID(fromID, toID, edgeLabel, props)
	if err != nil {
		return err
	}
	return c.run(ctx, q, b.paramMap())
}

// DeleteFileEntities detach-deletes a File node and every entity it
// CONTAINS in a single statement (§3.4 "reparsing a file deletes the old
// File node and everything it CONTAINS, in one transaction, before
// inserting the new extraction").
func (c *Client) DeleteFileEntities(ctx context.Context, path string) error {
	mu := c.lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	q := `MATCH (f:File {id: $id})
OPTIONAL MATCH (f)-[:CONTAINS]->(e)
DETACH DELETE f, e`
	return c.run(ctx, q, map[string]any{"id": entity.FileID(path)})
}

// BatchUpsert writes one fully-extracted-and-resolved file plus its edges,
// in the order §4.4 treats as a contract, not an implementation choice:
// the File node first, then its entities (concurrently — they don't depend
// on each other), then the edges that reference them.
func (c *Client) BatchUpsert(ctx context.Context, pfe *entity.ParsedFileEntities, edges *resolve.Edges) error {
	if err := c.UpsertFile(ctx, pfe.File); err != nil {
		return fmt.Errorf("graphstore: upsert file %s: %w", pfe.File.Path, err)
	}

	fileID := pfe.File.ID()
	var nodes []entityNode
	for _, fn := range pfe.Functions {
		nodes = append(nodes, functionNode(fn))
	}
	for _, cl := range pfe.Classes {
		nodes = append(nodes, classNode(cl))
	}
	for _, i := range pfe.Interfaces {
		nodes = append(nodes, interfaceNode(i))
	}
	for _, v := range pfe.Variables {
		nodes = append(nodes, variableNode(v))
	}
	for _, t := range pfe.Types {
		nodes = append(nodes, typeNode(t))
	}
	for _, comp := range pfe.Components {
		nodes = append(nodes, componentNode(comp))
	}

	if err := c.upsertEntitiesConcurrently(ctx, fileID, nodes); err != nil {
		return err
	}

	if edges == nil {
		return nil
	}
	return c.upsertEdges(ctx, edges)
}

// upsertEntitiesConcurrently mirrors the worker-pool idiom used elsewhere in
// this pipeline: entities within one file are independent of each other, so
// they upsert concurrently, bounded the same way C3's parallel resolution is.
func (c *Client) upsertEntitiesConcurrently(ctx context.Context, fileID string, nodes []entityNode) error {
	if len(nodes) == 0 {
		return nil
	}
	numWorkers := 8
	if len(nodes) < numWorkers {
		numWorkers = len(nodes)
	}

	jobCh := make(chan entityNode, len(nodes))
	for _, n := range nodes {
		jobCh <- n
	}
	close(jobCh)

	errCh := make(chan error, len(nodes))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobCh {
				if err := c.UpsertEntity(ctx, fileID, n); err != nil {
					errCh <- fmt.Errorf("graphstore: upsert %s %s: %w", n.label, n.id, err)
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

// UpsertEdges writes every cross-entity edge kind Pass B produced, once
// every endpoint has already been upserted via BatchUpsert (§4.4/§5
// ordering contract: edges observe a happens-before relationship to both
// endpoint upserts).
func (c *Client) UpsertEdges(ctx context.Context, edges *resolve.Edges) error {
	if edges == nil {
		return nil
	}
	return c.upsertEdges(ctx, edges)
}

// upsertEdges writes every cross-entity edge kind Pass B produced. CALLS
// uses CreateCallEdge's count semantics; the rest are plain merges.
func (c *Client) upsertEdges(ctx context.Context, edges *resolve.Edges) error {
	for _, e := range edges.Imports {
		if err := c.createSimpleEdge(ctx, "File", "File", "IMPORTS", e.FromFileID, e.ToFileID, nil); err != nil {
			return fmt.Errorf("graphstore: imports edge: %w", err)
		}
	}
	for _, e := range edges.Calls {
		if err := c.CreateCallEdge(ctx, e); err != nil {
			return fmt.Errorf("graphstore: calls edge: %w", err)
		}
	}
	for _, e := range edges.Extends {
		if err := c.createEdgeByID(ctx, e.FromID, e.ToID, "EXTENDS", nil); err != nil {
			return fmt.Errorf("graphstore: extends edge: %w", err)
		}
	}
	for _, e := range edges.Implements {
		if err := c.createSimpleEdge(ctx, "Class", "Interface", "IMPLEMENTS", e.FromClassID, e.ToInterfaceID, nil); err != nil {
			return fmt.Errorf("graphstore: implements edge: %w", err)
		}
	}
	for _, e := range edges.Renders {
		if err := c.createSimpleEdge(ctx, "Component", "Component", "RENDERS", e.FromComponentID, e.ToComponentID, map[string]any{"line": e.Line}); err != nil {
			return fmt.Errorf("graphstore: renders edge: %w", err)
		}
	}
	return nil
}
