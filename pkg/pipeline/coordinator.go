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
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/kraklabs/cie/pkg/entity"
	"github.com/kraklabs/cie/pkg/extract"
	"github.com/kraklabs/cie/pkg/graphstore"
	"github.com/kraklabs/cie/pkg/registry"
	"github.com/kraklabs/cie/pkg/resolve"
)

// Config carries the settings this coordinator needs beyond its
// collaborators (§6 "configuration shape").
type Config struct {
	ProjectID        string   // used to namespace the checkpoint file; empty disables checkpointing
	Ignore           []string // merged with DefaultIgnorePatterns
	ExtensionFilter  []string // if non-empty, narrows the registry's supported extensions
	MaxFileSizeBytes int64    // 0 = no limit
	WorkerCount      int      // 0 = runtime.NumCPU()

	// CheckpointDir, if non-empty (and ProjectID is set), enables crash
	// restartability bookkeeping for ParseProject: per-file progress is
	// persisted under this directory and cleared on a successful run.
	CheckpointDir string

	// OnFileDone, if set, is invoked once per discovered file after C2
	// extraction finishes (success or failure) — a caller's hook for
	// progress reporting. Called from worker goroutines; must be
	// concurrency-safe.
	OnFileDone func(path string)
}

// FileError records a single file's extraction failure without aborting
// the rest of the run — a project-wide parse tolerates a handful of
// unparseable files (syntax errors, truncated source) and reports them
// here rather than failing outright.
type FileError struct {
	Path    string
	Kind    string // "parse_error" or "extractor_error" (§7, counted separately)
	Message string
}

// ParseResult is the status/statistics envelope returned to the
// HTTP/RPC collaborator (§6): "a status (complete|error), statistics
// (files, entities by kind, edges by kind, duration, errors)".
type ParseResult struct {
	Status                string // "complete" | "error"
	FilesProcessed        int
	ParseErrors           int
	Errors                []FileError
	FunctionsExtracted    int
	ClassesExtracted      int
	InterfacesExtracted   int
	VariablesExtracted    int
	TypesExtracted        int
	ComponentsExtracted   int
	ContainsEdges         int
	ImportsEdges          int
	CallsEdges            int
	ExtendsEdges          int
	ImplementsEdges       int
	RendersEdges          int
	ResolvedRelationships int
	UnresolvedReferences  int
	SkipReasons           map[string]int
	Duration              time.Duration
	Error                 string
}

// Coordinator wires the Language Plugin Registry (C1), the per-file
// Syntactic Extractor (C2), the Two-Pass Resolver (C3), and the Graph
// Upsert Layer (C4) together, grounded on local_pipeline.go's
// LocalPipeline.Run. It keeps the last known extraction of every file so a
// single-file reparse (ParseFile) can re-run the resolver scoped to the
// touched file without discarding the rest of the project's symbol table.
type Coordinator struct {
	reg    *registry.Registry
	store  *graphstore.Client
	cfg    Config
	logger *slog.Logger
	ckpt   *CheckpointManager // nil when checkpointing is disabled

	mu          sync.Mutex
	projectRoot string
	files       map[string]*entity.ParsedFileEntities // absolute path -> last extraction
}

// NewCoordinator constructs a Coordinator. reg and store must already be
// set up (plugins registered, store connected with indexes ensured).
func NewCoordinator(reg *registry.Registry, store *graphstore.Client, cfg Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	var ckpt *CheckpointManager
	if cfg.CheckpointDir != "" && cfg.ProjectID != "" {
		ckpt = NewCheckpointManager(cfg.CheckpointDir)
	}
	return &Coordinator{
		reg:    reg,
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "pipeline"),
		ckpt:   ckpt,
		files:  make(map[string]*entity.ParsedFileEntities),
	}
}

func (c *Coordinator) ignoreGlobs(extra []string) []string {
	out := make([]string, 0, len(DefaultIgnorePatterns)+len(c.cfg.Ignore)+len(extra))
	out = append(out, DefaultIgnorePatterns...)
	out = append(out, c.cfg.Ignore...)
	out = append(out, extra...)
	return out
}

// supportedExt is the registry's support check narrowed by an optional
// extensionFilter (§6 configuration shape: "extensionFilter?: list of
// extensions").
func (c *Coordinator) supportedExt(ext string) bool {
	if !c.reg.IsSupported(ext) {
		return false
	}
	if len(c.cfg.ExtensionFilter) == 0 {
		return true
	}
	for _, allowed := range c.cfg.ExtensionFilter {
		if allowed == ext {
			return true
		}
	}
	return false
}

// ParseProject runs a full-project parse: discover files, extract them
// concurrently (C2), build the Symbol Registry and resolve every reference
// (C3, a barrier after all C2 work completes per §5), then upsert
// everything (C4) — File before its entities, entities before edges,
// entities within a file concurrently (§4.4/§5 ordering contract).
func (c *Coordinator) ParseProject(ctx context.Context, root string, ignore []string) (*ParseResult, error) {
	start := time.Now()
	c.logger.Info("pipeline.parse_project.start", "root", root)

	if c.ckpt != nil {
		if prior, err := c.ckpt.Load(c.cfg.ProjectID); err == nil && prior != nil {
			c.logger.Warn("pipeline.parse_project.resuming_after_interruption",
				"files_processed", prior.FilesProcessed, "files_total", prior.FilesTotal,
				"last_processed_file", prior.LastProcessedFile, "interrupted_at", prior.LastUpdateTime)
		}
	}

	discovered, skipReasons, err := discoverFiles(root, c.ignoreGlobs(ignore), c.cfg.MaxFileSizeBytes, c.supportedExt)
	if err != nil {
		return errorResult(start, fmt.Errorf("discover files: %w", err)), err
	}

	if c.ckpt != nil {
		c.trackCheckpoint(len(discovered), start)
	}

	parsed, fileErrs := c.extractAll(ctx, discovered)

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].File.Path < parsed[j].File.Path })

	c.mu.Lock()
	c.projectRoot = root
	c.files = make(map[string]*entity.ParsedFileEntities, len(parsed))
	for _, pfe := range parsed {
		c.files[pfe.File.Path] = pfe
	}
	c.mu.Unlock()

	reg := resolve.BuildRegistry(parsed)
	resolver := resolve.NewResolver(reg, root, parsed)
	edges, stats := resolver.Resolve(parsed)

	if err := c.writeAll(ctx, parsed, edges); err != nil {
		return errorResult(start, err), err
	}
	if c.ckpt != nil {
		_ = c.ckpt.Clear(c.cfg.ProjectID)
	}

	result := resultFromStats(parsed, edges, stats, skipReasons, len(parsed), fileErrs, start)
	c.logger.Info("pipeline.parse_project.complete",
		"files", result.FilesProcessed, "functions", result.FunctionsExtracted,
		"resolved", result.ResolvedRelationships, "unresolved", result.UnresolvedReferences,
		"duration_ms", result.Duration.Milliseconds(),
	)
	pipelineMetrics.recordResult(result)
	return result, nil
}

// trackCheckpoint composes the caller's OnFileDone (if any) with a
// checkpoint save, so ParseProject's progress survives a crash without
// disturbing an existing progress-reporting hook.
func (c *Coordinator) trackCheckpoint(total int, start time.Time) {
	prevHook := c.cfg.OnFileDone
	var mu sync.Mutex
	done := 0
	c.cfg.OnFileDone = func(path string) {
		if prevHook != nil {
			prevHook(path)
		}
		mu.Lock()
		done++
		cp := &Checkpoint{
			ProjectID:         c.cfg.ProjectID,
			FilesProcessed:    done,
			FilesTotal:        total,
			LastProcessedFile: path,
			StartTime:         start,
			LastUpdateTime:    time.Now(),
		}
		mu.Unlock()
		if err := c.ckpt.Save(cp); err != nil {
			c.logger.Warn("pipeline.checkpoint.save_failed", "err", err)
		}
	}
}

// extractAll runs C2 over every discovered file, bounded by cfg.WorkerCount
// (default runtime.NumCPU()), falling back to sequential extraction for
// small file sets — the same shape as local_pipeline.go's
// parseFilesParallel/parseFilesSequential split.
func (c *Coordinator) extractAll(ctx context.Context, files []discoveredFile) ([]*entity.ParsedFileEntities, []FileError) {
	if len(files) == 0 {
		return nil, nil
	}
	numWorkers := c.cfg.WorkerCount
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if len(files) < 10 || numWorkers <= 1 {
		return c.extractSequential(ctx, files)
	}

	jobs := make(chan discoveredFile, len(files))
	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	type result struct {
		pfe *entity.ParsedFileEntities
		err error
		path string
	}
	resultsCh := make(chan result, len(files))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				pfe, err := c.extractOne(ctx, f)
				resultsCh <- result{pfe: pfe, err: err, path: f.path}
				if c.cfg.OnFileDone != nil {
					c.cfg.OnFileDone(f.path)
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var out []*entity.ParsedFileEntities
	var errs []FileError
	for r := range resultsCh {
		if r.err != nil {
			errs = append(errs, FileError{Path: r.path, Kind: classifyExtractErr(r.err), Message: r.err.Error()})
			c.logger.Warn("pipeline.extract.error", "path", r.path, "err", r.err)
			continue
		}
		out = append(out, r.pfe)
	}
	return out, errs
}

// classifyExtractErr distinguishes a tree-sitter parse failure from a
// plugin extraction failure so ParseResult.Errors can count them
// separately (§7).
func classifyExtractErr(err error) string {
	var pe *extract.ParseError
	if errors.As(err, &pe) {
		return "parse_error"
	}
	return "extractor_error"
}

func (c *Coordinator) extractSequential(ctx context.Context, files []discoveredFile) ([]*entity.ParsedFileEntities, []FileError) {
	var out []*entity.ParsedFileEntities
	var errs []FileError
	for _, f := range files {
		select {
		case <-ctx.Done():
			return out, errs
		default:
		}
		pfe, err := c.extractOne(ctx, f)
		if c.cfg.OnFileDone != nil {
			c.cfg.OnFileDone(f.path)
		}
		if err != nil {
			errs = append(errs, FileError{Path: f.path, Kind: classifyExtractErr(err), Message: err.Error()})
			c.logger.Warn("pipeline.extract.error", "path", f.path, "err", err)
			continue
		}
		out = append(out, pfe)
	}
	return out, errs
}

func (c *Coordinator) extractOne(ctx context.Context, f discoveredFile) (*entity.ParsedFileEntities, error) {
	plugin, ok := c.reg.Lookup(extOf(f.path))
	if !ok {
		return nil, fmt.Errorf("no plugin registered for %s", f.path)
	}
	src, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return plugin.ExtractAllEntities(ctx, src, f.path)
}

// writeAll upserts the files' entities one file after another (each
// BatchUpsert call holds that file's C4 lock) and then writes the resolved
// edges once, after every endpoint has been upserted (§4.4 ordering contract).
func (c *Coordinator) writeAll(ctx context.Context, parsed []*entity.ParsedFileEntities, edges *resolve.Edges) error {
	if err := c.store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	for _, pfe := range parsed {
		if err := c.store.BatchUpsert(ctx, pfe, nil); err != nil {
			return fmt.Errorf("upsert %s: %w", pfe.File.Path, err)
		}
	}
	if err := c.store.UpsertEdges(ctx, edges); err != nil {
		return fmt.Errorf("upsert edges: %w", err)
	}
	return nil
}

// ParseFile re-parses a single file (spec.md §4.4 "Incremental reparse"):
// it extracts the new entity set, replaces the file's stored node set
// (detach-delete then re-upsert — the net effect step 2-4 of §4.4
// describe, made idempotent by MERGE so a partial prior state is never
// visible), then re-runs the resolver over the whole cached project and
// applies only the edges whose source or target touch this file (step 5,
// "scoped to references whose source or target is in the touched file").
func (c *Coordinator) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	start := time.Now()

	plugin, ok := c.reg.Lookup(extOf(path))
	if !ok {
		err := fmt.Errorf("no plugin registered for %s", path)
		return errorResult(start, err), err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return errorResult(start, err), err
	}
	pfe, err := plugin.ExtractAllEntities(ctx, src, path)
	if err != nil {
		return errorResult(start, err), err
	}

	if err := c.store.DeleteFileEntities(ctx, path); err != nil {
		return errorResult(start, err), err
	}

	c.mu.Lock()
	if c.files == nil {
		c.files = make(map[string]*entity.ParsedFileEntities)
	}
	c.files[path] = pfe
	allFiles := make([]*entity.ParsedFileEntities, 0, len(c.files))
	for _, f := range c.files {
		allFiles = append(allFiles, f)
	}
	root := c.projectRoot
	c.mu.Unlock()

	if err := c.store.BatchUpsert(ctx, pfe, nil); err != nil {
		return errorResult(start, err), err
	}

	sort.Slice(allFiles, func(i, j int) bool { return allFiles[i].File.Path < allFiles[j].File.Path })
	reg := resolve.BuildRegistry(allFiles)
	resolver := resolve.NewResolver(reg, root, allFiles)
	edges, stats := resolver.Resolve(allFiles)

	scoped := scopeEdgesToFile(edges, path)
	if err := c.store.UpsertEdges(ctx, scoped); err != nil {
		return errorResult(start, err), err
	}

	result := resultFromStats([]*entity.ParsedFileEntities{pfe}, scoped, stats, nil, 1, nil, start)
	c.logger.Info("pipeline.parse_file.complete", "path", path, "duration_ms", result.Duration.Milliseconds())
	pipelineMetrics.recordResult(result)
	return result, nil
}

// DeleteFile removes a file's node and every entity it CONTAINS, cascading
// their edges in one transaction (§3.3 I4), and drops it from the cached
// project state.
func (c *Coordinator) DeleteFile(ctx context.Context, path string) error {
	if err := c.store.DeleteFileEntities(ctx, path); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.files, path)
	c.mu.Unlock()
	return nil
}

// scopeEdgesToFile narrows a full resolution result down to the edges
// whose File-identified endpoint is path, or whose Function/Class/etc.
// endpoint's identity embeds path — the "scoped to references whose
// source or target is in the touched file" rule of §4.4.
func scopeEdgesToFile(edges *resolve.Edges, path string) *resolve.Edges {
	fileID := entity.FileID(path)
	touches := func(id string) bool {
		return hasFilePathPrefix(id, path) || id == fileID
	}

	out := &resolve.Edges{}
	for _, e := range edges.Contains {
		if e.FromFileID == fileID || touches(e.ToID) {
			out.Contains = append(out.Contains, e)
		}
	}
	for _, e := range edges.Imports {
		if e.FromFileID == fileID || e.ToFileID == fileID {
			out.Imports = append(out.Imports, e)
		}
	}
	for _, e := range edges.Calls {
		if touches(e.FromFunctionID) || touches(e.ToFunctionID) {
			out.Calls = append(out.Calls, e)
		}
	}
	for _, e := range edges.Extends {
		if touches(e.FromID) || touches(e.ToID) {
			out.Extends = append(out.Extends, e)
		}
	}
	for _, e := range edges.Implements {
		if touches(e.FromClassID) || touches(e.ToInterfaceID) {
			out.Implements = append(out.Implements, e)
		}
	}
	for _, e := range edges.Renders {
		if touches(e.FromComponentID) || touches(e.ToComponentID) {
			out.Renders = append(out.Renders, e)
		}
	}
	return out
}

// hasFilePathPrefix reports whether a ranged-entity identity
// (Label:filePath:name:line) embeds path as its file-path segment.
func hasFilePathPrefix(id, path string) bool {
	// id is "<Label>:<filePath>:<name>:<line>"; filePath itself may
	// contain ':' on some platforms, so match on containment of the
	// delimited segment rather than a strict split.
	return len(id) > 0 && containsSegment(id, path)
}

func containsSegment(id, path string) bool {
	marker := ":" + path + ":"
	return indexOf(id, marker) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}

func errorResult(start time.Time, err error) *ParseResult {
	return &ParseResult{Status: "error", Error: err.Error(), Duration: time.Since(start)}
}

func resultFromStats(parsed []*entity.ParsedFileEntities, edges *resolve.Edges, stats *resolve.ResolutionResult, skipReasons map[string]int, filesProcessed int, fileErrs []FileError, start time.Time) *ParseResult {
	r := &ParseResult{
		Status:                "complete",
		FilesProcessed:        filesProcessed,
		ParseErrors:           len(fileErrs),
		Errors:                fileErrs,
		ContainsEdges:         len(edges.Contains),
		ImportsEdges:          len(edges.Imports),
		CallsEdges:            len(edges.Calls),
		ExtendsEdges:          len(edges.Extends),
		ImplementsEdges:       len(edges.Implements),
		RendersEdges:          len(edges.Renders),
		ResolvedRelationships: stats.ResolvedRelationships,
		UnresolvedReferences:  stats.UnresolvedReferences,
		SkipReasons:           skipReasons,
		Duration:              time.Since(start),
	}
	for _, pfe := range parsed {
		r.FunctionsExtracted += len(pfe.Functions)
		r.ClassesExtracted += len(pfe.Classes)
		r.InterfacesExtracted += len(pfe.Interfaces)
		r.VariablesExtracted += len(pfe.Variables)
		r.TypesExtracted += len(pfe.Types)
		r.ComponentsExtracted += len(pfe.Components)
	}
	return r
}
