// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/kraklabs/cie/pkg/entity"
	"github.com/kraklabs/cie/pkg/extract"
)

// parallelThreshold mirrors the teacher resolver's sequential/parallel
// dispatch cutoff (pkg/ingestion/resolver.go ResolveCalls): below this
// many references, goroutine overhead isn't worth paying.
const parallelThreshold = 1000

// ResolutionResult is the aggregate output of Pass B (§4.3 "Outputs").
type ResolutionResult struct {
	TotalSymbols          int
	ResolvedRelationships int
	UnresolvedReferences  int
	SymbolsByFile         map[string]int
}

// Edges bundles every edge kind Pass B can produce.
type Edges struct {
	Contains   []entity.ContainsEdge
	Imports    []entity.ImportsEdge
	Calls      []entity.CallsEdge
	Extends    []entity.ExtendsEdge
	Implements []entity.ImplementsEdge
	Renders    []entity.RendersEdge
}

// Resolver runs Pass B against a Registry built by Pass A. It is a pure
// function of the combined entity set and that registry (§4.3
// "Guarantees"): the same inputs always produce the same edge set,
// independent of file processing order, because the tie-break policy in
// sortCandidates is itself order-independent.
type Resolver struct {
	registry     *Registry
	projectRoot  string
	importGraph  map[string]map[string]bool // file -> set of files it resolves an import to
	knownFiles   map[string]bool            // every File path in this batch (the resolver's "does it exist" substitute)
}

// NewResolver builds the import graph (§4.3 item 4) ahead of Pass B so
// call/inheritance/render resolution can consult "is file B reachable from
// file A via a direct IMPORTS edge" without recomputation per reference.
func NewResolver(registry *Registry, projectRoot string, files []*entity.ParsedFileEntities) *Resolver {
	r := &Resolver{
		registry:    registry,
		projectRoot: projectRoot,
		importGraph: make(map[string]map[string]bool),
		knownFiles:  make(map[string]bool),
	}
	for _, pfe := range files {
		r.knownFiles[pfe.File.Path] = true
	}
	for _, pfe := range files {
		for i := range pfe.Imports {
			resolved := resolveImportPath(projectRoot, pfe.File.Path, pfe.Imports[i].Source, r.knownFiles)
			if resolved == "" {
				continue
			}
			pfe.Imports[i].ResolvedPath = resolved
			if r.importGraph[pfe.File.Path] == nil {
				r.importGraph[pfe.File.Path] = make(map[string]bool)
			}
			r.importGraph[pfe.File.Path][resolved] = true
		}
	}
	return r
}

// resolveImportPath computes the resolved absolute path of an import
// source, per §4.2/§4.3 item 4: relative-path resolution for JS/TS,
// PyImportCandidatePaths for Python; the first candidate present in
// knownFiles (standing in for "under projectRoot", since no disk probe is
// performed — §9 Open Question 3) wins.
func resolveImportPath(projectRoot, fromFile, source string, knownFiles map[string]bool) string {
	if strings.HasSuffix(fromFile, ".py") || strings.HasSuffix(fromFile, ".pyw") || strings.HasSuffix(fromFile, ".pyi") {
		for _, candidate := range extract.PyImportCandidatePaths(projectRoot, fromFile, source) {
			if knownFiles[candidate] {
				return candidate
			}
		}
		return ""
	}

	if !strings.HasPrefix(source, ".") {
		return "" // bare module specifier: not intra-project (§3.2 IMPORTS is intra-project only)
	}
	dir := filepath.Dir(fromFile)
	base := filepath.Clean(filepath.Join(dir, source))
	for _, ext := range []string{"", ".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"} {
		if knownFiles[base+ext] {
			return base + ext
		}
	}
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
		idx := filepath.Join(base, "index"+ext)
		if knownFiles[idx] {
			return idx
		}
	}
	return ""
}

// Resolve runs Pass B over every file's unresolved references, producing
// the Edges and the ResolutionResult statistics of §4.3.
func (r *Resolver) Resolve(files []*entity.ParsedFileEntities) (*Edges, *ResolutionResult) {
	edges := &Edges{}
	stats := &ResolutionResult{
		TotalSymbols:  r.registry.TotalSymbols(),
		SymbolsByFile: make(map[string]int),
	}

	for _, pfe := range files {
		stats.SymbolsByFile[pfe.File.Path] = len(r.registry.SymbolsByFile(pfe.File.Path))

		// CONTAINS: one edge per non-File entity (I1).
		fileID := pfe.File.ID()
		for _, fn := range pfe.Functions {
			edges.Contains = append(edges.Contains, entity.ContainsEdge{FromFileID: fileID, ToID: fn.ID()})
		}
		for _, c := range pfe.Classes {
			edges.Contains = append(edges.Contains, entity.ContainsEdge{FromFileID: fileID, ToID: c.ID()})
		}
		for _, i := range pfe.Interfaces {
			edges.Contains = append(edges.Contains, entity.ContainsEdge{FromFileID: fileID, ToID: i.ID()})
		}
		for _, v := range pfe.Variables {
			edges.Contains = append(edges.Contains, entity.ContainsEdge{FromFileID: fileID, ToID: v.ID()})
		}
		for _, t := range pfe.Types {
			edges.Contains = append(edges.Contains, entity.ContainsEdge{FromFileID: fileID, ToID: t.ID()})
		}
		for _, c := range pfe.Components {
			edges.Contains = append(edges.Contains, entity.ContainsEdge{FromFileID: fileID, ToID: c.ID()})
		}

		// IMPORTS: emitted for every import whose resolvedPath was set
		// while building the import graph (§4.3 item 4, P8).
		for _, imp := range pfe.Imports {
			if imp.ResolvedPath == "" {
				continue
			}
			edges.Imports = append(edges.Imports, entity.ImportsEdge{
				FromFileID: fileID,
				ToFileID:   entity.FileID(imp.ResolvedPath),
				Specifiers: imp.Specifiers,
			})
		}
	}

	callCount := 0
	for _, pfe := range files {
		callCount += len(pfe.CallRefs) + len(pfe.InheritanceRefs) + len(pfe.RenderRefs)
	}
	if callCount < parallelThreshold {
		r.resolveSequential(files, edges, stats)
	} else {
		r.resolveParallel(files, edges, stats)
	}

	return edges, stats
}

func (r *Resolver) resolveSequential(files []*entity.ParsedFileEntities, edges *Edges, stats *ResolutionResult) {
	callCounts := make(map[string]*entity.CallsEdge)
	for _, pfe := range files {
		for _, ref := range pfe.CallRefs {
			r.resolveOneCall(pfe.File.Path, ref, callCounts, stats)
		}
		for _, ref := range pfe.InheritanceRefs {
			r.resolveOneInheritance(pfe.File.Path, ref, edges, stats)
		}
		for _, ref := range pfe.RenderRefs {
			r.resolveOneRender(pfe.File.Path, ref, edges, stats)
		}
	}
	for _, e := range callCounts {
		edges.Calls = append(edges.Calls, *e)
	}
}

// resolveParallel fans references out across a bounded worker pool, same
// shape as pkg/ingestion/resolver.go's resolveCallsParallel: the registry
// is shared read-only after Pass A (§9), so concurrent lookups are safe;
// only the shared counters are synchronized.
func (r *Resolver) resolveParallel(files []*entity.ParsedFileEntities, edges *Edges, stats *ResolutionResult) {
	numWorkers := runtime.NumCPU()
	if numWorkers > 8 {
		numWorkers = 8
	}

	type job struct {
		file string
		call *entity.CallRef
		inh  *entity.InheritanceRef
		ren  *entity.RenderRef
	}

	var jobs []job
	for _, pfe := range files {
		for i := range pfe.CallRefs {
			jobs = append(jobs, job{file: pfe.File.Path, call: &pfe.CallRefs[i]})
		}
		for i := range pfe.InheritanceRefs {
			jobs = append(jobs, job{file: pfe.File.Path, inh: &pfe.InheritanceRefs[i]})
		}
		for i := range pfe.RenderRefs {
			jobs = append(jobs, job{file: pfe.File.Path, ren: &pfe.RenderRefs[i]})
		}
	}

	jobCh := make(chan job, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	var mu sync.Mutex
	callCounts := make(map[string]*entity.CallsEdge)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				switch {
				case j.call != nil:
					mu.Lock()
					r.resolveOneCall(j.file, *j.call, callCounts, stats)
					mu.Unlock()
				case j.inh != nil:
					mu.Lock()
					r.resolveOneInheritance(j.file, *j.inh, edges, stats)
					mu.Unlock()
				case j.ren != nil:
					mu.Lock()
					r.resolveOneRender(j.file, *j.ren, edges, stats)
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	for _, e := range callCounts {
		edges.Calls = append(edges.Calls, *e)
	}
}

func (r *Resolver) resolveOneCall(callerFile string, ref entity.CallRef, callCounts map[string]*entity.CallsEdge, stats *ResolutionResult) {
	callerSym := r.findOwn(callerFile, ref.CallerName, KindFunction)
	if callerSym == nil {
		stats.UnresolvedReferences++
		return
	}
	target := r.resolveName(ref.CalleeName, callerFile, func(s SymbolInfo) bool { return s.Type == KindFunction })
	if target == nil {
		stats.UnresolvedReferences++
		return
	}
	key := callerSym.ID + "->" + target.ID
	if existing, ok := callCounts[key]; ok {
		existing.Count++
		return
	}
	stats.ResolvedRelationships++
	callCounts[key] = &entity.CallsEdge{FromFunctionID: callerSym.ID, ToFunctionID: target.ID, Line: ref.Line, Count: 1}
}

func (r *Resolver) resolveOneInheritance(childFile string, ref entity.InheritanceRef, edges *Edges, stats *ResolutionResult) {
	childSym := r.findOwn(childFile, ref.ChildName, KindClass)
	if childSym == nil {
		childSym = r.findOwn(childFile, ref.ChildName, KindInterface)
	}
	if childSym == nil {
		stats.UnresolvedReferences++
		return
	}
	var pred func(SymbolInfo) bool
	if ref.Kind == entity.InheritanceImplements {
		pred = func(s SymbolInfo) bool { return s.Type == KindInterface }
	} else {
		// extends: Class -> Class or Interface -> Interface only, never
		// mixed, matching childSym's own kind (entity.ExtendsEdge's contract).
		pred = func(s SymbolInfo) bool { return s.Type == childSym.Type }
	}
	parent := r.resolveName(ref.ParentName, childFile, pred)
	if parent == nil {
		stats.UnresolvedReferences++
		return
	}
	stats.ResolvedRelationships++
	if ref.Kind == entity.InheritanceImplements {
		edges.Implements = append(edges.Implements, entity.ImplementsEdge{FromClassID: childSym.ID, ToInterfaceID: parent.ID})
	} else {
		edges.Extends = append(edges.Extends, entity.ExtendsEdge{FromID: childSym.ID, ToID: parent.ID})
	}
}

func (r *Resolver) resolveOneRender(ownerFile string, ref entity.RenderRef, edges *Edges, stats *ResolutionResult) {
	ownerSym := r.findOwn(ownerFile, ref.ComponentName, KindComponent)
	if ownerSym == nil {
		stats.UnresolvedReferences++
		return
	}
	target := r.resolveName(ref.RenderedComponentName, ownerFile, func(s SymbolInfo) bool { return s.Type == KindComponent })
	if target == nil {
		stats.UnresolvedReferences++
		return
	}
	stats.ResolvedRelationships++
	edges.Renders = append(edges.Renders, entity.RendersEdge{FromComponentID: ownerSym.ID, ToComponentID: target.ID, Line: ref.Line})
}

// findOwn binds to the single symbol of kind k named name defined in file,
// used to resolve a reference's own anchor point (the calling function,
// the inheriting class, the rendering component) rather than its target.
func (r *Resolver) findOwn(file, name string, k SymbolKind) *SymbolInfo {
	for _, s := range r.registry.Lookup(name) {
		if s.File == file && s.Type == k {
			s := s
			return &s
		}
	}
	return nil
}

// resolveName implements the §4.3 tie-break policy shared by calls,
// inheritance, and renders:
//  1. exactly one match in the caller's own file → bind to it;
//  2. else narrow to exported matches; among those, narrow further to
//     matches in files reachable via a direct IMPORTS edge, if any exist;
//  3. tie-break deterministically (smallest startLine, then
//     lexicographically smallest file path).
func (r *Resolver) resolveName(name, fromFile string, pred func(SymbolInfo) bool) *SymbolInfo {
	all := r.registry.Lookup(name)
	if len(all) == 0 {
		return nil
	}

	var matches []SymbolInfo
	for _, s := range all {
		if pred(s) {
			matches = append(matches, s)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	var own []SymbolInfo
	for _, s := range matches {
		if s.File == fromFile {
			own = append(own, s)
		}
	}
	if len(own) == 1 {
		return &own[0]
	}

	var exported []SymbolInfo
	for _, s := range matches {
		if s.IsExported {
			exported = append(exported, s)
		}
	}
	if len(exported) == 0 {
		return nil
	}

	var reachable []SymbolInfo
	for _, s := range exported {
		if r.importGraph[fromFile][s.File] {
			reachable = append(reachable, s)
		}
	}
	candidates := reachable
	if len(candidates) == 0 {
		candidates = exported
	}

	sortCandidates(candidates)
	return &candidates[0]
}
