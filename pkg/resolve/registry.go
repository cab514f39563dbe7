// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

// Package resolve implements C3, the Two-Pass Resolver: Pass A collects a
// Symbol Registry from every parsed file; Pass B rewrites the unresolved
// references extraction left behind into edge records with stable graph
// identities (§4.3).
package resolve

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/kraklabs/cie/pkg/entity"
)

// SymbolKind enumerates the six kinds a name in the registry can resolve
// to (§4.3 Pass A).
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindVariable  SymbolKind = "variable"
	KindType      SymbolKind = "type"
	KindComponent SymbolKind = "component"
)

// SymbolInfo is one entry in the Symbol Registry.
type SymbolInfo struct {
	Name       string
	File       string
	Type       SymbolKind
	IsExported bool
	StartLine  int
	ID         string // pre-computed graph identity (§3.3)
}

const shardCount = 16

// Registry is the in-memory index built in Pass A and consulted read-only
// in Pass B (§9 "Registry over a shared mutable map": created per-run,
// passed explicitly, never a process-wide global).
type Registry struct {
	shards        [shardCount]map[string][]SymbolInfo
	shardLocks    [shardCount]sync.Mutex
	byFile        map[string][]SymbolInfo
	exportsByFile map[string]map[string]bool
	mu            sync.Mutex // guards byFile / exportsByFile during the build barrier
}

// NewRegistry creates an empty registry with its shards initialized.
func NewRegistry() *Registry {
	r := &Registry{
		byFile:        make(map[string][]SymbolInfo),
		exportsByFile: make(map[string]map[string]bool),
	}
	for i := range r.shards {
		r.shards[i] = make(map[string][]SymbolInfo)
	}
	return r
}

func shardIndex(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % shardCount)
}

func (r *Registry) add(sym SymbolInfo) {
	idx := shardIndex(sym.Name)
	r.shardLocks[idx].Lock()
	r.shards[idx][sym.Name] = append(r.shards[idx][sym.Name], sym)
	r.shardLocks[idx].Unlock()

	r.mu.Lock()
	r.byFile[sym.File] = append(r.byFile[sym.File], sym)
	if sym.IsExported {
		if r.exportsByFile[sym.File] == nil {
			r.exportsByFile[sym.File] = make(map[string]bool)
		}
		r.exportsByFile[sym.File][sym.Name] = true
	}
	r.mu.Unlock()
}

// Lookup returns every symbol registered under name.
func (r *Registry) Lookup(name string) []SymbolInfo {
	idx := shardIndex(name)
	r.shardLocks[idx].Lock()
	defer r.shardLocks[idx].Unlock()
	out := make([]SymbolInfo, len(r.shards[idx][name]))
	copy(out, r.shards[idx][name])
	return out
}

// SymbolsByFile returns every symbol defined in the given file.
func (r *Registry) SymbolsByFile(file string) []SymbolInfo {
	return r.byFile[file]
}

// TotalSymbols is the count of every symbol across every shard.
func (r *Registry) TotalSymbols() int {
	total := 0
	for _, shard := range r.shards {
		for _, syms := range shard {
			total += len(syms)
		}
	}
	return total
}

// BuildRegistry runs Pass A over the aggregated per-file extraction
// results, concurrently sharding writes by a hash of the symbol name and
// merging at a barrier (§9 "Concurrent builders within Pass A use a
// sharded map ... and merge at a barrier"), matching the worker-pool idiom
// this pipeline's C2/C3 stages already use elsewhere.
func BuildRegistry(files []*entity.ParsedFileEntities) *Registry {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for _, pfe := range files {
		pfe := pfe
		wg.Add(1)
		go func() {
			defer wg.Done()
			addFileSymbols(reg, pfe)
		}()
	}
	wg.Wait()

	return reg
}

func addFileSymbols(reg *Registry, pfe *entity.ParsedFileEntities) {
	for _, fn := range pfe.Functions {
		reg.add(SymbolInfo{Name: fn.Name, File: fn.FilePath, Type: KindFunction, IsExported: fn.IsExported, StartLine: fn.StartLine, ID: fn.ID()})
	}
	for _, c := range pfe.Classes {
		reg.add(SymbolInfo{Name: c.Name, File: c.FilePath, Type: KindClass, IsExported: c.IsExported, StartLine: c.StartLine, ID: c.ID()})
	}
	for _, i := range pfe.Interfaces {
		reg.add(SymbolInfo{Name: i.Name, File: i.FilePath, Type: KindInterface, IsExported: i.IsExported, StartLine: i.StartLine, ID: i.ID()})
	}
	for _, v := range pfe.Variables {
		reg.add(SymbolInfo{Name: v.Name, File: v.FilePath, Type: KindVariable, IsExported: v.IsExported, StartLine: v.Line, ID: v.ID()})
	}
	for _, t := range pfe.Types {
		reg.add(SymbolInfo{Name: t.Name, File: t.FilePath, Type: KindType, IsExported: t.IsExported, StartLine: t.StartLine, ID: t.ID()})
	}
	for _, c := range pfe.Components {
		reg.add(SymbolInfo{Name: c.Name, File: c.FilePath, Type: KindComponent, IsExported: c.IsExported, StartLine: c.StartLine, ID: c.ID()})
	}
}

// sortCandidates applies the deterministic tie-break of §4.3: smallest
// startLine, then lexicographically smallest file path.
func sortCandidates(candidates []SymbolInfo) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].StartLine != candidates[j].StartLine {
			return candidates[i].StartLine < candidates[j].StartLine
		}
		return candidates[i].File < candidates[j].File
	})
}
