// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

// Package registry implements C1, the Language Plugin Registry: it maps a
// file extension to the plugin responsible for it and enumerates the
// languages the pipeline currently supports. It generalizes the single
// hard-coded parser-mode switch of earlier CIE parser generations into a
// true multi-plugin lookup table.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kraklabs/cie/pkg/entity"
)

// Plugin describes one source language: a stable id, a human display name,
// the file extensions it claims, and its extraction entry point. A plugin
// owns its own concrete-syntax-tree producer internally (§9 "the plugin
// interface hides all grammar-specific node types"); callers never see a
// *sitter.Node.
//
// ExtractAllEntities (§4.1) is the preferred entry point. A plugin that
// cannot yet produce entities (a stub, per §4.1's allowance for C#) still
// returns a ParsedFileEntities containing at least the File record.
type Plugin interface {
	ID() string
	DisplayName() string
	Extensions() []string
	ExtractAllEntities(ctx context.Context, src []byte, filePath string) (*entity.ParsedFileEntities, error)
}

// Registry maps a normalized file extension to the plugin that claims it.
type Registry struct {
	mu      sync.RWMutex
	byExt   map[string]Plugin
	plugins []Plugin
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byExt: make(map[string]Plugin)}
}

// normalizeExt lower-cases an extension and ensures a leading dot, so
// lookups are total regardless of how a caller spells ".TS" vs "ts".
func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Register claims a plugin's extensions. It fails if any extension is
// already claimed by a different plugin, leaving the registry unchanged.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exts := make([]string, 0, len(p.Extensions()))
	for _, e := range p.Extensions() {
		ne := normalizeExt(e)
		if existing, ok := r.byExt[ne]; ok && existing.ID() != p.ID() {
			return fmt.Errorf("registry: extension %q already claimed by plugin %q", ne, existing.ID())
		}
		exts = append(exts, ne)
	}

	for _, ne := range exts {
		r.byExt[ne] = p
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Lookup returns the plugin registered for ext, if any. Total: any input,
// including an empty or malformed extension, returns (nil, false) rather
// than panicking.
func (r *Registry) Lookup(ext string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExt[normalizeExt(ext)]
	return p, ok
}

// IsSupported reports whether ext is claimed by any registered plugin.
func (r *Registry) IsSupported(ext string) bool {
	_, ok := r.Lookup(ext)
	return ok
}

// Plugins returns every registered plugin, in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Extensions returns every extension claimed across all registered plugins.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}
