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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cie/pkg/entity"
)

func fileEntities(path string) *entity.ParsedFileEntities {
	return &entity.ParsedFileEntities{File: entity.File{Path: path}}
}

func resolveFiles(t *testing.T, files []*entity.ParsedFileEntities) (*Edges, *ResolutionResult) {
	t.Helper()
	reg := BuildRegistry(files)
	r := NewResolver(reg, "/project", files)
	return r.Resolve(files)
}

func TestResolve_CallWithinSameFile(t *testing.T) {
	f := fileEntities("/project/a.ts")
	f.Functions = []entity.Function{
		{Name: "caller", FilePath: f.File.Path, StartLine: 1},
		{Name: "helper", FilePath: f.File.Path, StartLine: 5},
	}
	f.CallRefs = []entity.CallRef{{CallerName: "caller", CalleeName: "helper", Line: 2}}

	edges, stats := resolveFiles(t, []*entity.ParsedFileEntities{f})

	require.Len(t, edges.Calls, 1)
	assert.Equal(t, f.Functions[0].ID(), edges.Calls[0].FromFunctionID)
	assert.Equal(t, f.Functions[1].ID(), edges.Calls[0].ToFunctionID)
	assert.Equal(t, 1, stats.ResolvedRelationships)
	assert.Equal(t, 0, stats.UnresolvedReferences)
}

func TestResolve_CallCountsRepeatedCallsOnOneEdge(t *testing.T) {
	f := fileEntities("/project/a.ts")
	f.Functions = []entity.Function{
		{Name: "caller", FilePath: f.File.Path, StartLine: 1},
		{Name: "helper", FilePath: f.File.Path, StartLine: 5},
	}
	f.CallRefs = []entity.CallRef{
		{CallerName: "caller", CalleeName: "helper", Line: 2},
		{CallerName: "caller", CalleeName: "helper", Line: 3},
	}

	edges, stats := resolveFiles(t, []*entity.ParsedFileEntities{f})

	require.Len(t, edges.Calls, 1)
	assert.Equal(t, 2, edges.Calls[0].Count)
	assert.Equal(t, 1, stats.ResolvedRelationships)
}

func TestResolve_UnresolvedCallCounted(t *testing.T) {
	f := fileEntities("/project/a.ts")
	f.Functions = []entity.Function{{Name: "caller", FilePath: f.File.Path, StartLine: 1}}
	f.CallRefs = []entity.CallRef{{CallerName: "caller", CalleeName: "ghost", Line: 2}}

	edges, stats := resolveFiles(t, []*entity.ParsedFileEntities{f})

	assert.Empty(t, edges.Calls)
	assert.Equal(t, 0, stats.ResolvedRelationships)
	assert.Equal(t, 1, stats.UnresolvedReferences)
}

// TestResolve_ExtendsNeverCrossesIntoInterface is a regression test: a Class
// extends a name that only an Interface (not a Class) defines must not
// resolve to an EXTENDS edge. ExtendsEdge is Class -> Class or
// Interface -> Interface only, never mixed.
func TestResolve_ExtendsNeverCrossesIntoInterface(t *testing.T) {
	child := fileEntities("/project/child.ts")
	child.Classes = []entity.Class{{Name: "X", FilePath: child.File.Path, StartLine: 1, IsExported: true}}
	child.InheritanceRefs = []entity.InheritanceRef{{ChildName: "X", ParentName: "Y", Kind: entity.InheritanceExtends}}

	parent := fileEntities("/project/parent.ts")
	parent.Interfaces = []entity.Interface{{Name: "Y", FilePath: parent.File.Path, StartLine: 1, IsExported: true}}

	edges, stats := resolveFiles(t, []*entity.ParsedFileEntities{child, parent})

	assert.Empty(t, edges.Extends, "a Class must never EXTENDS an Interface")
	assert.Empty(t, edges.Implements)
	assert.Equal(t, 0, stats.ResolvedRelationships)
	assert.Equal(t, 1, stats.UnresolvedReferences)
}

func TestResolve_ExtendsClassToClass(t *testing.T) {
	child := fileEntities("/project/child.ts")
	child.Classes = []entity.Class{{Name: "X", FilePath: child.File.Path, StartLine: 1}}
	child.InheritanceRefs = []entity.InheritanceRef{{ChildName: "X", ParentName: "Y", Kind: entity.InheritanceExtends}}

	parent := fileEntities("/project/parent.ts")
	parent.Classes = []entity.Class{{Name: "Y", FilePath: parent.File.Path, StartLine: 1, IsExported: true}}

	edges, stats := resolveFiles(t, []*entity.ParsedFileEntities{child, parent})

	require.Len(t, edges.Extends, 1)
	assert.Equal(t, child.Classes[0].ID(), edges.Extends[0].FromID)
	assert.Equal(t, parent.Classes[0].ID(), edges.Extends[0].ToID)
	assert.Equal(t, 1, stats.ResolvedRelationships)
}

func TestResolve_InterfaceExtendsInterface(t *testing.T) {
	child := fileEntities("/project/child.ts")
	child.Interfaces = []entity.Interface{{Name: "X", FilePath: child.File.Path, StartLine: 1}}
	child.InheritanceRefs = []entity.InheritanceRef{{ChildName: "X", ParentName: "Y", Kind: entity.InheritanceExtends}}

	parent := fileEntities("/project/parent.ts")
	parent.Interfaces = []entity.Interface{{Name: "Y", FilePath: parent.File.Path, StartLine: 1, IsExported: true}}
	// An unrelated same-named Class must not be picked either.
	parent.Classes = []entity.Class{{Name: "Y", FilePath: parent.File.Path, StartLine: 10, IsExported: true}}

	edges, stats := resolveFiles(t, []*entity.ParsedFileEntities{child, parent})

	require.Len(t, edges.Extends, 1)
	assert.Equal(t, child.Interfaces[0].ID(), edges.Extends[0].FromID)
	assert.Equal(t, parent.Interfaces[0].ID(), edges.Extends[0].ToID)
	assert.Equal(t, 1, stats.ResolvedRelationships)
}

func TestResolve_ImplementsBindsOnlyToInterface(t *testing.T) {
	child := fileEntities("/project/child.ts")
	child.Classes = []entity.Class{{Name: "Circle", FilePath: child.File.Path, StartLine: 1}}
	child.InheritanceRefs = []entity.InheritanceRef{{ChildName: "Circle", ParentName: "Shape", Kind: entity.InheritanceImplements}}

	parent := fileEntities("/project/parent.ts")
	parent.Interfaces = []entity.Interface{{Name: "Shape", FilePath: parent.File.Path, StartLine: 1, IsExported: true}}

	edges, stats := resolveFiles(t, []*entity.ParsedFileEntities{child, parent})

	require.Len(t, edges.Implements, 1)
	assert.Equal(t, child.Classes[0].ID(), edges.Implements[0].FromClassID)
	assert.Equal(t, parent.Interfaces[0].ID(), edges.Implements[0].ToInterfaceID)
	assert.Equal(t, 1, stats.ResolvedRelationships)
}

func TestResolve_RenderAcrossImportedFile(t *testing.T) {
	owner := fileEntities("/project/app.tsx")
	owner.Components = []entity.Component{{Name: "App", FilePath: owner.File.Path, StartLine: 1}}
	owner.RenderRefs = []entity.RenderRef{{ComponentName: "App", RenderedComponentName: "Button", Line: 3}}
	owner.Imports = []entity.Import{{Source: "./button", FilePath: owner.File.Path}}

	target := fileEntities("/project/button.tsx")
	target.Components = []entity.Component{{Name: "Button", FilePath: target.File.Path, StartLine: 1, IsExported: true}}

	edges, stats := resolveFiles(t, []*entity.ParsedFileEntities{owner, target})

	require.Len(t, edges.Renders, 1)
	assert.Equal(t, owner.Components[0].ID(), edges.Renders[0].FromComponentID)
	assert.Equal(t, target.Components[0].ID(), edges.Renders[0].ToComponentID)
	assert.Equal(t, 1, stats.ResolvedRelationships)
	require.Len(t, edges.Imports, 1)
	assert.Equal(t, entity.FileID(target.File.Path), edges.Imports[0].ToFileID)
}

func TestResolve_ContainsEdgePerEntity(t *testing.T) {
	f := fileEntities("/project/a.ts")
	f.Functions = []entity.Function{{Name: "fn", FilePath: f.File.Path, StartLine: 1}}
	f.Classes = []entity.Class{{Name: "C", FilePath: f.File.Path, StartLine: 2}}

	edges, _ := resolveFiles(t, []*entity.ParsedFileEntities{f})

	require.Len(t, edges.Contains, 2)
	ids := map[string]bool{}
	for _, c := range edges.Contains {
		assert.Equal(t, f.File.ID(), c.FromFileID)
		ids[c.ToID] = true
	}
	assert.True(t, ids[f.Functions[0].ID()])
	assert.True(t, ids[f.Classes[0].ID()])
}

func TestResolve_AmbiguousNameTieBreaksOnStartLineThenPath(t *testing.T) {
	caller := fileEntities("/project/caller.ts")
	caller.Functions = []entity.Function{{Name: "main", FilePath: caller.File.Path, StartLine: 1}}
	caller.CallRefs = []entity.CallRef{{CallerName: "main", CalleeName: "shared", Line: 2}}

	b := fileEntities("/project/b.ts")
	b.Functions = []entity.Function{{Name: "shared", FilePath: b.File.Path, StartLine: 10, IsExported: true}}

	a := fileEntities("/project/a.ts")
	a.Functions = []entity.Function{{Name: "shared", FilePath: a.File.Path, StartLine: 10, IsExported: true}}

	edges, _ := resolveFiles(t, []*entity.ParsedFileEntities{caller, b, a})

	require.Len(t, edges.Calls, 1)
	assert.Equal(t, a.Functions[0].ID(), edges.Calls[0].ToFunctionID, "same startLine ties break on lexicographically smallest file path")
}

func TestBuildRegistry_TotalSymbolsAndLookup(t *testing.T) {
	f := fileEntities("/project/a.ts")
	f.Functions = []entity.Function{{Name: "fn", FilePath: f.File.Path, StartLine: 1}}
	f.Classes = []entity.Class{{Name: "C", FilePath: f.File.Path, StartLine: 2}}

	reg := BuildRegistry([]*entity.ParsedFileEntities{f})

	assert.Equal(t, 2, reg.TotalSymbols())
	syms := reg.Lookup("fn")
	require.Len(t, syms, 1)
	assert.Equal(t, KindFunction, syms[0].Type)
}
