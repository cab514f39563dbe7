// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/cie/pkg/entity"
)

func extractTS(t *testing.T, src string) *entity.ParsedFileEntities {
	t.Helper()
	p := NewTSPlugin(nil)
	out, err := p.ExtractAllEntities(context.Background(), []byte(src), "test.ts")
	require.NoError(t, err)
	return out
}

func TestTSPlugin_FunctionsAndCalls(t *testing.T) {
	src := `
function helper(): number {
  return 1;
}

function caller(): number {
  return helper();
}
`
	out := extractTS(t, src)
	require.Len(t, out.Functions, 2)

	names := map[string]bool{}
	for _, fn := range out.Functions {
		names[fn.Name] = true
	}
	assert.True(t, names["helper"])
	assert.True(t, names["caller"])

	require.Len(t, out.CallRefs, 1)
	assert.Equal(t, "caller", out.CallRefs[0].CallerName)
	assert.Equal(t, "helper", out.CallRefs[0].CalleeName)
}

func TestTSPlugin_ClassExtendsAndImplements(t *testing.T) {
	src := `
interface Shape {
  area(): number;
}

class Base {}

class Circle extends Base implements Shape {
  area(): number { return 0; }
}
`
	out := extractTS(t, src)
	require.Len(t, out.Interfaces, 1)
	require.Len(t, out.Classes, 2)

	var extends, implements *entity.InheritanceRef
	for i := range out.InheritanceRefs {
		ref := &out.InheritanceRefs[i]
		switch ref.Kind {
		case entity.InheritanceExtends:
			extends = ref
		case entity.InheritanceImplements:
			implements = ref
		}
	}
	require.NotNil(t, extends)
	assert.Equal(t, "Circle", extends.ChildName)
	assert.Equal(t, "Base", extends.ParentName)

	require.NotNil(t, implements)
	assert.Equal(t, "Circle", implements.ChildName)
	assert.Equal(t, "Shape", implements.ParentName)
}

func TestTSPlugin_EnumDeclaration(t *testing.T) {
	src := `
enum Color {
  Red,
  Green,
  Blue,
}

type Alias = string;
`
	out := extractTS(t, src)
	require.Len(t, out.Types, 2)

	byName := map[string]entity.TypeAlias{}
	for _, ty := range out.Types {
		byName[ty.Name] = ty
	}
	require.Contains(t, byName, "Color")
	assert.Equal(t, entity.TypeAliasEnum, byName["Color"].Kind)

	require.Contains(t, byName, "Alias")
	assert.Equal(t, entity.TypeAliasType, byName["Alias"].Kind)
}

func TestParseError_WrapsUnderlyingErr(t *testing.T) {
	inner := context.Canceled
	pe := &ParseError{Path: "test.ts", Err: inner}

	assert.ErrorIs(t, pe, context.Canceled)
	assert.Contains(t, pe.Error(), "test.ts")
}
