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

func extractPy(t *testing.T, src string) *entity.ParsedFileEntities {
	t.Helper()
	p := NewPyPlugin(nil)
	out, err := p.ExtractAllEntities(context.Background(), []byte(src), "test.py")
	require.NoError(t, err)
	return out
}

func TestPyPlugin_FunctionsAndCalls(t *testing.T) {
	src := `
def helper():
    return 1

def caller():
    return helper()
`
	out := extractPy(t, src)
	require.Len(t, out.Functions, 2)
	require.Len(t, out.CallRefs, 1)
	assert.Equal(t, "caller", out.CallRefs[0].CallerName)
	assert.Equal(t, "helper", out.CallRefs[0].CalleeName)
}

func TestPyPlugin_ClassBases(t *testing.T) {
	src := `
class Base:
    pass

class Derived(Base):
    def run(self):
        pass
`
	out := extractPy(t, src)
	require.Len(t, out.Classes, 2)
	require.Len(t, out.InheritanceRefs, 1)
	ref := out.InheritanceRefs[0]
	assert.Equal(t, "Derived", ref.ChildName)
	assert.Equal(t, "Base", ref.ParentName)
	assert.Equal(t, entity.InheritanceExtends, ref.Kind)
}

func TestPyPlugin_Imports(t *testing.T) {
	src := `
import os
from collections import OrderedDict
`
	out := extractPy(t, src)
	require.Len(t, out.ImportRefs, 2)

	sources := map[string]bool{}
	for _, ref := range out.ImportRefs {
		sources[ref.Source] = true
	}
	assert.True(t, sources["os"])
	assert.True(t, sources["collections"])
}
