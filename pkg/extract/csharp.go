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
	"log/slog"
	"os"
	"time"

	"github.com/kraklabs/cie/pkg/entity"
)

// CSharpPlugin registers the `.cs` extension without extracting entities,
// per §4.1: "C# (extensions only; extractors may be stubs)". It still
// reports every file as a File entity so §3.4 lifecycle and CONTAINS
// bookkeeping works for C# sources even though no functions/classes are
// emitted yet.
type CSharpPlugin struct {
	base
}

// NewCSharpPlugin constructs the C# stub plugin.
func NewCSharpPlugin(logger *slog.Logger) *CSharpPlugin {
	return &CSharpPlugin{base: newBase(logger)}
}

func (p *CSharpPlugin) ID() string           { return "csharp" }
func (p *CSharpPlugin) DisplayName() string  { return "C#" }
func (p *CSharpPlugin) Extensions() []string { return []string{".cs"} }

func (p *CSharpPlugin) ExtractAllEntities(ctx context.Context, src []byte, filePath string) (*entity.ParsedFileEntities, error) {
	modTime := time.Now()
	if info, err := os.Stat(filePath); err == nil {
		modTime = info.ModTime()
	}
	return &entity.ParsedFileEntities{File: buildFile(filePath, src, modTime)}, nil
}
