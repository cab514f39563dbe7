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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/cie/pkg/entity"
)

// TSPlugin is the TypeScript/JavaScript (incl. TSX/JSX) language plugin.
// It holds one tree-sitter parser per grammar variant, selected by
// extension at extraction time, following the same per-language-parser
// shape as the rest of this pipeline's extractors.
type TSPlugin struct {
	base
	jsParser  *sitter.Parser
	tsParser  *sitter.Parser
	tsxParser *sitter.Parser
}

// NewTSPlugin constructs the TypeScript/JavaScript plugin.
func NewTSPlugin(logger *slog.Logger) *TSPlugin {
	jsP := sitter.NewParser()
	jsP.SetLanguage(javascript.GetLanguage())

	tsP := sitter.NewParser()
	tsP.SetLanguage(typescript.GetLanguage())

	tsxP := sitter.NewParser()
	tsxP.SetLanguage(tsx.GetLanguage())

	return &TSPlugin{
		base:      newBase(logger),
		jsParser:  jsP,
		tsParser:  tsP,
		tsxParser: tsxP,
	}
}

func (p *TSPlugin) ID() string          { return "typescript" }
func (p *TSPlugin) DisplayName() string { return "TypeScript/JavaScript" }
func (p *TSPlugin) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"}
}

func (p *TSPlugin) parserFor(filePath string) *sitter.Parser {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".tsx", ".jsx":
		return p.tsxParser
	case ".ts", ".mts", ".cts":
		return p.tsParser
	default:
		return p.jsParser
	}
}

// tsFunc pairs an extracted Function entity with the AST node it came
// from, so a second walk (calls, within the same extraction pass) can
// still find the body without re-parsing or re-descending the tree.
type tsFunc struct {
	fn   entity.Function
	node *sitter.Node
}

// tsComponent mirrors tsFunc for Component entities.
type tsComponent struct {
	comp entity.Component
	node *sitter.Node
}

// ExtractAllEntities implements registry.Plugin.
func (p *TSPlugin) ExtractAllEntities(ctx context.Context, src []byte, filePath string) (*entity.ParsedFileEntities, error) {
	tree, err := parseCtx(ctx, p.parserFor(filePath), src)
	if err != nil {
		return nil, &ParseError{Path: filePath, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if n := countErrors(root); n > 0 {
			p.logger.Warn("extract.typescript.syntax_errors", "path", filePath, "error_count", n)
		}
	}

	modTime := time.Now()
	if info, statErr := os.Stat(filePath); statErr == nil {
		modTime = info.ModTime()
	}

	out := &entity.ParsedFileEntities{File: buildFile(filePath, src, modTime)}

	var funcs []tsFunc
	var comps []tsComponent
	funcNameToID := make(map[string]string)
	anon := 0

	p.walkTSFunctions(root, src, filePath, &funcs, funcNameToID, &anon)
	for _, f := range funcs {
		out.Functions = append(out.Functions, f.fn)
	}

	p.walkTSTypes(root, src, filePath, out, &comps)
	for _, c := range comps {
		out.Components = append(out.Components, c.comp)
	}

	walkTSVariables(root, src, filePath, out)
	walkTSImports(root, src, filePath, out)

	for _, f := range funcs {
		walkTSCalls(f.node, src, f.fn.Name, out)
	}
	for _, c := range comps {
		walkTSRenders(c.node, src, c.comp.Name, out)
	}

	return out, nil
}

// walkTSFunctions finds every function-shaped declaration: named function
// declarations, arrow/function-expression variable bindings, class
// methods, and the TypeScript-only interface method/function signatures.
// Grounded on parser_typescript.go's walkTSFunctions, extended to retain
// the originating node per entry (see tsFunc) instead of resolving calls
// inline.
func (p *TSPlugin) walkTSFunctions(n *sitter.Node, src []byte, filePath string, funcs *[]tsFunc, nameToID map[string]string, anon *int) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration":
		if f := p.extractFunctionDecl(n, src, filePath); f != nil {
			*funcs = append(*funcs, tsFunc{*f, n})
			nameToID[f.Name] = f.ID()
		}
	case "variable_declarator":
		nameNode := n.ChildByFieldName("name")
		valueNode := n.ChildByFieldName("value")
		if nameNode != nil && valueNode != nil {
			switch valueNode.Type() {
			case "arrow_function", "function_expression", "function":
				if f := p.extractBoundFunction(nameNode, valueNode, src, filePath); f != nil {
					*funcs = append(*funcs, tsFunc{*f, valueNode})
					nameToID[f.Name] = f.ID()
				}
			}
		}
	case "method_definition":
		if f := p.extractMethod(n, src, filePath); f != nil {
			*funcs = append(*funcs, tsFunc{*f, n})
			nameToID[f.Name] = f.ID()
		}
	case "method_signature":
		if f := p.extractSignature(n, src, filePath, false); f != nil {
			*funcs = append(*funcs, tsFunc{*f, n})
			nameToID[f.Name] = f.ID()
		}
	case "function_signature":
		if f := p.extractSignature(n, src, filePath, false); f != nil {
			*funcs = append(*funcs, tsFunc{*f, n})
			nameToID[f.Name] = f.ID()
		}
	case "arrow_function":
		parent := n.Parent()
		if parent == nil || parent.Type() != "variable_declarator" {
			*anon++
			if f := p.extractAnonymous(n, src, filePath, *anon); f != nil {
				*funcs = append(*funcs, tsFunc{*f, n})
			}
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		p.walkTSFunctions(n.Child(i), src, filePath, funcs, nameToID, anon)
	}
}

func isExportedNode(n *sitter.Node) bool {
	parent := n.Parent()
	for parent != nil {
		if parent.Type() == "export_statement" {
			return true
		}
		parent = parent.Parent()
	}
	return false
}

func paramsOf(paramsNode *sitter.Node, src []byte) []entity.Param {
	if paramsNode == nil {
		return nil
	}
	var params []entity.Param
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		switch child.Type() {
		case "required_parameter", "optional_parameter", "identifier", "rest_pattern":
			p := entity.Param{IsRest: child.Type() == "rest_pattern"}
			nameNode := child.ChildByFieldName("pattern")
			if nameNode == nil {
				nameNode = child
			}
			p.Name = strings.TrimPrefix(nodeText(src, nameNode), "...")
			if typeNode := child.ChildByFieldName("type"); typeNode != nil {
				p.Type = nodeText(src, typeNode)
			}
			if valueNode := child.ChildByFieldName("value"); valueNode != nil {
				p.DefaultValue = nodeText(src, valueNode)
				p.Optional = true
			}
			if child.Type() == "optional_parameter" {
				p.Optional = true
			}
			params = append(params, p)
		}
	}
	return params
}

func (p *TSPlugin) extractFunctionDecl(n *sitter.Node, src []byte, filePath string) *entity.Function {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	pos := nodePosition(n)
	name := nodeText(src, nameNode)
	fn := &entity.Function{
		Name:       name,
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		StartCol:   pos.startCol,
		EndCol:     pos.endCol,
		IsExported: isExportedNode(n),
		IsAsync:    hasChildOfType(n, "async"),
		IsGenerator: n.ChildByFieldName("name") != nil && strings.Contains(nodeText(src, n), "function*"),
		Params:     paramsOf(n.ChildByFieldName("parameters"), src),
		Signature:  nodeText(src, n),
		CodeText:   p.truncateCodeText(nodeText(src, n)),
	}
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		fn.ReturnType = nodeText(src, rt)
	}
	return fn
}

func (p *TSPlugin) extractBoundFunction(nameNode, valueNode *sitter.Node, src []byte, filePath string) *entity.Function {
	pos := nodePosition(valueNode)
	fn := &entity.Function{
		Name:       nodeText(src, nameNode),
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		StartCol:   pos.startCol,
		EndCol:     pos.endCol,
		IsExported: isExportedNode(nameNode.Parent().Parent()),
		IsAsync:    hasChildOfType(valueNode, "async"),
		IsArrow:    valueNode.Type() == "arrow_function",
		Params:     paramsOf(valueNode.ChildByFieldName("parameters"), src),
		Signature:  nodeText(src, valueNode),
		CodeText:   p.truncateCodeText(nodeText(src, valueNode)),
	}
	if rt := valueNode.ChildByFieldName("return_type"); rt != nil {
		fn.ReturnType = nodeText(src, rt)
	}
	return fn
}

func (p *TSPlugin) extractMethod(n *sitter.Node, src []byte, filePath string) *entity.Function {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	pos := nodePosition(n)
	return &entity.Function{
		Name:       nodeText(src, nameNode),
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		StartCol:   pos.startCol,
		EndCol:     pos.endCol,
		IsExported: !strings.HasPrefix(nodeText(src, nameNode), "#"),
		IsAsync:    hasChildOfType(n, "async"),
		Params:     paramsOf(n.ChildByFieldName("parameters"), src),
		Signature:  nodeText(src, n),
		CodeText:   p.truncateCodeText(nodeText(src, n)),
	}
}

func (p *TSPlugin) extractSignature(n *sitter.Node, src []byte, filePath string, exported bool) *entity.Function {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	pos := nodePosition(n)
	signature := nodeText(src, n)
	return &entity.Function{
		Name:       nodeText(src, nameNode),
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		StartCol:   pos.startCol,
		EndCol:     pos.endCol,
		IsExported: exported || isExportedNode(n),
		Signature:  signature,
		CodeText:   p.truncateCodeText(signature),
	}
}

func (p *TSPlugin) extractAnonymous(n *sitter.Node, src []byte, filePath string, index int) *entity.Function {
	pos := nodePosition(n)
	return &entity.Function{
		Name:      fmt.Sprintf("<anonymous#%d>", index),
		FilePath:  filePath,
		StartLine: pos.startLine,
		EndLine:   pos.endLine,
		StartCol:  pos.startCol,
		EndCol:    pos.endCol,
		IsArrow:   n.Type() == "arrow_function",
		Params:    paramsOf(n.ChildByFieldName("parameters"), src),
		Signature: nodeText(src, n),
		CodeText:  p.truncateCodeText(nodeText(src, n)),
	}
}

func hasChildOfType(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}
