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
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/cie/pkg/entity"
)

// PyPlugin is the Python language plugin (§4.1, §4.2 "Python specifics").
// No prior implementation of this plugin existed to adapt; it is authored
// fresh here in the same two-pass idiom as TSPlugin: one walk collects
// entities and a name→id map, a second walk over each function's body
// finds call expressions.
type PyPlugin struct {
	base
	parser *sitter.Parser
}

// NewPyPlugin constructs the Python plugin.
func NewPyPlugin(logger *slog.Logger) *PyPlugin {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &PyPlugin{base: newBase(logger), parser: parser}
}

func (p *PyPlugin) ID() string            { return "python" }
func (p *PyPlugin) DisplayName() string   { return "Python" }
func (p *PyPlugin) Extensions() []string  { return []string{".py", ".pyw", ".pyi"} }

func (p *PyPlugin) ExtractAllEntities(ctx context.Context, src []byte, filePath string) (*entity.ParsedFileEntities, error) {
	tree, err := parseCtx(ctx, p.parser, src)
	if err != nil {
		return nil, &ParseError{Path: filePath, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if n := countErrors(root); n > 0 {
			p.logger.Warn("extract.python.syntax_errors", "path", filePath, "error_count", n)
		}
	}

	modTime := time.Now()
	if info, statErr := os.Stat(filePath); statErr == nil {
		modTime = info.ModTime()
	}

	out := &entity.ParsedFileEntities{File: buildFile(filePath, src, modTime)}

	var funcs []tsFunc
	p.walkPyDefs(root, src, filePath, out, &funcs, "")
	for _, f := range funcs {
		out.Functions = append(out.Functions, f.fn)
	}
	p.walkPyImports(root, src, filePath, out)
	p.walkPyModuleAssignments(root, src, filePath, out)

	for _, f := range funcs {
		p.walkPyCalls(f.node, src, f.fn.Name, out)
	}

	return out, nil
}

// walkPyDefs recurses the module collecting class and function
// definitions. classOwner is the name of the innermost enclosing class
// (empty at module scope), used to build dotted method identities'
// display name is kept simple (method Name is unqualified, matching
// spec.md's Function.name field; the enclosing class is only implied by
// filePath+startLine, same as every other ranged entity).
func (p *PyPlugin) walkPyDefs(n *sitter.Node, src []byte, filePath string, out *entity.ParsedFileEntities, funcs *[]tsFunc, classOwner string) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class_definition":
		if c := p.extractClass(n, src, filePath); c != nil {
			out.Classes = append(out.Classes, *c)
			for _, parent := range pyBaseClasses(n, src) {
				out.InheritanceRefs = append(out.InheritanceRefs, entity.InheritanceRef{
					ChildName: c.Name, ParentName: parent, Kind: entity.InheritanceExtends,
				})
			}
			if body := n.ChildByFieldName("body"); body != nil {
				p.walkPyDefs(body, src, filePath, out, funcs, c.Name)
			}
			return
		}
	case "function_definition", "decorated_definition":
		target := n
		if n.Type() == "decorated_definition" {
			target = n.ChildByFieldName("definition")
		}
		if target != nil && target.Type() == "function_definition" {
			if f := p.extractFunction(target, src, filePath, classOwner != ""); f != nil {
				*funcs = append(*funcs, tsFunc{*f, target})
			}
			if body := target.ChildByFieldName("body"); body != nil {
				p.walkPyDefs(body, src, filePath, out, funcs, "")
			}
			return
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		p.walkPyDefs(n.Child(i), src, filePath, out, funcs, classOwner)
	}
}

func (p *PyPlugin) extractClass(n *sitter.Node, src []byte, filePath string) *entity.Class {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(src, nameNode)
	pos := nodePosition(n)
	return &entity.Class{
		Name:       name,
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		IsExported: !strings.HasPrefix(name, "_"),
		Docstring:  pyDocstring(n.ChildByFieldName("body"), src),
		CodeText:   p.truncateCodeText(nodeText(src, n)),
	}
}

func pyBaseClasses(n *sitter.Node, src []byte) []string {
	argList := n.ChildByFieldName("superclasses")
	if argList == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(argList.ChildCount()); i++ {
		c := argList.Child(i)
		if c.Type() == "identifier" {
			names = append(names, nodeText(src, c))
		}
	}
	return names
}

// extractFunction builds a Function entity. self/cls is omitted from
// Params per §4.2 "Python specifics" when inMethod is true.
func (p *PyPlugin) extractFunction(n *sitter.Node, src []byte, filePath string, inMethod bool) *entity.Function {
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
		IsExported: !strings.HasPrefix(name, "_"),
		IsAsync:    hasChildOfType(n, "async") || strings.HasPrefix(nodeText(src, n), "async "),
		Docstring:  pyDocstring(n.ChildByFieldName("body"), src),
		Signature:  pySignature(n, src),
		CodeText:   p.truncateCodeText(nodeText(src, n)),
	}
	fn.IsGenerator = containsType(n.ChildByFieldName("body"), "yield")
	fn.Params = pyParams(n.ChildByFieldName("parameters"), src, inMethod)
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		fn.ReturnType = nodeText(src, rt)
	}
	return fn
}

func pySignature(n *sitter.Node, src []byte) string {
	// def line only: up to and including the closing ':' of the header,
	// not the full body — keeps Signature aligned with how other plugins
	// define it (a declaration header, not a full body dump).
	nameNode := n.ChildByFieldName("name")
	params := n.ChildByFieldName("parameters")
	if nameNode == nil || params == nil {
		return nodeText(src, n)
	}
	end := params.EndByte()
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		end = rt.EndByte()
	}
	return "def " + string(src[nameNode.StartByte():end])
}

func pyParams(paramsNode *sitter.Node, src []byte, inMethod bool) []entity.Param {
	if paramsNode == nil {
		return nil
	}
	var params []entity.Param
	first := true
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		c := paramsNode.Child(i)
		switch c.Type() {
		case "identifier", "typed_parameter", "default_parameter",
			"typed_default_parameter", "list_splat_pattern", "dictionary_splat_pattern":
			name := pyParamName(c, src)
			if first {
				first = false
				if inMethod && (name == "self" || name == "cls") {
					continue
				}
			}
			param := entity.Param{
				Name:   name,
				IsRest: c.Type() == "list_splat_pattern" || c.Type() == "dictionary_splat_pattern",
			}
			if t := c.ChildByFieldName("type"); t != nil {
				param.Type = nodeText(src, t)
			}
			if v := c.ChildByFieldName("value"); v != nil {
				param.DefaultValue = nodeText(src, v)
				param.Optional = true
			}
			params = append(params, param)
		}
	}
	return params
}

func pyParamName(n *sitter.Node, src []byte) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return nodeText(src, nameNode)
	}
	return strings.TrimLeft(nodeText(src, n), "*")
}

// pyDocstring returns the first string-expression statement of a body,
// with triple-quote delimiters stripped, per §4.2 "Python specifics".
func pyDocstring(body *sitter.Node, src []byte) string {
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	strNode := first.Child(0)
	if strNode.Type() != "string" {
		return ""
	}
	text := nodeText(src, strNode)
	text = strings.TrimPrefix(text, "r")
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return strings.TrimSpace(text[len(q) : len(text)-len(q)])
		}
	}
	return text
}

// walkPyCalls finds call nodes within fnNode's body and emits CallRefs,
// skipping nested function/class bodies (§4.2 "Enclosure").
func (p *PyPlugin) walkPyCalls(fnNode *sitter.Node, src []byte, callerName string, out *entity.ParsedFileEntities) {
	body := fnNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	walkPyCallsRecursive(body, src, callerName, out)
}

func walkPyCallsRecursive(n *sitter.Node, src []byte, callerName string, out *entity.ParsedFileEntities) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_definition", "class_definition":
		return
	case "call":
		if fnNode := n.ChildByFieldName("function"); fnNode != nil {
			name := pyCalleeName(fnNode, src)
			if name != "" && !builtinsPy[name] {
				pos := nodePosition(n)
				out.CallRefs = append(out.CallRefs, entity.CallRef{
					CallerName: callerName, CalleeName: name, Line: pos.startLine,
				})
			}
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkPyCallsRecursive(n.Child(i), src, callerName, out)
	}
}

func pyCalleeName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "identifier":
		return nodeText(src, n)
	case "attribute":
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			return nodeText(src, attr)
		}
	}
	return ""
}

// walkPyModuleAssignments collects module-level `name = value` and
// `name: Type = value` statements as Variable entities.
func (p *PyPlugin) walkPyModuleAssignments(module *sitter.Node, src []byte, filePath string, out *entity.ParsedFileEntities) {
	for i := 0; i < int(module.ChildCount()); i++ {
		stmt := module.Child(i)
		if stmt.Type() != "expression_statement" || stmt.ChildCount() == 0 {
			continue
		}
		expr := stmt.Child(0)
		var nameNode, typeNode *sitter.Node
		switch expr.Type() {
		case "assignment":
			nameNode = expr.ChildByFieldName("left")
			typeNode = expr.ChildByFieldName("type")
		default:
			continue
		}
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := nodeText(src, nameNode)
		pos := nodePosition(expr)
		v := entity.Variable{
			Name:       name,
			FilePath:   filePath,
			Line:       pos.startLine,
			Kind:       entity.VariableConst,
			IsExported: !strings.HasPrefix(name, "_"),
		}
		if typeNode != nil {
			v.Type = nodeText(src, typeNode)
		}
		out.Variables = append(out.Variables, v)
	}
}

// =============================================================================
// IMPORTS
// =============================================================================

// walkPyImports collects `import x`, `import x.y as z`, and
// `from a.b import c, d as e` statements, computing a syntactic candidate
// resolvedPath per §4.2 "Python import resolution is syntactic only".
func (p *PyPlugin) walkPyImports(n *sitter.Node, src []byte, filePath string, out *entity.ParsedFileEntities) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "import_statement":
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.Type() != "dotted_name" && c.Type() != "aliased_import" {
				continue
			}
			name, alias := pyImportNameAlias(c, src)
			pos := nodePosition(n)
			imp := entity.Import{
				Source:       name,
				FilePath:     filePath,
				IsDefault:    true,
				DefaultAlias: alias,
				Line:         pos.startLine,
			}
			out.Imports = append(out.Imports, imp)
			out.ImportRefs = append(out.ImportRefs, entity.ImportRef{Source: name, FilePath: filePath})
		}
		return
	case "import_from_statement":
		moduleNode := n.ChildByFieldName("module_name")
		if moduleNode == nil {
			return
		}
		source := pyDottedOrRelative(moduleNode, src)
		pos := nodePosition(n)
		imp := entity.Import{Source: source, FilePath: filePath, Line: pos.startLine}
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c.Type() == "wildcard_import" {
				imp.IsNamespace = true
				continue
			}
			if c == moduleNode || c.Type() == "import" || c.Type() == "from" || c.Type() == "," {
				continue
			}
			name, alias := pyImportNameAlias(c, src)
			if name == "" {
				continue
			}
			imp.Specifiers = append(imp.Specifiers, entity.ImportSpecifier{Name: name, Alias: alias})
		}
		out.Imports = append(out.Imports, imp)
		out.ImportRefs = append(out.ImportRefs, entity.ImportRef{Source: source, FilePath: filePath})
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		p.walkPyImports(n.Child(i), src, filePath, out)
	}
}

func pyImportNameAlias(n *sitter.Node, src []byte) (name, alias string) {
	switch n.Type() {
	case "aliased_import":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name = nodeText(src, nameNode)
		}
		if aliasNode := n.ChildByFieldName("alias"); aliasNode != nil {
			alias = nodeText(src, aliasNode)
		}
	case "dotted_name", "identifier":
		name = nodeText(src, n)
	}
	return name, alias
}

func pyDottedOrRelative(n *sitter.Node, src []byte) string {
	return nodeText(src, n)
}

// PyImportCandidatePaths computes the candidate absolute file paths for a
// Python import source under projectRoot, per §4.2: `{projectRoot}/<dotted
// path>.py` and `.../__init__.py`; relative imports (leading dots) walk up
// by dot count from the importing file's directory. No filesystem probe is
// performed here (§9 Open Question 3 resolves to "no probe in the
// extractor"); the resolver chooses the first candidate that is one of the
// files discovered in the same run.
func PyImportCandidatePaths(projectRoot, fromFile, source string) []string {
	dots := 0
	for dots < len(source) && source[dots] == '.' {
		dots++
	}
	rest := strings.TrimPrefix(source, strings.Repeat(".", dots))
	base := projectRoot
	if dots > 0 {
		base = filepath.Dir(fromFile)
		for i := 1; i < dots; i++ {
			base = filepath.Dir(base)
		}
	}
	if rest == "" {
		return []string{filepath.Join(base, "__init__.py")}
	}
	parts := strings.Split(rest, ".")
	asFile := filepath.Join(append([]string{base}, parts...)...) + ".py"
	asPkg := filepath.Join(append(append([]string{base}, parts...), "__init__.py")...)
	return []string{asFile, asPkg}
}
