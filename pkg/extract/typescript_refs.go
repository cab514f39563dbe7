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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/cie/pkg/entity"
)

// =============================================================================
// VARIABLES
// =============================================================================

// walkTSVariables collects top-level const/let/var declarations (§3.1
// Variable). Nested (function-local) declarations are not entities.
func walkTSVariables(n *sitter.Node, src []byte, filePath string, out *entity.ParsedFileEntities) {
	if n == nil {
		return
	}
	if n.Type() == "program" {
		for i := 0; i < int(n.ChildCount()); i++ {
			extractTopLevelVarStatement(n.Child(i), src, filePath, out)
		}
		return
	}
}

func extractTopLevelVarStatement(n *sitter.Node, src []byte, filePath string, out *entity.ParsedFileEntities) {
	stmt := n
	exported := false
	if n.Type() == "export_statement" {
		exported = true
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			stmt = decl
		} else {
			return
		}
	}
	if stmt.Type() != "lexical_declaration" && stmt.Type() != "variable_declaration" {
		return
	}
	kind := entity.VariableVar
	if kindNode := childByType(stmt, "const"); kindNode != nil {
		kind = entity.VariableConst
	} else if letNode := childByType(stmt, "let"); letNode != nil {
		kind = entity.VariableLet
	}
	for i := 0; i < int(stmt.ChildCount()); i++ {
		decl := stmt.Child(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		// Function-valued declarators are already emitted as Function
		// entities by walkTSFunctions; avoid double-emitting them as
		// Variables too.
		if v := decl.ChildByFieldName("value"); v != nil {
			switch v.Type() {
			case "arrow_function", "function_expression", "function":
				continue
			}
		}
		pos := nodePosition(decl)
		v := entity.Variable{
			Name:       nodeText(src, nameNode),
			FilePath:   filePath,
			Line:       pos.startLine,
			Kind:       kind,
			IsExported: exported,
		}
		if t := nameNode.ChildByFieldName("type"); t != nil {
			v.Type = nodeText(src, t)
		}
		out.Variables = append(out.Variables, v)
	}
}

// =============================================================================
// IMPORTS
// =============================================================================

// walkTSImports collects import statements (§3.1 Import / §4.2 importRefs).
func walkTSImports(n *sitter.Node, src []byte, filePath string, out *entity.ParsedFileEntities) {
	if n == nil {
		return
	}
	if n.Type() == "import_statement" {
		if imp := extractImportStatement(n, src, filePath); imp != nil {
			out.Imports = append(out.Imports, *imp)
			out.ImportRefs = append(out.ImportRefs, entity.ImportRef{Source: imp.Source, FilePath: filePath})
		}
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkTSImports(n.Child(i), src, filePath, out)
	}
}

func extractImportStatement(n *sitter.Node, src []byte, filePath string) *entity.Import {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	pos := nodePosition(n)
	imp := &entity.Import{
		Source:   strings.Trim(nodeText(src, sourceNode), `"'`),
		FilePath: filePath,
		Line:     pos.startLine,
	}

	clause := childByType(n, "import_clause")
	if clause == nil {
		return imp
	}
	for i := 0; i < int(clause.ChildCount()); i++ {
		c := clause.Child(i)
		switch c.Type() {
		case "identifier":
			imp.IsDefault = true
			imp.DefaultAlias = nodeText(src, c)
		case "namespace_import":
			imp.IsNamespace = true
			if c.ChildCount() > 0 {
				imp.NamespaceAlias = nodeText(src, c.Child(int(c.ChildCount())-1))
			}
		case "named_imports":
			for j := 0; j < int(c.ChildCount()); j++ {
				spec := c.Child(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := nodeText(src, spec)
				alias := ""
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					name = nodeText(src, nameNode)
					if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
						alias = nodeText(src, aliasNode)
					}
				}
				imp.Specifiers = append(imp.Specifiers, entity.ImportSpecifier{Name: name, Alias: alias})
			}
		}
	}
	return imp
}

// =============================================================================
// CALLS
// =============================================================================

// walkTSCalls finds call_expression nodes within fnNode's body and emits
// one CallRef per call, attributing it to callerName (the function that
// owns fnNode — §4.2 "Enclosure": the innermost function only, so this is
// called once per function with that function's own body, never across
// nested-function boundaries since a nested function gets its own call to
// this same walker for its own body).
func walkTSCalls(fnNode *sitter.Node, src []byte, callerName string, out *entity.ParsedFileEntities) {
	body := fnNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	walkCallsSkippingNestedFunctions(body, src, callerName, out)
}

func walkCallsSkippingNestedFunctions(n *sitter.Node, src []byte, callerName string, out *entity.ParsedFileEntities) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration", "function_expression", "arrow_function", "method_definition":
		// A nested function's calls belong to it, not to callerName; it is
		// walked separately when walkTSFunctions reaches it at the top
		// level pass, so skip descending into its body here.
		return
	case "call_expression":
		if callee := n.ChildByFieldName("function"); callee != nil {
			name := calleeName(callee, src)
			if name != "" && !builtinsTS[name] {
				pos := nodePosition(n)
				out.CallRefs = append(out.CallRefs, entity.CallRef{
					CallerName: callerName,
					CalleeName: name,
					Line:       pos.startLine,
				})
			}
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkCallsSkippingNestedFunctions(n.Child(i), src, callerName, out)
	}
}

func calleeName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "identifier":
		return nodeText(src, n)
	case "member_expression":
		if prop := n.ChildByFieldName("property"); prop != nil {
			return nodeText(src, prop)
		}
	}
	return ""
}

// =============================================================================
// RENDERS
// =============================================================================

// walkTSRenders scans a component's body for JSX elements whose tag name
// is itself capitalized (a component reference) and emits a RenderRef,
// per §4.2/§4.3 item 3.
func walkTSRenders(compNode *sitter.Node, src []byte, componentName string, out *entity.ParsedFileEntities) {
	walkJSX(compNode, src, componentName, out)
}

func walkJSX(n *sitter.Node, src []byte, componentName string, out *entity.ParsedFileEntities) {
	if n == nil {
		return
	}
	if n.Type() == "jsx_opening_element" || n.Type() == "jsx_self_closing_element" {
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			name := nodeText(src, nameNode)
			if startsWithUpper(name) {
				pos := nodePosition(n)
				out.RenderRefs = append(out.RenderRefs, entity.RenderRef{
					ComponentName:         componentName,
					RenderedComponentName: name,
					Line:                  pos.startLine,
				})
			}
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkJSX(n.Child(i), src, componentName, out)
	}
}
