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
// TYPE / CLASS / INTERFACE / COMPONENT EXTRACTION
// =============================================================================

// walkTSTypes recurses the AST collecting interface, class, and type-alias
// declarations (§3.1 Class/Interface/Type) into out, and classifies
// function/class declarations that look like React components (§4.2
// "Component detection") into comps so the caller can later walk their
// bodies for RENDERS references.
func (p *TSPlugin) walkTSTypes(n *sitter.Node, src []byte, filePath string, out *entity.ParsedFileEntities, comps *[]tsComponent) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "interface_declaration":
		if i := p.extractInterface(n, src, filePath); i != nil {
			out.Interfaces = append(out.Interfaces, *i)
			for _, parent := range i.Extends {
				out.InheritanceRefs = append(out.InheritanceRefs, entity.InheritanceRef{
					ChildName: i.Name, ParentName: parent, Kind: entity.InheritanceExtends,
				})
			}
		}
	case "class_declaration":
		if c, comp := p.extractClass(n, src, filePath); c != nil {
			out.Classes = append(out.Classes, *c)
			if c.Extends != "" {
				out.InheritanceRefs = append(out.InheritanceRefs, entity.InheritanceRef{
					ChildName: c.Name, ParentName: c.Extends, Kind: entity.InheritanceExtends,
				})
			}
			for _, iface := range c.Implements {
				out.InheritanceRefs = append(out.InheritanceRefs, entity.InheritanceRef{
					ChildName: c.Name, ParentName: iface, Kind: entity.InheritanceImplements,
				})
			}
			if comp != nil {
				*comps = append(*comps, tsComponent{*comp, n})
			}
		}
	case "type_alias_declaration":
		if t := p.extractTypeAlias(n, src, filePath); t != nil {
			out.Types = append(out.Types, *t)
		}
	case "enum_declaration":
		if t := p.extractEnum(n, src, filePath); t != nil {
			out.Types = append(out.Types, *t)
		}
	case "function_declaration":
		if comp := p.extractFunctionComponent(n, src, filePath); comp != nil {
			*comps = append(*comps, tsComponent{*comp, n})
		}
	case "variable_declarator":
		if valueNode := n.ChildByFieldName("value"); valueNode != nil &&
			(valueNode.Type() == "arrow_function" || valueNode.Type() == "function_expression") {
			if comp := p.extractArrowComponent(n, valueNode, src, filePath); comp != nil {
				*comps = append(*comps, tsComponent{*comp, valueNode})
			}
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		p.walkTSTypes(n.Child(i), src, filePath, out, comps)
	}
}

func (p *TSPlugin) extractInterface(n *sitter.Node, src []byte, filePath string) *entity.Interface {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	pos := nodePosition(n)
	return &entity.Interface{
		Name:       nodeText(src, nameNode),
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		IsExported: isExportedNode(n),
		Extends:    extendsClauseNames(n, src, "extends_type_clause"),
		CodeText:   p.truncateCodeText(nodeText(src, n)),
	}
}

// extractClass returns the Class entity and, if the class looks like a
// React class component (extends React.Component / Component), a
// Component entity sharing its position.
func (p *TSPlugin) extractClass(n *sitter.Node, src []byte, filePath string) (*entity.Class, *entity.Component) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil, nil
	}
	pos := nodePosition(n)
	name := nodeText(src, nameNode)

	var extends string
	var implements []string
	isComponent := false
	if heritage := childByType(n, "class_heritage"); heritage != nil {
		for i := 0; i < int(heritage.ChildCount()); i++ {
			clause := heritage.Child(i)
			switch clause.Type() {
			case "extends_clause":
				if t := clause.ChildByFieldName("value"); t != nil {
					extends = nodeText(src, t)
					if strings.Contains(extends, "Component") || strings.Contains(extends, "PureComponent") {
						isComponent = true
					}
				}
			case "implements_clause":
				implements = append(implements, extendsClauseNames(clause, src, "")...)
			}
		}
	}

	class := &entity.Class{
		Name:       name,
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		IsExported: isExportedNode(n),
		IsAbstract: hasChildOfType(n, "abstract"),
		Extends:    extends,
		Implements: implements,
		CodeText:   p.truncateCodeText(nodeText(src, n)),
	}

	var comp *entity.Component
	if isComponent {
		comp = &entity.Component{
			Name:       name,
			FilePath:   filePath,
			StartLine:  pos.startLine,
			EndLine:    pos.endLine,
			IsExported: class.IsExported,
			CodeText:   class.CodeText,
		}
	}
	return class, comp
}

func (p *TSPlugin) extractTypeAlias(n *sitter.Node, src []byte, filePath string) *entity.TypeAlias {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	pos := nodePosition(n)
	return &entity.TypeAlias{
		Name:       nodeText(src, nameNode),
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		IsExported: isExportedNode(n),
		Kind:       entity.TypeAliasType,
		CodeText:   p.truncateCodeText(nodeText(src, n)),
	}
}

// extractEnum handles TypeScript's `enum Foo { ... }` declarations as a
// distinct Type entity kind (§3.1, Type.kind ∈ {type, enum}).
func (p *TSPlugin) extractEnum(n *sitter.Node, src []byte, filePath string) *entity.TypeAlias {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	pos := nodePosition(n)
	return &entity.TypeAlias{
		Name:       nodeText(src, nameNode),
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		IsExported: isExportedNode(n),
		Kind:       entity.TypeAliasEnum,
		CodeText:   p.truncateCodeText(nodeText(src, n)),
	}
}

// extractFunctionComponent classifies a function declaration as a React
// component when its return type is a JSX element or its body contains
// JSX, per §4.2's "Component detection" design decision. Props come from
// the first parameter's type annotation.
func (p *TSPlugin) extractFunctionComponent(n *sitter.Node, src []byte, filePath string) *entity.Component {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(src, nameNode)
	if !startsWithUpper(name) {
		return nil
	}
	if !returnsJSXOrHasJSXBody(n) {
		return nil
	}
	pos := nodePosition(n)
	comp := &entity.Component{
		Name:       name,
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		IsExported: isExportedNode(n),
		CodeText:   nodeText(src, n),
	}
	if params := n.ChildByFieldName("parameters"); params != nil && params.ChildCount() > 0 {
		if first := firstParamNode(params); first != nil {
			if t := first.ChildByFieldName("type"); t != nil {
				comp.PropsType = nodeText(src, t)
			}
		}
	}
	return comp
}

func (p *TSPlugin) extractArrowComponent(declarator, fn *sitter.Node, src []byte, filePath string) *entity.Component {
	nameNode := declarator.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(src, nameNode)
	if !startsWithUpper(name) {
		return nil
	}
	if !returnsJSXOrHasJSXBody(fn) {
		return nil
	}
	pos := nodePosition(fn)
	comp := &entity.Component{
		Name:       name,
		FilePath:   filePath,
		StartLine:  pos.startLine,
		EndLine:    pos.endLine,
		IsExported: isExportedNode(declarator.Parent().Parent()),
		CodeText:   nodeText(src, fn),
	}
	if params := fn.ChildByFieldName("parameters"); params != nil {
		if first := firstParamNode(params); first != nil {
			if t := first.ChildByFieldName("type"); t != nil {
				comp.PropsType = nodeText(src, t)
			}
		}
	}
	return comp
}

func startsWithUpper(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'Z'
}

func firstParamNode(params *sitter.Node) *sitter.Node {
	for i := 0; i < int(params.ChildCount()); i++ {
		c := params.Child(i)
		switch c.Type() {
		case "required_parameter", "optional_parameter", "identifier":
			return c
		}
	}
	return nil
}

func returnsJSXOrHasJSXBody(n *sitter.Node) bool {
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		if strings.Contains(rt.Type(), "jsx") || containsType(rt, "jsx") {
			return true
		}
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return false
	}
	return containsType(body, "jsx_element") || containsType(body, "jsx_self_closing_element") || containsType(body, "jsx_fragment")
}

func containsType(n *sitter.Node, typ string) bool {
	if n == nil {
		return false
	}
	if strings.Contains(n.Type(), typ) {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if containsType(n.Child(i), typ) {
			return true
		}
	}
	return false
}

func childByType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return n.Child(i)
		}
	}
	return nil
}

// extendsClauseNames pulls the parent type names out of an
// extends_type_clause / implements_clause child node; when childType is
// empty, n itself is scanned directly.
func extendsClauseNames(n *sitter.Node, src []byte, childType string) []string {
	target := n
	if childType != "" {
		target = childByType(n, childType)
		if target == nil {
			return nil
		}
	}
	var names []string
	for i := 0; i < int(target.ChildCount()); i++ {
		c := target.Child(i)
		if c.Type() == "type_identifier" || c.Type() == "identifier" || c.Type() == "generic_type" {
			names = append(names, nodeText(src, c))
		}
	}
	return names
}
