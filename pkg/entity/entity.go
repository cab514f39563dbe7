// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package entity defines the value types of the knowledge graph: the node
// kinds of §3.1 and the edge kinds of §3.2, plus the deterministic identity
// construction of §3.3. Entities and edges are immutable value types with no
// shared mutable state; a batch owns its own slice of them.
package entity

import "fmt"

// Param describes one function/method parameter.
type Param struct {
	Name         string
	Type         string
	Optional     bool
	DefaultValue string
	IsRest       bool
}

// File is the root entity every other entity is contained in.
type File struct {
	Path         string // absolute
	Name         string
	Extension    string
	LOC          int
	LastModified string // ISO-8601
	Hash         string // content digest
}

func (f File) ID() string { return FileID(f.Path) }

// FileID builds the deterministic identity of a File node.
func FileID(absolutePath string) string {
	return "File:" + absolutePath
}

// rangedID builds the identity shared by every non-Variable ranged entity.
func rangedID(label, filePath, name string, startLine int) string {
	return fmt.Sprintf("%s:%s:%s:%d", label, filePath, name, startLine)
}

// Function is a top-level function, method, arrow function, or function
// expression bound to a name.
type Function struct {
	Name        string
	FilePath    string
	StartLine   int
	EndLine     int
	StartCol    int
	EndCol      int
	IsExported  bool
	IsAsync     bool
	IsArrow     bool
	IsGenerator bool
	Params      []Param
	ReturnType  string // empty means absent
	Docstring   string
	Signature   string
	CodeText    string
}

func (fn Function) ID() string { return rangedID("Function", fn.FilePath, fn.Name, fn.StartLine) }

// Class is a class declaration.
type Class struct {
	Name       string
	FilePath   string
	StartLine  int
	EndLine    int
	IsExported bool
	IsAbstract bool
	Extends    string   // single parent name, empty if none
	Implements []string // interface names
	Docstring  string
	CodeText   string
}

func (c Class) ID() string { return rangedID("Class", c.FilePath, c.Name, c.StartLine) }

// Interface is an interface declaration.
type Interface struct {
	Name       string
	FilePath   string
	StartLine  int
	EndLine    int
	IsExported bool
	Extends    []string
	Docstring  string
	CodeText   string
}

func (i Interface) ID() string { return rangedID("Interface", i.FilePath, i.Name, i.StartLine) }

// VariableKind enumerates the declaration form of a Variable entity.
type VariableKind string

const (
	VariableConst VariableKind = "const"
	VariableLet   VariableKind = "let"
	VariableVar   VariableKind = "var"
)

// Variable is a top-level or exported variable binding.
type Variable struct {
	Name       string
	FilePath   string
	Line       int
	Kind       VariableKind
	IsExported bool
	Type       string
}

func (v Variable) ID() string { return rangedID("Variable", v.FilePath, v.Name, v.Line) }

// TypeAliasKind enumerates the declaration form of a TypeAlias entity.
// The graph label for this kind remains "Type", matching §3.1; the Go type
// is named TypeAlias to avoid colliding with the `type` keyword.
type TypeAliasKind string

const (
	TypeAliasType TypeAliasKind = "type"
	TypeAliasEnum TypeAliasKind = "enum"
)

// TypeAlias is a type alias or enum declaration. Graph label: Type.
type TypeAlias struct {
	Name       string
	FilePath   string
	StartLine  int
	EndLine    int
	IsExported bool
	Kind       TypeAliasKind
	Docstring  string
	CodeText   string
}

func (t TypeAlias) ID() string { return rangedID("Type", t.FilePath, t.Name, t.StartLine) }

// Prop describes one React component prop.
type Prop struct {
	Name     string
	Type     string
	Optional bool
}

// Component is a React-family function or class component.
type Component struct {
	Name       string
	FilePath   string
	StartLine  int
	EndLine    int
	IsExported bool
	Props      []Prop
	PropsType  string
	CodeText   string
}

func (c Component) ID() string { return rangedID("Component", c.FilePath, c.Name, c.StartLine) }

// ImportSpecifier is one named binding pulled in by an import statement.
type ImportSpecifier struct {
	Name  string
	Alias string
}

// Import is an import statement. ResolvedPath is set lazily by the resolver
// (§3.4) once the source module is known to live under the project root.
type Import struct {
	Source         string
	FilePath       string
	IsDefault      bool
	IsNamespace    bool
	Specifiers     []ImportSpecifier
	NamespaceAlias string
	DefaultAlias   string
	ResolvedPath   string
	Line           int
}

// ParsedFileEntities is the output of a single-file extraction (§4.2): the
// File record, every entity kind found in it, and the four unresolved
// reference lists Pass B consumes.
type ParsedFileEntities struct {
	File       File
	Functions  []Function
	Classes    []Class
	Interfaces []Interface
	Variables  []Variable
	Types      []TypeAlias
	Components []Component
	Imports    []Import

	CallRefs        []CallRef
	ImportRefs      []ImportRef
	InheritanceRefs []InheritanceRef
	RenderRefs      []RenderRef
}

// CallRef is an unresolved call: callerName is the innermost enclosing
// function/method; a call with no enclosing function is never emitted
// (§4.2 "Enclosure").
type CallRef struct {
	CallerName string
	CalleeName string
	Line       int
}

// ImportRef is derived from an Import record's source module string.
type ImportRef struct {
	Source   string
	FilePath string
}

// InheritanceKind enumerates the two inheritance reference kinds.
type InheritanceKind string

const (
	InheritanceExtends    InheritanceKind = "extends"
	InheritanceImplements InheritanceKind = "implements"
)

// InheritanceRef is an unresolved extends/implements reference.
type InheritanceRef struct {
	ChildName  string
	ParentName string
	Kind       InheritanceKind
}

// RenderRef is an unresolved component-renders-component reference.
type RenderRef struct {
	ComponentName         string
	RenderedComponentName string
	Line                  int
}
