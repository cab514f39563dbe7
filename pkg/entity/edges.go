// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package entity

// EdgeID builds the deterministic edge identity of §3.3: <Label>:<fromId>-><toId>.
func EdgeID(label, fromID, toID string) string {
	return label + ":" + fromID + "->" + toID
}

// ContainsEdge: File -> {Function|Class|Interface|Variable|Type|Component}.
type ContainsEdge struct {
	FromFileID string
	ToID       string
}

func (e ContainsEdge) ID() string { return EdgeID("CONTAINS", e.FromFileID, e.ToID) }

// ImportsEdge: File -> File (intra-project), carrying the import's specifiers.
type ImportsEdge struct {
	FromFileID string
	ToFileID   string
	Specifiers []ImportSpecifier
}

func (e ImportsEdge) ID() string { return EdgeID("IMPORTS", e.FromFileID, e.ToFileID) }

// CallsEdge: Function -> Function, with a monotone count (§3.3 I5).
type CallsEdge struct {
	FromFunctionID string
	ToFunctionID   string
	Line           int
	Count          int
}

func (e CallsEdge) ID() string { return EdgeID("CALLS", e.FromFunctionID, e.ToFunctionID) }

// ExtendsEdge: Class -> Class, or Interface -> Interface.
type ExtendsEdge struct {
	FromID string
	ToID   string
}

func (e ExtendsEdge) ID() string { return EdgeID("EXTENDS", e.FromID, e.ToID) }

// ImplementsEdge: Class -> Interface.
type ImplementsEdge struct {
	FromClassID     string
	ToInterfaceID   string
}

func (e ImplementsEdge) ID() string { return EdgeID("IMPLEMENTS", e.FromClassID, e.ToInterfaceID) }

// RendersEdge: Component -> Component, with a line.
type RendersEdge struct {
	FromComponentID string
	ToComponentID   string
	Line            int
}

func (e RendersEdge) ID() string { return EdgeID("RENDERS", e.FromComponentID, e.ToComponentID) }
