// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// SPDX-License-Identifier: Apache-2.0

package graphstore

import (
	"fmt"
	"regexp"
	"strings"
)

// cypherBuilder builds parameterized MERGE/MATCH queries, never interpolating
// caller-controlled values directly into query text. Labels and property keys
// come from this package's own entity model, not from arbitrary user input,
// but they are still validated here rather than trusted (§7 defends against
// malformed store input the same way it defends against malformed source
// input).
type cypherBuilder struct {
	params  map[string]any
	counter int
}

func newCypherBuilder() *cypherBuilder {
	return &cypherBuilder{params: make(map[string]any)}
}

// addParam registers a value and returns its placeholder.
func (b *cypherBuilder) addParam(value any) string {
	name := fmt.Sprintf("p%d", b.counter)
	b.counter++
	b.params[name] = value
	return "$" + name
}

func (b *cypherBuilder) paramMap() map[string]any {
	return b.params
}

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && identifierRe.MatchString(s)
}

// buildMergeNode returns a MERGE query keyed on uniqueKey, setting the given
// properties regardless of whether the node already existed (idempotent
// upsert per §4.4).
func (b *cypherBuilder) buildMergeNode(label, uniqueKey string, uniqueValue any, properties map[string]any) (string, error) {
	if !isValidIdentifier(label) {
		return "", fmt.Errorf("graphstore: invalid node label %q", label)
	}
	if !isValidIdentifier(uniqueKey) {
		return "", fmt.Errorf("graphstore: invalid unique key %q", uniqueKey)
	}
	uniqueParam := b.addParam(uniqueValue)

	sets := make([]string, 0, len(properties))
	for key, value := range properties {
		if !isValidIdentifier(key) {
			return "", fmt.Errorf("graphstore: invalid property key %q", key)
		}
		sets = append(sets, fmt.Sprintf("n.%s = %s", key, b.addParam(value)))
	}

	query := fmt.Sprintf("MERGE (n:%s {%s: %s})", label, uniqueKey, uniqueParam)
	if len(sets) > 0 {
		query += " SET " + strings.Join(sets, ", ")
	}
	return query, nil
}

// buildMergeEdge returns a MATCH-MATCH-MERGE query connecting two
// already-upserted nodes by their identity keys.
func (b *cypherBuilder) buildMergeEdge(
	fromLabel, fromKey string, fromValue any,
	toLabel, toKey string, toValue any,
	edgeLabel string,
	properties map[string]any,
) (string, error) {
	for _, id := range []string{fromLabel, fromKey, toLabel, toKey, edgeLabel} {
		if !isValidIdentifier(id) {
			return "", fmt.Errorf("graphstore: invalid identifier %q", id)
		}
	}
	fromParam := b.addParam(fromValue)
	toParam := b.addParam(toValue)

	var setClause string
	if len(properties) > 0 {
		sets := make([]string, 0, len(properties))
		for key, value := range properties {
			if !isValidIdentifier(key) {
				return "", fmt.Errorf("graphstore: invalid edge property key %q", key)
			}
			sets = append(sets, fmt.Sprintf("r.%s = %s", key, b.addParam(value)))
		}
		setClause = " SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf(
		"MATCH (from:%s {%s: %s}) MATCH (to:%s {%s: %s}) MERGE (from)-[r:%s]->(to)%s",
		fromLabel, fromKey, fromParam,
		toLabel, toKey, toParam,
		edgeLabel, setClause,
	), nil
}

// buildMergeEdgeByID is buildMergeEdge without a label constraint on either
// endpoint, for edge kinds whose endpoints can carry more than one label
// (EXTENDS connects Class->Class or Interface->Interface; the deterministic
// id already encodes which, so matching on id alone is unambiguous).
func (b *cypherBuilder) buildMergeEdgeByID(fromID, toID, edgeLabel string, properties map[string]any) (string, error) {
	if !isValidIdentifier(edgeLabel) {
		return "", fmt.Errorf("graphstore: invalid edge label %q", edgeLabel)
	}
	fromParam := b.addParam(fromID)
	toParam := b.addParam(toID)

	var setClause string
	if len(properties) > 0 {
		sets := make([]string, 0, len(properties))
		for key, value := range properties {
			if !isValidIdentifier(key) {
				return "", fmt.Errorf("graphstore: invalid edge property key %q", key)
			}
			sets = append(sets, fmt.Sprintf("r.%s = %s", key, b.addParam(value)))
		}
		setClause = " SET " + strings.Join(sets, ", ")
	}

	return fmt.Sprintf(
		"MATCH (from {id: %s}) MATCH (to {id: %s}) MERGE (from)-[r:%s]->(to)%s",
		fromParam, toParam, edgeLabel, setClause,
	), nil
}
