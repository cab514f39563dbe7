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
	"context"
	"testing"
)

func TestNewClient_RejectsMissingCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{}, nil)
	if err == nil {
		t.Fatal("expected error for empty credentials")
	}
}

func TestNewClient_RejectsPartialCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), Config{URI: "neo4j://localhost:7687", User: "neo4j"}, nil)
	if err == nil {
		t.Fatal("expected error when password is missing")
	}
}

func TestAsIntHelpers(t *testing.T) {
	if got := asInt(int64(5)); got != 5 {
		t.Errorf("asInt(int64(5)) = %d; want 5", got)
	}
	if got := asInt("not a number"); got != 0 {
		t.Errorf("asInt(string) = %d; want 0", got)
	}
	if got := asInt64(int(7)); got != 7 {
		t.Errorf("asInt64(int(7)) = %d; want 7", got)
	}
	if got := asString(nil); got != "" {
		t.Errorf("asString(nil) = %q; want empty", got)
	}
}
