// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package pipeline

import "testing"

func TestCheckpointManager_SaveLoadClear(t *testing.T) {
	cm := NewCheckpointManager(t.TempDir())

	if cp, err := cm.Load("proj"); err != nil || cp != nil {
		t.Fatalf("Load on empty dir = (%v, %v); want (nil, nil)", cp, err)
	}

	want := &Checkpoint{ProjectID: "proj", FilesProcessed: 3, FilesTotal: 10, LastProcessedFile: "a.ts"}
	if err := cm.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := cm.Load("proj")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.FilesProcessed != 3 || got.LastProcessedFile != "a.ts" {
		t.Fatalf("Load returned %+v; want FilesProcessed=3 LastProcessedFile=a.ts", got)
	}

	if err := cm.Clear("proj"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cp, err := cm.Load("proj"); err != nil || cp != nil {
		t.Fatalf("Load after Clear = (%v, %v); want (nil, nil)", cp, err)
	}
}
