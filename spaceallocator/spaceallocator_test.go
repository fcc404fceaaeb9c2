// SPDX-License-Identifier: Apache-2.0
//
// Copyright (C) 2022 Renesas Electronics Corporation.
// Copyright (C) 2022 EPAM Systems, Inc.
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

package spaceallocator_test

import (
	"testing"
	"time"

	"github.com/renesas-rz/fsupdatehandler/spaceallocator"
)

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestAllocateWithinLimit(t *testing.T) {
	allocator, err := spaceallocator.New("/tmp/work", 1000, nil)
	if err != nil {
		t.Fatalf("Can't create allocator: %s", err)
	}

	space, err := allocator.AllocateSpace(400)
	if err != nil {
		t.Fatalf("AllocateSpace failed: %s", err)
	}

	if err := space.Accept(); err != nil {
		t.Errorf("Accept failed: %s", err)
	}
}

func TestAllocateOverLimitFails(t *testing.T) {
	allocator, err := spaceallocator.New("/tmp/work", 100, nil)
	if err != nil {
		t.Fatalf("Can't create allocator: %s", err)
	}

	if _, err := allocator.AllocateSpace(200); err == nil {
		t.Error("Expected allocation over the quota to fail")
	}
}

func TestReleaseFreesSpace(t *testing.T) {
	allocator, err := spaceallocator.New("/tmp/work", 100, nil)
	if err != nil {
		t.Fatalf("Can't create allocator: %s", err)
	}

	space, err := allocator.AllocateSpace(100)
	if err != nil {
		t.Fatalf("AllocateSpace failed: %s", err)
	}

	if err := space.Release(); err != nil {
		t.Errorf("Release failed: %s", err)
	}

	if _, err := allocator.AllocateSpace(100); err != nil {
		t.Errorf("Reallocation after release should succeed: %s", err)
	}
}

func TestAllocateEvictsOutdatedItems(t *testing.T) {
	removed := make([]string, 0)

	allocator, err := spaceallocator.New("/tmp/work", 100, func(id string) error {
		removed = append(removed, id)

		return nil
	})
	if err != nil {
		t.Fatalf("Can't create allocator: %s", err)
	}

	if _, err := allocator.AllocateSpace(100); err != nil {
		t.Fatalf("AllocateSpace failed: %s", err)
	}

	if err := allocator.AddOutdatedItem("old", 100, time.Now()); err != nil {
		t.Fatalf("AddOutdatedItem failed: %s", err)
	}

	if _, err := allocator.AllocateSpace(50); err != nil {
		t.Fatalf("AllocateSpace after eviction failed: %s", err)
	}

	if len(removed) != 1 || removed[0] != "old" {
		t.Errorf("Expected outdated item eviction, got: %v", removed)
	}
}

func TestRestoreOutdatedItemPreventsEviction(t *testing.T) {
	removed := make([]string, 0)

	allocator, err := spaceallocator.New("/tmp/work", 100, func(id string) error {
		removed = append(removed, id)

		return nil
	})
	if err != nil {
		t.Fatalf("Can't create allocator: %s", err)
	}

	if _, err := allocator.AllocateSpace(100); err != nil {
		t.Fatalf("AllocateSpace failed: %s", err)
	}

	if err := allocator.AddOutdatedItem("keep", 100, time.Now()); err != nil {
		t.Fatalf("AddOutdatedItem failed: %s", err)
	}

	allocator.RestoreOutdatedItem("keep")

	if _, err := allocator.AllocateSpace(50); err == nil {
		t.Error("Expected allocation to fail once the outdated item was restored")
	}

	if len(removed) != 0 {
		t.Errorf("Expected no eviction, got: %v", removed)
	}
}
