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

// Package spaceallocator enforces a byte quota over the payloads kept in a download work
// folder, evicting the oldest outdated item to make room for a new allocation rather than
// letting a single misbehaving workflow fill the partition.
package spaceallocator

import (
	"sort"
	"sync"
	"time"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// ItemRemover requests to remove item in order to free space.
type ItemRemover func(id string) error

type outdatedItem struct {
	id        string
	size      uint64
	timestamp time.Time
}

// Allocator tracks bytes allocated against partLimit, freeing outdated items oldest-first
// when an allocation would exceed it.
type Allocator struct {
	mutex sync.Mutex

	limit     uint64
	allocated uint64
	remover   ItemRemover
	outdated  []outdatedItem
}

// Space is a single allocation handed out by Allocator.AllocateSpace.
type Space struct {
	allocator *Allocator
	size      uint64
	settled   bool
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates a new space allocator enforcing partLimit bytes under path.
func New(path string, partLimit uint, remover ItemRemover) (*Allocator, error) {
	return &Allocator{limit: uint64(partLimit), remover: remover}, nil
}

// Close closes the space allocator.
func (allocator *Allocator) Close() error {
	return nil
}

// AllocateSpace reserves size bytes, evicting outdated items oldest-first if necessary.
func (allocator *Allocator) AllocateSpace(size uint64) (*Space, error) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()

	for allocator.allocated+size > allocator.limit {
		if len(allocator.outdated) == 0 {
			return nil, aoserrors.Errorf("can't allocate %d bytes: %d byte quota exhausted", size, allocator.limit)
		}

		oldest := allocator.outdated[0]
		allocator.outdated = allocator.outdated[1:]

		if allocator.remover != nil {
			if err := allocator.remover(oldest.id); err != nil {
				return nil, aoserrors.Wrap(err)
			}
		}

		allocator.allocated -= oldest.size
	}

	allocator.allocated += size

	return &Space{allocator: allocator, size: size}, nil
}

// Accept keeps the allocated space charged against the quota: the item it backs now occupies
// permanent storage and will be released later via FreeSpace or AddOutdatedItem/eviction.
func (space *Space) Accept() error {
	space.settled = true

	return nil
}

// Release gives back a space that was allocated but never accepted.
func (space *Space) Release() error {
	if space.settled {
		return nil
	}

	space.allocator.mutex.Lock()
	defer space.allocator.mutex.Unlock()

	space.allocator.allocated -= space.size
	space.settled = true

	return nil
}

// FreeSpace frees size bytes in storage. This should be called when a storage item is removed
// by its owner outside of the outdated-item eviction path.
func (allocator *Allocator) FreeSpace(size uint64) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()

	if size > allocator.allocated {
		allocator.allocated = 0

		return
	}

	allocator.allocated -= size
}

// AddOutdatedItem adds an outdated item. If a later AllocateSpace call needs room, the
// allocator evicts outdated items oldest-timestamp-first by calling ItemRemover for each.
func (allocator *Allocator) AddOutdatedItem(id string, size uint64, timestamp time.Time) error {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()

	allocator.outdated = append(allocator.outdated, outdatedItem{id: id, size: size, timestamp: timestamp})

	sort.Slice(allocator.outdated, func(i, j int) bool {
		return allocator.outdated[i].timestamp.Before(allocator.outdated[j].timestamp)
	})

	return nil
}

// RestoreOutdatedItem removes an item from the outdated item list, e.g. because it was used
// again and is no longer a candidate for eviction.
func (allocator *Allocator) RestoreOutdatedItem(id string) {
	allocator.mutex.Lock()
	defer allocator.mutex.Unlock()

	for i, item := range allocator.outdated {
		if item.id == id {
			allocator.outdated = append(allocator.outdated[:i], allocator.outdated[i+1:]...)

			return
		}
	}
}
