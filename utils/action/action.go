// SPDX-License-Identifier: Apache-2.0
//
// Copyright (C) 2021 Renesas Electronics Corporation.
// Copyright (C) 2021 EPAM Systems, Inc.
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

// Package action runs keyed actions with bounded concurrency, collapsing concurrent
// requests for the same key into a single execution.
package action

import "sync"

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Handler executes actions keyed by id with at most maxConcurrentActions running at once.
type Handler struct {
	sem chan struct{}
	wg  sync.WaitGroup

	mutex   sync.Mutex
	pending map[string]chan error
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates a new action handler with the given concurrency limit.
func New(maxConcurrentActions int) *Handler {
	return &Handler{
		sem:     make(chan struct{}, maxConcurrentActions),
		pending: make(map[string]chan error),
	}
}

// Execute runs action(id) in its own goroutine and returns a channel that receives its
// result. If id is already executing, the existing result channel is returned instead of
// starting a second run.
func (handler *Handler) Execute(id string, action func(id string) error) <-chan error {
	handler.mutex.Lock()

	if channel, ok := handler.pending[id]; ok {
		handler.mutex.Unlock()

		return channel
	}

	channel := make(chan error, 1)
	handler.pending[id] = channel
	handler.mutex.Unlock()

	handler.wg.Add(1)

	go func() {
		defer handler.wg.Done()

		handler.sem <- struct{}{}
		defer func() { <-handler.sem }()

		err := action(id)

		handler.mutex.Lock()
		delete(handler.pending, id)
		handler.mutex.Unlock()

		channel <- err
		close(channel)
	}()

	return channel
}

// Wait blocks until every action started so far has completed.
func (handler *Handler) Wait() {
	handler.wg.Wait()
}
