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

// Package retryhelper retries a function with exponential backoff.
package retryhelper

import (
	"context"
	"time"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Restorer is called between failed attempts, before the backoff sleep, to run any recovery
// action (force-unmount, drop a stale handle, etc.) before the next try.
type Restorer func(retryCount int, delay time.Duration, err error)

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// Retry calls f up to maxTry times, doubling delay after each failed attempt up to maxDelay
// (0 means no cap). It returns the last error if every attempt fails, or nil on success.
// restorer may be nil.
func Retry(
	ctx context.Context, f func() error, restorer Restorer, maxTry int, delay, maxDelay time.Duration,
) error {
	var err error

	currentDelay := delay

	for i := 0; i < maxTry; i++ {
		if err = f(); err == nil {
			return nil
		}

		if i == maxTry-1 {
			break
		}

		if restorer != nil {
			restorer(i, currentDelay, err)
		}

		select {
		case <-time.After(currentDelay):

		case <-ctx.Done():
			return aoserrors.Wrap(ctx.Err())
		}

		currentDelay *= 2

		if maxDelay > 0 && currentDelay > maxDelay {
			currentDelay = maxDelay
		}
	}

	return aoserrors.Wrap(err)
}
