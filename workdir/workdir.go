// SPDX-License-Identifier: Apache-2.0
//
// Copyright (C) 2024 Renesas Electronics Corporation.
// Copyright (C) 2024 EPAM Systems, Inc.
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

// Package workdir manages the scratch directory of sentinel files the agent and an
// external control client use to rendezvous across a privileged update phase.
package workdir

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Well-known sentinel names shared with the external control client.
const (
	SentinelUpdateVersion  = "update_version"
	SentinelUpdateType     = "update_type"
	SentinelUpdateSize     = "update_size"
	SentinelUpdateLocation = "update_location"
	SentinelDownloadUpdate = "downloadUpdate"
	SentinelInstallUpdate  = "installUpdate"
	SentinelApplyUpdate    = "applyUpdate"
	SentinelErrorState     = "errorState"
)

const sentinelFilePerm = 0o644

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

// ErrControlClientTimeout is returned by PollSentinel when ctx carries a deadline and it
// elapses before the sentinel appears. Surfaced only when the caller has opted into a
// bounded wait; with no deadline the default contract is to wait forever.
var ErrControlClientTimeout = errors.New("timed out waiting for control client sentinel")

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Workdir is the scratch directory of sentinel files for one workflow instance.
type Workdir struct {
	path string
	perm os.FileMode
	poll time.Duration
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates a Workdir rooted at path. perm governs the permission bits Reset creates the
// directory with; poll is the interval PollSentinel sleeps between existence checks.
func New(path string, perm os.FileMode, poll time.Duration) *Workdir {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	return &Workdir{path: path, perm: perm, poll: poll}
}

// Path returns the work directory's path as given to New.
func (wd *Workdir) Path() string {
	return wd.path
}

// Reset recursively removes the work directory if present, then recreates it empty, so
// stale sentinels from a previous attempt never influence the new one.
func (wd *Workdir) Reset() error {
	if err := os.RemoveAll(wd.path); err != nil {
		return aoserrors.Wrap(err)
	}

	if err := os.MkdirAll(wd.path, wd.perm); err != nil {
		return aoserrors.Wrap(err)
	}

	// MkdirAll applies the umask; re-assert the configured bits explicitly.
	if err := os.Chmod(wd.path, wd.perm); err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}

// WriteSentinel creates or truncates the named sentinel file under the work dir, writes
// data, and sets it to rw-r--r--.
func (wd *Workdir) WriteSentinel(name string, data []byte) error {
	path := filepath.Join(wd.path, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, sentinelFilePerm)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()

		return aoserrors.Wrap(err)
	}

	if err := file.Close(); err != nil {
		return aoserrors.Wrap(err)
	}

	if err := os.Chmod(path, sentinelFilePerm); err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}

// PollSentinel blocks until the named sentinel file exists. With no deadline on ctx it
// waits forever, matching the reference's unbounded-wait contract; with a deadline it
// returns ErrControlClientTimeout if the sentinel never appears in time.
func (wd *Workdir) PollSentinel(ctx context.Context, name string) error {
	path := filepath.Join(wd.path, name)

	ticker := time.NewTicker(wd.poll)
	defer ticker.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return aoserrors.Wrap(err)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return aoserrors.Wrap(ErrControlClientTimeout)
			}

			return aoserrors.Wrap(ctx.Err())
		case <-ticker.C:
		}
	}
}

// RemoveSentinel unlinks the named sentinel file; a missing file is not an error.
func (wd *Workdir) RemoveSentinel(name string) error {
	err := os.Remove(filepath.Join(wd.path, name))
	if err != nil && !os.IsNotExist(err) {
		return aoserrors.Wrap(err)
	}

	return nil
}
