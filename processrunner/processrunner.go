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

// Package processrunner spawns a child process and captures its combined output and exit
// code, without interpreting either.
package processrunner

import (
	"bytes"
	"context"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Runner spawns a child executable and returns its exit code and combined stdout+stderr.
// A non-nil err means the process could never be launched or waited on; exitCode is
// meaningless in that case.
type Runner interface {
	Run(ctx context.Context, executable string, argv []string) (exitCode int, output string, err error)
}

// OSRunner is the default Runner, backed by os/exec.
type OSRunner struct{}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates an OSRunner.
func New() *OSRunner {
	return &OSRunner{}
}

// Run spawns executable with argv, blocks until it exits, and returns its exit code and
// combined output. A launch failure (binary missing, fork failure) is reported as a non-nil
// err; callers should treat that as a generic phase failure.
func (runner *OSRunner) Run(ctx context.Context, executable string, argv []string) (int, string, error) {
	log.WithFields(log.Fields{"executable": executable, "argv": argv}).Debug("Run process")

	cmd := exec.CommandContext(ctx, executable, argv...) //nolint:gosec // argv is built internally

	var combined bytes.Buffer

	cmd.Stdout = &combined
	cmd.Stderr = &combined

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			log.WithFields(log.Fields{
				"executable": executable, "exitCode": exitErr.ExitCode(), "output": combined.String(),
			}).Debug("Process exited with non-zero status")

			return exitErr.ExitCode(), combined.String(), nil
		}

		return 0, combined.String(), aoserrors.Wrap(err)
	}

	return 0, combined.String(), nil
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func asExitError(err error, target **exec.ExitError) bool {
	exitErr, ok := err.(*exec.ExitError) //nolint:errorlint // exec.Command never wraps this

	if ok {
		*target = exitErr
	}

	return ok
}
