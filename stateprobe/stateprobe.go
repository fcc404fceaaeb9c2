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

// Package stateprobe queries fs-updater for reboot/firmware/application state through
// AduShell's Execute action.
package stateprobe

import (
	"context"
	"errors"
	"strings"

	"github.com/renesas-rz/fsupdatehandler/adushell"
	"github.com/renesas-rz/fsupdatehandler/aoserrors"
	"github.com/renesas-rz/fsupdatehandler/processrunner"
)

// ErrProbeFailure is returned when AduShell exits non-zero or with empty output for a
// version probe.
var ErrProbeFailure = errors.New("state probe returned no usable output")

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Probe queries fs-updater's reported state via AduShell.
type Probe struct {
	runner    processrunner.Runner
	shellPath string
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates a Probe that invokes AduShell at shellPath (empty uses adushell.DefaultPath)
// through runner.
func New(runner processrunner.Runner, shellPath string) *Probe {
	return &Probe{runner: runner, shellPath: shellPath}
}

// RebootState queries `--update_reboot_state` and reinterprets the exit code as a
// RebootState; an exit code outside the known range yields adushell.RebootStateUnknown.
func (probe *Probe) RebootState(ctx context.Context) (adushell.RebootState, error) {
	exitCode, _, err := adushell.Invoke(ctx, probe.runner, probe.shellPath, adushell.Args{
		UpdateType:    adushell.TypeFusUpdate,
		Action:        adushell.ActionExecute,
		TargetOptions: []string{"--update_reboot_state"},
	})
	if err != nil {
		return adushell.RebootStateUnknown, aoserrors.Wrap(err)
	}

	return adushell.ParseRebootState(exitCode), nil
}

// FirmwareVersion queries `--firmware_version` and returns the stripped version string
// plus the raw exit code, so a failed probe can be reported with the updater's own code.
func (probe *Probe) FirmwareVersion(ctx context.Context) (string, int, error) {
	return probe.queryVersion(ctx, adushell.TargetOptionFirmwareVersion)
}

// ApplicationVersion queries `--application_version` and returns the stripped version
// string plus the raw exit code.
func (probe *Probe) ApplicationVersion(ctx context.Context) (string, int, error) {
	return probe.queryVersion(ctx, adushell.TargetOptionApplicationVersion)
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (probe *Probe) queryVersion(ctx context.Context, targetOption string) (string, int, error) {
	exitCode, output, err := adushell.Invoke(ctx, probe.runner, probe.shellPath, adushell.Args{
		UpdateType:    adushell.TypeFusUpdate,
		Action:        adushell.ActionExecute,
		TargetOptions: []string{targetOption},
	})
	if err != nil {
		return "", exitCode, aoserrors.Wrap(err)
	}

	version := stripAndExtract(output, targetOption)

	if exitCode != 0 || version == "" {
		return "", exitCode, aoserrors.Wrap(ErrProbeFailure)
	}

	return version, exitCode, nil
}

// stripAndExtract trims trailing newline/tab characters and, when the updater echoes the
// flag back ("--firmware_version 1.2.3"), returns only the value following it.
func stripAndExtract(output, flag string) string {
	trimmed := strings.TrimRight(output, "\n\t")

	if idx := strings.Index(trimmed, flag); idx != -1 {
		trimmed = strings.TrimSpace(trimmed[idx+len(flag):])
	}

	return strings.TrimSpace(trimmed)
}
