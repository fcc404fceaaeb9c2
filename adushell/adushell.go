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

// Package adushell models the argv contract of the privileged aduShell trampoline: the only
// path through which the agent may invoke the fs-updater CLI.
package adushell

import (
	"context"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
	"github.com/renesas-rz/fsupdatehandler/processrunner"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// DefaultPath is the default location of the aduShell binary.
const DefaultPath = "/usr/lib/adu/adu-shell"

// Update types (--update_type).
const (
	TypeFusFirmware    = "fus/firmware"
	TypeFusApplication = "fus/application"
	TypeFusUpdate      = "fus/update"
)

// Update actions (--update_action).
const (
	ActionInstall = "install"
	ActionApply   = "apply"
	ActionExecute = "execute"
	ActionCancel  = "cancel"
	ActionReboot  = "reboot"
)

// Target options for the Execute action (--target_options).
const (
	TargetOptionFirmwareVersion    = "--firmware_version"
	TargetOptionApplicationVersion = "--application_version"
)

// Target options appended to an Install invocation to disambiguate single-flavour updates.
const (
	TargetOptionApp      = "app"
	TargetOptionFirmware = "fw"
)

const (
	flagUpdateType    = "--update_type"
	flagUpdateAction  = "--update_action"
	flagTargetData    = "--target_data"
	flagTargetOptions = "--target_options"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Args describes one aduShell invocation.
type Args struct {
	UpdateType    string
	Action        string
	TargetData    string
	TargetOptions []string
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// Argv renders Args into the argv aduShell expects.
func (args Args) Argv() []string {
	argv := []string{flagUpdateType, args.UpdateType, flagUpdateAction, args.Action}

	if args.TargetData != "" {
		argv = append(argv, flagTargetData, args.TargetData)
	}

	if len(args.TargetOptions) > 0 {
		argv = append(argv, flagTargetOptions)
		argv = append(argv, args.TargetOptions...)
	}

	return argv
}

// Invoke runs aduShell with args through runner and returns its exit code and combined output.
func Invoke(ctx context.Context, runner processrunner.Runner, shellPath string, args Args) (int, string, error) {
	if shellPath == "" {
		shellPath = DefaultPath
	}

	exitCode, output, err := runner.Run(ctx, shellPath, args.Argv())
	if err != nil {
		return exitCode, output, aoserrors.Wrap(err)
	}

	return exitCode, output, nil
}
