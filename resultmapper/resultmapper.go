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

// Package resultmapper holds the pure, side-effect-free tie-break tables phasehandler
// consults to turn an updater state code into a phase result. Nothing in this package
// touches the filesystem or spawns a process; every function here is a total function of
// its inputs.
package resultmapper

import "github.com/renesas-rz/fsupdatehandler/adushell"

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Code is the closed result-code domain the host workflow understands, spanning every phase.
type Code int

// Result is the pair a PhaseHandler method returns: a host-facing Code plus a handler- or
// updater-defined extended code carrying detail.
type Result struct {
	Code         Code
	ExtendedCode int
}

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Result codes, spanning every phase's PhaseResult vocabulary.
const (
	CodeUnknown Code = iota
	Success
	RequiredImmediateReboot
	MissingCommit
	Installed
	NotInstalled
	Cancelled
	Failure
)

// Extended codes the handler itself assigns (as opposed to passthrough updater exit codes).
// The exact integer values are not specified upstream; only the names and the conditions
// that produce them are. Chosen here as a disjoint block so a log line never confuses a
// handler-assigned code with a raw updater exit code.
const (
	ExtendedNone                    = 0
	MissingUpdateTypeProperty       = 9001
	IsInstalledUnknownState         = 9002
	CommitPreviousFailedUpdate      = 9003
	DownloadWrongUpdateVersion      = 9004
	UnknownUpdateVersion            = 9005
	DownloadWrongFilecount          = 9006
	CreateFailedVersion             = 9007
	CreateFailedType                = 9008
	CreateFailedSize                = 9009
	CreateFailedLocation            = 9010
	InstallCannotOpenWorkfolder     = 9011
	InstallBadFileEntity            = 9012
	InstallFailureFirmwareUpdate    = 9013
	InstallFailureApplicationUpdate = 9014
	ApplyFailureUnknownError        = 9015
	CancelRollbackFirmwareError     = 9016
	CancelNotAllowedStateError      = 9017
	ControlClientTimeout            = 9018
)

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// IsInstalledEqual maps reboot-state when the probed version equals installed_criteria
// when IsInstalled's probed version equals installed_criteria ("Equal" branch). ok is false
// for CommonBoth's NoUpdateRebootPending, which
// the caller must resolve by falling through to the application-side check instead of
// returning this result.
func IsInstalledEqual(state adushell.RebootState, isCommonBoth bool) (result Result, ok bool) {
	switch state {
	case adushell.IncompleteAppFwUpdate, adushell.IncompleteAppUpdate, adushell.IncompleteFwUpdate:
		return Result{Code: MissingCommit}, true
	case adushell.NoUpdateRebootPending:
		if isCommonBoth {
			return Result{}, false
		}

		return Result{Code: Installed}, true
	default:
		return Result{Code: Failure, ExtendedCode: IsInstalledUnknownState}, true
	}
}

// IsInstalledNotEqual maps reboot-state when the probed version (still) does not equal
// installed_criteria ("Not equal" branch), for the states that resolve
// without running a commit. ok is false for FailedAppUpdate/FailedFwUpdate, which require
// the caller to run a commit and choose the outcome from its result.
func IsInstalledNotEqual(state adushell.RebootState) (result Result, ok bool) {
	switch state {
	case adushell.FwUpdateRebootFailed:
		return Result{Code: Installed}, true
	case adushell.FailedAppUpdate, adushell.FailedFwUpdate:
		return Result{}, false
	default:
		return Result{Code: NotInstalled}, true
	}
}

// CommitOutcome maps a post-commit CommitState to the IsInstalled result once
// FailedAppUpdate/FailedFwUpdate has triggered a commit attempt.
func CommitOutcome(state adushell.CommitState) Result {
	if state == adushell.CommitSuccessful {
		return Result{Code: Installed}
	}

	return Result{Code: Failure, ExtendedCode: CommitPreviousFailedUpdate}
}

// Apply maps reboot-state for the Apply phase. ok is false for the "incomplete update"
// states, which the caller resolves itself with the redesigned immediate-reboot fix rather
// than by consulting this table.
func Apply(state adushell.RebootState) (result Result, ok bool) {
	switch state {
	case adushell.UpdateRebootPending:
		return Result{Code: RequiredImmediateReboot}, true
	case adushell.IncompleteFwUpdate, adushell.IncompleteAppUpdate, adushell.IncompleteAppFwUpdate:
		return Result{}, false
	case adushell.NoUpdateRebootPending:
		return Result{Code: Success}, true
	default:
		return Result{Code: Failure, ExtendedCode: ApplyFailureUnknownError}, true
	}
}

// CancelAfterRollback maps the re-probe after AduShell cancel has run in the
// IncompleteAppUpdate branch.
func CancelAfterRollback(state adushell.RebootState) Result {
	switch state {
	case adushell.RollbackFwRebootPending:
		return Result{Code: RequiredImmediateReboot}
	case adushell.NoUpdateRebootPending:
		return Result{Code: Success}
	default:
		return Result{Code: Failure, ExtendedCode: CancelNotAllowedStateError}
	}
}

// CancelAfterCommit maps the commit result in the post-reboot RollbackFwRebootPending
// branch. Cancel_Success is returned either way; on mismatch it carries
// CancelNotAllowedStateError as an extended code, a preserved compatibility oddity.
func CancelAfterCommit(state adushell.RebootState) Result {
	if state == adushell.NoUpdateRebootPending {
		return Result{Code: Success}
	}

	return Result{Code: Success, ExtendedCode: CancelNotAllowedStateError}
}

// InstallOutcome maps an install exit code, classified via adushell.ParseInstallState, to
// the Install phase result. Non-success is split by update type.
func InstallOutcome(state adushell.InstallState, updateType string) Result {
	if adushell.IsInstallSuccessful(state) {
		return Result{Code: Success}
	}

	switch updateType {
	case "Firmware":
		return Result{Code: Failure, ExtendedCode: InstallFailureFirmwareUpdate}
	case "Application":
		return Result{Code: Failure, ExtendedCode: InstallFailureApplicationUpdate}
	default:
		return Result{Code: Failure, ExtendedCode: InstallBadFileEntity}
	}
}
