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

package adushell

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// RebootState is fs-updater's report of where the device sits in the A/B+commit state
// machine, read via `--update_reboot_state`.
type RebootState int

// InstallState is fs-updater's install exit code domain.
type InstallState int

// CommitState is fs-updater's commit exit code domain.
type CommitState int

// RollbackState is fs-updater's rollback/cancel exit code domain.
type RollbackState int

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// RebootState values. RebootStateUnknown is the fatal, unrecognized arm.
const (
	RebootStateUnknown RebootState = iota
	UpdateRebootPending
	IncompleteFwUpdate
	IncompleteAppUpdate
	IncompleteAppFwUpdate
	NoUpdateRebootPending
	RollbackFwRebootPending
	RollbackAppRebootPending
	FailedFwUpdate
	FailedAppUpdate
	FwUpdateRebootFailed
)

// InstallState values.
const (
	InstallStateUnknown InstallState = iota
	InstallFirmwareSuccessful
	InstallApplicationSuccessful
	InstallFirmwareAndApplicationSuccessful
	InstallSystemError
)

// CommitState values.
const (
	CommitStateUnknown CommitState = iota
	CommitSuccessful
	CommitNotNeeded
	CommitInternalError
)

// RollbackState values.
const (
	RollbackStateUnknown RollbackState = iota
	RollbackSuccessful
	RollbackInternalError
)

// InternalErrorCode is the extended result code fs-updater reports when the requested
// operation does not correspond to any known update type.
const InternalErrorCode = -1

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// ParseRebootState reinterprets a raw aduShell exit code as a RebootState, or
// RebootStateUnknown if the code is outside the compiled-in set.
func ParseRebootState(exitCode int) RebootState {
	if exitCode < int(UpdateRebootPending) || exitCode > int(FwUpdateRebootFailed) {
		return RebootStateUnknown
	}

	return RebootState(exitCode)
}

// ParseInstallState reinterprets a raw aduShell exit code as an InstallState.
func ParseInstallState(exitCode int) InstallState {
	if exitCode < int(InstallFirmwareSuccessful) || exitCode > int(InstallSystemError) {
		return InstallStateUnknown
	}

	return InstallState(exitCode)
}

// ParseCommitState reinterprets a raw aduShell exit code as a CommitState.
func ParseCommitState(exitCode int) CommitState {
	if exitCode < int(CommitSuccessful) || exitCode > int(CommitInternalError) {
		return CommitStateUnknown
	}

	return CommitState(exitCode)
}

// ParseRollbackState reinterprets a raw aduShell exit code as a RollbackState.
func ParseRollbackState(exitCode int) RollbackState {
	if exitCode < int(RollbackSuccessful) || exitCode > int(RollbackInternalError) {
		return RollbackStateUnknown
	}

	return RollbackState(exitCode)
}

// IsInstallSuccessful reports whether state is any of the "successful" install variants
// (firmware, application, or combined).
func IsInstallSuccessful(state InstallState) bool {
	switch state {
	case InstallFirmwareSuccessful, InstallApplicationSuccessful, InstallFirmwareAndApplicationSuccessful:
		return true
	default:
		return false
	}
}

func (s RebootState) String() string {
	switch s {
	case UpdateRebootPending:
		return "UpdateRebootPending"
	case IncompleteFwUpdate:
		return "IncompleteFwUpdate"
	case IncompleteAppUpdate:
		return "IncompleteAppUpdate"
	case IncompleteAppFwUpdate:
		return "IncompleteAppFwUpdate"
	case NoUpdateRebootPending:
		return "NoUpdateRebootPending"
	case RollbackFwRebootPending:
		return "RollbackFwRebootPending"
	case RollbackAppRebootPending:
		return "RollbackAppRebootPending"
	case FailedFwUpdate:
		return "FailedFwUpdate"
	case FailedAppUpdate:
		return "FailedAppUpdate"
	case FwUpdateRebootFailed:
		return "FwUpdateRebootFailed"
	default:
		return "Unknown"
	}
}
