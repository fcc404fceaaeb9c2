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

// Package phasehandler implements the per-phase update state machine: IsInstalled,
// Download, Install, Apply, Cancel, Backup and Restore. It holds no per-workflow state;
// the update type is rederived from WorkflowData on every call, so one PhaseHandler is
// safe to reuse across workflow instances.
package phasehandler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/renesas-rz/fsupdatehandler/adushell"
	"github.com/renesas-rz/fsupdatehandler/aoserrors"
	"github.com/renesas-rz/fsupdatehandler/config"
	"github.com/renesas-rz/fsupdatehandler/download"
	"github.com/renesas-rz/fsupdatehandler/processrunner"
	"github.com/renesas-rz/fsupdatehandler/resultmapper"
	"github.com/renesas-rz/fsupdatehandler/stateprobe"
	"github.com/renesas-rz/fsupdatehandler/updatetype"
	"github.com/renesas-rz/fsupdatehandler/workdir"
	"github.com/renesas-rz/fsupdatehandler/workflowdata"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Result is the host-facing phase outcome. It is an alias of resultmapper.Result so
// PhaseHandler's public signatures read in domain terms without duplicating the type.
type Result = resultmapper.Result

// PhaseHandler drives one update through its canonical phases.
type PhaseHandler struct {
	cfg     config.Config
	runner  processrunner.Runner
	probe   *stateprobe.Probe
	fetcher download.Fetcher
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New creates a PhaseHandler. fetcher supplies the payload bytes for Download; see the
// download package for the default cavaliergopher/grab-based implementation.
func New(cfg config.Config, runner processrunner.Runner, fetcher download.Fetcher) *PhaseHandler {
	return &PhaseHandler{
		cfg:     cfg,
		runner:  runner,
		probe:   stateprobe.New(runner, cfg.AduShellPath),
		fetcher: fetcher,
	}
}

// IsInstalled classifies the update type, probes the appropriate version, and compares it
// against the installed criteria, consulting reboot-state to resolve ties.
func (handler *PhaseHandler) IsInstalled(ctx context.Context, data workflowdata.Data) (Result, error) {
	property := data.HandlerProperty("updateType")
	if property == "" {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.MissingUpdateTypeProperty}, nil
	}

	classified := updatetype.Classify(property)
	if classified == updatetype.Unknown {
		return Result{Code: resultmapper.Failure, ExtendedCode: adushell.InternalErrorCode}, nil
	}

	firmwareFirst := updatetype.IsFirmwareFirst(classified)

	version, exitCode, err := handler.probeByOrder(ctx, firmwareFirst)
	if err != nil {
		return Result{Code: resultmapper.Failure, ExtendedCode: exitCode}, nil //nolint:nilerr // probe failure reported via Result, not err
	}

	equal := version == data.InstalledCriteria()
	isCommonBoth := classified == updatetype.CommonBoth

	if equal {
		if result, ok := handler.isInstalledEqual(ctx, isCommonBoth); ok {
			return result, nil
		}
	}

	if isCommonBoth {
		// CommonBoth re-probes the application side and redoes the comparison before
		// consulting reboot-state again, whether the firmware side matched (and only the
		// CommonBoth/NoUpdateRebootPending tie needs breaking) or did not match at all.
		appVersion, appExit, err := handler.probe.ApplicationVersion(ctx)
		if err != nil {
			return Result{Code: resultmapper.Failure, ExtendedCode: appExit}, nil //nolint:nilerr
		}

		if appVersion == data.InstalledCriteria() {
			result, _ := handler.isInstalledEqual(ctx, false)

			return result, nil
		}
	}

	return handler.isInstalledNotEqual(ctx)
}

// Download validates the manifest shape, resets the configured sentinel work directory,
// publishes metadata sentinels there, waits for permission to proceed, then delegates to
// the configured Fetcher to place the payload under the workflow's own work folder.
func (handler *PhaseHandler) Download(ctx context.Context, data workflowdata.Data) (Result, error) {
	_, version, err := workflowdata.ParseTypeVersion(data.UpdateType())
	if err != nil {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.UnknownUpdateVersion}, nil //nolint:nilerr
	}

	if version != 1 {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.DownloadWrongUpdateVersion}, nil
	}

	files := data.Files()
	if len(files) != 1 {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.DownloadWrongFilecount}, nil
	}

	wd := workdir.New(handler.cfg.WorkDir, handler.cfg.WorkDirPerm, handler.cfg.PollInterval)

	if err := wd.Reset(); err != nil {
		return Result{}, aoserrors.Wrap(err)
	}

	updateFilename := filepath.Join(data.WorkFolder(), files[0].TargetFilename)

	if err := wd.WriteSentinel(workdir.SentinelUpdateVersion, []byte(data.InstalledCriteria())); err != nil {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.CreateFailedVersion}, nil //nolint:nilerr
	}

	if err := wd.WriteSentinel(workdir.SentinelUpdateType, []byte(data.HandlerProperty("updateType"))); err != nil {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.CreateFailedType}, nil //nolint:nilerr
	}

	if err := wd.WriteSentinel(workdir.SentinelUpdateSize, []byte(strconv.FormatInt(data.UpdateSize(), 10))); err != nil {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.CreateFailedSize}, nil //nolint:nilerr
	}

	pollCtx, cancel := handler.withControlClientTimeout(ctx)
	defer cancel()

	if err := wd.PollSentinel(pollCtx, workdir.SentinelDownloadUpdate); err != nil {
		return Result{}, aoserrors.Wrap(err)
	}

	if err := wd.WriteSentinel(workdir.SentinelUpdateLocation, []byte(updateFilename)); err != nil {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.CreateFailedLocation}, nil //nolint:nilerr
	}

	result, err := handler.fetcher.Fetch(ctx, data, files[0], updateFilename)
	if err != nil {
		return Result{}, aoserrors.Wrap(err)
	}

	return result, nil
}

// Install waits for permission, invokes AduShell to install the payload, and always
// records the outcome in the errorState sentinel before returning.
func (handler *PhaseHandler) Install(ctx context.Context, data workflowdata.Data) (result Result, err error) {
	defer func() {
		handler.writeErrorState(data, result)
	}()

	dir, openErr := os.Open(data.WorkFolder())
	if openErr != nil {
		result = Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.InstallCannotOpenWorkfolder}

		return result, nil
	}
	dir.Close()

	files := data.Files()
	if len(files) != 1 {
		result = Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.InstallBadFileEntity}

		return result, nil
	}

	property := data.HandlerProperty("updateType")
	if property == "" {
		result = Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.MissingUpdateTypeProperty}

		return result, nil
	}

	classified := updatetype.Classify(property)

	wd := workdir.New(handler.cfg.WorkDir, handler.cfg.WorkDirPerm, handler.cfg.PollInterval)

	pollCtx, cancel := handler.withControlClientTimeout(ctx)
	defer cancel()

	if err := wd.PollSentinel(pollCtx, workdir.SentinelInstallUpdate); err != nil {
		return Result{}, aoserrors.Wrap(err)
	}

	targetData := filepath.Join(data.WorkFolder(), files[0].TargetFilename)

	args := adushell.Args{
		UpdateType: adushell.TypeFusUpdate,
		Action:     adushell.ActionInstall,
		TargetData: targetData,
	}

	switch classified {
	case updatetype.Application:
		args.TargetOptions = []string{adushell.TargetOptionApp}
	case updatetype.Firmware:
		args.TargetOptions = []string{adushell.TargetOptionFirmware}
	}

	exitCode, output, runErr := adushell.Invoke(ctx, handler.runner, handler.cfg.AduShellPath, args)
	if runErr != nil {
		return Result{}, aoserrors.Wrap(runErr)
	}

	log.WithFields(log.Fields{"exitCode": exitCode, "output": output}).Debug("Install invocation complete")

	installState := adushell.ParseInstallState(exitCode)
	result = resultmapper.InstallOutcome(installState, string(classified))

	if result.Code != resultmapper.Success {
		if err := wd.RemoveSentinel(workdir.SentinelInstallUpdate); err != nil {
			log.WithError(err).Warn("Failed to remove installUpdate sentinel")
		}
	}

	return result, nil
}

// Apply probes reboot-state and, for both the reboot-pending and incomplete-update cases,
// waits for permission to apply and explicitly requests an immediate reboot rather than
// falling through with a stale probe result.
func (handler *PhaseHandler) Apply(ctx context.Context, data workflowdata.Data) (Result, error) {
	rebootState, err := handler.probe.RebootState(ctx)
	if err != nil {
		return Result{}, aoserrors.Wrap(err)
	}

	wd := workdir.New(handler.cfg.WorkDir, handler.cfg.WorkDirPerm, handler.cfg.PollInterval)

	switch rebootState {
	case adushell.UpdateRebootPending:
		if err := handler.awaitApplyAndReboot(ctx, data, wd); err != nil {
			return Result{}, aoserrors.Wrap(err)
		}

		return Result{Code: resultmapper.RequiredImmediateReboot}, nil

	case adushell.IncompleteFwUpdate, adushell.IncompleteAppUpdate, adushell.IncompleteAppFwUpdate:
		if err := handler.awaitApplyAndReboot(ctx, data, wd); err != nil {
			return Result{}, aoserrors.Wrap(err)
		}

		return Result{Code: resultmapper.RequiredImmediateReboot}, nil

	default:
		result, _ := resultmapper.Apply(rebootState)

		return result, nil
	}
}

// Cancel rolls back an incomplete application update, or completes a pending post-reboot
// commit, preserving the "success with an error extended code" oddity of the original
// protocol for compatibility.
func (handler *PhaseHandler) Cancel(ctx context.Context, data workflowdata.Data) (Result, error) {
	rebootState, err := handler.probe.RebootState(ctx)
	if err != nil {
		return Result{}, aoserrors.Wrap(err)
	}

	switch rebootState {
	case adushell.IncompleteAppUpdate:
		exitCode, _, runErr := adushell.Invoke(ctx, handler.runner, handler.cfg.AduShellPath, adushell.Args{
			UpdateType: adushell.TypeFusFirmware,
			Action:     adushell.ActionCancel,
		})
		if runErr != nil {
			return Result{}, aoserrors.Wrap(runErr)
		}

		if adushell.ParseRollbackState(exitCode) != adushell.RollbackSuccessful {
			return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.CancelRollbackFirmwareError}, nil
		}

		rebootState, err = handler.probe.RebootState(ctx)
		if err != nil {
			return Result{}, aoserrors.Wrap(err)
		}

		result := resultmapper.CancelAfterRollback(rebootState)
		if result.Code == resultmapper.RequiredImmediateReboot {
			data.RequestImmediateReboot()
		}

		return result, nil

	case adushell.RollbackFwRebootPending:
		exitCode, _, runErr := adushell.Invoke(ctx, handler.runner, handler.cfg.AduShellPath, adushell.Args{
			UpdateType:    adushell.TypeFusFirmware,
			Action:        adushell.ActionExecute,
			TargetOptions: []string{"--commit_update"},
		})
		if runErr != nil {
			return Result{}, aoserrors.Wrap(runErr)
		}

		return resultmapper.CancelAfterCommit(adushell.ParseRebootState(exitCode)), nil

	case adushell.NoUpdateRebootPending:
		return Result{Code: resultmapper.Cancelled}, nil

	default:
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.CancelNotAllowedStateError}, nil
	}
}

// Backup is a no-op, specified for interface completeness only.
func (handler *PhaseHandler) Backup(context.Context, workflowdata.Data) (Result, error) {
	return Result{Code: resultmapper.Success}, nil
}

// Restore is a no-op, specified for interface completeness only.
func (handler *PhaseHandler) Restore(context.Context, workflowdata.Data) (Result, error) {
	return Result{Code: resultmapper.Success}, nil
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (handler *PhaseHandler) probeByOrder(ctx context.Context, firmwareFirst bool) (string, int, error) {
	if firmwareFirst {
		return handler.probe.FirmwareVersion(ctx)
	}

	return handler.probe.ApplicationVersion(ctx)
}

func (handler *PhaseHandler) isInstalledEqual(ctx context.Context, isCommonBoth bool) (Result, bool) {
	rebootState, err := handler.probe.RebootState(ctx)
	if err != nil {
		return Result{Code: resultmapper.Failure, ExtendedCode: resultmapper.IsInstalledUnknownState}, true
	}

	return resultmapper.IsInstalledEqual(rebootState, isCommonBoth)
}

func (handler *PhaseHandler) isInstalledNotEqual(ctx context.Context) (Result, error) {
	rebootState, err := handler.probe.RebootState(ctx)
	if err != nil {
		return Result{}, aoserrors.Wrap(err)
	}

	if result, ok := resultmapper.IsInstalledNotEqual(rebootState); ok {
		return result, nil
	}

	updateType := adushell.TypeFusApplication
	if rebootState == adushell.FailedFwUpdate {
		updateType = adushell.TypeFusFirmware
	}

	exitCode, _, err := adushell.Invoke(ctx, handler.runner, handler.cfg.AduShellPath, adushell.Args{
		UpdateType:    updateType,
		Action:        adushell.ActionExecute,
		TargetOptions: []string{"--commit_update"},
	})
	if err != nil {
		return Result{}, aoserrors.Wrap(err)
	}

	return resultmapper.CommitOutcome(adushell.ParseCommitState(exitCode)), nil
}

func (handler *PhaseHandler) awaitApplyAndReboot(ctx context.Context, data workflowdata.Data, wd *workdir.Workdir) error {
	pollCtx, cancel := handler.withControlClientTimeout(ctx)
	defer cancel()

	if err := wd.PollSentinel(pollCtx, workdir.SentinelApplyUpdate); err != nil {
		return aoserrors.Wrap(err)
	}

	data.RequestImmediateReboot()

	return nil
}

func (handler *PhaseHandler) withControlClientTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if handler.cfg.ControlClientTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, handler.cfg.ControlClientTimeout)
}

func (handler *PhaseHandler) writeErrorState(data workflowdata.Data, result Result) {
	wd := workdir.New(handler.cfg.WorkDir, handler.cfg.WorkDirPerm, handler.cfg.PollInterval)

	text := fmt.Sprintf("%d %d", result.Code, result.ExtendedCode)

	if err := wd.WriteSentinel(workdir.SentinelErrorState, []byte(text)); err != nil {
		log.WithError(err).Warn("Failed to write errorState sentinel")
	}
}
