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

package adushell_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/renesas-rz/fsupdatehandler/adushell"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type fakeRunner struct {
	executable string
	argv       []string

	exitCode int
	output   string
	err      error
}

func (runner *fakeRunner) Run(ctx context.Context, executable string, argv []string) (int, string, error) {
	runner.executable = executable
	runner.argv = argv

	return runner.exitCode, runner.output, runner.err
}

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestArgvFull(t *testing.T) {
	args := adushell.Args{
		UpdateType:    adushell.TypeFusFirmware,
		Action:        adushell.ActionInstall,
		TargetData:    "/tmp/work/fw.bin",
		TargetOptions: []string{adushell.TargetOptionFirmware},
	}

	expected := []string{
		"--update_type", adushell.TypeFusFirmware,
		"--update_action", adushell.ActionInstall,
		"--target_data", "/tmp/work/fw.bin",
		"--target_options", adushell.TargetOptionFirmware,
	}

	if argv := args.Argv(); !reflect.DeepEqual(argv, expected) {
		t.Errorf("Wrong argv: %v", argv)
	}
}

func TestArgvMinimal(t *testing.T) {
	args := adushell.Args{UpdateType: adushell.TypeFusUpdate, Action: adushell.ActionExecute}

	expected := []string{"--update_type", adushell.TypeFusUpdate, "--update_action", adushell.ActionExecute}

	if argv := args.Argv(); !reflect.DeepEqual(argv, expected) {
		t.Errorf("Wrong argv: %v", argv)
	}
}

func TestInvokeUsesDefaultPath(t *testing.T) {
	runner := &fakeRunner{exitCode: 3, output: "done"}

	exitCode, output, err := adushell.Invoke(context.Background(), runner, "", adushell.Args{
		UpdateType: adushell.TypeFusFirmware, Action: adushell.ActionApply,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %s", err)
	}

	if runner.executable != adushell.DefaultPath {
		t.Errorf("Wrong executable: %s", runner.executable)
	}

	if exitCode != 3 || output != "done" {
		t.Errorf("Wrong result: %d %q", exitCode, output)
	}
}

func TestInvokeUsesConfiguredPath(t *testing.T) {
	runner := &fakeRunner{}

	if _, _, err := adushell.Invoke(
		context.Background(), runner, "/opt/adu-shell", adushell.Args{UpdateType: adushell.TypeFusUpdate, Action: adushell.ActionExecute},
	); err != nil {
		t.Fatalf("Invoke failed: %s", err)
	}

	if runner.executable != "/opt/adu-shell" {
		t.Errorf("Wrong executable: %s", runner.executable)
	}
}

func TestParseRebootState(t *testing.T) {
	testData := []struct {
		exitCode int
		state    adushell.RebootState
	}{
		{int(adushell.UpdateRebootPending), adushell.UpdateRebootPending},
		{int(adushell.FwUpdateRebootFailed), adushell.FwUpdateRebootFailed},
		{9999, adushell.RebootStateUnknown},
		{-1, adushell.RebootStateUnknown},
	}

	for _, item := range testData {
		if state := adushell.ParseRebootState(item.exitCode); state != item.state {
			t.Errorf("ParseRebootState(%d) = %v, want %v", item.exitCode, state, item.state)
		}
	}
}

func TestParseInstallState(t *testing.T) {
	if state := adushell.ParseInstallState(int(adushell.InstallSystemError)); state != adushell.InstallSystemError {
		t.Errorf("Wrong install state: %v", state)
	}

	if state := adushell.ParseInstallState(999); state != adushell.InstallStateUnknown {
		t.Errorf("Wrong install state: %v", state)
	}
}

func TestIsInstallSuccessful(t *testing.T) {
	testData := []struct {
		state   adushell.InstallState
		success bool
	}{
		{adushell.InstallFirmwareSuccessful, true},
		{adushell.InstallApplicationSuccessful, true},
		{adushell.InstallFirmwareAndApplicationSuccessful, true},
		{adushell.InstallSystemError, false},
		{adushell.InstallStateUnknown, false},
	}

	for _, item := range testData {
		if got := adushell.IsInstallSuccessful(item.state); got != item.success {
			t.Errorf("IsInstallSuccessful(%v) = %v, want %v", item.state, got, item.success)
		}
	}
}

func TestRebootStateString(t *testing.T) {
	if adushell.UpdateRebootPending.String() != "UpdateRebootPending" {
		t.Errorf("Wrong string: %s", adushell.UpdateRebootPending.String())
	}

	if adushell.RebootStateUnknown.String() != "Unknown" {
		t.Errorf("Wrong string: %s", adushell.RebootStateUnknown.String())
	}
}
