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

package stateprobe_test

import (
	"context"
	"errors"
	"testing"

	"github.com/renesas-rz/fsupdatehandler/adushell"
	"github.com/renesas-rz/fsupdatehandler/stateprobe"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type fakeRunner struct {
	exitCode int
	output   string
	err      error
}

func (runner *fakeRunner) Run(ctx context.Context, executable string, argv []string) (int, string, error) {
	return runner.exitCode, runner.output, runner.err
}

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestRebootState(t *testing.T) {
	runner := &fakeRunner{exitCode: int(adushell.NoUpdateRebootPending)}
	probe := stateprobe.New(runner, "")

	state, err := probe.RebootState(context.Background())
	if err != nil {
		t.Fatalf("RebootState failed: %s", err)
	}

	if state != adushell.NoUpdateRebootPending {
		t.Errorf("Wrong reboot state: %v", state)
	}
}

func TestRebootStateRunnerError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exec failure")}
	probe := stateprobe.New(runner, "")

	if _, err := probe.RebootState(context.Background()); err == nil {
		t.Error("Expected an error when the runner fails")
	}
}

func TestFirmwareVersionSuccess(t *testing.T) {
	runner := &fakeRunner{exitCode: 0, output: "--firmware_version 1.2.3\n"}
	probe := stateprobe.New(runner, "")

	version, exitCode, err := probe.FirmwareVersion(context.Background())
	if err != nil {
		t.Fatalf("FirmwareVersion failed: %s", err)
	}

	if version != "1.2.3" || exitCode != 0 {
		t.Errorf("Wrong result: %q %d", version, exitCode)
	}
}

func TestFirmwareVersionEmptyOutputFails(t *testing.T) {
	runner := &fakeRunner{exitCode: 0, output: ""}
	probe := stateprobe.New(runner, "")

	_, exitCode, err := probe.FirmwareVersion(context.Background())
	if !errors.Is(err, stateprobe.ErrProbeFailure) {
		t.Errorf("Expected ErrProbeFailure, got %v", err)
	}

	if exitCode != 0 {
		t.Errorf("Wrong exit code: %d", exitCode)
	}
}

func TestApplicationVersionNonZeroExit(t *testing.T) {
	runner := &fakeRunner{exitCode: 5, output: "1.0.0"}
	probe := stateprobe.New(runner, "")

	_, exitCode, err := probe.ApplicationVersion(context.Background())
	if !errors.Is(err, stateprobe.ErrProbeFailure) {
		t.Errorf("Expected ErrProbeFailure, got %v", err)
	}

	if exitCode != 5 {
		t.Errorf("Wrong exit code: %d", exitCode)
	}
}

func TestApplicationVersionRawValue(t *testing.T) {
	runner := &fakeRunner{exitCode: 0, output: "2.0.0\n"}
	probe := stateprobe.New(runner, "")

	version, _, err := probe.ApplicationVersion(context.Background())
	if err != nil {
		t.Fatalf("ApplicationVersion failed: %s", err)
	}

	if version != "2.0.0" {
		t.Errorf("Wrong version: %q", version)
	}
}
