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

// Package config loads the daemon's JSON configuration file.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// EnvWorkDir is the environment variable that, when set, overrides Config.WorkDir.
const EnvWorkDir = "TEMP_ADU_WORK_DIR"

const (
	defaultWorkDir              = "/tmp/adu/.work"
	defaultWorkDirPerm          = 0o777
	defaultPollInterval         = 100 * time.Millisecond
	defaultAduShellPath         = "/usr/lib/adu/adu-shell"
	defaultControlClientTimeout = time.Duration(0)
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Config is the daemon's configuration, normally loaded from a JSON file.
type Config struct {
	WorkDir              string        `json:"workDir"`
	WorkDirPerm          os.FileMode   `json:"workDirPerm"`
	PollInterval         time.Duration `json:"pollInterval"`
	ControlClientTimeout time.Duration `json:"controlClientTimeout"`
	AduShellPath         string        `json:"aduShellPath"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// New returns a Config with the reference implementation's defaults: unbounded polling,
// work dir world-writable, waiting forever on control-client sentinels unless overridden.
func New() Config {
	return Config{
		WorkDir:              defaultWorkDir,
		WorkDirPerm:          defaultWorkDirPerm,
		PollInterval:         defaultPollInterval,
		ControlClientTimeout: defaultControlClientTimeout,
		AduShellPath:         defaultAduShellPath,
	}
}

// Load reads and parses the JSON config file at path, filling in defaults for zero fields,
// then applies the TEMP_ADU_WORK_DIR environment override if set.
func Load(path string) (Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, aoserrors.Wrap(err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, aoserrors.Wrap(err)
	}

	if cfg.WorkDirPerm == 0 {
		cfg.WorkDirPerm = defaultWorkDirPerm
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.AduShellPath == "" {
		cfg.AduShellPath = defaultAduShellPath
	}

	if override := os.Getenv(EnvWorkDir); override != "" {
		cfg.WorkDir = override
	}

	return cfg, nil
}
