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

// Package workflowdata models the host workflow framework's read-only handle that
// PhaseHandler is given on every call: the update manifest, the work folder, and the
// callback used to request an immediate reboot.
package workflowdata

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// FileEntity is one payload file named by the manifest. The handler expects exactly one
// per workflow instance.
type FileEntity struct {
	TargetFilename string
}

// Data is the read-only handle PhaseHandler receives. It never mutates this; the only
// side-effecting callback is RequestImmediateReboot.
type Data interface {
	ID() string
	WorkFolder() string
	InstalledCriteria() string
	UpdateSize() int64
	UpdateType() string
	Files() []FileEntity
	HandlerProperty(name string) string
	RequestImmediateReboot()
}

// Manifest is the JSON-decodable subset of the host workflow's update manifest the handler
// reads: the "updateType:version" string and the handler properties bag. Fields the handler
// never consumes are deliberately not modeled; the on-wire schema is otherwise out of scope.
type Manifest struct {
	UpdateType        string            `json:"updateType"`
	InstalledCriteria string            `json:"installedCriteria"`
	Files             []FileEntity      `json:"files"`
	HandlerProperties map[string]string `json:"handlerProperties"`
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// ParseManifest decodes a JSON update manifest.
func ParseManifest(raw []byte) (Manifest, error) {
	var manifest Manifest

	if err := json.Unmarshal(raw, &manifest); err != nil {
		return Manifest{}, err
	}

	return manifest, nil
}

// ParseTypeVersion splits the "name:version" form of Data.UpdateType() (e.g.
// "fus/update:1") into its name and integer version.
func ParseTypeVersion(updateType string) (name string, version int, err error) {
	name, versionStr, found := strings.Cut(updateType, ":")
	if !found {
		return "", 0, aoserrors.Errorf("malformed update type %q", updateType)
	}

	version, err = strconv.Atoi(versionStr)
	if err != nil {
		return "", 0, aoserrors.Wrap(err)
	}

	return name, version, nil
}
