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

package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/renesas-rz/fsupdatehandler/workflowdata"
)

// manifestData adapts a decoded workflowdata.Manifest plus the handful of fields the host
// workflow framework would otherwise supply (id, work folder, size) into a workflowdata.Data
// for standalone running and testing, outside of a real host workflow process.
type manifestData struct {
	id                string
	workFolder        string
	installedCriteria string
	updateSize        int64
	updateType        string
	manifest          workflowdata.Manifest
}

func (data *manifestData) ID() string                { return data.id }
func (data *manifestData) WorkFolder() string         { return data.workFolder }
func (data *manifestData) InstalledCriteria() string  { return data.installedCriteria }
func (data *manifestData) UpdateSize() int64          { return data.updateSize }
func (data *manifestData) UpdateType() string         { return data.updateType }
func (data *manifestData) Files() []workflowdata.FileEntity { return data.manifest.Files }

func (data *manifestData) HandlerProperty(name string) string {
	return data.manifest.HandlerProperties[name]
}

func (data *manifestData) RequestImmediateReboot() {
	log.WithField("workflowId", data.id).Warn("Host workflow asked to request an immediate reboot")
}
