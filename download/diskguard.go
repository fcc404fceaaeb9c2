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

package download

import (
	"github.com/shirou/gopsutil/disk"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
)

// checkFreeSpace fails fast if the filesystem holding path does not have at least
// requiredBytes free, so a payload larger than the work partition is rejected before a
// download runs to completion and fills the disk.
func checkFreeSpace(path string, requiredBytes int64) error {
	if requiredBytes <= 0 {
		return nil
	}

	usage, err := disk.Usage(path)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	if usage.Free < uint64(requiredBytes) {
		return aoserrors.Errorf("insufficient free space at %s: need %d bytes, have %d", path, requiredBytes, usage.Free)
	}

	return nil
}
