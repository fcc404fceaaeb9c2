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

package updatetype_test

import (
	"testing"

	"github.com/renesas-rz/fsupdatehandler/updatetype"
)

/***********************************************************************************************************************
 * Tests
 **********************************************************************************************************************/

func TestClassify(t *testing.T) {
	testData := []struct {
		property string
		want     updatetype.Type
	}{
		{"firmware", updatetype.Firmware},
		{"application", updatetype.Application},
		{"common-firmware", updatetype.CommonFirmware},
		{"common-application", updatetype.CommonApplication},
		{"common-both", updatetype.CommonBoth},
		{"Firmware", updatetype.Unknown},
		{"", updatetype.Unknown},
		{"bogus", updatetype.Unknown},
	}

	for _, item := range testData {
		if got := updatetype.Classify(item.property); got != item.want {
			t.Errorf("Classify(%q) = %v, want %v", item.property, got, item.want)
		}
	}
}

func TestIsSingleFlavour(t *testing.T) {
	testData := []struct {
		t    updatetype.Type
		want bool
	}{
		{updatetype.Firmware, true},
		{updatetype.Application, true},
		{updatetype.CommonFirmware, false},
		{updatetype.CommonApplication, false},
		{updatetype.CommonBoth, false},
		{updatetype.Unknown, false},
	}

	for _, item := range testData {
		if got := updatetype.IsSingleFlavour(item.t); got != item.want {
			t.Errorf("IsSingleFlavour(%v) = %v, want %v", item.t, got, item.want)
		}
	}
}

func TestIsFirmwareFirst(t *testing.T) {
	testData := []struct {
		t    updatetype.Type
		want bool
	}{
		{updatetype.Firmware, true},
		{updatetype.CommonFirmware, true},
		{updatetype.CommonBoth, true},
		{updatetype.Application, false},
		{updatetype.CommonApplication, false},
		{updatetype.Unknown, false},
	}

	for _, item := range testData {
		if got := updatetype.IsFirmwareFirst(item.t); got != item.want {
			t.Errorf("IsFirmwareFirst(%v) = %v, want %v", item.t, got, item.want)
		}
	}
}
