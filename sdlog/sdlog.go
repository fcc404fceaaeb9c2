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

// Package sdlog hooks logrus into the systemd journal and signals daemon readiness, for
// running fsupdatehandlerd as a systemd unit.
package sdlog

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/coreos/go-systemd/v22/journal"
	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// JournalHook is a logrus.Hook that forwards entries to the systemd journal, preserving
// fields as journal variables.
type JournalHook struct{}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// NewJournalHook creates a JournalHook, or nil if the journal is not reachable (e.g.
// running outside systemd) so the caller can skip adding it.
func NewJournalHook() *JournalHook {
	if !journal.Enabled() {
		return nil
	}

	return &JournalHook{}
}

// Levels reports every logrus level is handled.
func (hook *JournalHook) Levels() []log.Level {
	return log.AllLevels
}

// Fire sends entry to the journal at the matching priority, with entry.Data forwarded as
// journal variables.
func (hook *JournalHook) Fire(entry *log.Entry) error {
	vars := make(map[string]string, len(entry.Data))

	for key, value := range entry.Data {
		vars[key] = toString(value)
	}

	return journal.Send(entry.Message, levelToPriority(entry.Level), vars)
}

// NotifyReady signals systemd that startup has completed, via sd_notify READY=1. A no-op,
// returning nil, when not running under systemd (NOTIFY_SOCKET unset).
func NotifyReady() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyReady)

	return err
}

// NotifyStopping signals systemd that shutdown has begun.
func NotifyStopping() error {
	_, err := daemon.SdNotify(false, daemon.SdNotifyStopping)

	return err
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func levelToPriority(level log.Level) journal.Priority {
	switch level {
	case log.PanicLevel, log.FatalLevel:
		return journal.PriEmerg
	case log.ErrorLevel:
		return journal.PriErr
	case log.WarnLevel:
		return journal.PriWarning
	case log.InfoLevel:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

func toString(value interface{}) string {
	if stringer, ok := value.(interface{ String() string }); ok {
		return stringer.String()
	}

	if err, ok := value.(error); ok {
		return err.Error()
	}

	return fmt.Sprint(value)
}
