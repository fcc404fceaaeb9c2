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

// Package history persists the last phase result of each workflow instance in a sqlite
// database, so an Apply-triggered reboot does not lose track of where a workflow left off.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
	"github.com/renesas-rz/fsupdatehandler/migration"
	"github.com/renesas-rz/fsupdatehandler/resultmapper"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

const (
	busyTimeoutMs = 60000
	journalMode   = "WAL"
	syncMode      = "NORMAL"

	schemaVersion = 1
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Store is the sqlite-backed phase result history.
type Store struct {
	db *sql.DB
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// Open opens (creating if absent) the sqlite database at dbPath and migrates it to the
// current schema using the migration scripts under migrationsDir.
func Open(dbPath, migrationsDir string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=%s&_sync=%s", dbPath, busyTimeoutMs, journalMode, syncMode)

	// The migrate driver closes the *sql.DB it is given, so the schema is migrated over a
	// connection of its own before the store's connection is opened.
	migrateDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, aoserrors.Wrap(err)
	}

	err = migration.DoMigrate(migrateDB, migrationsDir, schemaVersion)
	migrateDB.Close()

	if err != nil {
		return nil, aoserrors.Wrap(err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, aoserrors.Wrap(err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (store *Store) Close() error {
	return aoserrors.Wrap(store.db.Close())
}

// RecordResult upserts the last phase result observed for workflowID.
func (store *Store) RecordResult(workflowID, phase string, result resultmapper.Result) error {
	_, err := store.db.Exec(
		`INSERT INTO phase_history (workflow_id, phase, result_code, extended_code)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(workflow_id) DO UPDATE SET
			phase = excluded.phase,
			result_code = excluded.result_code,
			extended_code = excluded.extended_code`,
		workflowID, phase, int(result.Code), result.ExtendedCode)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}

// LastResult returns the most recently recorded phase and result for workflowID. found is
// false if no row exists.
func (store *Store) LastResult(workflowID string) (phase string, result resultmapper.Result, found bool, err error) {
	row := store.db.QueryRow(
		`SELECT phase, result_code, extended_code FROM phase_history WHERE workflow_id = ?`, workflowID)

	var code int

	if err := row.Scan(&phase, &code, &result.ExtendedCode); err != nil {
		if err == sql.ErrNoRows {
			return "", resultmapper.Result{}, false, nil
		}

		return "", resultmapper.Result{}, false, aoserrors.Wrap(err)
	}

	result.Code = resultmapper.Code(code)

	return phase, result, true, nil
}
