// SPDX-License-Identifier: Apache-2.0
//
// Copyright (C) 2021 Renesas Electronics Corporation.
// Copyright (C) 2021 EPAM Systems, Inc.
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

// Package migration drives golang-migrate against a sqlite3 database, used by the history
// store to keep its schema in step with the binary that opens it.
package migration

import (
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	log "github.com/sirupsen/logrus"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
)

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// MergeMigrationFiles copies every file from srcDir into destDir, creating destDir if
// needed and overwriting files that already exist there by name. Used to combine a
// built-in migration set with ones added by a newer schema version.
func MergeMigrationFiles(srcDir, destDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return aoserrors.Wrap(err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return aoserrors.Wrap(err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if err := copyFile(filepath.Join(srcDir, entry.Name()), filepath.Join(destDir, entry.Name())); err != nil {
			return aoserrors.Wrap(err)
		}
	}

	return nil
}

// SetDatabaseVersion forces the schema_migrations table to version without running any
// migration script. Used the first time a database is created, so it starts tagged at the
// version the binary that created it expects rather than being migrated from scratch.
func SetDatabaseVersion(sqlite *sql.DB, migrationPath string, version uint) error {
	migrator, err := newMigrate(sqlite, migrationPath)
	if err != nil {
		return aoserrors.Wrap(err)
	}
	defer closeMigrate(migrator)

	if err := migrator.Force(int(version)); err != nil {
		return aoserrors.Wrap(err)
	}

	return nil
}

// DoMigrate migrates sqlite up or down to version using the scripts in mergedMigrationPath.
func DoMigrate(sqlite *sql.DB, mergedMigrationPath string, version uint) error {
	migrator, err := newMigrate(sqlite, mergedMigrationPath)
	if err != nil {
		return aoserrors.Wrap(err)
	}
	defer closeMigrate(migrator)

	if err := migrator.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return aoserrors.Wrap(err)
	}

	return nil
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)

	return err
}

func newMigrate(sqlite *sql.DB, migrationPath string) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(sqlite, &sqlite3.Config{})
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(migrationPath)
	if err != nil {
		return nil, err
	}

	return migrate.NewWithDatabaseInstance("file://"+abs, "sqlite3", driver)
}

func closeMigrate(migrator *migrate.Migrate) {
	if sourceErr, dbErr := migrator.Close(); sourceErr != nil || dbErr != nil {
		log.Warnf("Error closing migration: source=%v, db=%v", sourceErr, dbErr)
	}
}
