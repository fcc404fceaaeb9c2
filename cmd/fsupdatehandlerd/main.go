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

// Command fsupdatehandlerd wires the fs-updater phase handler to a standalone host,
// driving one phase of one workflow per invocation.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/renesas-rz/fsupdatehandler/config"
	"github.com/renesas-rz/fsupdatehandler/download"
	"github.com/renesas-rz/fsupdatehandler/history"
	"github.com/renesas-rz/fsupdatehandler/phasehandler"
	"github.com/renesas-rz/fsupdatehandler/processrunner"
	"github.com/renesas-rz/fsupdatehandler/sdlog"
	"github.com/renesas-rz/fsupdatehandler/statusws"
	"github.com/renesas-rz/fsupdatehandler/utils/action"
	"github.com/renesas-rz/fsupdatehandler/workflowdata"
)

const defaultConfigPath = "/etc/adu/fsupdatehandler.json"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the JSON configuration file")
	manifestPath := flag.String("manifest", "", "path to the update manifest JSON file")
	workflowID := flag.String("id", "default", "workflow instance identifier")
	workFolder := flag.String("workfolder", "", "payload work folder (defaults to the config work dir)")
	phase := flag.String("phase", "", "phase to run: IsInstalled, Download, Install, Apply, Cancel, Backup, Restore")
	statusAddr := flag.String("status-addr", "", "address to serve the status websocket on, empty disables it")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	setupLogging(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Warn("Failed to load configuration file, using defaults")

		cfg = config.New()

		if override := os.Getenv(config.EnvWorkDir); override != "" {
			cfg.WorkDir = override
		}
	}

	if *workFolder == "" {
		*workFolder = cfg.WorkDir
	}

	manifest, err := loadManifest(*manifestPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load update manifest")
	}

	data := &manifestData{
		id:                *workflowID,
		workFolder:        *workFolder,
		installedCriteria: manifest.InstalledCriteria,
		updateSize:        0,
		updateType:        manifest.UpdateType,
		manifest:          manifest,
	}

	var statusServer *statusws.Server

	if *statusAddr != "" {
		statusServer = statusws.New()

		go func() {
			if err := http.ListenAndServe(*statusAddr, statusServer); err != nil { //nolint:gosec // internal status feed
				log.WithError(err).Error("Status websocket server exited")
			}
		}()
	}

	store, err := history.Open(filepath.Join(cfg.WorkDir, "history.db"), "history/migrations")
	if err != nil {
		log.WithError(err).Fatal("Failed to open phase history store")
	}
	defer store.Close()

	runner := processrunner.New()
	handler := phasehandler.New(cfg, runner, download.NewGrabFetcher())
	actions := action.New(1)

	if err := sdlog.NotifyReady(); err != nil {
		log.WithError(err).Debug("sd_notify not available")
	}

	ctx := context.Background()

	resultChan := actions.Execute(*workflowID, func(id string) error {
		result, err := runPhase(ctx, handler, *phase, data)
		if err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"workflowId": id, "phase": *phase, "code": result.Code, "extendedCode": result.ExtendedCode,
		}).Info("Phase complete")

		if recordErr := store.RecordResult(id, *phase, result); recordErr != nil {
			log.WithError(recordErr).Warn("Failed to persist phase result")
		}

		if statusServer != nil {
			statusServer.Broadcast(statusws.StatusMessage{WorkflowID: id, Phase: *phase, Result: result})
		}

		return nil
	})

	if err := <-resultChan; err != nil {
		log.WithError(err).Fatal("Phase execution failed")
	}
}

func runPhase(
	ctx context.Context, handler *phasehandler.PhaseHandler, phase string, data workflowdata.Data,
) (phasehandler.Result, error) {
	switch phase {
	case "IsInstalled":
		return handler.IsInstalled(ctx, data)
	case "Download":
		return handler.Download(ctx, data)
	case "Install":
		return handler.Install(ctx, data)
	case "Apply":
		return handler.Apply(ctx, data)
	case "Cancel":
		return handler.Cancel(ctx, data)
	case "Backup":
		return handler.Backup(ctx, data)
	case "Restore":
		return handler.Restore(ctx, data)
	default:
		return phasehandler.Result{}, fmt.Errorf("unknown phase %q", phase)
	}
}

func loadManifest(path string) (workflowdata.Manifest, error) {
	if path == "" {
		return workflowdata.Manifest{}, fmt.Errorf("no manifest path supplied")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return workflowdata.Manifest{}, err
	}

	return workflowdata.ParseManifest(raw)
}

func setupLogging(verbose bool) {
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: false,
		TimestampFormat:  "2006-01-02 15:04:05.000",
		FullTimestamp:    true,
	})

	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	if hook := sdlog.NewJournalHook(); hook != nil {
		log.AddHook(hook)
	}
}
