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

// Package download supplies the payload bytes for the Download phase. It is the one
// collaborator PhaseHandler never talks to directly: every Fetch call is delegated to a
// Fetcher, of which GrabFetcher is the default concrete implementation.
package download

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/opencontainers/go-digest"
	log "github.com/sirupsen/logrus"

	"github.com/renesas-rz/fsupdatehandler/aoserrors"
	"github.com/renesas-rz/fsupdatehandler/fs"
	"github.com/renesas-rz/fsupdatehandler/resultmapper"
	"github.com/renesas-rz/fsupdatehandler/spaceallocator"
	"github.com/renesas-rz/fsupdatehandler/utils/cryptutils"
	"github.com/renesas-rz/fsupdatehandler/workflowdata"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Fetcher retrieves the bytes for a single payload file and reports the Download phase
// result verbatim, so its errors pass through PhaseHandler unchanged.
type Fetcher interface {
	Fetch(ctx context.Context, data workflowdata.Data, file workflowdata.FileEntity, destPath string) (resultmapper.Result, error)
}

// GrabFetcher is the default Fetcher. It downloads from the URL given by the workflow's
// HandlerProperty("sourceUrl") via cavaliergopher/grab, charges the download
// against an optional disk quota enforced by spaceallocator, and when
// HandlerProperty("sourceDigest") is set, verifies the downloaded bytes against it using
// opencontainers/go-digest before reporting success.
type GrabFetcher struct {
	client    *grab.Client
	allocator *spaceallocator.Allocator
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// NewGrabFetcher creates a GrabFetcher backed by a fresh grab.Client and no quota enforcement
// beyond the host's free disk space.
func NewGrabFetcher() *GrabFetcher {
	return &GrabFetcher{client: grab.NewClient()}
}

// NewGrabFetcherWithQuota creates a GrabFetcher that also enforces a byte quota over workDir
// via spaceallocator, evicting the outdated payloads named through remover, and that trusts
// the CA certificates found in caCertDir (in addition to the system pool) for HTTPS sources.
func NewGrabFetcherWithQuota(
	workDir string, quotaBytes uint, remover spaceallocator.ItemRemover, caCertDir string,
) (*GrabFetcher, error) {
	allocator, err := spaceallocator.New(workDir, quotaBytes, remover)
	if err != nil {
		return nil, aoserrors.Wrap(err)
	}

	client := grab.NewClient()

	if caCertDir != "" {
		transport, err := transportWithCACertDir(caCertDir)
		if err != nil {
			return nil, aoserrors.Wrap(err)
		}

		httpClient, ok := client.HTTPClient.(*http.Client)
		if !ok {
			return nil, aoserrors.New("grab client's HTTPClient is not an *http.Client")
		}

		httpClient.Transport = transport
	}

	return &GrabFetcher{client: client, allocator: allocator}, nil
}

// Fetch downloads the payload named by the workflow's "sourceUrl" handler property to
// destPath and, when "sourceDigest" is present, verifies its checksum. A ".gz"-suffixed
// sourceUrl is downloaded to a side file and decompressed into destPath.
func (fetcher *GrabFetcher) Fetch(
	ctx context.Context, data workflowdata.Data, file workflowdata.FileEntity, destPath string,
) (resultmapper.Result, error) {
	sourceURL := data.HandlerProperty("sourceUrl")
	if sourceURL == "" {
		return resultmapper.Result{}, aoserrors.New("update manifest is missing a sourceUrl handler property")
	}

	if err := checkFreeSpace(filepath.Dir(destPath), data.UpdateSize()); err != nil {
		return resultmapper.Result{}, aoserrors.Wrap(err)
	}

	space, err := fetcher.reserveSpace(file.TargetFilename, data.UpdateSize())
	if err != nil {
		return resultmapper.Result{}, aoserrors.Wrap(err)
	}

	fetchPath := destPath
	if strings.HasSuffix(sourceURL, ".gz") {
		fetchPath = destPath + ".gz"
	}

	req, err := grab.NewRequest(fetchPath, sourceURL)
	if err != nil {
		releaseSpace(space)

		return resultmapper.Result{}, aoserrors.Wrap(err)
	}

	req = req.WithContext(ctx)

	resp := fetcher.client.Do(req)
	if err := resp.Err(); err != nil {
		releaseSpace(space)

		return resultmapper.Result{}, aoserrors.Wrap(err)
	}

	log.WithFields(log.Fields{
		"file": file.TargetFilename, "bytes": resp.Size(), "dest": fetchPath,
	}).Info("Downloaded update payload")

	if fetchPath != destPath {
		if _, err := fs.CopyFromGzipArchive(destPath, fetchPath); err != nil {
			releaseSpace(space)

			return resultmapper.Result{}, aoserrors.Wrap(err)
		}

		os.Remove(fetchPath)
	}

	if expected := data.HandlerProperty("sourceDigest"); expected != "" {
		if err := verifyDigest(destPath, expected); err != nil {
			releaseSpace(space)

			return resultmapper.Result{}, aoserrors.Wrap(err)
		}
	}

	acceptSpace(space)

	return resultmapper.Result{Code: resultmapper.Success}, nil
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

func (fetcher *GrabFetcher) reserveSpace(id string, size int64) (*spaceallocator.Space, error) {
	if fetcher.allocator == nil || size <= 0 {
		return nil, nil
	}

	return fetcher.allocator.AllocateSpace(uint64(size))
}

func releaseSpace(space *spaceallocator.Space) {
	if space == nil {
		return
	}

	if err := space.Release(); err != nil {
		log.WithError(err).Warn("Failed to release reserved download quota")
	}
}

func acceptSpace(space *spaceallocator.Space) {
	if space == nil {
		return
	}

	if err := space.Accept(); err != nil {
		log.WithError(err).Warn("Failed to accept reserved download quota")
	}
}

func transportWithCACertDir(caCertDir string) (*http.Transport, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	crtFile, err := cryptutils.GetCertFileFromDir(caCertDir)
	if err != nil {
		return nil, aoserrors.Wrap(err)
	}

	pem, err := os.ReadFile(crtFile)
	if err != nil {
		return nil, aoserrors.Wrap(err)
	}

	if !pool.AppendCertsFromPEM(pem) {
		return nil, aoserrors.Errorf("failed to parse CA certificate %s", crtFile)
	}

	return &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		IdleConnTimeout: 90 * time.Second,
	}, nil
}

func verifyDigest(path, expected string) error {
	file, err := os.Open(path)
	if err != nil {
		return aoserrors.Wrap(err)
	}
	defer file.Close()

	verifier := digest.Digest(expected).Verifier()

	if _, err := io.Copy(verifier, file); err != nil {
		return aoserrors.Wrap(err)
	}

	if !verifier.Verified() {
		return aoserrors.Errorf("downloaded payload %s failed digest verification against %s", path, expected)
	}

	return nil
}
