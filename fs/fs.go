// SPDX-License-Identifier: Apache-2.0
//
// Copyright 2020 EPAM Systems Inc.
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

// Package fs copies payload files into the download work folder, including the gzip-archived
// form firmware and application payloads are commonly distributed in.
package fs

import (
	"compress/gzip"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

/*******************************************************************************
 * Consts
 ******************************************************************************/

const ioBufferSize = 1024 * 1024

const (
	copyBreathInterval = 5 * time.Second
	copyBreathTime     = 500 * time.Millisecond
)

/*******************************************************************************
 * Public
 ******************************************************************************/

// Copy copies src to dst, creating or truncating dst as needed.
func Copy(dst, src string) (copied int64, err error) {
	log.WithFields(log.Fields{"src": src, "dst": dst}).Debug("Copy payload")

	srcFile, err := os.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer dstFile.Close()

	var duration time.Duration

	if copied, duration, err = copyData(dstFile, srcFile); err != nil {
		return copied, err
	}

	log.WithFields(log.Fields{"copied": copied, "duration": duration}).Debug("Copy payload")

	return copied, nil
}

// CopyFromGzipArchive decompresses src into dst, creating or truncating dst as needed.
func CopyFromGzipArchive(dst, src string) (copied int64, err error) {
	log.WithFields(log.Fields{"src": src, "dst": dst}).Debug("Copy payload from archive")

	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer dstFile.Close()

	gz, err := gzip.NewReader(srcFile)
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	var duration time.Duration

	if copied, duration, err = copyData(dstFile, gz); err != nil {
		return copied, err
	}

	log.WithFields(log.Fields{"copied": copied, "duration": duration}).Debug("Copy payload from archive")

	return copied, nil
}

/*******************************************************************************
 * Private
 ******************************************************************************/

func copyData(dst io.Writer, src io.Reader) (copied int64, duration time.Duration, err error) {
	startTime := time.Now()
	buf := make([]byte, ioBufferSize)

	for err != io.EOF {
		var readCount int

		if readCount, err = src.Read(buf); err != nil && err != io.EOF {
			return copied, duration, err
		}

		if readCount > 0 {
			var writeCount int

			if writeCount, err = dst.Write(buf[:readCount]); err != nil {
				return copied, duration, err
			}

			copied += int64(writeCount)
		}

		if time.Now().After(startTime.Add(duration).Add(copyBreathInterval)) {
			time.Sleep(copyBreathTime)

			duration = time.Since(startTime)

			log.WithFields(log.Fields{"copied": copied, "duration": duration}).Debug("Copy progress")
		}
	}

	duration = time.Since(startTime)

	return copied, duration, nil
}
