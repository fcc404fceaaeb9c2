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

// Package aoserrors wraps errors with the call site they were wrapped at, so a
// failure deep in a phase handler can be traced back to where it was returned
// from without changing the error returned to callers.
package aoserrors

import (
	"errors"
	"fmt"
	"runtime"
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

type wrappedError struct {
	err      error
	funcName string
	line     int
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// Wrap wraps err with the function name and line of its caller. Wrapping nil returns nil. Wrapping an
// already wrapped error is a no-op, so repeated wrapping along a call chain keeps the
// original call site.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	var wrapped *wrappedError

	if errors.As(err, &wrapped) {
		return err
	}

	funcName := "unknown"

	pc, _, line, ok := runtime.Caller(1)
	if ok {
		if f := runtime.FuncForPC(pc); f != nil {
			funcName = f.Name()
		}
	}

	return &wrappedError{err: err, funcName: funcName, line: line}
}

// New is equivalent to Wrap(errors.New(text)).
func New(text string) error {
	return wrap1(errors.New(text))
}

// Errorf is equivalent to Wrap(fmt.Errorf(format, a...)).
func Errorf(format string, a ...interface{}) error {
	return wrap1(fmt.Errorf(format, a...))
}

/***********************************************************************************************************************
 * Private
 **********************************************************************************************************************/

// wrap1 wraps err one stack frame up from New/Errorf so the reported location is their caller.
func wrap1(err error) error {
	funcName := "unknown"

	pc, _, line, ok := runtime.Caller(2)
	if ok {
		if f := runtime.FuncForPC(pc); f != nil {
			funcName = f.Name()
		}
	}

	return &wrappedError{err: err, funcName: funcName, line: line}
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s [%s:%d]", e.err.Error(), e.funcName, e.line)
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
