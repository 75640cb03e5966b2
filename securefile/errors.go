// Copyright 2025 StorageGuard
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
//
// SPDX-License-Identifier: Apache-2.0

package securefile

import (
	"errors"
	"fmt"
)

// Sentinel errors for the securefile package. Callers should match them with
// errors.Is; every exported operation returns one of these (possibly wrapped
// with additional context) rather than leaking raw OS error codes.
var (
	// ErrInvalidFile indicates the named file does not exist or is not a
	// file this package is willing to operate on.
	ErrInvalidFile = errors.New("securefile: invalid file")

	// ErrInvalidPath indicates a nil, empty, relative, or over-long path.
	ErrInvalidPath = errors.New("securefile: invalid path")

	// ErrFileExists indicates an exclusive-create open found the file
	// already present.
	ErrFileExists = errors.New("securefile: file already exists")

	// ErrBadExtension indicates the filename's extension is not in the
	// caller-supplied allow-list.
	ErrBadExtension = errors.New("securefile: file extension not allowed")

	// ErrAttributeMismatch indicates the freshly probed attributes did not
	// match the attributes the caller expected (TOCTOU guard).
	ErrAttributeMismatch = errors.New("securefile: file attributes do not match expected attributes")

	// ErrUniqueIDMismatch indicates the freshly probed file identity did
	// not match the identity the caller expected (TOCTOU guard).
	ErrUniqueIDMismatch = errors.New("securefile: file unique id does not match expected id")

	// ErrInsecurePath indicates a directory in the ancestor chain failed
	// the ownership/writability policy.
	ErrInsecurePath = errors.New("securefile: insecure path")

	// ErrSymlinkDepthExceeded indicates symlink resolution exceeded the
	// recursion bound while validating the ancestor chain. It is reported
	// distinctly from ordinary insecurity so tools can explain loops.
	ErrSymlinkDepthExceeded = errors.New("securefile: too many levels of symbolic links")

	// ErrBadMode indicates an open mode string outside the recognized
	// fopen-style token set.
	ErrBadMode = errors.New("securefile: invalid open mode")

	// ErrInvalidSession indicates an operation on a nil, closed, or never
	// successfully opened session.
	ErrInvalidSession = errors.New("securefile: invalid session")

	// ErrCloseFailure indicates the native close failed. Owned resources
	// are released regardless.
	ErrCloseFailure = errors.New("securefile: failed closing file")

	// ErrBufferTooSmall indicates the caller's buffer cannot hold
	// elementSize*count bytes.
	ErrBufferTooSmall = errors.New("securefile: buffer too small")

	// ErrBadParameter indicates a nil buffer or other invalid argument.
	ErrBadParameter = errors.New("securefile: invalid parameter")

	// ErrReadWrite indicates a short or failed native read/write that is
	// not explained by end of file.
	ErrReadWrite = errors.New("securefile: read/write error")

	// ErrEndOfFile reports that a read reached end of file. It is not
	// automatically an error for the caller.
	ErrEndOfFile = errors.New("securefile: end of file reached")

	// ErrDiskFull indicates a write failed because the volume is full.
	ErrDiskFull = errors.New("securefile: disk full")

	// ErrSeekFailure indicates a failed native seek.
	ErrSeekFailure = errors.New("securefile: seek failure")

	// ErrFlushFailure indicates a failed native flush.
	ErrFlushFailure = errors.New("securefile: flush failure")

	// ErrRemoveWhileOpen indicates a delete-by-name was refused because
	// the file is open and the policy forbids unlinking open files.
	ErrRemoveWhileOpen = errors.New("securefile: cannot remove file while it is open")

	// ErrFailure is the generic mapping for OS failures with no more
	// specific cause above.
	ErrFailure = errors.New("securefile: failure")
)

// PathSecurityError reports the first directory in an ancestor chain that
// failed validation, with a human-readable reason. It unwraps to
// ErrInsecurePath or ErrSymlinkDepthExceeded.
type PathSecurityError struct {
	// Dir is the offending directory.
	Dir string
	// Reason explains why Dir was rejected.
	Reason string

	err error
}

func (e *PathSecurityError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.err, e.Dir, e.Reason)
}

func (e *PathSecurityError) Unwrap() error {
	return e.err
}

func insecureDir(dir, reason string) error {
	return &PathSecurityError{Dir: dir, Reason: reason, err: ErrInsecurePath}
}

func symlinkDepth(dir string) error {
	return &PathSecurityError{
		Dir:    dir,
		Reason: "symlink resolution depth exceeded",
		err:    ErrSymlinkDepthExceeded,
	}
}
