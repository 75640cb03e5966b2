//go:build !windows
// +build !windows

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
	"fmt"
	"io/fs"
)

// unixOwnershipPolicy trusts directories owned by the caller's effective
// uid or by root. When running under sudo the uid recorded in SUDO_UID is
// additionally trusted, so sudo-invoked runs can validate the invoking
// user's directories without relaxing the check for arbitrary users.
type unixOwnershipPolicy struct {
	oracle *Oracle
}

func newPlatformPolicy(oracle *Oracle) OwnershipPolicy {
	return &unixOwnershipPolicy{oracle: oracle}
}

func (p *unixOwnershipPolicy) OwnerTrusted(attrs *FileAttributes, dir string) (bool, string) {
	euid := p.oracle.EffectiveUID()
	owner := attrs.UserID
	if owner == euid || owner == 0 {
		return true, ""
	}
	if euid == 0 {
		if sudoUID, ok := p.oracle.SudoUID(); ok && owner == sudoUID {
			return true, ""
		}
	}
	return false, fmt.Sprintf("owned by uid %d, not the effective uid %d or root", owner, euid)
}

func (p *unixOwnershipPolicy) UntrustedWriteGrant(attrs *FileAttributes, dir string) (bool, string) {
	// Group or other write on any ancestor lets someone else swap it for
	// a symlink. No owner-based exception.
	if attrs.Mode&0o022 != 0 {
		return true, fmt.Sprintf("mode %04o grants group or other write access", attrs.Mode&fs.ModePerm)
	}
	return false, ""
}
