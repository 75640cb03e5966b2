//go:build windows
// +build windows

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
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// trustedInstallerSID is the fixed SID of the Windows Modules Installer
// service account, which owns much of the system volume out of the box.
const trustedInstallerSID = "S-1-5-80-956008885-3418522649-1831038044-1853292631-2271478464"

// Access mask bits that allow changing a directory's contents.
const (
	fileWriteData   = 0x00000002
	fileAppendData  = 0x00000004
	writeDACMask    = 0x00040000
	writeOwnerMask  = 0x00080000
	genericWrite    = 0x40000000
	genericAll      = 0x10000000
	writeAccessMask = fileWriteData | fileAppendData | writeDACMask | writeOwnerMask | genericWrite | genericAll
)

// wellKnownTrusted are principals trusted as directory owners anywhere.
var wellKnownTrusted = []windows.WELL_KNOWN_SID_TYPE{
	windows.WinLocalSystemSid,
	windows.WinBuiltinAdministratorsSid,
	windows.WinNtAuthoritySid,
}

// wellKnownRelaxed are additionally accepted only on the system volume root
// and its Users directory, which carry grants for these groups in their
// default ACLs. Broadening this list reintroduces the attack this
// validator exists to prevent.
var wellKnownRelaxed = []windows.WELL_KNOWN_SID_TYPE{
	windows.WinAuthenticatedUserSid,
	windows.WinBuiltinUsersSid,
	windows.WinWorldSid,
}

// windowsOwnershipPolicy evaluates ownership and DACLs parsed from the
// SDDL carried in probed attributes.
type windowsOwnershipPolicy struct {
	oracle *Oracle
}

func newPlatformPolicy(oracle *Oracle) OwnershipPolicy {
	return &windowsOwnershipPolicy{oracle: oracle}
}

// relaxedDir reports whether dir is one of the exact allow-listed system
// directories that carry Users/Authenticated Users grants by default.
func (p *windowsOwnershipPolicy) relaxedDir(dir string) bool {
	sysVol := p.oracle.SystemVolume()
	if strings.EqualFold(filepath.Clean(dir), filepath.Clean(sysVol)) {
		return true
	}
	return strings.EqualFold(filepath.Clean(dir), filepath.Clean(filepath.Join(sysVol, "Users")))
}

func (p *windowsOwnershipPolicy) sidTrusted(sid *windows.SID, allowRelaxed bool) bool {
	if sid == nil {
		return false
	}
	if user, err := p.oracle.UserSID(); err == nil && user != nil && sid.String() == user.String() {
		return true
	}
	for _, wk := range wellKnownTrusted {
		if sid.IsWellKnown(wk) {
			return true
		}
	}
	if allowRelaxed {
		for _, wk := range wellKnownRelaxed {
			if sid.IsWellKnown(wk) {
				return true
			}
		}
		if sid.String() == trustedInstallerSID {
			return true
		}
	}
	return false
}

func (p *windowsOwnershipPolicy) OwnerTrusted(attrs *FileAttributes, dir string) (bool, string) {
	sd, err := windows.SecurityDescriptorFromString(attrs.SecurityDescriptor)
	if err != nil {
		return false, fmt.Sprintf("cannot parse security descriptor: %v", err)
	}
	owner, _, err := sd.Owner()
	if err != nil || owner == nil {
		return false, "security descriptor carries no owner"
	}
	if p.sidTrusted(owner, p.relaxedDir(dir)) {
		return true, ""
	}
	return false, fmt.Sprintf("owned by untrusted principal %s", owner.String())
}

func (p *windowsOwnershipPolicy) UntrustedWriteGrant(attrs *FileAttributes, dir string) (bool, string) {
	sd, err := windows.SecurityDescriptorFromString(attrs.SecurityDescriptor)
	if err != nil {
		return true, fmt.Sprintf("cannot parse security descriptor: %v", err)
	}
	dacl, _, err := sd.DACL()
	if err != nil {
		return true, fmt.Sprintf("cannot read DACL: %v", err)
	}
	if dacl == nil {
		// A nil DACL grants everyone full control.
		return true, "no DACL present, everyone has full access"
	}
	allowRelaxed := p.relaxedDir(dir)
	for i := uint32(0); i < uint32(dacl.AceCount); i++ {
		var ace *windows.ACCESS_ALLOWED_ACE
		if err := windows.GetAce(dacl, i, &ace); err != nil {
			return true, fmt.Sprintf("cannot read ACE %d: %v", i, err)
		}
		if ace.Header.AceType != windows.ACCESS_ALLOWED_ACE_TYPE {
			continue
		}
		if uint32(ace.Mask)&writeAccessMask == 0 {
			continue
		}
		sid := (*windows.SID)(unsafe.Pointer(&ace.SidStart))
		if !p.sidTrusted(sid, allowRelaxed) {
			return true, fmt.Sprintf("ACE grants write access to untrusted principal %s", sid.String())
		}
	}
	return false, ""
}
