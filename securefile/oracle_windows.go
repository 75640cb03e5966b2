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
	"path/filepath"
	"sync"

	"golang.org/x/sys/windows"
)

// Oracle answers the platform policy questions the directory validator
// needs. Answers are computed once per Oracle and cached; a single Oracle
// is safe for concurrent readers.
type Oracle struct {
	// LookupEnv reads an environment variable. Defaults to
	// LookupSecuredEnv; tests may override it before first use.
	LookupEnv func(string) (string, bool)

	userOnce sync.Once
	userSID  *windows.SID
	userErr  error

	volOnce sync.Once
	sysVol  string
}

// NewOracle returns an Oracle backed by the real process identity.
func NewOracle() *Oracle {
	return &Oracle{LookupEnv: LookupSecuredEnv}
}

var (
	defaultOracleOnce sync.Once
	defaultOracle     *Oracle
)

// DefaultOracle returns the process-wide shared Oracle.
func DefaultOracle() *Oracle {
	defaultOracleOnce.Do(func() {
		defaultOracle = NewOracle()
	})
	return defaultOracle
}

// UserSID returns the SID of the current process token's user.
func (o *Oracle) UserSID() (*windows.SID, error) {
	o.userOnce.Do(func() {
		tok := windows.GetCurrentProcessToken()
		tu, err := tok.GetTokenUser()
		if err != nil {
			o.userErr = err
			return
		}
		// Copy out of the token-owned buffer before it is reclaimed.
		sid, err := tu.User.Sid.Copy()
		if err != nil {
			o.userErr = err
			return
		}
		o.userSID = sid
	})
	return o.userSID, o.userErr
}

// SystemVolume returns the bare root of the volume Windows is installed on
// (e.g. `C:\`).
func (o *Oracle) SystemVolume() string {
	o.volOnce.Do(func() {
		if dir, err := windows.GetWindowsDirectory(); err == nil {
			o.sysVol = filepath.VolumeName(dir) + `\`
			return
		}
		lookup := o.LookupEnv
		if lookup == nil {
			lookup = LookupSecuredEnv
		}
		if v, ok := lookup("SystemDrive"); ok && v != "" {
			o.sysVol = v + `\`
			return
		}
		o.sysVol = `C:\`
	})
	return o.sysVol
}
