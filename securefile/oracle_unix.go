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
	"os"
	"strconv"
	"sync"
)

// Oracle answers the platform policy questions the directory validator
// needs. Answers are computed once per Oracle and cached; a single Oracle
// is safe for concurrent readers.
type Oracle struct {
	// LookupEnv reads an environment variable. Defaults to
	// LookupSecuredEnv; tests may override it before first use.
	LookupEnv func(string) (string, bool)

	euidOnce sync.Once
	euid     uint32

	sudoOnce sync.Once
	sudoUID  uint32
	sudoSet  bool
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

// EffectiveUID returns the caller's effective user id.
func (o *Oracle) EffectiveUID() uint32 {
	o.euidOnce.Do(func() {
		o.euid = uint32(os.Geteuid())
	})
	return o.euid
}

// SudoUID returns the uid recorded in SUDO_UID, when present and parseable.
// Absent, tampered, or unparseable values report false: the validator then
// applies no sudo relaxation.
func (o *Oracle) SudoUID() (uint32, bool) {
	o.sudoOnce.Do(func() {
		lookup := o.LookupEnv
		if lookup == nil {
			lookup = LookupSecuredEnv
		}
		v, ok := lookup("SUDO_UID")
		if !ok {
			return
		}
		uid, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return
		}
		o.sudoUID = uint32(uid)
		o.sudoSet = true
	})
	return o.sudoUID, o.sudoSet
}
