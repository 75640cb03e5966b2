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

package commands

import "github.com/storageguard/securefile/securefile"

// IsElevated reports whether the process runs as root. It reads the same
// cached identity the directory validator's ownership policy consults, so
// the check command's hint and the validator always agree.
func IsElevated() (bool, error) {
	return securefile.DefaultOracle().EffectiveUID() == 0, nil
}
