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
	"strings"
)

// LookupSecuredEnv reads an environment variable with tamper detection: if
// the process environment block carries the same name more than once, the
// variable is treated as absent rather than trusting either copy. Used for
// security-relevant variables such as SUDO_UID.
func LookupSecuredEnv(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	var value string
	found := 0
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k != name {
			continue
		}
		found++
		value = v
	}
	if found != 1 {
		return "", false
	}
	return value, true
}
