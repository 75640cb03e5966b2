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

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAudit(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/etc/tool", 0o755))
	require.NoError(t, fs.MkdirAll("/var/tool/loose", 0o755))
	require.NoError(t, fs.Chmod("/var/tool/loose", 0o777))

	results := RunAudit(fs, []string{"/etc/tool", "/var/tool/loose"}, 0)
	require.Len(t, results.Results, 2)
	assert.False(t, results.Ok)
	assert.True(t, results.Results[0].Secure)
	assert.False(t, results.Results[1].Secure)
}

func TestAuditCommandWithConfig(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/etc/tool", 0o755))
	cfgYaml := []byte("audit_paths:\n  - /etc/tool\n")
	require.NoError(t, afero.WriteFile(fs, "/etc/securefile.yml", cfgYaml, 0o644))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"audit", "--config", "/etc/securefile.yml"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "/etc/tool")
	assert.Contains(t, out.String(), "secure")
}

func TestAuditCommandInsecurePathFails(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/srv/loose", 0o755))
	require.NoError(t, fs.Chmod("/srv/loose", 0o777))
	cfgYaml := []byte("audit_paths:\n  - /srv/loose\n")
	require.NoError(t, afero.WriteFile(fs, "/etc/securefile.yml", cfgYaml, 0o644))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"audit", "--config", "/etc/securefile.yml"})
	require.Error(t, cmd.Execute())
	assert.Contains(t, out.String(), "insecure")
}

func TestAuditCommandNoPathsConfigured(t *testing.T) {
	memFs(t)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"audit"})
	require.NoError(t, cmd.Execute())
}
