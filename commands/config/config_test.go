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

package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "full config",
			yaml: `allowed_extensions:
  - ext: .txt
  - ext: log
    case_sensitive: true
audit_paths:
  - /etc/tool
  - /var/lib/tool
`,
			check: func(t *testing.T, c *Config) {
				require.Len(t, c.AllowedExtensions, 2)
				assert.Equal(t, ".txt", c.AllowedExtensions[0].Ext)
				assert.False(t, c.AllowedExtensions[0].CaseSensitive)
				assert.Equal(t, "log", c.AllowedExtensions[1].Ext)
				assert.True(t, c.AllowedExtensions[1].CaseSensitive)
				assert.Equal(t, []string{"/etc/tool", "/var/lib/tool"}, c.AuditPaths)
			},
		},
		{
			name: "empty document",
			yaml: "",
			check: func(t *testing.T, c *Config) {
				assert.Empty(t, c.AllowedExtensions)
				assert.Empty(t, c.AuditPaths)
			},
		},
		{
			name: "symlink depth override",
			yaml: "symlink_depth: 3\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 3, c.SymlinkDepth)
			},
		},
		{
			name:    "negative symlink depth rejected",
			yaml:    "symlink_depth: -1\n",
			wantErr: true,
		},
		{
			name: "empty extension rejected",
			yaml: `allowed_extensions:
  - ext: ""
`,
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "allowed_extensions: [}",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConfig([]byte(tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	c, err := DefaultConfig()
	require.NoError(t, err)
	assert.Empty(t, c.AllowedExtensions)
	assert.Empty(t, c.AuditPaths)
	assert.Zero(t, c.SymlinkDepth)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/securefile.yml",
		[]byte("audit_paths:\n  - /etc/tool\n"), 0o644))

	c, err := Load(fs, "/etc/securefile.yml")
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc/tool"}, c.AuditPaths)

	_, err = Load(fs, "/etc/missing.yml")
	require.Error(t, err)

	c, err = Load(fs, "")
	require.NoError(t, err)
	assert.Empty(t, c.AuditPaths)
}

func TestExtensions(t *testing.T) {
	c := &Config{AllowedExtensions: []Extension{
		{Ext: ".txt"},
		{Ext: "cfg", CaseSensitive: true},
	}}
	exts := c.Extensions()
	require.Len(t, exts, 2)
	assert.Equal(t, ".txt", exts[0].Ext)
	assert.True(t, exts[1].CaseSensitive)
}
