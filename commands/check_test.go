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

	"github.com/storageguard/securefile/securefile"
)

// memFs installs an in-memory filesystem for the duration of one test.
// In-memory directories carry no owner, which the probe reports as uid 0,
// so a well-permissioned chain validates on any machine.
func memFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := DefaultFs
	fs := afero.NewMemMapFs()
	DefaultFs = fs
	t.Cleanup(func() { DefaultFs = prev })
	return fs
}

func TestCheckPathSecureChain(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data/ok", 0o755))

	res := CheckPath(fs, "/data/ok", 0)
	assert.True(t, res.Secure, "reason: %s", res.Reason)
	assert.Empty(t, res.Reason)
}

func TestCheckPathWorldWritableChain(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data/loose/deep", 0o755))
	require.NoError(t, fs.Chmod("/data/loose", 0o777))

	res := CheckPath(fs, "/data/loose/deep", 0)
	assert.False(t, res.Secure)
	assert.Equal(t, "/data/loose", res.Dir)
	assert.Contains(t, res.Reason, "write")
}

func TestCheckPathMissing(t *testing.T) {
	fs := memFs(t)

	res := CheckPath(fs, "/does/not/exist", 0)
	assert.False(t, res.Secure)
	assert.NotEmpty(t, res.Reason)
}

func TestChainValidatorDepthOverride(t *testing.T) {
	fs := afero.NewMemMapFs()

	v := newChainValidator(fs, 2)
	assert.Equal(t, 2, v.MaxDepth)

	v = newChainValidator(fs, 0)
	assert.Equal(t, securefile.MaxSymlinkDepth, v.MaxDepth)
}

func TestCheckCommandConfigDepth(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data/ok", 0o755))
	cfgYaml := []byte("symlink_depth: 3\n")
	require.NoError(t, afero.WriteFile(fs, "/etc/securefile.yml", cfgYaml, 0o644))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"check", "--config", "/etc/securefile.yml", "/data/ok"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "SECURE   /data/ok")
}

func TestCheckCommandOutput(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data/ok", 0o755))
	require.NoError(t, fs.MkdirAll("/data/loose", 0o755))
	require.NoError(t, fs.Chmod("/data/loose", 0o777))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"check", "/data/ok"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "SECURE   /data/ok")

	out.Reset()
	cmd = NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"check", "/data/loose"})
	require.Error(t, cmd.Execute())
	assert.Contains(t, out.String(), "INSECURE /data/loose")
}
