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

func runCat(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"cat"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCatCommandRoundTrip(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/data/notes.txt", []byte("hello world"), 0o644))

	out, err := runCat(t, "/data/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestCatCommandEmptyFile(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/data/empty.txt", nil, 0o644))

	out, err := runCat(t, "/data/empty.txt")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCatCommandMissingFile(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data", 0o755))

	_, err := runCat(t, "/data/nope.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, securefile.ErrInvalidFile)
}

func TestCatCommandExtensionAllowList(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/data/blob.bin", []byte("raw"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/data/notes.txt", []byte("ok"), 0o644))
	cfgYaml := []byte("allowed_extensions:\n  - ext: .txt\n")
	require.NoError(t, afero.WriteFile(fs, "/etc/securefile.yml", cfgYaml, 0o644))

	_, err := runCat(t, "--config", "/etc/securefile.yml", "/data/blob.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, securefile.ErrBadExtension)

	out, err := runCat(t, "--config", "/etc/securefile.yml", "/data/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestCatCommandInsecureChain(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, fs.MkdirAll("/data/loose", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/data/loose/f.txt", []byte("x"), 0o644))
	require.NoError(t, fs.Chmod("/data/loose", 0o777))

	_, err := runCat(t, "/data/loose/f.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, securefile.ErrInsecurePath)
}
