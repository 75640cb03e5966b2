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
	_ "embed"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/storageguard/securefile/securefile"
)

//go:embed default-config.yml
var defaultConfig []byte

// Extension is one allow-listed file extension.
type Extension struct {
	Ext           string `yaml:"ext"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty"`
}

// Config is the securefile CLI configuration.
type Config struct {
	// AllowedExtensions restricts which files cat/write will touch. Empty
	// means any extension.
	AllowedExtensions []Extension `yaml:"allowed_extensions"`
	// AuditPaths are checked by the audit command.
	AuditPaths []string `yaml:"audit_paths"`
	// SymlinkDepth overrides the validator's symlink recursion bound.
	// Zero keeps the built-in default.
	SymlinkDepth int `yaml:"symlink_depth,omitempty"`
}

// NewConfig parses a YAML configuration.
func NewConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i, e := range c.AllowedExtensions {
		if e.Ext == "" {
			return nil, fmt.Errorf("allowed_extensions[%d]: empty ext", i)
		}
	}
	if c.SymlinkDepth < 0 {
		return nil, fmt.Errorf("symlink_depth must not be negative, got %d", c.SymlinkDepth)
	}
	return &c, nil
}

// DefaultConfig returns the embedded default configuration.
func DefaultConfig() (*Config, error) {
	return NewConfig(defaultConfig)
}

// Load reads the configuration at path, or the embedded default when path
// is empty.
func Load(vfs afero.Fs, path string) (*Config, error) {
	if path == "" {
		return DefaultConfig()
	}
	b, err := afero.ReadFile(vfs, path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return NewConfig(b)
}

// Extensions converts the allow-list into the library's option form.
func (c *Config) Extensions() []securefile.Extension {
	exts := make([]securefile.Extension, 0, len(c.AllowedExtensions))
	for _, e := range c.AllowedExtensions {
		exts = append(exts, securefile.Extension{Ext: e.Ext, CaseSensitive: e.CaseSensitive})
	}
	return exts
}
