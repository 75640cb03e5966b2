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
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/storageguard/securefile/commands/config"
	"github.com/storageguard/securefile/securefile"
)

// CheckResult holds the outcome of validating one path's directory chain.
type CheckResult struct {
	Path   string
	Secure bool
	// Dir names the first offending directory when insecure.
	Dir string
	// Reason explains why Dir was rejected.
	Reason string
}

// CheckPath validates the full ancestor chain of one path. A non-zero
// depth overrides the symlink recursion bound.
func CheckPath(vfs afero.Fs, path string, depth int) CheckResult {
	result := CheckResult{Path: path}
	abs, err := filepath.Abs(path)
	if err != nil {
		result.Reason = err.Error()
		return result
	}
	err = newChainValidator(vfs, depth).Validate(abs)
	if err == nil {
		result.Secure = true
		return result
	}
	var pse *securefile.PathSecurityError
	if errors.As(err, &pse) {
		result.Dir = pse.Dir
		result.Reason = pse.Reason
	} else {
		result.Reason = err.Error()
	}
	return result
}

// NewCheckCmd returns the check command: validate the directory chain of
// the given paths.
func NewCheckCmd(verbose *bool) *cobra.Command {
	var configPath string

	checkCmd := &cobra.Command{
		Use:   "check <path>...",
		Short: "Check whether each path's directory chain is safe to trust",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)
			if elevated, err := IsElevatedFunc(); err == nil && elevated {
				log.Debug("running elevated; sudo relaxation may apply to ownership checks")
			}

			vfs := targetFs()
			cfg, err := config.Load(vfs, configPath)
			if err != nil {
				return err
			}

			insecure := 0
			for _, path := range args {
				res := CheckPath(vfs, path, cfg.SymlinkDepth)
				if res.Secure {
					fmt.Fprintf(cmd.OutOrStdout(), "SECURE   %s\n", res.Path)
					continue
				}
				insecure++
				if res.Dir != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "INSECURE %s (%s: %s)\n", res.Path, res.Dir, res.Reason)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "INSECURE %s (%s)\n", res.Path, res.Reason)
				}
			}
			if insecure > 0 {
				return fmt.Errorf("%d of %d paths insecure", insecure, len(args))
			}
			return nil
		},
	}
	checkCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a securefile config file")
	return checkCmd
}
