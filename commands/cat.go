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

	"github.com/spf13/cobra"

	"github.com/storageguard/securefile/commands/config"
	"github.com/storageguard/securefile/securefile"
)

const copyBufSize = 32 * 1024

// NewCatCmd returns the cat command: read a file through a secure session
// and write it to stdout.
func NewCatCmd(verbose *bool) *cobra.Command {
	var configPath string

	catCmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Read a file after validating its directory chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)
			vfs := targetFs()

			cfg, err := config.Load(vfs, configPath)
			if err != nil {
				return err
			}

			opts := []securefile.OpenOption{
				securefile.WithValidator(newChainValidator(vfs, cfg.SymlinkDepth)),
			}
			if exts := cfg.Extensions(); len(exts) > 0 {
				opts = append(opts, securefile.WithAllowedExtensions(exts...))
			}

			f, err := securefile.Open(vfs, args[0], "rb", opts...)
			if err != nil {
				return err
			}
			defer f.Close()
			log.WithField("path", f.Path()).WithField("size", f.Size()).Debug("opened")

			buf := make([]byte, copyBufSize)
			out := cmd.OutOrStdout()
			for {
				n, err := f.Read(buf, 1, copyBufSize)
				if n > 0 {
					if _, werr := out.Write(buf[:n]); werr != nil {
						return werr
					}
				}
				if errors.Is(err, securefile.ErrEndOfFile) {
					return nil
				}
				if err != nil {
					return err
				}
			}
		},
	}
	catCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a securefile config file")
	return catCmd
}
