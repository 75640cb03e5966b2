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
	"io"

	"github.com/spf13/cobra"

	"github.com/storageguard/securefile/commands/config"
	"github.com/storageguard/securefile/securefile"
)

// NewWriteCmd returns the write command: copy stdin into a file through a
// secure session.
func NewWriteCmd(verbose *bool) *cobra.Command {
	var configPath string
	var exclusive bool
	var appendTo bool

	writeCmd := &cobra.Command{
		Use:   "write <path>",
		Short: "Write stdin to a file after validating its directory chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)
			vfs := targetFs()

			cfg, err := config.Load(vfs, configPath)
			if err != nil {
				return err
			}

			mode := "wb"
			switch {
			case appendTo:
				mode = "ab"
			case exclusive:
				mode = "wbx"
			}

			opts := []securefile.OpenOption{
				securefile.WithValidator(newChainValidator(vfs, cfg.SymlinkDepth)),
			}
			if exts := cfg.Extensions(); len(exts) > 0 {
				opts = append(opts, securefile.WithAllowedExtensions(exts...))
			}

			f, err := securefile.Open(vfs, args[0], mode, opts...)
			if err != nil {
				return err
			}

			buf := make([]byte, copyBufSize)
			in := cmd.InOrStdin()
			var total int64
			for {
				n, rerr := in.Read(buf)
				if n > 0 {
					written, werr := f.Write(buf[:n], 1, n)
					total += int64(written)
					if werr != nil {
						f.Close()
						return werr
					}
				}
				if rerr == io.EOF {
					break
				}
				if rerr != nil {
					f.Close()
					return rerr
				}
			}
			if err := f.Flush(); err != nil {
				f.Close()
				return err
			}
			log.WithField("path", f.Path()).WithField("bytes", total).Debug("written")
			return f.Close()
		},
	}
	writeCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a securefile config file")
	writeCmd.Flags().BoolVarP(&exclusive, "exclusive", "x", false, "Fail if the file already exists")
	writeCmd.Flags().BoolVarP(&appendTo, "append", "a", false, "Append instead of truncating")
	return writeCmd
}
