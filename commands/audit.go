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
	"fmt"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/storageguard/securefile/commands/config"
)

// AuditResults aggregates the chain checks of an audit run.
type AuditResults struct {
	// Ok is true when no audited path was insecure.
	Ok      bool
	Results []CheckResult
}

// RunAudit validates every configured path. A non-zero depth overrides
// the symlink recursion bound.
func RunAudit(vfs afero.Fs, paths []string, depth int) AuditResults {
	results := AuditResults{Ok: true}
	for _, p := range paths {
		res := CheckPath(vfs, p, depth)
		if !res.Secure {
			results.Ok = false
		}
		results.Results = append(results.Results, res)
	}
	return results
}

// NewAuditCmd returns the audit command: validate every path listed in the
// configuration file.
func NewAuditCmd(verbose *bool) *cobra.Command {
	var configPath string

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Validate every path listed in the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)
			vfs := targetFs()

			cfg, err := config.Load(vfs, configPath)
			if err != nil {
				return err
			}
			if len(cfg.AuditPaths) == 0 {
				log.Warn("no audit_paths configured, nothing to do")
				return nil
			}

			results := RunAudit(vfs, cfg.AuditPaths, cfg.SymlinkDepth)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tSTATUS\tDETAIL")
			for _, r := range results.Results {
				status := "secure"
				detail := ""
				if !r.Secure {
					status = "insecure"
					detail = r.Reason
					if r.Dir != "" {
						detail = r.Dir + ": " + r.Reason
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, status, detail)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !results.Ok {
				return fmt.Errorf("audit found insecure paths")
			}
			return nil
		},
	}
	auditCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a securefile config file")
	return auditCmd
}
