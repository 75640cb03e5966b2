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

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/storageguard/securefile/securefile"
)

// DeletePolicyIds maps delete policies to their flag spellings.
var DeletePolicyIds = map[securefile.DeletePolicy][]string{
	securefile.DeleteFailIfOpen:   {"fail"},
	securefile.DeleteUnlinkIfOpen: {"unlink"},
}

// NewRmCmd returns the rm command: delete files by name, honoring the
// while-open policy.
func NewRmCmd(verbose *bool) *cobra.Command {
	policy := securefile.DeleteFailIfOpen
	var force bool

	rmCmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete files, refusing or unlinking open ones per policy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)
			vfs := targetFs()
			if !force {
				ok, err := ConfirmPrompt(fmt.Sprintf("Delete %d file(s)? [y/N]: ", len(args)))
				if err != nil {
					return err
				}
				if !ok {
					log.Info("aborted")
					return nil
				}
			}
			for _, path := range args {
				if err := securefile.DeleteByName(vfs, path, policy); err != nil {
					return err
				}
				log.WithField("path", path).Debug("deleted")
			}
			return nil
		},
	}
	rmCmd.Flags().Var(
		enumflag.New(&policy, "policy", DeletePolicyIds, enumflag.EnumCaseInsensitive),
		"if-open",
		"behavior for open files: 'fail' or 'unlink'")
	rmCmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without confirmation")
	return rmCmd
}
