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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/storageguard/securefile/securefile"
)

// DefaultFs can be set by tests to use an in-memory filesystem. If nil,
// the commands will use the real OS filesystem.
var DefaultFs afero.Fs

// ConfirmPrompt asks the user for confirmation before destructive actions.
// Tests can override this to avoid interactive prompts.
var ConfirmPrompt = func(prompt string) (bool, error) {
	fmt.Print(prompt)
	r := bufio.NewReader(os.Stdin)
	s, err := r.ReadString('\n')
	if err != nil {
		return false, err
	}
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "y" || s == "yes", nil
}

// IsElevatedFunc is a testable indirection for elevation checks. By default
// it points to the platform-specific IsElevated implementation but tests may
// override it.
var IsElevatedFunc = IsElevated

func targetFs() afero.Fs {
	if DefaultFs != nil {
		return DefaultFs
	}
	return afero.NewOsFs()
}

// newChainValidator builds a directory validator honoring the configured
// symlink recursion bound. A depth of zero keeps the library default.
func newChainValidator(vfs afero.Fs, depth int) *securefile.Validator {
	v := securefile.NewValidator(vfs, nil)
	if depth > 0 {
		v.MaxDepth = depth
	}
	return v
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: !term.IsTerminal(int(os.Stderr.Fd())),
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// NewRootCmd assembles the securefile CLI.
func NewRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "securefile",
		Short:        "Validate and operate on files behind a secure directory chain",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(NewCheckCmd(&verbose))
	rootCmd.AddCommand(NewAuditCmd(&verbose))
	rootCmd.AddCommand(NewCatCmd(&verbose))
	rootCmd.AddCommand(NewWriteCmd(&verbose))
	rootCmd.AddCommand(NewRmCmd(&verbose))
	return rootCmd
}
