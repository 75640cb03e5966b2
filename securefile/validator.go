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

package securefile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// MaxSymlinkDepth bounds recursive symlink resolution during chain
	// validation. Exceeding it is a hard failure, never a silent skip.
	MaxSymlinkDepth = 5

	// PathMax is the hard upper bound on canonical path length. It also
	// bounds symlink target length, on every platform.
	PathMax = 4096

	// maxChainDirs bounds the number of directories materialized for one
	// chain so a hostile path cannot drive the walk counter arbitrarily.
	maxChainDirs = 256
)

// OwnershipPolicy answers, per platform, whether a directory's owner is a
// trusted principal and whether its permissions grant write access to an
// untrusted principal. The second return value is a human-readable reason
// used in diagnostics when the answer is unfavorable.
type OwnershipPolicy interface {
	OwnerTrusted(attrs *FileAttributes, dir string) (bool, string)
	UntrustedWriteGrant(attrs *FileAttributes, dir string) (bool, string)
}

// Validator decides whether every directory on the chain from the
// filesystem root to a target is safe to trust: owned by a trusted
// principal and not writable by anyone else. A secure leaf reachable
// through an attacker-writable ancestor is not secure, so the whole chain
// is checked, root first.
//
// The walk logic is platform-neutral; Probe and Policy carry the
// platform-specific pieces and are injectable for tests.
type Validator struct {
	Fs       afero.Fs
	Probe    AttributeProbe
	Policy   OwnershipPolicy
	MaxDepth int
	// ReadLink resolves a symlink's target. When nil the filesystem's own
	// readlink is used; tests may inject one.
	ReadLink func(name string) (string, error)
}

// NewValidator returns a Validator for the given filesystem using the
// platform's attribute probe and ownership policy. A nil fs defaults to the
// OS filesystem; a nil oracle defaults to the shared process oracle.
func NewValidator(fsys afero.Fs, oracle *Oracle) *Validator {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if oracle == nil {
		oracle = DefaultOracle()
	}
	return &Validator{
		Fs:       fsys,
		Probe:    NewAttributeProbe(fsys),
		Policy:   newPlatformPolicy(oracle),
		MaxDepth: MaxSymlinkDepth,
	}
}

// Validate reports whether the full directory chain of path is secure. The
// path must already be absolute and canonical; Open does that for its
// callers. A nil return means secure; otherwise the error names the first
// offending directory and unwraps to ErrInsecurePath or
// ErrSymlinkDepthExceeded.
func (v *Validator) Validate(path string) error {
	return v.validate(path, 0)
}

func (v *Validator) validate(path string, depth int) error {
	// The depth bound is enforced before any OS call so a symlink loop
	// costs nothing past the limit.
	if depth > v.MaxDepth {
		return symlinkDepth(path)
	}
	if path == "" || !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, path)
	}
	if len(path) > PathMax {
		return fmt.Errorf("%w: path exceeds %d bytes", ErrInvalidPath, PathMax)
	}
	chain, err := ancestorChain(path)
	if err != nil {
		return err
	}
	for _, dir := range chain {
		if err := v.checkDir(dir, depth); err != nil {
			return err
		}
	}
	return nil
}

// checkDir validates a single chain level. Order matters: a symlink is
// handled by validating its resolved target instead, before any ownership
// or writability check on the link itself.
func (v *Validator) checkDir(dir string, depth int) error {
	attrs, err := v.Probe.ByName(dir)
	if err != nil {
		return insecureDir(dir, fmt.Sprintf("cannot probe attributes: %v", err))
	}
	if attrs.Type == TypeSymlink {
		target, err := v.readLink(dir)
		if err != nil {
			return insecureDir(dir, fmt.Sprintf("cannot resolve symlink: %v", err))
		}
		if target == "" || len(target) > PathMax {
			return insecureDir(dir, "symlink target length out of bounds")
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(dir), target)
		}
		// The link itself is not checked further; its resolved target
		// must independently pass the full policy.
		return v.validate(target, depth+1)
	}
	if attrs.Type != TypeDirectory {
		return insecureDir(dir, fmt.Sprintf("not a directory (%s)", attrs.Type))
	}
	if ok, reason := v.Policy.OwnerTrusted(attrs, dir); !ok {
		return insecureDir(dir, reason)
	}
	if granted, reason := v.Policy.UntrustedWriteGrant(attrs, dir); granted {
		return insecureDir(dir, reason)
	}
	return nil
}

func (v *Validator) readLink(dir string) (string, error) {
	if v.ReadLink != nil {
		return v.ReadLink(dir)
	}
	lr, ok := v.Fs.(afero.LinkReader)
	if !ok {
		return "", fmt.Errorf("filesystem does not support readlink")
	}
	return lr.ReadlinkIfPossible(dir)
}

// ancestorChain decomposes an absolute path into its full directory chain,
// root first: "/", "/a", "/a/b", ..., path. Windows paths start at the
// volume root ("C:\").
func ancestorChain(path string) ([]string, error) {
	clean := filepath.Clean(path)
	vol := filepath.VolumeName(clean)
	root := vol + string(filepath.Separator)
	chain := []string{root}
	rest := strings.TrimPrefix(clean, root)
	if rest == "" {
		return chain, nil
	}
	parts := strings.Split(rest, string(filepath.Separator))
	if len(parts) > maxChainDirs {
		return nil, fmt.Errorf("%w: more than %d path components", ErrInvalidPath, maxChainDirs)
	}
	cur := root
	for _, p := range parts {
		if p == "" {
			continue
		}
		cur = filepath.Join(cur, p)
		chain = append(chain, cur)
	}
	return chain, nil
}
