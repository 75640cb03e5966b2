//go:build !windows
// +build !windows

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
	"io/fs"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

// unixAttributeProbe implements AttributeProbe via stat/lstat/fstat.
type unixAttributeProbe struct {
	Fs afero.Fs
}

// NewAttributeProbe returns the AttributeProbe for this platform. A nil fs
// defaults to the OS filesystem.
func NewAttributeProbe(fsys afero.Fs) AttributeProbe {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &unixAttributeProbe{Fs: fsys}
}

func (p *unixAttributeProbe) ByName(path string) (*FileAttributes, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrBadParameter)
	}
	var (
		fi  os.FileInfo
		err error
	)
	if lst, ok := p.Fs.(afero.Lstater); ok {
		fi, _, err = lst.LstatIfPossible(path)
	} else {
		fi, err = p.Fs.Stat(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %v", ErrFailure, path, err)
	}
	return unixAttributesFromInfo(fi, path)
}

func (p *unixAttributeProbe) ByFile(f afero.File) (*FileAttributes, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil file", ErrBadParameter)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: probe open file %s: %v", ErrFailure, f.Name(), err)
	}
	return unixAttributesFromInfo(fi, f.Name())
}

func (p *unixAttributeProbe) UniqueID(f afero.File) (*FileUniqueID, error) {
	attrs, err := p.ByFile(f)
	if err != nil {
		return nil, err
	}
	// Filesystems that carry no syscall.Stat_t leave the identity fields
	// zero; a zero id would make every file compare equal.
	if attrs.DeviceID == 0 && attrs.InodeNumber == 0 {
		return nil, fmt.Errorf("%w: no stable identity for %s", ErrFailure, f.Name())
	}
	return uniqueIDFromAttributes(attrs), nil
}

func unixAttributesFromInfo(fi os.FileInfo, path string) (*FileAttributes, error) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		// Non-OS backed filesystem (e.g. in-memory). Populate what the
		// FileInfo alone can provide; identity fields stay zero.
		return &FileAttributes{
			Type:         fileTypeFromMode(fi.Mode()),
			Mode:         fi.Mode().Perm(),
			Size:         fi.Size(),
			LinkCount:    1,
			ModifyTimeMs: fi.ModTime().UnixMilli(),
		}, nil
	}
	atim, ctim := statTimes(st)
	return &FileAttributes{
		DeviceID:     uint64(st.Dev),
		InodeNumber:  uint64(st.Ino),
		Type:         fileTypeFromMode(fi.Mode()),
		Mode:         fi.Mode().Perm(),
		UserID:       uint32(st.Uid),
		GroupID:      uint32(st.Gid),
		Size:         fi.Size(),
		LinkCount:    uint64(st.Nlink),
		AccessTimeMs: timespecMs(atim),
		ModifyTimeMs: fi.ModTime().UnixMilli(),
		ChangeTimeMs: timespecMs(ctim),
	}, nil
}

func fileTypeFromMode(m fs.FileMode) FileType {
	switch {
	case m&fs.ModeSymlink != 0:
		return TypeSymlink
	case m.IsDir():
		return TypeDirectory
	case m&fs.ModeCharDevice != 0:
		return TypeCharDevice
	case m&fs.ModeDevice != 0:
		return TypeBlockDevice
	case m&fs.ModeNamedPipe != 0:
		return TypeFIFO
	case m&fs.ModeSocket != 0:
		return TypeSocket
	case m.IsRegular():
		return TypeRegular
	default:
		return TypeUnknown
	}
}

func timespecMs(ts syscall.Timespec) int64 {
	return int64(ts.Sec)*1000 + int64(ts.Nsec)/1_000_000
}
