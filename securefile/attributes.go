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
	"bytes"
	"io/fs"

	"github.com/spf13/afero"
)

// FileType is the platform-normalized type of a filesystem object.
type FileType int

const (
	TypeUnknown FileType = iota
	TypeRegular
	TypeDirectory
	TypeSymlink
	TypeCharDevice
	TypeBlockDevice
	TypeFIFO
	TypeSocket
)

func (t FileType) String() string {
	switch t {
	case TypeRegular:
		return "regular file"
	case TypeDirectory:
		return "directory"
	case TypeSymlink:
		return "symbolic link"
	case TypeCharDevice:
		return "character device"
	case TypeBlockDevice:
		return "block device"
	case TypeFIFO:
		return "fifo"
	case TypeSocket:
		return "socket"
	default:
		return "unknown"
	}
}

// FileAttributes is a snapshot of a file or directory's metadata at a point
// in time. On Windows the UserID/GroupID fields are zero and ownership is
// carried by SecurityDescriptor (SDDL form) instead.
type FileAttributes struct {
	// DeviceID identifies the volume (st_dev on POSIX, volume serial
	// number on Windows).
	DeviceID uint64
	// InodeNumber identifies the object on its volume (st_ino on POSIX,
	// 64-bit file index on Windows).
	InodeNumber uint64

	Type FileType
	// Mode holds the permission bits (POSIX). Synthesized on Windows.
	Mode fs.FileMode

	UserID  uint32
	GroupID uint32

	Size      int64
	LinkCount uint64

	// Timestamps are milliseconds since the Unix epoch.
	AccessTimeMs int64
	ModifyTimeMs int64
	ChangeTimeMs int64

	// WinAttributes holds the raw Windows file attribute flags (including
	// the reparse point bit). Zero on POSIX.
	WinAttributes uint32
	// SecurityDescriptor is the SDDL serialization of the object's owner,
	// group and DACL. Empty on POSIX.
	SecurityDescriptor string
}

// Equal reports whether a and b describe the same object state. Timestamps
// participate so that a swapped-and-restored file is still detected.
func (a *FileAttributes) Equal(b *FileAttributes) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.DeviceID == b.DeviceID &&
		a.InodeNumber == b.InodeNumber &&
		a.Type == b.Type &&
		a.Mode == b.Mode &&
		a.UserID == b.UserID &&
		a.GroupID == b.GroupID &&
		a.Size == b.Size &&
		a.LinkCount == b.LinkCount &&
		a.ModifyTimeMs == b.ModifyTimeMs &&
		a.ChangeTimeMs == b.ChangeTimeMs &&
		a.WinAttributes == b.WinAttributes &&
		a.SecurityDescriptor == b.SecurityDescriptor
}

// FileUniqueID is the minimal identity tuple used to confirm a reopened file
// is the same object that was previously validated. On POSIX it is the
// device+inode pair; on Windows the volume serial plus the 128-bit file id
// (or the 64-bit index zero-extended on older volumes).
type FileUniqueID struct {
	VolumeSerial uint64
	FileID       [16]byte
}

// Equal compares two identities byte-wise.
func (id *FileUniqueID) Equal(other *FileUniqueID) bool {
	if id == nil || other == nil {
		return id == other
	}
	return id.VolumeSerial == other.VolumeSerial &&
		bytes.Equal(id.FileID[:], other.FileID[:])
}

// uniqueIDFromAttributes derives an identity tuple from probed attributes
// when no open handle is available (device + inode, little-endian).
func uniqueIDFromAttributes(attrs *FileAttributes) *FileUniqueID {
	id := &FileUniqueID{VolumeSerial: attrs.DeviceID}
	ino := attrs.InodeNumber
	for i := 0; i < 8; i++ {
		id.FileID[i] = byte(ino >> (8 * i))
	}
	return id
}

// AttributeProbe retrieves file/directory metadata. Implementations are
// platform-specific; construct one with NewAttributeProbe. Every method
// either succeeds with a fully populated result or fails with a nil result,
// never a partial one.
type AttributeProbe interface {
	// ByName probes the named path without following a final symlink
	// (lstat semantics).
	ByName(path string) (*FileAttributes, error)
	// ByFile probes an already-open file.
	ByFile(f afero.File) (*FileAttributes, error)
	// UniqueID returns the identity tuple of an already-open file.
	UniqueID(f afero.File) (*FileUniqueID, error)
}
