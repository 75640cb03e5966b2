//go:build windows
// +build windows

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
	"unsafe"

	"github.com/spf13/afero"
	"golang.org/x/sys/windows"
)

// windowsAttributeProbe implements AttributeProbe with Win32 handle APIs.
// Ownership and DACL are captured as an SDDL string in the result; the
// POSIX uid/gid fields stay zero.
type windowsAttributeProbe struct {
	Fs afero.Fs
}

// NewAttributeProbe returns the AttributeProbe for this platform. A nil fs
// defaults to the OS filesystem.
func NewAttributeProbe(fsys afero.Fs) AttributeProbe {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &windowsAttributeProbe{Fs: fsys}
}

// FILE_ID_INFO (FileIdInfo class), Vista+. The 128-bit id is stable across
// volumes that support it (ReFS); NTFS reports the 64-bit index extended.
type fileIDInfo struct {
	VolumeSerialNumber uint64
	FileID             [16]byte
}

func (p *windowsAttributeProbe) ByName(path string) (*FileAttributes, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrBadParameter)
	}
	pathp, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}
	// FILE_FLAG_OPEN_REPARSE_POINT gives lstat semantics: a final symlink
	// or junction is probed itself, not followed.
	h, err := windows.CreateFile(
		pathp,
		windows.READ_CONTROL|windows.FILE_READ_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %v", ErrFailure, path, err)
	}
	defer windows.CloseHandle(h)
	return attributesFromHandle(h, path)
}

func (p *windowsAttributeProbe) ByFile(f afero.File) (*FileAttributes, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil file", ErrBadParameter)
	}
	osf, ok := f.(*os.File)
	if !ok {
		return p.ByName(f.Name())
	}
	return attributesFromHandle(windows.Handle(osf.Fd()), f.Name())
}

func (p *windowsAttributeProbe) UniqueID(f afero.File) (*FileUniqueID, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil file", ErrBadParameter)
	}
	osf, ok := f.(*os.File)
	if !ok {
		attrs, err := p.ByName(f.Name())
		if err != nil {
			return nil, err
		}
		return uniqueIDFromAttributes(attrs), nil
	}
	return uniqueIDFromHandle(windows.Handle(osf.Fd()), f.Name())
}

func uniqueIDFromHandle(h windows.Handle, path string) (*FileUniqueID, error) {
	var idInfo fileIDInfo
	err := windows.GetFileInformationByHandleEx(
		h,
		windows.FileIdInfo,
		(*byte)(unsafe.Pointer(&idInfo)),
		uint32(unsafe.Sizeof(idInfo)),
	)
	if err == nil {
		return &FileUniqueID{VolumeSerial: idInfo.VolumeSerialNumber, FileID: idInfo.FileID}, nil
	}
	// Pre-Vista volumes: fall back to volume serial + 64-bit file index.
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		return nil, fmt.Errorf("%w: file id of %s: %v", ErrFailure, path, err)
	}
	id := &FileUniqueID{VolumeSerial: uint64(info.VolumeSerialNumber)}
	ino := uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow)
	for i := 0; i < 8; i++ {
		id.FileID[i] = byte(ino >> (8 * i))
	}
	return id, nil
}

func attributesFromHandle(h windows.Handle, path string) (*FileAttributes, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		return nil, fmt.Errorf("%w: probe %s: %v", ErrFailure, path, err)
	}
	sd, err := windows.GetSecurityInfo(
		h,
		windows.SE_FILE_OBJECT,
		windows.OWNER_SECURITY_INFORMATION|windows.GROUP_SECURITY_INFORMATION|windows.DACL_SECURITY_INFORMATION,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: security info of %s: %v", ErrFailure, path, err)
	}
	attrs := &FileAttributes{
		DeviceID:           uint64(info.VolumeSerialNumber),
		InodeNumber:        uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow),
		Type:               fileTypeFromWinAttributes(info.FileAttributes),
		Mode:               winMode(info.FileAttributes),
		Size:               int64(info.FileSizeHigh)<<32 | int64(info.FileSizeLow),
		LinkCount:          uint64(info.NumberOfLinks),
		AccessTimeMs:       info.LastAccessTime.Nanoseconds() / 1_000_000,
		ModifyTimeMs:       info.LastWriteTime.Nanoseconds() / 1_000_000,
		ChangeTimeMs:       info.LastWriteTime.Nanoseconds() / 1_000_000,
		WinAttributes:      info.FileAttributes,
		SecurityDescriptor: sd.String(),
	}
	return attrs, nil
}

func fileTypeFromWinAttributes(winAttrs uint32) FileType {
	switch {
	case winAttrs&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0:
		return TypeSymlink
	case winAttrs&windows.FILE_ATTRIBUTE_DIRECTORY != 0:
		return TypeDirectory
	default:
		return TypeRegular
	}
}

// winMode synthesizes POSIX-style permission bits the way os.Stat does:
// read-only files drop the write bits.
func winMode(winAttrs uint32) fs.FileMode {
	if winAttrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		return 0444
	}
	return 0666
}
