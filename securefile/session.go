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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/afero"
)

// File is an open secure file session. It is only ever constructed by a
// successful Open, so holding a non-nil *File implies the full ancestor
// chain passed validation and the attribute snapshot below was taken from
// the open handle. A File must not be used from multiple goroutines
// without external serialization.
type File struct {
	fs     afero.Fs
	f      afero.File
	path   string // canonical absolute path
	name   string // filename component of path
	size   int64
	attrs  *FileAttributes
	id     *FileUniqueID
	closed bool
}

// Extension is one entry of an extension allow-list.
type Extension struct {
	// Ext is the extension to accept, with or without the leading dot.
	Ext string
	// CaseSensitive selects exact matching for this entry.
	CaseSensitive bool
}

type openOptions struct {
	extensions []Extension
	expAttrs   *FileAttributes
	expID      *FileUniqueID
	validator  *Validator
	probe      AttributeProbe
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithAllowedExtensions rejects the open unless the filename's extension
// matches one of the given entries.
func WithAllowedExtensions(exts ...Extension) OpenOption {
	return func(o *openOptions) { o.extensions = append(o.extensions, exts...) }
}

// WithExpectedAttributes makes Open fail with ErrAttributeMismatch unless
// the freshly probed attributes of the opened file equal attrs exactly.
func WithExpectedAttributes(attrs *FileAttributes) OpenOption {
	return func(o *openOptions) { o.expAttrs = attrs }
}

// WithExpectedUniqueID makes Open fail with ErrUniqueIDMismatch unless the
// freshly probed identity of the opened file equals id exactly.
func WithExpectedUniqueID(id *FileUniqueID) OpenOption {
	return func(o *openOptions) { o.expID = id }
}

// WithValidator overrides the directory validator used by Open.
func WithValidator(v *Validator) OpenOption {
	return func(o *openOptions) { o.validator = v }
}

// WithProbe overrides the attribute probe used to snapshot the opened file.
func WithProbe(p AttributeProbe) OpenOption {
	return func(o *openOptions) { o.probe = p }
}

// openPaths tracks canonical paths with a live session so DeleteByName can
// enforce its while-open policy.
var (
	openPathsMu sync.Mutex
	openPaths   = map[string]int{}
)

func trackOpen(path string) {
	openPathsMu.Lock()
	openPaths[path]++
	openPathsMu.Unlock()
}

func trackClose(path string) {
	openPathsMu.Lock()
	if openPaths[path] > 1 {
		openPaths[path]--
	} else {
		delete(openPaths, path)
	}
	openPathsMu.Unlock()
}

func isTracked(path string) bool {
	openPathsMu.Lock()
	defer openPathsMu.Unlock()
	return openPaths[path] > 0
}

// Open validates and opens the named file. The mode string must be one of
// the recognized fopen-style tokens ("rb", "w+", "ab", ...). The filename
// is canonicalized to an absolute path, its parent chain is validated with
// a Validator, and only then is the file opened. The attribute and
// identity snapshot of the open handle is stored in the session; when the
// caller supplied expected values they are compared first, refusing the
// open on mismatch so a file swapped between check and open is caught.
func Open(fsys afero.Fs, name string, mode string, opts ...OpenOption) (*File, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	flags, err := parseOpenMode(mode)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty filename", ErrInvalidPath)
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	abs, err := canonicalAbs(name)
	if err != nil {
		return nil, err
	}
	if err := checkExtension(abs, o.extensions); err != nil {
		return nil, err
	}
	validator := o.validator
	if validator == nil {
		validator = NewValidator(fsys, nil)
	}
	if err := validator.Validate(filepath.Dir(abs)); err != nil {
		return nil, err
	}

	f, err := fsys.OpenFile(abs, flags, 0600)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, fmt.Errorf("%w: %s", ErrInvalidFile, abs)
		case os.IsExist(err):
			return nil, fmt.Errorf("%w: %s", ErrFileExists, abs)
		default:
			return nil, fmt.Errorf("%w: open %s: %v", ErrFailure, abs, err)
		}
	}

	probe := o.probe
	if probe == nil {
		probe = NewAttributeProbe(fsys)
	}
	attrs, err := probe.ByFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: cannot snapshot attributes of %s: %v", ErrFailure, abs, err)
	}
	id, err := probe.UniqueID(f)
	if err != nil {
		if o.expID != nil {
			f.Close()
			return nil, fmt.Errorf("%w: cannot pin identity of %s: %v", ErrUniqueIDMismatch, abs, err)
		}
		// Without a stable identity the session proceeds unpinned; the
		// caller asked for no identity guarantee.
		id = nil
	}
	if o.expAttrs != nil && !attrs.Equal(o.expAttrs) {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrAttributeMismatch, abs)
	}
	if o.expID != nil && !id.Equal(o.expID) {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUniqueIDMismatch, abs)
	}

	trackOpen(abs)
	return &File{
		fs:    fsys,
		f:     f,
		path:  abs,
		name:  filepath.Base(abs),
		size:  attrs.Size,
		attrs: attrs,
		id:    id,
	}, nil
}

// canonicalAbs resolves name to an absolute path with the parent's
// symlinks evaluated, and enforces the PathMax bound.
func canonicalAbs(name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidPath, name, err)
	}
	dir, base := filepath.Dir(abs), filepath.Base(abs)
	// The file itself may not exist yet; resolving the parent is enough
	// for the validator to see the real chain.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		abs = filepath.Join(resolved, base)
	}
	if len(abs) > PathMax {
		return "", fmt.Errorf("%w: path exceeds %d bytes", ErrInvalidPath, PathMax)
	}
	return abs, nil
}

func checkExtension(path string, allowed []Extension) error {
	if len(allowed) == 0 {
		return nil
	}
	ext := filepath.Ext(path)
	for _, e := range allowed {
		want := e.Ext
		if want != "" && !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if e.CaseSensitive {
			if ext == want {
				return nil
			}
		} else if strings.EqualFold(ext, want) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrBadExtension, ext)
}

func (sf *File) valid() error {
	if sf == nil || sf.f == nil || sf.closed {
		return ErrInvalidSession
	}
	return nil
}

// Path returns the canonical absolute path of the file.
func (sf *File) Path() string {
	if sf == nil {
		return ""
	}
	return sf.path
}

// Name returns the filename component of the path.
func (sf *File) Name() string {
	if sf == nil {
		return ""
	}
	return sf.name
}

// Size returns the file size captured when the session was opened.
func (sf *File) Size() int64 {
	if sf == nil {
		return 0
	}
	return sf.size
}

// Attributes returns the attribute snapshot taken at open time.
func (sf *File) Attributes() *FileAttributes {
	if sf == nil {
		return nil
	}
	return sf.attrs
}

// UniqueID returns the identity snapshot taken at open time. It is nil
// when the underlying filesystem provides no stable identity.
func (sf *File) UniqueID() *FileUniqueID {
	if sf == nil {
		return nil
	}
	return sf.id
}

// Read reads up to elementSize*count bytes into buf, after validating that
// buf can hold them. End of file is reported as ErrEndOfFile together with
// the bytes read before it; that is not automatically an error for the
// caller. Any other short read reports ErrReadWrite.
func (sf *File) Read(buf []byte, elementSize, count int) (int, error) {
	if err := sf.valid(); err != nil {
		return 0, err
	}
	n, err := boundedLen(buf, elementSize, count)
	if err != nil {
		return 0, err
	}
	read, err := io.ReadFull(sf.f, buf[:n])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return read, ErrEndOfFile
		}
		return read, fmt.Errorf("%w: read %s: %v", ErrReadWrite, sf.path, err)
	}
	return read, nil
}

// Write writes elementSize*count bytes from buf, after validating that buf
// holds that many. A full volume is reported as ErrDiskFull; any other
// short write reports ErrReadWrite.
func (sf *File) Write(buf []byte, elementSize, count int) (int, error) {
	if err := sf.valid(); err != nil {
		return 0, err
	}
	n, err := boundedLen(buf, elementSize, count)
	if err != nil {
		return 0, err
	}
	written, err := sf.f.Write(buf[:n])
	if err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			return written, fmt.Errorf("%w: write %s", ErrDiskFull, sf.path)
		}
		return written, fmt.Errorf("%w: write %s: %v", ErrReadWrite, sf.path, err)
	}
	if written < n {
		return written, fmt.Errorf("%w: short write to %s", ErrReadWrite, sf.path)
	}
	return written, nil
}

func boundedLen(buf []byte, elementSize, count int) (int, error) {
	if buf == nil {
		return 0, fmt.Errorf("%w: nil buffer", ErrBadParameter)
	}
	if elementSize < 0 || count < 0 {
		return 0, fmt.Errorf("%w: negative element size or count", ErrBadParameter)
	}
	if elementSize != 0 && count > int(^uint(0)>>1)/elementSize {
		return 0, fmt.Errorf("%w: element size and count overflow", ErrBadParameter)
	}
	n := elementSize * count
	if n > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, n, len(buf))
	}
	return n, nil
}

// Seek sets the file position, like io.Seeker.
func (sf *File) Seek(offset int64, whence int) (int64, error) {
	if err := sf.valid(); err != nil {
		return 0, err
	}
	pos, err := sf.f.Seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrSeekFailure, sf.path, err)
	}
	return pos, nil
}

// Rewind resets the position to the start of the file.
func (sf *File) Rewind() error {
	_, err := sf.Seek(0, io.SeekStart)
	return err
}

// Tell returns the current file position.
func (sf *File) Tell() (int64, error) {
	return sf.Seek(0, io.SeekCurrent)
}

// GetPos returns the current position for a later SetPos.
func (sf *File) GetPos() (int64, error) {
	return sf.Tell()
}

// SetPos restores a position previously returned by Tell or GetPos.
func (sf *File) SetPos(pos int64) error {
	_, err := sf.Seek(pos, io.SeekStart)
	return err
}

// Flush forces buffered writes to stable storage.
func (sf *File) Flush() error {
	if err := sf.valid(); err != nil {
		return err
	}
	if err := sf.f.Sync(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFlushFailure, sf.path, err)
	}
	return nil
}

// Close closes the session. Flushing beforehand is the caller's
// responsibility. Owned snapshots are released regardless of the native
// close outcome; a failed native close reports ErrCloseFailure. Closing an
// already-closed or nil session is a defined no-op returning
// ErrInvalidSession.
func (sf *File) Close() error {
	if sf == nil || sf.closed || sf.f == nil {
		return ErrInvalidSession
	}
	sf.closed = true
	sf.attrs = nil
	sf.id = nil
	trackClose(sf.path)
	if err := sf.f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCloseFailure, sf.path, err)
	}
	return nil
}

// Remove deletes the file backing this still-open session. On POSIX this
// unlinks while open; on Windows deletion is best-effort and may be
// deferred until the handle closes.
func (sf *File) Remove() error {
	if err := sf.valid(); err != nil {
		return err
	}
	if err := sf.fs.Remove(sf.path); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrFailure, sf.path, err)
	}
	return nil
}

// DeletePolicy controls DeleteByName's behavior for files with a live
// session in this process.
type DeletePolicy int

const (
	// DeleteFailIfOpen refuses to delete a file that is open.
	DeleteFailIfOpen DeletePolicy = iota
	// DeleteUnlinkIfOpen deletes the name even while the file is open.
	DeleteUnlinkIfOpen
)

// DeleteByName deletes the named file after canonicalizing it, honoring
// policy for files with a live session.
func DeleteByName(fsys afero.Fs, name string, policy DeletePolicy) error {
	if name == "" {
		return fmt.Errorf("%w: empty filename", ErrInvalidPath)
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	abs, err := canonicalAbs(name)
	if err != nil {
		return err
	}
	if isTracked(abs) && policy == DeleteFailIfOpen {
		return fmt.Errorf("%w: %s", ErrRemoveWhileOpen, abs)
	}
	if err := fsys.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrInvalidFile, abs)
		}
		return fmt.Errorf("%w: remove %s: %v", ErrFailure, abs, err)
	}
	return nil
}
