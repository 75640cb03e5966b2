// Package securefile opens files only after proving that every directory
// on the chain from the filesystem root to the file's parent is owned by a
// trusted principal and writable by no one else. It exists so storage
// tooling that writes logs, firmware images, and drive dumps cannot be
// redirected through an attacker-controlled directory or symlink.
//
// The walk algorithm is shared across platforms; ownership and writability
// policy is supplied per platform (uid/mode bits on POSIX, SID/DACL on
// Windows). Sessions returned by Open carry an attribute and identity
// snapshot of the opened handle so callers can detect a file swapped
// between validation and use.
package securefile
