package dufsd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/WJQSERVER-STUDIO/go-utils/iox"
)

// Upload streams the request body into absPath, creating any missing parent
// directories first (spec.md §4.9). A failure to open the destination is
// reported as errForbidden; an I/O failure mid-copy is errInternal.
func Upload(absPath string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return errForbidden
	}
	f, err := os.OpenFile(absPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errForbidden
	}
	defer f.Close()
	if _, err := iox.Copy(f, body); err != nil {
		return errInternal
	}
	return nil
}

// UploadAllowed mirrors the zero-length-file quirk the original server
// preserves: a PUT that overwrites an existing, non-empty file requires
// allow_delete, but an existing zero-length file (or a missing path) is
// always replaceable under allow_upload alone (spec.md §9 Open Question b).
func UploadAllowed(allowUpload, allowDelete bool, existingSize int64, exists bool) bool {
	if !allowUpload {
		return false
	}
	if !exists {
		return true
	}
	if !allowDelete && exists && existingSize > 0 {
		return false
	}
	return true
}

// Delete removes absPath: rmdir -r for directories, unlink for files
// (spec.md §4.9).
func Delete(absPath string, isDir bool) error {
	if isDir {
		if err := os.RemoveAll(absPath); err != nil {
			return errInternal
		}
		return nil
	}
	if err := os.Remove(absPath); err != nil {
		return errInternal
	}
	return nil
}

// Mkcol creates a directory recursively (spec.md §4.8 MKCOL): 405 if the
// path already exists, otherwise 201.
func Mkcol(absPath string) error {
	if _, err := os.Stat(absPath); err == nil {
		return errAlreadyExists
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return errInternal
	}
	return nil
}

// CopyFile duplicates a regular file's contents (spec.md §4.8 COPY);
// directory sources are rejected by the caller before this is reached.
func CopyFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errInternal
	}
	defer src.Close()
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return errInternal
	}
	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errInternal
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return errInternal
	}
	return nil
}

// MoveFile renames a file (spec.md §4.8 MOVE); directory sources are
// rejected by the caller before this is reached.
func MoveFile(srcPath, dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return errInternal
	}
	if err := os.Rename(srcPath, dstPath); err != nil {
		return errInternal
	}
	return nil
}
