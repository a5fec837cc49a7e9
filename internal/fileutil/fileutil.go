// Package fileutil provides filesystem helpers for document writes:
// atomic replacement and compressed backups.
package fileutil

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/lingtools/xliffd/core/errors"
)

// WriteAtomic writes data to path through a temporary file in the same
// directory followed by a rename, so readers never observe a partially
// written file. The temporary file is removed on every failure path.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewIO("write", path, err)
	}
	tmpName := tmp.Name()
	// No-op after a successful rename.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewIO("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewIO("sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewIO("close", path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return errors.NewIO("chmod", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.NewIO("rename", path, err)
	}
	return nil
}

// BackupXZ writes an xz-compressed copy of path next to it as
// path+".bak.xz", replacing any previous backup, and returns the backup
// path. A missing source file is not an error: there is nothing to back
// up, and the returned path is empty.
func BackupXZ(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.NewIO("backup", path, err)
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return "", errors.NewIO("backup", path, err)
	}
	if _, err := w.Write(data); err != nil {
		return "", errors.NewIO("backup", path, err)
	}
	if err := w.Close(); err != nil {
		return "", errors.NewIO("backup", path, err)
	}

	backupPath := path + ".bak.xz"
	if err := WriteAtomic(backupPath, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return backupPath, nil
}
