// Package storage is the afero-backed filesystem the upload coordinator moves
// files with. Production code wraps afero.NewOsFs; tests use an in-memory fs.
package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"
)

// Disk implements the directory checks, moves and checksums the upload domain needs.
type Disk struct {
	fs afero.Fs
}

func NewDisk(fs afero.Fs) *Disk {
	return &Disk{fs: fs}
}

// Fs exposes the underlying filesystem, e.g. for spooling incoming parts.
func (d *Disk) Fs() afero.Fs {
	return d.fs
}

func (d *Disk) Exists(path string) bool {
	ok, err := afero.Exists(d.fs, path)
	return err == nil && ok
}

func (d *Disk) IsDirectory(path string) bool {
	ok, err := afero.IsDir(d.fs, path)
	return err == nil && ok
}

// IsWritable probes dir by creating and removing a temporary file.
func (d *Disk) IsWritable(dir string) bool {
	f, err := afero.TempFile(d.fs, dir, ".probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = d.fs.Remove(name)
	return true
}

// Move renames src to dst, copying across devices when rename is refused.
// An existing dst is replaced.
func (d *Disk) Move(src, dst string) error {
	if !d.Exists(src) {
		return fmt.Errorf("source %s: %w", src, os.ErrNotExist)
	}
	if err := d.fs.Rename(src, dst); err == nil {
		return nil
	}
	return d.copyMove(src, dst)
}

// copyMove writes dst through a temp file, syncs it and renames it into place,
// then removes src.
func (d *Disk) copyMove(src, dst string) error {
	in, err := d.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := d.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = d.fs.Remove(tmp)
		return fmt.Errorf("copy to %s: %w", tmp, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		_ = d.fs.Remove(tmp)
		return fmt.Errorf("fsync %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		_ = d.fs.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := d.fs.Rename(tmp, dst); err != nil {
		_ = d.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", dst, err)
	}
	if err := d.fs.Remove(src); err != nil {
		return fmt.Errorf("remove source %s: %w", src, err)
	}
	return nil
}

// Remove deletes path; a missing file is not an error.
func (d *Disk) Remove(path string) error {
	if err := d.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// MkdirAll creates dir and its parents.
func (d *Disk) MkdirAll(dir string) error {
	return d.fs.MkdirAll(filepath.Clean(dir), 0o755)
}

// Checksum returns the hex BLAKE2b-256 digest of the file at path.
func (d *Disk) Checksum(path string) (string, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
