// Package local stores uploaded files in a directory on the host filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dtroode/signvault/internal/model"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// ErrInvalidName is returned for names that are not plain file names.
var ErrInvalidName = errors.New("storage name must be a plain file name")

var _ model.Storage = (*Directory)(nil)

// Directory is a model.Storage rooted at a single upload directory.
type Directory struct {
	fs afero.Fs
}

// NewDirectory creates the upload directory if needed and confines all access to it.
func NewDirectory(dir string) (*Directory, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return NewWithFs(afero.NewBasePathFs(osFs, dir)), nil
}

// NewWithFs wraps an existing filesystem. Tests pass afero.NewMemMapFs().
func NewWithFs(fsys afero.Fs) *Directory {
	return &Directory{fs: fsys}
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Write stores the content under name. The file is written to a temporary
// sibling and renamed into place, so readers never observe a partial file.
func (d *Directory) Write(ctx context.Context, name string, reader io.Reader) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := afero.TempFile(d.fs, ".", "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := d.fs.Chmod(tmpName, filePerm); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := d.fs.Rename(tmpName, name); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// Read opens the file stored under name.
func (d *Directory) Read(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := d.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrFileNotFound, name)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Exists reports whether a regular file is stored under name.
func (d *Directory) Exists(ctx context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := d.fs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}
