package model

import (
	"context"
	"io"
)

// Storage holds uploaded file bytes keyed by file name.
type Storage interface {
	// Write stores the content under name, replacing any existing file.
	Write(ctx context.Context, name string, reader io.Reader) error
	// Read opens the stored file. A missing file yields ErrFileNotFound.
	Read(ctx context.Context, name string) (io.ReadCloser, error)
	Exists(ctx context.Context, name string) (bool, error)
}
