package feed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source opens named feed files from wherever the raw layer landed them.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// LocalSource reads feed files from a directory.
type LocalSource struct {
	Dir string
}

func (s *LocalSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	return f, nil
}
