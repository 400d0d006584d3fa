package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/muandane/opcachestat/internal/bytecode"
)

// File reads a status dump from disk. A missing file means no data.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Status(context.Context) (*bytecode.Status, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening status dump: %w", err)
	}
	defer file.Close()

	data, err := readStatus(file)
	if err != nil {
		return nil, fmt.Errorf("reading status dump: %w", err)
	}
	return bytecode.ParseStatus(data)
}
