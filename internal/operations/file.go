package operations

import (
	"fmt"
	"os"
)

// fileInput bundles an opened file with the fields Run needs.
type fileInput struct {
	file *os.File
	name string
	size int64
}

func (f *fileInput) Close() error { return f.file.Close() }

func openReaderAt(path string) (*fileInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &fileInput{file: f, name: info.Name(), size: info.Size()}, nil
}
