package logsource

import (
	"context"
	"fmt"
	"os"
)

// FileSource reads an access-log file from start to end. Lines is closed
// at end of file, which ends the run.
type FileSource struct {
	*readerSource
	path string
}

// NewFileSource opens path and starts streaming its lines.
func NewFileSource(ctx context.Context, path string, conf ...Config) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open access log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat access log: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("access log %s is a directory", path)
	}
	return &FileSource{
		readerSource: newReaderSource(ctx, "file", f, resolveConfig(conf), func() { _ = f.Close() }),
		path:         path,
	}, nil
}

// Path returns the file being read.
func (s *FileSource) Path() string { return s.path }
